package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scrypster/folha/internal/bootstrap"
	"github.com/scrypster/folha/internal/config"
	"github.com/scrypster/folha/pkg/types"
)

func askCmd() *cobra.Command {
	var (
		sessionFile string
		source      string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question against the configured dataset",
		Long: `Answer one question in-process, without a running server.

With --session the conversation is read from and written back to a JSON
file, so follow-up questions keep their context:

  folha ask --session s.json "Quanto a Ana recebeu em maio/2025?"
  folha ask --session s.json "e em junho?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if source != "" {
				cfg.Data.Source = source
			}

			rt, err := bootstrap.NewRuntime(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			sessionID := ""
			if sessionFile != "" {
				data, err := os.ReadFile(sessionFile)
				switch {
				case errors.Is(err, fs.ErrNotExist):
				case err != nil:
					return fmt.Errorf("read session: %w", err)
				default:
					if err := rt.Memory.Import(data); err != nil {
						return err
					}
					var saved types.Session
					if err := json.Unmarshal(data, &saved); err == nil {
						sessionID = saved.ID
					}
				}
			}

			resp := rt.Agent.ProcessQuery(cmd.Context(), strings.Join(args, " "), sessionID)

			if sessionFile != "" {
				data, err := rt.Memory.Export(resp.SessionID)
				if err != nil {
					return err
				}
				if err := os.WriteFile(sessionFile, data, 0o600); err != nil {
					return fmt.Errorf("write session: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			fmt.Fprintln(out, resp.Response)
			fmt.Fprintf(out, "\n[%s] sessão %s\n", resp.ToolUsed, resp.SessionID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionFile, "session", "s", "", "session file to resume and update")
	cmd.Flags().StringVar(&source, "data", "", "dataset source (overrides FOLHA_DATA_SOURCE)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the full response as JSON")

	return cmd
}
