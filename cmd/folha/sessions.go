package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func sessionsCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage the sessions of a running server",
	}
	defaultURL := os.Getenv("FOLHA_SERVER_URL")
	if defaultURL == "" {
		defaultURL = "http://127.0.0.1:8080"
	}
	cmd.PersistentFlags().StringVar(&serverURL, "server", defaultURL, "base URL of the folha server")

	call := func(cmd *cobra.Command, method, path string) error {
		body, err := apiCall(cmd.Context(), method, strings.TrimRight(serverURL, "/")+path)
		if err != nil {
			return err
		}
		var pretty bytes.Buffer
		if json.Indent(&pretty, body, "", "  ") != nil {
			pretty.Reset()
			pretty.Write(body)
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(pretty.String()))
		return nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show session statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, http.MethodGet, "/sessions/stats")
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "context [session_id]",
		Short: "Show the context summary of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, http.MethodGet, "/sessions/"+url.PathEscape(args[0])+"/context")
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Evict expired and overflowing sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, http.MethodPost, "/sessions/cleanup")
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete [session_id]",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, http.MethodDelete, "/sessions/"+url.PathEscape(args[0]))
		},
	})

	return cmd
}

var apiClient = &http.Client{Timeout: 10 * time.Second}

// apiCall performs one request and returns the body of a 2xx response.
func apiCall(ctx context.Context, method, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := apiClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
