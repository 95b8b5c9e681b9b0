package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scrypster/folha/internal/bootstrap"
)

func importCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "import [csv]",
		Short: "Import a payroll CSV into a SQLite file or PostgreSQL database",
		Long: `Validate a payroll CSV and upsert its rows, keyed on employee and
competency, into the target dataset. Point FOLHA_DATA_SOURCE at the target
afterwards to serve it.

Examples:
  folha import data/payroll.csv --to data/payroll.db
  folha import data/payroll.csv --to postgres://folha@localhost/folha`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := bootstrap.ImportCSV(cmd.Context(), args[0], target)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records into %s\n", n, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "to", "data/payroll.db", "target SQLite file or postgres:// DSN")

	return cmd
}
