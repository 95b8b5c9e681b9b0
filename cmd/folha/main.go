// Command folha is the command line companion of the chat API: ask questions
// against the local dataset, import CSV files into a database, and inspect
// the sessions of a running server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "folha",
		Short:         "folha - payroll question answering",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(sessionsCmd())

	return rootCmd
}
