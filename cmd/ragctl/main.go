// Command ragctl manages the document store and issues access tokens.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("ragctl failed.", "reason", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ragctl",
		Short:         "Manage the ragchat document store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "config file (overrides CONFIG_FILE)")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cfgFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		if cfgFile != "" {
			if err := os.Setenv("CONFIG_FILE", cfgFile); err != nil {
				return fmt.Errorf("set CONFIG_FILE: %w", err)
			}
		}
		return nil
	}

	root.AddCommand(
		newIngestCmd(),
		newSearchCmd(),
		newDocumentsCmd(),
		newDeleteCmd(),
		newTokenCmd(),
	)
	return root
}
