package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/lostfound-matcher/internal/bootstrap"
	"github.com/kirillkom/lostfound-matcher/internal/config"
	"github.com/kirillkom/lostfound-matcher/internal/observability/logging"
)

var app *bootstrap.App

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "matchctl",
		Short:         "Operate the lost and found matching engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logLevel := "warn"
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				logLevel = cfg.LogLevel
			}
			slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "matchctl", logLevel))

			app, err = bootstrap.New(cmd.Context(), cfg, nil)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if app != nil {
				app.Close()
			}
		},
	}
	root.PersistentFlags().Bool("verbose", false, "log at the configured LOG_LEVEL")

	root.AddCommand(newScoreCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newDiscoverCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newReviewCmd())
	return root
}

func printJSON(cmd *cobra.Command, payload any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
