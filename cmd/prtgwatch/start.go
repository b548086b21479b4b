package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sznuper/prtgwatch/internal/runner"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Poll the configured maps until interrupted",
	Long:  "Runs a cycle immediately and then one per poll interval or schedule. SIGINT and SIGTERM stop cleanly after the current step.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := setupLogger(cfg.Options)
		if err != nil {
			return err
		}

		r, err := runner.New(cfg, logger, runner.WithDryRun(dryRun))
		if err != nil {
			return err
		}
		defer r.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return r.Run(ctx)
	},
}

func init() {
	startCmd.Flags().Bool("dry-run", false, "decide and log as usual but only validate notifications")
	rootCmd.AddCommand(startCmd)
}
