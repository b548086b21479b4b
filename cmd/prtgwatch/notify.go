package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sznuper/prtgwatch/internal/notify"
	"github.com/sznuper/prtgwatch/internal/runner"
)

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Send a test notification through every configured service",
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

		services := runner.BuildServices(cfg)
		if len(services) == 0 {
			return fmt.Errorf("no notification service configured (set smtp.host or services)")
		}
		n := notify.NewDispatcher(services, cfg.Notify.Body, dryRun, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		msg := notify.Message{
			Kind:   notify.KindTest,
			Target: "prtgwatch",
			Level:  "ok",
			Detail: "test notification, no action required",
			MapURL: strings.TrimRight(cfg.PRTG.BaseURL, "/"),
			Time:   time.Now(),
		}
		notified, err := n.Notify(ctx, msg)
		if len(notified) > 0 {
			label := "Notified"
			if dryRun {
				label = "Would notify"
			}
			fmt.Printf("%s %s: %s\n", styleOK.Render("✓"), label, strings.Join(notified, ", "))
		}
		return err
	},
}

func init() {
	notifyTestCmd.Flags().Bool("dry-run", false, "validate service URLs without sending")
	rootCmd.AddCommand(notifyTestCmd)
}
