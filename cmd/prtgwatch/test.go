package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sznuper/prtgwatch/internal/alert"
	"github.com/sznuper/prtgwatch/internal/runner"
	"github.com/sznuper/prtgwatch/internal/status"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run one polling cycle and print the outcome per map",
	Long:  "Inspects every configured map once, prints what was found and what would be notified, and exits 1 if any map could not be processed.",
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

		hasError := false
		for _, res := range r.RunOnce(ctx) {
			printResult(res)
			if res.Err != nil {
				hasError = true
			}
		}

		if hasError {
			r.Close()
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	testCmd.Flags().Bool("dry-run", false, "validate notifications instead of sending them")
	rootCmd.AddCommand(testCmd)
}

var (
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	styleDim     = lipgloss.NewStyle().Faint(true)
)

func levelStyle(l status.Level) lipgloss.Style {
	switch l {
	case status.OK:
		return styleOK
	case status.Warning:
		return styleWarning
	default:
		return styleError
	}
}

func printResult(r runner.Result) {
	header := fmt.Sprintf("%s (map %d)", r.Target, r.MapID)

	if r.Err != nil && !r.Updated() {
		fmt.Printf("%s %s\n", styleError.Render("✗"), header)
		fmt.Printf("  Error (%s): %s\n", r.ErrStage, r.Err)
		if r.Attempts > 1 {
			fmt.Printf("  Attempts: %d\n", r.Attempts)
		}
		return
	}

	fmt.Printf("%s %s\n", levelStyle(r.Status.Overall).Render("●"), header)
	fmt.Printf("  Status: %s (%s)\n", levelStyle(r.Status.Overall).Render(r.Status.Overall.String()), r.Status.Detail())
	if len(r.Status.Unmapped) > 0 {
		fmt.Printf("  Unmapped markers: %s\n", r.Status.Unmapped)
	}
	fmt.Printf("  Action: %s\n", r.Action)

	if len(r.Notified) > 0 {
		label := "Notified"
		if r.DryRun {
			label = "Would notify"
		}
		fmt.Printf("  %s: %s\n", label, strings.Join(r.Notified, ", "))
	} else if r.Action == alert.SendAlert || r.Action == alert.SendRecovery {
		fmt.Printf("  %s\n", styleDim.Render("no notification service accepted the message"))
	}
	if r.Err != nil {
		fmt.Printf("  %s %s\n", styleError.Render("Error (notify):"), r.Err)
	}
	fmt.Printf("  %s\n", styleDim.Render(r.URL+" in "+r.Duration.Round(time.Millisecond).String()))
}
