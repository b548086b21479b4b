package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sznuper/prtgwatch/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "prtgwatch",
	Short: "PRTG map status poller with email alerts",
	Long: "prtgwatch periodically inspects PRTG map pages, classifies each map as ok, warning or error, " +
		"and sends one email per incident when a map enters error.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	registerOptionFlags(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the config file and overlays the option flags before
// validation.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Resolve(cfgFile, func(cfg *config.Config) {
		applyOptionFlags(cmd, cfg)
	})
}

// setupLogger builds the process logger. Without an explicit format it writes
// text to a terminal and JSON everywhere else.
func setupLogger(opts config.Options) (*slog.Logger, error) {
	var level slog.Level
	if opts.LogLevel != "" {
		if err := level.UnmarshalText([]byte(opts.LogLevel)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}

	format := opts.LogFormat
	if format == "" {
		format = "json"
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			format = "text"
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)), nil
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts)), nil
}
