package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"

	"github.com/sznuper/prtgwatch/internal/config"
)

func TestOptionFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x", Run: func(*cobra.Command, []string) {}}
	registerOptionFlags(cmd)

	if cmd.PersistentFlags().Lookup("log-level") == nil || cmd.PersistentFlags().Lookup("log-format") == nil {
		t.Fatal("expected --log-level and --log-format flags")
	}

	if err := cmd.ParseFlags([]string{"--log-level", "debug"}); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{Options: config.Options{LogLevel: "info", LogFormat: "text"}}
	applyOptionFlags(cmd, cfg)

	if cfg.Options.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.Options.LogLevel)
	}
	if cfg.Options.LogFormat != "text" {
		t.Errorf("log_format = %q, want unset flag to leave text", cfg.Options.LogFormat)
	}
}

func TestSetupLogger(t *testing.T) {
	logger, err := setupLogger(config.Options{LogLevel: "warn", LogFormat: "json"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := logger.Handler().(*slog.JSONHandler); !ok {
		t.Errorf("handler = %T, want JSON", logger.Handler())
	}
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}

	if _, err := setupLogger(config.Options{LogLevel: "loud"}); err == nil {
		t.Error("expected error for an unknown level")
	}
}
