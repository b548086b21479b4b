package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/sznuper/prtgwatch/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long:  "Loads the config file, applies defaults and reports every problem found. With --watch the file is re-validated on every change.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")

		path, err := config.FindConfig(cfgFile)
		if err != nil {
			return err
		}

		ok := reportValidation(cmd, path)
		if !watch {
			if !ok {
				return fmt.Errorf("%s is not valid", path)
			}
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchConfig(ctx, cmd, path)
	},
}

func init() {
	validateCmd.Flags().BoolP("watch", "w", false, "re-validate whenever the config file changes")
	rootCmd.AddCommand(validateCmd)
}

func reportValidation(cmd *cobra.Command, path string) bool {
	cfg, err := config.Resolve(path, func(cfg *config.Config) {
		applyOptionFlags(cmd, cfg)
	})
	if err != nil {
		fmt.Printf("%s %s\n", styleError.Render("✗"), err)
		return false
	}
	fmt.Printf("%s %s: %d servers, %d services\n", styleOK.Render("✓"), path, len(cfg.Servers), len(cfg.Services))
	return true
}

// watchConfig watches the directory holding path, since editors often replace
// the file rather than write to it.
func watchConfig(ctx context.Context, cmd *cobra.Command, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	fmt.Println(styleDim.Render("watching " + abs + " for changes"))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			reportValidation(cmd, abs)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Printf("%s %s\n", styleError.Render("watch error:"), err)
		}
	}
}
