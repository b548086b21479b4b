package main

import (
	"reflect"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sznuper/prtgwatch/internal/config"
)

// registerOptionFlags adds a persistent flag per config.Options field, named
// after its yaml tag in kebab-case (log_level becomes --log-level).
func registerOptionFlags(cmd *cobra.Command) {
	t := reflect.TypeOf(config.Options{})
	for i := range t.NumField() {
		key := t.Field(i).Tag.Get("yaml")
		cmd.PersistentFlags().String(optionFlag(key), "", "override options."+key)
	}
}

// applyOptionFlags copies the option flags the user actually set onto cfg.
func applyOptionFlags(cmd *cobra.Command, cfg *config.Config) {
	t := reflect.TypeOf(cfg.Options)
	v := reflect.ValueOf(&cfg.Options).Elem()
	for i := range t.NumField() {
		name := optionFlag(t.Field(i).Tag.Get("yaml"))
		if !cmd.Flags().Changed(name) {
			continue
		}
		val, _ := cmd.Flags().GetString(name)
		v.Field(i).SetString(val)
	}
}

func optionFlag(yamlTag string) string {
	return strings.ReplaceAll(yamlTag, "_", "-")
}
