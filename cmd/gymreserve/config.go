package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := make(map[string]interface{})
		if logLevel != "" {
			flags["log-level"] = logLevel
		}
		if dbPath != "" {
			flags["db-path"] = dbPath
		}

		cfg, err := config.Load(configFile, flags)
		if err != nil {
			return err
		}

		// Never print account secrets.
		redacted := *cfg
		if redacted.Accounts.DefaultOpenID != "" {
			redacted.Accounts.DefaultOpenID = "<redacted>"
		}
		redacted.Accounts.OpenIDs = nil

		data, err := yaml.Marshal(&redacted)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "./gymreserve.yaml"
		if len(args) > 0 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}

		if err := config.DefaultConfig().SaveToFile(path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
