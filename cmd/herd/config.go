package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leo/herd/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect herd's settings",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the resolved settings file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved settings, with defaults applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		cfg, err := config.LoadFromPath(path)
		if err != nil {
			return fmt.Errorf("failed loading settings from %s: %w", path, err)
		}
		return printJSON(cfg)
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func resolveConfigPath() (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	return config.DefaultConfigPath()
}
