package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leo/herd/internal/audit"
	"github.com/leo/herd/internal/config"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <pane-id>",
	Short: "Print the nudge audit log for a pane, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		auditLogPath := ""
		settingsPath, err := resolveConfigPath()
		if err == nil {
			if cfg, cfgErr := config.LoadFromPath(settingsPath); cfgErr == nil {
				auditLogPath = cfg.AuditLogPath
			}
		}
		if auditLogPath == "" {
			auditLogPath, err = config.DefaultAuditLogPath()
			if err != nil {
				return fmt.Errorf("failed resolving audit log path: %w", err)
			}
		}

		log, err := audit.Open(auditLogPath)
		if err != nil {
			return fmt.Errorf("failed opening audit log %s: %w", auditLogPath, err)
		}
		defer log.Close()

		entries, err := log.RecentForPane(args[0], historyLimit)
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum number of entries to print")
	rootCmd.AddCommand(historyCmd)
}
