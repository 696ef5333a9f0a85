package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFlag string
	jsonFlag   bool
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "herd",
	Short: "Watch tmux panes running coding agents and nudge the ones that stall",
	Long: `herd watches the tmux panes on your server, classifies each pane
running a coding agent as running, waiting, finished, or stalled, and
can automatically nudge panes that have been herded into following up
on themselves when they go quiet.

It must be run from inside a tmux session.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "settings file path (default ~/.config/herd/settings.json)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output machine-readable JSON where supported")
}

func requireTmux() error {
	if os.Getenv("TMUX") == "" {
		return fmt.Errorf("herd must be run inside a tmux session")
	}
	return nil
}
