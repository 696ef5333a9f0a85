package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the herd version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("herd", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
