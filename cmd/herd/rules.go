package main

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/leo/herd/internal/config"
	"github.com/leo/herd/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate herd mode rule files",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Parse a rule file and report its rule count, or any error",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ruleFile, err := rules.LoadRuleFile(args[0])
		if err != nil {
			return err
		}
		enabled := 0
		for _, rule := range ruleFile.Rules {
			if rule.Regex != nil {
				if _, err := regexp.Compile(rule.Regex.Pattern); err != nil {
					return fmt.Errorf("rule %s: invalid regex pattern: %w", rule.Regex.ID, err)
				}
			}
			switch {
			case rule.Regex != nil && rule.Regex.Enabled:
				enabled++
			case rule.Llm != nil && rule.Llm.Enabled:
				enabled++
			}
		}
		fmt.Printf("%s: version=%d rules=%d enabled=%d\n", args[0], ruleFile.Version, len(ruleFile.Rules), enabled)
		return nil
	},
}

var rulesInitCmd = &cobra.Command{
	Use:   "init <mode-name> <path>",
	Short: "Write the default rule file for a new herd mode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := config.DefaultRuleFileContentFor(args[0])
		if err != nil {
			return err
		}
		if err := writeFile(args[1], content); err != nil {
			return fmt.Errorf("failed writing rule file %s: %w", args[1], err)
		}
		fmt.Printf("wrote default rules for mode %q to %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesInitCmd)
	rootCmd.AddCommand(rulesCmd)
}
