package cli

import (
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the loaded rules and workflows",
	RunE:  runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	rules := a.Rules.Rules()
	if len(rules) == 0 {
		cmd.Println("No rules configured.")
	} else {
		cmd.Println("Rules (in evaluation order):")
		for i := range rules {
			r := &rules[i]
			cmd.Printf("  %s: %s -> %s", r.Name, r.Field, r.WorkflowName)
			if r.Stop {
				cmd.Print(" [stop]")
			}
			cmd.Println()
			if r.Description != "" {
				cmd.Printf("      %s\n", r.Description)
			}
		}
	}

	cmd.Println()
	cmd.Printf("Workflows: %v\n", a.Workflows)
	cmd.Printf("Tracked fields: %v\n", a.Config.TrackedFields)
	return nil
}
