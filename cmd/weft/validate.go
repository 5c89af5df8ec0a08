package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow.yaml>",
	Short: "Check a workflow graph for consistency",
	Long: `Builds the workflow definition and reports every structural problem at
once: missing start node, dangling edges and unreachable nodes.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, path string) error {
	def, err := loadDefinition(path)
	if err != nil {
		return err
	}

	engine, err := newEngine(cmd)
	if err != nil {
		return err
	}

	findings, err := engine.ValidateDefinition(def)
	if err != nil {
		return err
	}
	if len(findings) > 0 {
		for _, finding := range findings {
			fmt.Printf("  - %s\n", finding)
		}
		return fmt.Errorf("%d finding(s)", len(findings))
	}

	fmt.Println("Graph is valid! ✅")
	return nil
}
