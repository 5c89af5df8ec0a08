package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weftworks/weft"
	"github.com/weftworks/weft/internal/presentation/tui"
	"github.com/weftworks/weft/pkg/observability"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <workflow.yaml>",
	Short: "Run a workflow to completion",
	Long: `Loads a YAML workflow definition, builds it against the built-in
function library and runs it. The final state and trace are printed when
the run finishes.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runWorkflow(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("state", "", "Initial state as a JSON object")
	runCmd.Flags().String("state-file", "", "Path to a JSON file holding the initial state")
	runCmd.Flags().Int("max-steps", weft.DefaultMaxSteps, "Abort the run after this many steps")
	runCmd.Flags().Bool("json", false, "Print the full result as JSON (for scripting)")
	runCmd.Flags().Bool("verbose", false, "Log each step as it executes")
}

func runWorkflow(cmd *cobra.Command, path string) error {
	def, err := loadDefinition(path)
	if err != nil {
		return err
	}

	initial, err := readInitialState(cmd)
	if err != nil {
		return err
	}

	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	jsonMode, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")

	opts := []weft.Option{weft.WithMaxSteps(maxSteps)}
	if verbose {
		opts = append(opts, weft.WithObserver(observability.NewLogObserver(nil)))
	}
	engine, err := newEngine(cmd, opts...)
	if err != nil {
		return err
	}

	result, runErr := engine.ExecuteDefinition(context.Background(), def, initial)

	if jsonMode {
		out := map[string]any{"result": result}
		if runErr != nil {
			out["error"] = runErr.Error()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
		return runErr
	}

	summary := tui.RunSummary(result, runErr)
	if tui.IsInteractive() {
		render := tui.NewRenderer()
		if styled, err := render(summary); err == nil {
			summary = styled
		}
	}
	fmt.Print(summary)
	return runErr
}

func readInitialState(cmd *cobra.Command) (map[string]any, error) {
	stateJSON, _ := cmd.Flags().GetString("state")
	stateFile, _ := cmd.Flags().GetString("state-file")

	if stateJSON != "" && stateFile != "" {
		return nil, fmt.Errorf("--state and --state-file cannot be used together")
	}
	if stateFile != "" {
		data, err := os.ReadFile(stateFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read state file: %w", err)
		}
		stateJSON = string(data)
	}
	if stateJSON == "" {
		return map[string]any{}, nil
	}

	var initial map[string]any
	if err := json.Unmarshal([]byte(stateJSON), &initial); err != nil {
		return nil, fmt.Errorf("initial state is not a valid JSON object: %w", err)
	}
	return initial, nil
}
