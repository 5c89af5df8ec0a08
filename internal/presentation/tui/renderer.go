// Package tui renders run results for interactive terminals.
package tui

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/weftworks/weft"
)

// IsInteractive reports whether stdout is a terminal. Piped output gets the
// raw markdown instead of ANSI-styled text.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// NewRenderer returns a function that renders markdown using glamour.
// It auto-detects light/dark terminal backgrounds.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// RunSummary formats a finished run as markdown: status line, trace table
// and final state.
func RunSummary(result *weft.Result, runErr error) string {
	var b strings.Builder

	if runErr != nil {
		fmt.Fprintf(&b, "# Run failed\n\n**Error:** %v\n\n", runErr)
	} else {
		b.WriteString("# Run completed\n\n")
	}
	if result == nil {
		return b.String()
	}

	fmt.Fprintf(&b, "- **Run ID:** `%s`\n", result.RunID)
	fmt.Fprintf(&b, "- **Status:** %s\n", result.Status)
	fmt.Fprintf(&b, "- **Steps:** %d\n\n", result.StepsExecuted)

	if len(result.Trace) > 0 {
		b.WriteString("## Trace\n\n")
		b.WriteString("| # | Node | Outcome |\n|---|------|--------|\n")
		for _, step := range result.Trace {
			outcome := "ok"
			if step.Failed() {
				outcome = step.Error
			}
			fmt.Fprintf(&b, "| %d | %s | %s |\n", step.StepNumber, step.NodeName, outcome)
		}
		b.WriteString("\n")
	}

	if len(result.FinalState) > 0 {
		b.WriteString("## Final state\n\n")
		for _, k := range sortedKeys(result.FinalState) {
			fmt.Fprintf(&b, "- `%s`: %v\n", k, result.FinalState[k])
		}
	}

	return b.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
