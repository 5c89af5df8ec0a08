package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/weftworks/weft"
	"github.com/weftworks/weft/internal/logging"
	"github.com/weftworks/weft/pkg/definition"
	"github.com/weftworks/weft/pkg/functions"
	"github.com/weftworks/weft/pkg/registry"
)

func parseLogLevel(cmd *cobra.Command) slog.Level {
	levelStr, _ := cmd.Flags().GetString("log-level")
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newEngine builds an engine carrying the built-in function library.
func newEngine(cmd *cobra.Command, extra ...weft.Option) (*weft.Engine, error) {
	reg := registry.New()
	if err := functions.Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register built-in functions: %w", err)
	}

	logger := logging.New(parseLogLevel(cmd))
	slog.SetDefault(logger)

	opts := append([]weft.Option{
		weft.WithRegistry(reg),
		weft.WithLogger(logger),
	}, extra...)
	return weft.New(opts...), nil
}

func loadDefinition(path string) (*definition.GraphDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	return definition.FromYAML(data)
}
