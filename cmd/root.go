/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var Version = "dev"

// logger is configured from the persistent flags before any command runs.
var logger = zerolog.Nop()

func init() {
	if Version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}
	}
	rootCmd.Version = Version

	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console, json")
}

var rootCmd = &cobra.Command{
	Use:          "plangraph",
	SilenceUsage: true,
	Short:        "Flatten and lay out PostgreSQL query plans",
	Long: `plangraph turns PostgreSQL EXPLAIN (FORMAT JSON) output into an id-addressed
operator graph with per-node cost and timing series, and assigns every
operator a position in a layered, top-to-bottom layout.

Results can be printed as text, JSON or a Mermaid flowchart, or served over HTTP.`,
	Example: `  # Analyze a saved plan
  plangraph analyze plan.json

  # Explain and analyze a query against a saved profile
  plangraph analyze query.sql --profile dev

  # Serve the HTTP API
  plangraph serve --addr :8080

  # Setup connection profiles
  plangraph init`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, format := logSettings(cmd)

		l, err := newLogger(cmd.ErrOrStderr(), level, format)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

// logSettings returns the log level and format for cmd. A command may carry
// its own defaults in Annotations; flags set on the command line win.
func logSettings(cmd *cobra.Command) (level, format string) {
	get := func(name string) string {
		if v, ok := cmd.Annotations[name]; ok && !cmd.Flags().Changed(name) {
			return v
		}
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return get("log-level"), get("log-format")
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zerolog.DurationFieldUnit = time.Millisecond

	switch format {
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	case "json":
		zerolog.TimeFieldFormat = time.RFC3339Nano
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q: must be \"console\" or \"json\"", format)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
