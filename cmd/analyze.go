/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"fmt"

	"github.com/jacobarthurs/plangraph/internal/analyzer"
	"github.com/jacobarthurs/plangraph/internal/config"
	"github.com/jacobarthurs/plangraph/internal/layout"
	"github.com/jacobarthurs/plangraph/internal/output"
	"github.com/jacobarthurs/plangraph/internal/plan"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Flatten and lay out a single query plan",
	Long: `Flatten a PostgreSQL query plan into an operator graph and lay it out.

Input can be a SQL file, or JSON file (EXPLAIN output).
Use "-" to read from stdin. If no file is provided, enters interactive mode.

For SQL input, a database connection is required to run EXPLAIN (ANALYZE, VERBOSE, BUFFERS, FORMAT JSON).`,
	Example: `  # Analyze from file
  plangraph analyze plan.json

  # Run a query with a saved profile
  plangraph analyze query.sql --profile prod

  # Render a Mermaid flowchart
  plangraph analyze plan.json --format mermaid

  # Read from stdin
  cat plan.json | plangraph analyze -

  # Interactive mode
  plangraph analyze`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _ := cmd.Flags().GetString("db")
		profileName, _ := cmd.Flags().GetString("profile")
		format, _ := cmd.Flags().GetString("format")
		ordering, _ := cmd.Flags().GetString("ordering")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		if format != "text" && format != "json" && format != "mermaid" {
			return fmt.Errorf("invalid output format %q: must be \"text\", \"json\" or \"mermaid\"", format)
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		opts := cfg.AnalyzerOptions()
		if ordering != "" {
			o, err := layout.ParseOrdering(ordering)
			if err != nil {
				return err
			}
			opts.Layout.Ordering = o
		}

		connStr, err := config.ResolveConnStr(db, profileName)
		if err != nil {
			return err
		}

		var file string
		if len(args) > 0 {
			file = args[0]
		}

		data, err := plan.Resolve(cmd.Context(), plan.Source{Input: file, DBConn: connStr, Timeout: timeout})
		if err != nil {
			return err
		}
		logger.Debug().Int("bytes", len(data)).Str("input", file).Msg("Plan acquired")

		result, err := analyzer.AnalyzeJSON(data, opts)
		if err != nil {
			return err
		}
		logger.Debug().
			Int("nodes", len(result.Nodes)).
			Int("depth", result.Depth()).
			Str("ordering", string(opts.Layout.Ordering)).
			Msg("Plan analyzed")

		out := cmd.OutOrStdout()
		switch format {
		case "json":
			return output.RenderJSON(out, output.NewReport(result))
		case "mermaid":
			return output.RenderMermaid(out, result)
		case "text":
			return output.RenderAnalysisText(out, output.NewReport(result))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("db", "d", "", "PostgreSQL connection string")
	analyzeCmd.Flags().StringP("profile", "p", "", "Use named profile from config")
	analyzeCmd.Flags().StringP("format", "f", "text", "Output format: text, json, mermaid")
	analyzeCmd.Flags().StringP("ordering", "o", "", "Node ordering within a rank: id, barycenter (default from config)")
	analyzeCmd.Flags().Duration("timeout", 0, "Statement timeout for SQL input (0 for none)")
	analyzeCmd.MarkFlagsMutuallyExclusive("db", "profile")
}
