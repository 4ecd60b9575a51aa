/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jacobarthurs/plangraph/internal/config"
	"github.com/jacobarthurs/plangraph/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveEnv resolves serve flags, falling back to PLANGRAPH_* environment
// variables (PLANGRAPH_ADDR, PLANGRAPH_MAX_BODY, ...).
var serveEnv = viper.New()

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve plan analysis over HTTP",
	Long: `Start an HTTP server exposing plan analysis.

Endpoints:
  POST /api/analyze          EXPLAIN JSON in the body
  GET  /api/analyze?plan=... EXPLAIN JSON in the query string (share links)
  GET  /healthz              liveness
  GET  /metrics              Prometheus metrics

Layout settings and limits come from the config file. Flags can also be set
through PLANGRAPH_* environment variables. Logs default to JSON at info level.`,
	Example: `  # Listen on the default address
  plangraph serve

  # Custom address and body limit
  PLANGRAPH_ADDR=:9000 plangraph serve --max-body 1048576`,
	Annotations: map[string]string{
		"log-level":  "info",
		"log-format": "json",
	},
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		srvCfg := server.Config{
			Addr:            serveEnv.GetString("addr"),
			MaxBodyBytes:    serveEnv.GetInt64("max-body"),
			ShutdownTimeout: serveEnv.GetDuration("shutdown-timeout"),
			Analyzer:        cfg.AnalyzerOptions(),
		}
		if srvCfg.Addr == "" {
			return fmt.Errorf("listen address must not be empty")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info().
			Str("version", Version).
			Int64("max_body", srvCfg.MaxBodyBytes).
			Int("max_nodes", srvCfg.Analyzer.MaxNodes).
			Str("ordering", string(srvCfg.Analyzer.Layout.Ordering)).
			Msg("Starting plangraph server")

		return server.New(srvCfg, logger.With().Str("component", "server").Logger()).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().Int64("max-body", server.DefaultMaxBodyBytes, "Maximum request body size in bytes")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := serveEnv.BindPFlags(serveCmd.Flags()); err != nil {
		panic(fmt.Errorf("failed to bind flags: %w", err))
	}
	serveEnv.SetEnvPrefix("PLANGRAPH")
	serveEnv.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	serveEnv.AutomaticEnv()
}
