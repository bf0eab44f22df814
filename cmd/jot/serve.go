// ABOUTME: Cobra command that serves the jot entry API over HTTP.
// ABOUTME: Opens the configured server backend and runs the chi router until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/2389-research/jot/internal/config"
	"github.com/2389-research/jot/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the jot entry API",
	Long: `Serve the HTTP entry API that the remote backend talks to.

Entries are stored in SQLite or markdown files (server.backend).
Every request except /healthz must carry the server.api_key
(or JOT_SERVER_API_KEY) in the x-api-key header.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default server.addr or "+config.DefaultServerAddr+")")
}

func runServe(cmd *cobra.Command, args []string) error {
	if globalConfig.Server.APIKey == "" {
		return fmt.Errorf("server.api_key (or %s) is required to serve the API", config.EnvServerAPIKey)
	}

	backend := globalConfig.ResolvedServerBackend()
	entries, err := openBackend(globalConfig, backend)
	if err != nil {
		return err
	}
	globalEntries = entries

	addr := serveAddr
	if addr == "" {
		addr = globalConfig.ServerAddr()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	globalLogger.Info("serving entry API", "addr", addr, "backend", backend)
	handler := server.NewRouter(entries, globalConfig.Server.APIKey, globalLogger)
	return server.Run(ctx, addr, handler, globalLogger)
}
