/*
PURPOSE:
  Implements the 'serve' command.
  Runs the JSON HTTP API until SIGINT/SIGTERM.

REQUIREMENTS:
  Implementation-discovered:
  - Graceful shutdown so an in-flight matrix request can finish writing.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/root.go
  - Calls: internal/server

ERROR HANDLING:
  - Listen errors are returned; shutdown waits up to 10s.

USAGE:
  llm-matrix serve --addr :8080 -o ./exports

RELATED FILES:
  - internal/server/server.go
*/

package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/daryltucker/llm-matrix/internal/engine"
	"github.com/daryltucker/llm-matrix/internal/output"
	"github.com/daryltucker/llm-matrix/internal/provider"
	"github.com/daryltucker/llm-matrix/internal/server"
)

var (
	serveAddr   string
	serveOutput string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the preflight and matrix operations over a JSON HTTP API",
	Long: `Starts an HTTP server exposing:
  GET  /api/health
  GET  /api/providers
  POST /api/preflight       {"entries": [...]} or {"providers_yaml": "..."}
  POST /api/preflight.csv   same body, CSV response
  POST /api/matrix          entries + questions (or questions_yaml), system_prompt, experiment_tag

All matrix runs in one server session share a run id and export directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Listen = serveAddr
		}
		if serveOutput != "" {
			cfg.ExportDir = serveOutput
		}

		e := engine.New(cfg, provider.Default())
		defer e.Close()

		gin.SetMode(gin.ReleaseMode)
		writer := output.NewJSONWriter(cfg.ExportDir, sessionRunID(cfg))
		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           server.New(cfg, e, writer).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			output.Logger.Info("Server listening", "addr", cfg.Listen, "run_id", writer.RunID(), "export_dir", writer.Dir())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err, ok := <-errCh:
			if ok {
				return err
			}
			return nil
		case <-quit:
		}

		output.Logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().StringVarP(&serveOutput, "output-dir", "o", "", "Export directory for JSONL records (overrides config)")
}
