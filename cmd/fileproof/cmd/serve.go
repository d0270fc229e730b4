package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fileproof/internal/config"
	"fileproof/internal/logging"
	"fileproof/internal/service"
	"fileproof/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the validation HTTP server",
	Long: `Serve starts the HTTP API: uploads go to POST /api/validate,
progress streams over SSE, and finished reports are fetched as JSON,
text, or CSV. Configuration comes from the environment (and a .env
file when present).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"max_file_size", cfg.Validation.MaxFileSize,
		"max_errors", cfg.Validation.MaxErrors,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	svc := service.New(cfg.Validation.TempDir)
	server := web.NewServer(cfg, svc)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
	return nil
}
