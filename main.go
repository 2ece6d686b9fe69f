package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"gradestats-server-go/config"
	"gradestats-server-go/db"
	"gradestats-server-go/grades"
	"gradestats-server-go/handlers"
	"gradestats-server-go/logging"
	"gradestats-server-go/metrics"
	"gradestats-server-go/report"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "gradestats",
		Short:        "Student grade statistics from Excel workbooks",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default "+config.DefaultFile+" if present)")

	rootCmd.AddCommand(newServeCmd(), newReportCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the upload form and the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	if logging.ParseLevel(cfg.Logging.Level) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize report store (Redis when enabled)
	store, closeStore, err := db.NewReportStore(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.New()
	apiHandler := handlers.NewAPIHandler(
		grades.NewAnalyzer(logger),
		report.NewAssembler(),
		store,
		m,
		cfg.Server.MaxUploadBytes,
		logger,
	)
	router, err := handlers.NewRouter(apiHandler, cfg.Server.RateLimit)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", srv.Addr), slog.Bool("redis", cfg.Redis.Enabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
