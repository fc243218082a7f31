package cmd

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
	"github.com/spf13/viper"
	"github.com/spigell/scholara/internal/api"
	"github.com/spigell/scholara/internal/secrets"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve matching and discovery over http",
	Run: func(_ *cobra.Command, _ []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "listen address (default :8000)")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func runServe() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, cfg := setup()

	internalKey, err := secrets.Load(secrets.Source{
		Name: "internal api key",
		File: cfg.Server.InternalKeyFile,
		Env:  "SCHOLARA_INTERNAL_KEY",
	})
	if err != nil {
		logger.Fatal(
			"loading internal api key",
			zap.Error(err),
			zap.String("hint", "set SCHOLARA_INTERNAL_KEY_FILE environment variable or the 'server.internal-key-file' key in the configuration file"),
		)
	}

	completer, cleanup, err := newCompleter(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("building completer", zap.Error(err))
	}
	defer cleanup()

	orchestrator, err := newOrchestrator(completer, cfg, logger)
	if err != nil {
		logger.Fatal("building discovery", zap.Error(err))
	}

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr: cfg.Server.Listen,
		Handler: api.NewRouter(newRanker(completer, cfg, logger), orchestrator, api.Options{
			InternalKey: internalKey,
			Version:     version,
		}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down http server", zap.Error(err))
		}
	}()

	logger.Info("starting the scholara service",
		zap.String("version", version),
		zap.String("listen", cfg.Server.Listen),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("search_provider", cfg.Search.Provider),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serving http", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "server stopped"))
}
