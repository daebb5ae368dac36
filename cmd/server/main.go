// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/draftq-processor/internal/api"
	"github.com/andresuchdata/draftq-processor/internal/app"
	"github.com/andresuchdata/draftq-processor/internal/config"
	"github.com/andresuchdata/draftq-processor/pkg/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	level := cfg.Log.Level
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
		level = "debug"
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Setup(level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize processor")
	}
	defer application.Close()

	router := api.NewRouter(&api.Services{ProcessService: application.ProcessService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info().Msg("Shutting down server...")

		// In-flight requests may be mid-poll; give them the poll timeout
		// plus a little slack to finish.
		grace := cfg.Processing.PollTimeout() + 5*time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Log.Error().Err(err).Msg("Server stopped with error")
		application.Close()
		os.Exit(1)
	}

	logger.Log.Info().Msg("Server exiting")
}
