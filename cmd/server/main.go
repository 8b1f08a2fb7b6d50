// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zeccol/marketlist/internal/api"
	"github.com/zeccol/marketlist/internal/cache"
	"github.com/zeccol/marketlist/internal/config"
	"github.com/zeccol/marketlist/internal/repository"
	"github.com/zeccol/marketlist/internal/repository/postgres"
	"github.com/zeccol/marketlist/internal/service"
	"github.com/zeccol/marketlist/internal/sheets"
	"github.com/zeccol/marketlist/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := sheets.NewService(cfg.Sheets.CredentialsJSON, cfg.Sheets.RequestsPerSecond)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize sheets client")
	}

	runs := repository.NewNoopRunRepository()
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		runs, err = postgres.NewRunRepository(context.Background(), db)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize run repository")
		}
	}

	fcache := cache.NewForecastCache(cfg.Cache)
	defer fcache.Close()

	planner := service.NewPlanner(cfg, store, fcache, runs)
	router := api.NewRouter(planner, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
