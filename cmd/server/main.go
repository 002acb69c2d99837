package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finovate/healthcheck-go/internal/api"
	"github.com/finovate/healthcheck-go/internal/cache"
	"github.com/finovate/healthcheck-go/internal/cin7"
	"github.com/finovate/healthcheck-go/internal/config"
	"github.com/finovate/healthcheck-go/internal/service"
	"github.com/finovate/healthcheck-go/internal/storage"
	"github.com/finovate/healthcheck-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if len(cfg.Clients) == 0 {
		logger.Log.Fatal().Msg("no API clients configured, set CLIENT_1_ACCOUNT_ID and CLIENT_1_API_KEY")
	}

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("report cache unavailable, continuing without")
		reportCache = cache.NewNoopReportCache()
	}

	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		archiveClient, err := storage.NewArchiveClient(cfg.Archive)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("archive storage misconfigured")
		}
		archive = archiveClient
	}

	reportService := service.NewReportService(clientResolver(cfg), reportCache)

	clientNames := make([]string, 0, len(cfg.Clients))
	for _, c := range cfg.Clients {
		clientNames = append(clientNames, c.Name)
	}

	router := api.NewRouter(&api.Services{
		Reports:     reportService,
		Cache:       reportCache,
		Archive:     archive,
		ExportDir:   cfg.App.ExportDir,
		ClientNames: clientNames,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Int("clients", len(cfg.Clients)).Msg("Starting server")
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

// clientResolver builds an API client on demand for the named tenant.
func clientResolver(cfg *config.Config) service.ClientResolver {
	return func(name string) (service.DataSource, error) {
		creds, ok := cfg.FindClient(name)
		if !ok {
			return nil, service.ErrUnknownClient
		}
		return cin7.NewClient(cin7.Credentials{
			Name:      creds.Name,
			AccountID: creds.AccountID,
			APIKey:    creds.APIKey,
		})
	}
}
