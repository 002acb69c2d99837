package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/finovate/healthcheck-go/internal/api/handlers"
	"github.com/finovate/healthcheck-go/internal/api/middleware"
	"github.com/finovate/healthcheck-go/internal/cache"
	"github.com/finovate/healthcheck-go/internal/service"
	"github.com/finovate/healthcheck-go/internal/storage"
)

// Services carries everything the router wires into handlers. Archive may
// be nil when no object storage is configured.
type Services struct {
	Reports   *service.ReportService
	Cache     cache.ReportCache
	Archive   storage.ObjectStorage
	ExportDir string
	// ClientNames lists the configured tenants, exposed so a frontend can
	// offer a picker without knowing any credentials.
	ClientNames []string
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.Reports != nil {
		reportHandler := handlers.NewReportHandler(services.Reports, services.Cache, services.Archive, services.ExportDir)

		reportGroup := apiGroup.Group("/reports")
		{
			reportGroup.POST("", reportHandler.Generate)
			reportGroup.POST("/sync-errors", reportHandler.GenerateWithSyncErrors)
			reportGroup.POST("/export", reportHandler.Export)
		}

		apiGroup.POST("/cache/invalidate", reportHandler.InvalidateCache)

		clientNames := services.ClientNames
		apiGroup.GET("/clients", func(c *gin.Context) {
			names := clientNames
			if names == nil {
				names = []string{}
			}
			c.JSON(http.StatusOK, gin.H{"clients": names})
		})
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
