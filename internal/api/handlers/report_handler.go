package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/finovate/healthcheck-go/internal/cache"
	"github.com/finovate/healthcheck-go/internal/cin7"
	"github.com/finovate/healthcheck-go/internal/domain"
	"github.com/finovate/healthcheck-go/internal/export"
	"github.com/finovate/healthcheck-go/internal/service"
	"github.com/finovate/healthcheck-go/internal/storage"
	"github.com/finovate/healthcheck-go/internal/syncerrors"
)

type ReportHandler struct {
	reports   *service.ReportService
	cache     cache.ReportCache
	archive   storage.ObjectStorage
	exportDir string
}

func NewReportHandler(reports *service.ReportService, cacheImpl cache.ReportCache, archive storage.ObjectStorage, exportDir string) *ReportHandler {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	return &ReportHandler{
		reports:   reports,
		cache:     cacheImpl,
		archive:   archive,
		exportDir: exportDir,
	}
}

type generateRequest struct {
	Client   string   `json:"client"`
	Year     int      `json:"year" binding:"required"`
	Month    int      `json:"month" binding:"required"`
	Sections []string `json:"sections"`
}

// Generate runs a report for one client and period and returns the metrics.
func (h *ReportHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	rpt, err := h.reports.Generate(c.Request.Context(), service.GenerateOptions{
		Client:   req.Client,
		Year:     req.Year,
		Month:    req.Month,
		Sections: req.Sections,
	})
	if err != nil {
		h.writeGenerateError(c, err)
		return
	}

	c.JSON(http.StatusOK, rpt)
}

// GenerateWithSyncErrors runs a report with an uploaded sync error workbook
// folded in. The request is multipart: a "file" part carrying the XLSX plus
// client/year/month form fields.
func (h *ReportHandler) GenerateWithSyncErrors(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing sync error workbook"})
		return
	}

	opts, ok := h.multipartOptions(c)
	if !ok {
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not open uploaded file"})
		return
	}
	defer f.Close()

	rows, err := syncerrors.Read(f)
	if err != nil {
		log.Warn().Err(err).Str("filename", fileHeader.Filename).Msg("sync error workbook rejected")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not parse workbook: " + err.Error()})
		return
	}
	opts.SyncRows = rows

	rpt, err := h.reports.Generate(c.Request.Context(), opts)
	if err != nil {
		h.writeGenerateError(c, err)
		return
	}

	c.JSON(http.StatusOK, rpt)
}

// Export runs a report and writes its JSON and CSV bundle to the export
// directory, archiving it to object storage when an archive is configured.
func (h *ReportHandler) Export(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	rpt, err := h.reports.Generate(c.Request.Context(), service.GenerateOptions{
		Client:   req.Client,
		Year:     req.Year,
		Month:    req.Month,
		Sections: req.Sections,
	})
	if err != nil {
		h.writeGenerateError(c, err)
		return
	}

	dir, err := export.WriteDir(h.exportDir, rpt)
	if err != nil {
		log.Error().Err(err).Msg("report export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write export"})
		return
	}

	archived := false
	if h.archive != nil {
		if err := export.Archive(c.Request.Context(), h.archive, rpt); err != nil {
			log.Error().Err(err).Msg("report archive failed")
		} else {
			archived = true
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"dir":      dir,
		"archived": archived,
		"summary":  rpt.Summary,
		"errors":   rpt.Errors,
	})
}

// InvalidateCache drops every cached report.
func (h *ReportHandler) InvalidateCache(c *gin.Context) {
	if err := h.cache.InvalidateAll(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("cache invalidation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to invalidate cache"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "report cache cleared"})
}

func (h *ReportHandler) multipartOptions(c *gin.Context) (service.GenerateOptions, bool) {
	var opts service.GenerateOptions
	opts.Client = c.PostForm("client")

	year, month, ok := parsePeriodForm(c)
	if !ok {
		return opts, false
	}
	opts.Year = year
	opts.Month = month
	opts.Sections = c.PostFormArray("sections")
	return opts, true
}

func parsePeriodForm(c *gin.Context) (int, int, bool) {
	year, err := strconv.Atoi(c.PostForm("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return 0, 0, false
	}
	month, err := strconv.Atoi(c.PostForm("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return 0, 0, false
	}
	return year, month, true
}

func (h *ReportHandler) writeGenerateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPeriod), errors.Is(err, service.ErrUnknownSection):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnknownClient):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		var apiErr *cin7.APIError
		if errors.As(err, &apiErr) {
			log.Error().Err(err).Msg("upstream API rejected the report run")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, context.Canceled) {
			c.JSON(http.StatusRequestTimeout, gin.H{"error": "report run canceled"})
			return
		}
		log.Error().Err(err).Msg("report generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
	}
}
