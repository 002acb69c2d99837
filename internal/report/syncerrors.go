package report

import (
	"fmt"

	"github.com/finovate/healthcheck-go/internal/domain"
)

const recentSyncErrors = 20

// SyncErrorSummary is the section roll-up for accounting sync errors.
type SyncErrorSummary struct {
	FailedCount       int  `json:"failed_count"`
	WarningCount      int  `json:"warning_count"`
	SkippedCount      int  `json:"skipped_count"`
	PendingCount      int  `json:"pending_count"`
	HasCriticalErrors bool `json:"has_critical_errors"`
}

// SyncErrorMetrics is the aggregated sync error section, built from the
// uploaded reconciliation spreadsheet rather than the vendor API.
type SyncErrorMetrics struct {
	TotalErrors     int              `json:"total_errors"`
	ByStatus        map[string]int   `json:"by_status"`
	ByType          map[string]int   `json:"by_type"`
	ByStatusAndType map[string]int   `json:"by_status_and_type"`
	RecentErrors    []domain.Record  `json:"recent_errors"`
	Summary         SyncErrorSummary `json:"summary"`
}

// AggregateSyncErrors groups sync error rows by Status, by Type, and by the
// Status x Type cross tabulation, keeping the first twenty rows for display.
func AggregateSyncErrors(rows []domain.Record) SyncErrorMetrics {
	metrics := SyncErrorMetrics{
		TotalErrors:     len(rows),
		ByStatus:        make(map[string]int),
		ByType:          make(map[string]int),
		ByStatusAndType: make(map[string]int),
	}

	for _, row := range rows {
		status := row.Str("Status")
		typ := row.Str("Type")
		if status != "" {
			metrics.ByStatus[status]++
		}
		if typ != "" {
			metrics.ByType[typ]++
		}
		if status != "" && typ != "" {
			metrics.ByStatusAndType[fmt.Sprintf("%s_%s", status, typ)]++
		}
	}

	if len(rows) > recentSyncErrors {
		metrics.RecentErrors = rows[:recentSyncErrors]
	} else {
		metrics.RecentErrors = rows
	}

	metrics.Summary = SyncErrorSummary{
		FailedCount:       metrics.ByStatus["Failed"],
		WarningCount:      metrics.ByStatus["Warning"],
		SkippedCount:      metrics.ByStatus["Skipped"],
		PendingCount:      metrics.ByStatus["Pending"],
		HasCriticalErrors: metrics.ByStatus["Failed"] > 0,
	}

	return metrics
}
