// Package export serializes finished reports to JSON and CSV files and
// archives them to object storage.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/finovate/healthcheck-go/internal/report"
	"github.com/finovate/healthcheck-go/internal/storage"
)

// File is one rendered export artifact.
type File struct {
	Name string
	Data []byte
}

// Bundle renders a report into its export artifacts: the full metrics JSON
// plus one CSV per list-shaped section. Sections the report does not carry
// are skipped.
func Bundle(rpt *report.Report) ([]File, error) {
	files := make([]File, 0, 8)

	payload, err := json.MarshalIndent(rpt, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	files = append(files, File{Name: "report.json", Data: payload})

	addCSV := func(name string, render func(w *bytes.Buffer) error) error {
		var buf bytes.Buffer
		if err := render(&buf); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		files = append(files, File{Name: name, Data: buf.Bytes()})
		return nil
	}

	if rpt.Sales != nil && len(rpt.Sales.Anomalies) > 0 {
		err := addCSV("sales_anomalies.csv", func(w *bytes.Buffer) error {
			return WriteAnomalies(w, rpt.Sales,
				[]string{"OrderNumber", "SaleOrderNumber"},
				[]string{"Customer", "CustomerName"},
				[]string{"SaleOrderDate", "OrderDate"})
		})
		if err != nil {
			return nil, err
		}
	}
	if rpt.Purchases != nil && len(rpt.Purchases.Anomalies) > 0 {
		err := addCSV("purchase_anomalies.csv", func(w *bytes.Buffer) error {
			return WriteAnomalies(w, rpt.Purchases,
				[]string{"OrderNumber"},
				[]string{"SupplierName", "Supplier"},
				[]string{"OrderDate"})
		})
		if err != nil {
			return nil, err
		}
	}
	if rpt.StockAdjustments != nil {
		err := addCSV("adjustment_movements.csv", func(w *bytes.Buffer) error {
			return WriteMovements(w, rpt.StockAdjustments)
		})
		if err != nil {
			return nil, err
		}
	}
	if rpt.StockTakes != nil {
		err := addCSV("stocktake_discrepancies.csv", func(w *bytes.Buffer) error {
			return WriteDiscrepancies(w, rpt.StockTakes)
		})
		if err != nil {
			return nil, err
		}
	}
	if rpt.StockAvailability != nil && len(rpt.StockAvailability.NegativeStock) > 0 {
		err := addCSV("negative_stock.csv", func(w *bytes.Buffer) error {
			return WriteNegativeStock(w, rpt.StockAvailability)
		})
		if err != nil {
			return nil, err
		}
	}
	if rpt.DataHygiene != nil {
		err := addCSV("hygiene_issues.csv", func(w *bytes.Buffer) error {
			return WriteHygiene(w, rpt.DataHygiene)
		})
		if err != nil {
			return nil, err
		}
	}
	if rpt.SyncErrors != nil && len(rpt.SyncErrors.RecentErrors) > 0 {
		err := addCSV("sync_errors.csv", func(w *bytes.Buffer) error {
			return WriteSyncErrors(w, rpt.SyncErrors)
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// WriteDir writes the bundle under dir/<client>/<year>-<month>/ and returns
// the directory the files landed in.
func WriteDir(dir string, rpt *report.Report) (string, error) {
	files, err := Bundle(rpt)
	if err != nil {
		return "", err
	}

	target := filepath.Join(dir, periodPath(rpt))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create export dir %s: %w", target, err)
	}

	for _, f := range files {
		path := filepath.Join(target, f.Name)
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}

	return target, nil
}

// Archive uploads the bundle to object storage under <client>/<year>-<month>/.
func Archive(ctx context.Context, store storage.ObjectStorage, rpt *report.Report) error {
	files, err := Bundle(rpt)
	if err != nil {
		return err
	}

	prefix := periodPath(rpt)
	for _, f := range files {
		key := prefix + "/" + f.Name
		if err := store.UploadObject(ctx, key, f.Data); err != nil {
			return err
		}
		log.Debug().Str("key", key).Int("bytes", len(f.Data)).Msg("archived export")
	}

	log.Info().Str("prefix", prefix).Int("files", len(files)).Msg("report archived")
	return nil
}

func periodPath(rpt *report.Report) string {
	return fmt.Sprintf("%s/%04d-%02d", rpt.Client, rpt.Year, rpt.Month)
}
