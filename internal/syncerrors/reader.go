// Package syncerrors reads the accounting sync error export that Cin7 users
// download from the integration screen. The export is an XLSX whose first
// six rows are a report banner; row seven carries the column headers
// (Status, Type, document info columns).
package syncerrors

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/finovate/healthcheck-go/internal/domain"
)

const headerRowOffset = 6

// ReadFile parses a sync error spreadsheet from disk.
func ReadFile(path string) ([]domain.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open sync error file %s: %w", path, err)
	}
	defer f.Close()
	return readSheet(f)
}

// Read parses a sync error spreadsheet from an uploaded stream.
func Read(r io.Reader) ([]domain.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open sync error upload: %w", err)
	}
	defer f.Close()
	return readSheet(f)
}

func readSheet(f *excelize.File) ([]domain.Record, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("sync error workbook has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	var (
		headers []string
		records []domain.Record
		rowNum  int
	)
	for rows.Next() {
		rowNum++
		if rowNum <= headerRowOffset {
			continue
		}

		cells, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rowNum, err)
		}

		if headers == nil {
			headers = make([]string, len(cells))
			for i, cell := range cells {
				headers[i] = strings.TrimSpace(cell)
			}
			continue
		}

		record := make(domain.Record, len(headers))
		empty := true
		for i, header := range headers {
			if header == "" {
				continue
			}
			value := ""
			if i < len(cells) {
				value = strings.TrimSpace(cells[i])
			}
			if value != "" {
				empty = false
			}
			record[header] = value
		}
		if !empty {
			records = append(records, record)
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("iterate sync error rows: %w", err)
	}

	return records, nil
}
