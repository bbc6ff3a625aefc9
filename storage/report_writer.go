package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"autoria-importer/models"
)

// ReportWriter writes a per-link import report to a CSV file so operators
// can diagnose a batch without digging through logs.
// It is safe for concurrent use.
type ReportWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewReportWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewReportWriter(path string) (*ReportWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("report: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("report: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"status", "url", "detail", "written_at"}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("report: write header: %w", err)
	}
	w.Flush()

	return &ReportWriter{file: f, writer: w}, nil
}

// WriteResult writes one row per imported draft and one per failed link.
func (r *ReportWriter) WriteResult(result *models.ImportBatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Format(time.RFC3339)

	for _, d := range result.Drafts {
		row := []string{
			"imported",
			d.SourceURL,
			d.Make + " " + d.Model + " (" + strconv.Itoa(d.Year) + ")",
			now,
		}
		if err := r.writer.Write(row); err != nil {
			return fmt.Errorf("report: write row: %w", err)
		}
	}

	for _, f := range result.Failures {
		if err := r.writer.Write([]string{"failed", f.URL, f.Reason, now}); err != nil {
			return fmt.Errorf("report: write row: %w", err)
		}
	}

	r.writer.Flush()
	return r.writer.Error()
}

// Close flushes and closes the underlying file.
func (r *ReportWriter) Close() error {
	r.writer.Flush()
	return r.file.Close()
}
