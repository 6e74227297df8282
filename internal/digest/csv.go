package digest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type CSVExporter struct {
	OutputDir string
	Location  *time.Location
}

func NewCSVExporter(outputDir string, loc *time.Location) *CSVExporter {
	return &CSVExporter{OutputDir: outputDir, Location: loc}
}

var _ Exporter = (*CSVExporter)(nil)

func (e *CSVExporter) Export(groups []WorkspaceTasks, now time.Time) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(e.OutputDir, fmt.Sprintf("pending_%s.csv", now.Format("2006-01-02_15-04-05")))
	if err := e.writeTaskList(filename, Rows(groups, e.Location)); err != nil {
		return "", fmt.Errorf("failed to export task list: %w", err)
	}
	return filename, nil
}

func (e *CSVExporter) writeTaskList(filename string, rows []Row) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(rowHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row.cells()); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
