package digest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Exporter writes collected tasks to a file and returns its path.
type Exporter interface {
	Export(groups []WorkspaceTasks, now time.Time) (string, error)
}

// Row is the flat, display-ready form of a task shared by the exporters.
type Row struct {
	Index     int    `json:"index"`
	Workspace string `json:"workspace"`
	Lineage   string `json:"lineage"`
	Task      string `json:"task"`
	Status    string `json:"status"`
	DueDate   string `json:"due_date,omitempty"`
	URL       string `json:"url"`
}

var rowHeader = []string{
	"#",
	"Workspace",
	"Project",
	"Task",
	"Status",
	"Due Date",
	"Link",
}

func (r Row) cells() []string {
	return []string{
		fmt.Sprintf("%d", r.Index),
		r.Workspace,
		r.Lineage,
		r.Task,
		r.Status,
		r.DueDate,
		r.URL,
	}
}

// Rows flattens groups into numbered rows, one per task.
func Rows(groups []WorkspaceTasks, loc *time.Location) []Row {
	title := cases.Title(language.English)

	rows := []Row{}
	for _, g := range groups {
		for _, t := range g.Tasks {
			row := Row{
				Index:     len(rows) + 1,
				Workspace: string(g.Workspace),
				Lineage:   Lineage(t),
				Task:      t.Name,
				Status:    title.String(string(t.AssigneeStatus)),
				URL:       TaskURL(t),
			}
			if t.DueOn != nil {
				row.DueDate = FormatDate(*t.DueOn, loc)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

type JSONExporter struct {
	OutputDir string
	Location  *time.Location
}

func NewJSONExporter(outputDir string, loc *time.Location) *JSONExporter {
	return &JSONExporter{OutputDir: outputDir, Location: loc}
}

var _ Exporter = (*JSONExporter)(nil)

func (e *JSONExporter) Export(groups []WorkspaceTasks, now time.Time) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(Rows(groups, e.Location), "", "\t")
	if err != nil {
		return "", err
	}

	filename := filepath.Join(e.OutputDir, fmt.Sprintf("pending_%s.json", now.Format("2006-01-02_15-04-05")))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}
	return filename, nil
}
