package digest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const dashboardSheet = "Dashboard"

// ExcelExporter writes a workbook with a dashboard sheet and one sheet per
// workspace.
type ExcelExporter struct {
	OutputDir string
	Location  *time.Location
}

func NewExcelExporter(outputDir string, loc *time.Location) *ExcelExporter {
	return &ExcelExporter{OutputDir: outputDir, Location: loc}
}

var _ Exporter = (*ExcelExporter)(nil)

func (e *ExcelExporter) Export(groups []WorkspaceTasks, now time.Time) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(e.OutputDir, fmt.Sprintf("pending_%s.xlsx", now.Format("2006-01-02_15-04-05")))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dashboardSheet); err != nil {
		return "", fmt.Errorf("failed to create dashboard: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	if err := e.writeDashboard(f, groups, headerStyle, now); err != nil {
		return "", fmt.Errorf("failed to create dashboard: %w", err)
	}

	used := map[string]bool{dashboardSheet: true}
	for _, g := range groups {
		sheet := uniqueSheetName(sanitizeSheetName(string(g.Workspace)), used)
		rows := Rows([]WorkspaceTasks{g}, e.Location)
		if err := e.writeWorkspaceSheet(f, sheet, rows, headerStyle); err != nil {
			return "", fmt.Errorf("failed to create sheet for workspace %s: %w", g.Workspace, err)
		}
	}

	if err := f.SaveAs(filename); err != nil {
		return "", fmt.Errorf("failed to save excel file: %w", err)
	}
	return filename, nil
}

func (e *ExcelExporter) writeDashboard(f *excelize.File, groups []WorkspaceTasks, headerStyle int, now time.Time) error {
	cells := [][]any{
		{"Generated:", FormatDate(now, e.Location)},
		{},
		{"Workspace", "Inbox", "Upcoming", "With Due Date", "Total"},
	}

	var inbox, upcoming, due, total int
	for _, g := range groups {
		var wsInbox, wsUpcoming, wsDue int
		for _, t := range g.Tasks {
			switch t.AssigneeStatus {
			case StatusInbox:
				wsInbox++
			case StatusUpcoming:
				wsUpcoming++
			}
			if t.DueOn != nil {
				wsDue++
			}
		}
		cells = append(cells, []any{string(g.Workspace), wsInbox, wsUpcoming, wsDue, len(g.Tasks)})
		inbox += wsInbox
		upcoming += wsUpcoming
		due += wsDue
		total += len(g.Tasks)
	}
	cells = append(cells, []any{"Total", inbox, upcoming, due, total})

	for r, row := range cells {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(dashboardSheet, cell, value); err != nil {
				return err
			}
		}
	}

	if err := f.SetCellStyle(dashboardSheet, "A3", "E3", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(dashboardSheet, "A", "E", 18)
}

var workspaceColumnWidths = []struct {
	start, end string
	width      float64
}{
	{"A", "A", 5},
	{"B", "B", 20},
	{"C", "C", 40},
	{"D", "D", 50},
	{"E", "F", 15},
	{"G", "G", 60},
}

func (e *ExcelExporter) writeWorkspaceSheet(f *excelize.File, sheet string, rows []Row, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	for col, header := range rowHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for i, row := range rows {
		values := []any{i + 1, row.Workspace, row.Lineage, row.Task, row.Status, row.DueDate, row.URL}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	for _, w := range workspaceColumnWidths {
		if err := f.SetColWidth(sheet, w.start, w.end, w.width); err != nil {
			return err
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func sanitizeSheetName(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		"?", "",
		"*", "",
		":", "",
		"[", "(",
		"]", ")",
	)
	name = replacer.Replace(name)

	if len(name) > 31 {
		name = name[:31]
	}
	if name == "" {
		name = "Workspace"
	}
	return name
}

// uniqueSheetName suffixes name until it does not collide with a used sheet.
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[candidate]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		base := name
		if len(base)+len(suffix) > 31 {
			base = base[:31-len(suffix)]
		}
		candidate = base + suffix
	}
	used[candidate] = true
	return candidate
}
