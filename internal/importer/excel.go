// Package importer parses bulk monitor uploads from Excel spreadsheets.
package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// headerRowOffset converts a zero-based data index to its Excel row number.
// Excel rows are 1-based and row 1 is the header.
const headerRowOffset = 2

// MonitorRow represents a parsed row from the Excel spreadsheet.
type MonitorRow struct {
	Row                  int // Excel row number (for error reporting)
	Keyword              string
	CheckIntervalMinutes int
	MaxResults           int
	Tags                 []string
	IsActive             bool
	CreatedBy            string
}

// ImportError represents a validation error for a specific row.
type ImportError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// columnMap holds the header position of each known column, -1 when absent.
type columnMap struct {
	keyword   int
	interval  int
	maxResult int
	tags      int
	active    int
	createdBy int
}

// mapColumns locates known columns by header name, case-insensitively.
func mapColumns(header []string) columnMap {
	cm := columnMap{
		keyword:   -1,
		interval:  -1,
		maxResult: -1,
		tags:      -1,
		active:    -1,
		createdBy: -1,
	}

	for i, cell := range header {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "keyword":
			cm.keyword = i
		case "interval_minutes":
			cm.interval = i
		case "max_results":
			cm.maxResult = i
		case "tags":
			cm.tags = i
		case "active":
			cm.active = i
		case "created_by":
			cm.createdBy = i
		}
	}

	return cm
}

// validateRequiredColumns checks the header for the columns an import cannot
// work without.
func validateRequiredColumns(cm columnMap) *ImportError {
	if cm.keyword == -1 {
		return &ImportError{Row: 1, Error: "missing required column: keyword"}
	}
	return nil
}

// openExcelRows reads every row of the first sheet.
func openExcelRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	return rows, nil
}

// ValidateRow validates a single row and returns an error message or empty string.
func ValidateRow(row MonitorRow) string {
	if strings.TrimSpace(row.Keyword) == "" {
		return "keyword is required"
	}

	if row.CheckIntervalMinutes < 0 {
		return "interval_minutes must be non-negative"
	}

	if row.MaxResults < 0 {
		return "max_results must be non-negative"
	}

	return ""
}

// ParseMonitorsFile parses an uploaded spreadsheet into monitor rows. Rows
// that fail validation are reported per row; only a file-level problem (an
// unreadable spreadsheet or a missing header) aborts the whole import.
func ParseMonitorsFile(r io.Reader) ([]MonitorRow, []ImportError, error) {
	rows, err := openExcelRows(r)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("spreadsheet has no header row")
	}

	cm := mapColumns(rows[0])
	if ie := validateRequiredColumns(cm); ie != nil {
		return nil, []ImportError{*ie}, nil
	}

	monitors := make([]MonitorRow, 0, len(rows)-1)
	importErrors := []ImportError{}

	for i, cells := range rows[1:] {
		rowNum := i + headerRowOffset

		if isBlankRow(cells) {
			continue
		}

		row, parseErr := parseRow(cells, cm, rowNum)
		if parseErr != "" {
			importErrors = append(importErrors, ImportError{Row: rowNum, Error: parseErr})
			continue
		}

		if msg := ValidateRow(row); msg != "" {
			importErrors = append(importErrors, ImportError{Row: rowNum, Error: msg})
			continue
		}

		monitors = append(monitors, row)
	}

	return monitors, importErrors, nil
}

// parseRow converts one spreadsheet row; the returned string is an error
// message for the row, empty on success.
func parseRow(cells []string, cm columnMap, rowNum int) (MonitorRow, string) {
	row := MonitorRow{
		Row:      rowNum,
		Keyword:  cellAt(cells, cm.keyword),
		IsActive: true,
	}

	if raw := cellAt(cells, cm.interval); raw != "" {
		interval, err := strconv.Atoi(raw)
		if err != nil {
			return row, "interval_minutes must be a number"
		}
		row.CheckIntervalMinutes = interval
	}

	if raw := cellAt(cells, cm.maxResult); raw != "" {
		maxResults, err := strconv.Atoi(raw)
		if err != nil {
			return row, "max_results must be a number"
		}
		row.MaxResults = maxResults
	}

	if raw := cellAt(cells, cm.active); raw != "" {
		active, ok := parseBool(raw)
		if !ok {
			return row, "active must be true/false, 1/0 or yes/no"
		}
		row.IsActive = active
	}

	row.Tags = splitTags(cellAt(cells, cm.tags))
	row.CreatedBy = cellAt(cells, cm.createdBy)

	return row, ""
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func isBlankRow(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseBool(raw string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	default:
		return false, false
	}
}

// splitTags turns a comma-separated cell into a clean tag list.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
