package importer_test

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/importer"
)

func TestValidateRow(t *testing.T) {
	t.Helper()

	tests := []struct {
		name    string
		row     importer.MonitorRow
		wantErr string
	}{
		{
			name: "valid row",
			row: importer.MonitorRow{
				Row:                  2,
				Keyword:              "quantum computing",
				CheckIntervalMinutes: 30,
				MaxResults:           10,
				Tags:                 []string{"tech"},
				IsActive:             true,
			},
			wantErr: "",
		},
		{
			name: "missing keyword",
			row: importer.MonitorRow{
				Row:                  2,
				Keyword:              "  ",
				CheckIntervalMinutes: 30,
			},
			wantErr: "keyword is required",
		},
		{
			name: "negative interval",
			row: importer.MonitorRow{
				Row:                  2,
				Keyword:              "golang",
				CheckIntervalMinutes: -5,
			},
			wantErr: "interval_minutes must be non-negative",
		},
		{
			name: "negative max results",
			row: importer.MonitorRow{
				Row:        2,
				Keyword:    "golang",
				MaxResults: -1,
			},
			wantErr: "max_results must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := importer.ValidateRow(tt.row)
			if got != tt.wantErr {
				t.Errorf("ValidateRow() = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

// createTestExcel creates an in-memory Excel file for testing.
func createTestExcel(t *testing.T, header []string, rows [][]string) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	sheetName := "Sheet1"

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			t.Fatalf("failed to set header cell: %v", err)
		}
	}

	for rowIdx, row := range rows {
		for colIdx, val := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				t.Fatalf("failed to set cell: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("failed to write Excel file: %v", err)
	}

	return bytes.NewReader(buf.Bytes())
}

var monitorHeader = []string{"keyword", "interval_minutes", "max_results", "tags", "active", "created_by"}

func TestParseMonitorsFile(t *testing.T) {
	t.Helper()

	tests := []struct {
		name           string
		rows           [][]string
		wantRowCount   int
		wantErrorCount int
		wantErrorMsg   string
	}{
		{
			name: "valid file with two monitors",
			rows: [][]string{
				{"quantum computing", "30", "10", "tech, research", "true", "analyst"},
				{"edge computing", "60", "5", "", "false", ""},
			},
			wantRowCount:   2,
			wantErrorCount: 0,
		},
		{
			name: "missing keyword in row 2",
			rows: [][]string{
				{"", "30", "10", "", "true", ""},
			},
			wantRowCount:   0,
			wantErrorCount: 1,
			wantErrorMsg:   "keyword is required",
		},
		{
			name: "interval not a number",
			rows: [][]string{
				{"golang", "soon", "10", "", "true", ""},
			},
			wantRowCount:   0,
			wantErrorCount: 1,
			wantErrorMsg:   "interval_minutes must be a number",
		},
		{
			name: "bad active flag",
			rows: [][]string{
				{"golang", "30", "10", "", "maybe", ""},
			},
			wantRowCount:   0,
			wantErrorCount: 1,
			wantErrorMsg:   "active must be true/false, 1/0 or yes/no",
		},
		{
			name: "good rows survive a bad one",
			rows: [][]string{
				{"golang", "30", "10", "", "true", ""},
				{"", "30", "10", "", "true", ""},
				{"rust", "60", "5", "dev", "yes", ""},
			},
			wantRowCount:   2,
			wantErrorCount: 1,
			wantErrorMsg:   "keyword is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := createTestExcel(t, monitorHeader, tt.rows)

			monitors, importErrors, err := importer.ParseMonitorsFile(reader)
			if err != nil {
				t.Fatalf("ParseMonitorsFile() error = %v", err)
			}

			if len(monitors) != tt.wantRowCount {
				t.Errorf("got %d monitors, want %d", len(monitors), tt.wantRowCount)
			}
			if len(importErrors) != tt.wantErrorCount {
				t.Fatalf("got %d errors, want %d", len(importErrors), tt.wantErrorCount)
			}
			if tt.wantErrorMsg != "" && importErrors[0].Error != tt.wantErrorMsg {
				t.Errorf("error = %q, want %q", importErrors[0].Error, tt.wantErrorMsg)
			}
		})
	}
}

func TestParseMonitorsFile_Defaults(t *testing.T) {
	t.Helper()

	reader := createTestExcel(t, monitorHeader, [][]string{
		{"golang"},
	})

	monitors, importErrors, err := importer.ParseMonitorsFile(reader)
	if err != nil {
		t.Fatalf("ParseMonitorsFile() error = %v", err)
	}
	if len(importErrors) != 0 {
		t.Fatalf("unexpected errors: %v", importErrors)
	}
	if len(monitors) != 1 {
		t.Fatalf("got %d monitors, want 1", len(monitors))
	}

	row := monitors[0]
	if row.Keyword != "golang" {
		t.Errorf("keyword = %q", row.Keyword)
	}
	if !row.IsActive {
		t.Error("blank active cell must default to active")
	}
	if row.CheckIntervalMinutes != 0 || row.MaxResults != 0 {
		t.Errorf("blank numeric cells must stay zero, got interval=%d max=%d",
			row.CheckIntervalMinutes, row.MaxResults)
	}
	if row.Tags != nil {
		t.Errorf("blank tags cell must stay nil, got %v", row.Tags)
	}
	if row.Row != 2 {
		t.Errorf("row number = %d, want 2", row.Row)
	}
}

func TestParseMonitorsFile_MissingKeywordColumn(t *testing.T) {
	t.Helper()

	reader := createTestExcel(t, []string{"name", "url"}, [][]string{
		{"something", "https://example.com"},
	})

	monitors, importErrors, err := importer.ParseMonitorsFile(reader)
	if err != nil {
		t.Fatalf("ParseMonitorsFile() error = %v", err)
	}
	if len(monitors) != 0 {
		t.Errorf("expected no monitors, got %d", len(monitors))
	}
	if len(importErrors) != 1 || importErrors[0].Row != 1 {
		t.Fatalf("expected a header-level error, got %v", importErrors)
	}
}

func TestParseMonitorsFile_NotASpreadsheet(t *testing.T) {
	t.Helper()

	_, _, err := importer.ParseMonitorsFile(bytes.NewReader([]byte("not excel")))
	if err == nil {
		t.Fatal("expected error for a non-spreadsheet upload")
	}
}

func TestParseMonitorsFile_SkipsBlankRows(t *testing.T) {
	t.Helper()

	reader := createTestExcel(t, monitorHeader, [][]string{
		{"golang", "30", "10", "", "true", ""},
		{"", "", "", "", "", ""},
		{"rust", "60", "5", "", "true", ""},
	})

	monitors, importErrors, err := importer.ParseMonitorsFile(reader)
	if err != nil {
		t.Fatalf("ParseMonitorsFile() error = %v", err)
	}
	if len(importErrors) != 0 {
		t.Fatalf("blank rows must not produce errors, got %v", importErrors)
	}
	if len(monitors) != 2 {
		t.Errorf("got %d monitors, want 2", len(monitors))
	}
}
