package importer

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func Test_mapColumns(t *testing.T) {
	t.Helper()

	tests := []struct {
		name   string
		header []string
		want   columnMap
	}{
		{
			name:   "all columns in template order",
			header: []string{"keyword", "interval_minutes", "max_results", "tags", "active", "created_by"},
			want:   columnMap{keyword: 0, interval: 1, maxResult: 2, tags: 3, active: 4, createdBy: 5},
		},
		{
			name:   "case insensitive with padding",
			header: []string{" Keyword ", "INTERVAL_MINUTES"},
			want:   columnMap{keyword: 0, interval: 1, maxResult: -1, tags: -1, active: -1, createdBy: -1},
		},
		{
			name:   "unknown columns ignored",
			header: []string{"notes", "keyword", "owner"},
			want:   columnMap{keyword: 1, interval: -1, maxResult: -1, tags: -1, active: -1, createdBy: -1},
		},
		{
			name:   "no recognised columns",
			header: []string{"name", "url"},
			want:   columnMap{keyword: -1, interval: -1, maxResult: -1, tags: -1, active: -1, createdBy: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapColumns(tt.header)
			if got != tt.want {
				t.Errorf("mapColumns() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func Test_validateRequiredColumns(t *testing.T) {
	t.Helper()

	t.Run("keyword present", func(t *testing.T) {
		cols := columnMap{keyword: 0, interval: -1, maxResult: -1, tags: -1, active: -1, createdBy: -1}
		if ie := validateRequiredColumns(cols); ie != nil {
			t.Errorf("validateRequiredColumns() = %v, want nil", ie)
		}
	})

	t.Run("keyword missing", func(t *testing.T) {
		cols := columnMap{keyword: -1, interval: 0, maxResult: 1, tags: -1, active: -1, createdBy: -1}
		ie := validateRequiredColumns(cols)
		if ie == nil {
			t.Fatal("validateRequiredColumns() expected an import error")
		}
		if ie.Row != 1 {
			t.Errorf("row = %d, want 1", ie.Row)
		}
		if ie.Error != "missing required column: keyword" {
			t.Errorf("error = %q", ie.Error)
		}
	})
}

func Test_openExcelRows(t *testing.T) {
	t.Helper()

	t.Run("invalid reader", func(t *testing.T) {
		reader := bytes.NewReader([]byte("not excel"))
		rows, err := openExcelRows(reader)
		if err == nil {
			t.Error("openExcelRows() expected error for invalid input")
		}
		if rows != nil {
			t.Errorf("openExcelRows() expected nil rows on error, got len %d", len(rows))
		}
	})

	t.Run("empty sheet", func(t *testing.T) {
		f := excelize.NewFile()
		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			t.Fatalf("write excel: %v", err)
		}
		rows, err := openExcelRows(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Errorf("openExcelRows() unexpected error: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("openExcelRows() expected no rows, got %v", rows)
		}
	})

	t.Run("valid one row", func(t *testing.T) {
		f := excelize.NewFile()
		_ = f.SetCellValue("Sheet1", "A1", "keyword")
		_ = f.SetCellValue("Sheet1", "B1", "interval_minutes")
		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			t.Fatalf("write excel: %v", err)
		}
		rows, err := openExcelRows(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Errorf("openExcelRows() unexpected error: %v", err)
		}
		if len(rows) != 1 {
			t.Errorf("openExcelRows() got %d rows, want 1", len(rows))
		}
	})
}

func Test_parseBool(t *testing.T) {
	t.Helper()

	for _, v := range []string{"true", "TRUE", "True", "1", "yes", "YES"} {
		got, ok := parseBool(v)
		if !ok || !got {
			t.Errorf("parseBool(%q) = %v, %v; want true, true", v, got, ok)
		}
	}

	for _, v := range []string{"false", "FALSE", "0", "no", "No"} {
		got, ok := parseBool(v)
		if !ok || got {
			t.Errorf("parseBool(%q) = %v, %v; want false, true", v, got, ok)
		}
	}

	if _, ok := parseBool("maybe"); ok {
		t.Error("parseBool(\"maybe\") expected not ok")
	}
}

func Test_splitTags(t *testing.T) {
	t.Helper()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"single tag", "tech", []string{"tech"}},
		{"trims around commas", " tech , research,ai ", []string{"tech", "research", "ai"}},
		{"drops empty segments", "tech,,research,", []string{"tech", "research"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitTags(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitTags(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func Test_isBlankRow(t *testing.T) {
	t.Helper()

	if !isBlankRow([]string{"", "  ", ""}) {
		t.Error("whitespace-only row should be blank")
	}
	if !isBlankRow(nil) {
		t.Error("nil row should be blank")
	}
	if isBlankRow([]string{"", "golang"}) {
		t.Error("row with content should not be blank")
	}
}
