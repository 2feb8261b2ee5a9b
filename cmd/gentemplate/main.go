// Command gentemplate generates the Excel import template for monitors.
// Usage: go run cmd/gentemplate/main.go
package main

import (
	"log"
	"os"

	"github.com/xuri/excelize/v2"
)

func main() {
	f := excelize.NewFile()

	// Rename Sheet1 to Monitors
	if err := f.SetSheetName("Sheet1", "Monitors"); err != nil {
		log.Fatal(err)
	}

	// Add headers
	headers := []string{"keyword", "interval_minutes", "max_results", "tags", "active", "created_by"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Monitors", cell, h); err != nil {
			log.Fatal(err)
		}
	}

	// Add example row 1
	row1 := []string{
		"quantum computing",
		"60",
		"10",
		"tech,research",
		"true",
		"analyst",
	}
	for i, v := range row1 {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Monitors", cell, v); err != nil {
			log.Fatal(err)
		}
	}

	// Add example row 2
	row2 := []string{"open source licensing", "", "", "legal", "false", ""}
	for i, v := range row2 {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Monitors", cell, v); err != nil {
			log.Fatal(err)
		}
	}

	// Create Instructions sheet
	if _, err := f.NewSheet("Instructions"); err != nil {
		log.Fatal(err)
	}
	instructions := []string{
		"Column Descriptions:",
		"",
		"keyword - Required. Search phrase the monitor tracks",
		"interval_minutes - Optional. Minutes between checks; 0 or empty uses the service default",
		"max_results - Optional. Results fetched per check; 0 or empty uses the service default",
		"tags - Optional. Comma-separated labels (e.g., 'tech,research')",
		"active - Optional. true/false/1/0/yes/no (default: true)",
		"created_by - Optional. Who owns the monitor (default: 'import')",
	}
	for i, line := range instructions {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Instructions", cell, line); err != nil {
			log.Fatal(err)
		}
	}

	// Ensure examples directory exists
	if err := os.MkdirAll("examples", 0755); err != nil {
		log.Fatal(err)
	}

	// Save the file
	if err := f.SaveAs("examples/monitor-import-template.xlsx"); err != nil {
		log.Fatal(err)
	}
	log.Println("Created examples/monitor-import-template.xlsx")
}
