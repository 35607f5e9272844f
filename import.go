package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
)

// ImportStats summarizes one CSV import run.
type ImportStats struct {
	Created int
	Updated int
	Skipped int
}

// ImportEmployees bulk-loads employee records from a CSV file. The header row
// names the attributes; an Employee_ID column supplies the record ID, otherwise
// one is generated. Rows whose ID already exists are updated in place, so an
// import is repeatable.
func ImportEmployees(ctx context.Context, repo *EmployeeRepository, path string) (ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportStats{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return ImportStats{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) < 2 {
		return ImportStats{}, fmt.Errorf("%s has no data rows", path)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	var stats ImportStats
	for rowNum, row := range records[1:] {
		attrs := map[string]any{}
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				attrs[header[i]] = cell
			}
		}
		if len(attrs) == 0 {
			stats.Skipped++
			continue
		}

		id, _ := attrs["Employee_ID"].(string)
		_, err := repo.Create(ctx, Employee{ID: id, Attributes: attrs})
		if errors.Is(err, ErrRecordExists) {
			if _, err := repo.Update(ctx, id, attrs); err != nil {
				log.Printf("import row %d update error id=%s: %v", rowNum+2, id, err)
				stats.Skipped++
				continue
			}
			stats.Updated++
			continue
		}
		if err != nil {
			log.Printf("import row %d create error: %v", rowNum+2, err)
			stats.Skipped++
			continue
		}
		stats.Created++
	}

	log.Printf("import done file=%s created=%d updated=%d skipped=%d", path, stats.Created, stats.Updated, stats.Skipped)
	return stats, nil
}
