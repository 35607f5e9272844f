package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "employees.csv")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing csv: %v", err)
	}
	return path
}

func TestImportEmployeesCreates(t *testing.T) {
	repo := newTestRepo(t)
	path := writeCSV(t, "Employee_ID,Name,Department\nEMP001,Alice,Engineering\nEMP002,Bob,Sales\n")

	stats, err := ImportEmployees(context.Background(), repo, path)
	if err != nil {
		t.Fatalf("ImportEmployees failed: %v", err)
	}
	if stats.Created != 2 || stats.Updated != 0 || stats.Skipped != 0 {
		t.Fatalf("stats = %+v", stats)
	}

	got, err := repo.Get(context.Background(), "EMP001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Attr("Name") != "Alice" || got.Attr("Department") != "Engineering" {
		t.Errorf("imported attributes: %+v", got.Attributes)
	}
}

func TestImportEmployeesIsRepeatable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := writeCSV(t, "Employee_ID,Name,Department\nEMP001,Alice,Engineering\n")
	if _, err := ImportEmployees(ctx, repo, first); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	second := writeCSV(t, "Employee_ID,Name,Department\nEMP001,Alice,Platform\n")
	stats, err := ImportEmployees(ctx, repo, second)
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	if stats.Created != 0 || stats.Updated != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	got, _ := repo.Get(ctx, "EMP001")
	if got.Attr("Department") != "Platform" {
		t.Errorf("Department = %q after re-import", got.Attr("Department"))
	}
}

func TestImportEmployeesGeneratesIDs(t *testing.T) {
	repo := newTestRepo(t)
	path := writeCSV(t, "Name,Department\nCarol,Design\n")

	stats, err := ImportEmployees(context.Background(), repo, path)
	if err != nil {
		t.Fatalf("ImportEmployees failed: %v", err)
	}
	if stats.Created != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	employees, _, err := repo.Query(context.Background(), nil, 10, "")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(employees) != 1 || employees[0].ID == "" {
		t.Fatalf("imported employee missing generated ID: %+v", employees)
	}
}

func TestImportEmployeesEmptyFile(t *testing.T) {
	repo := newTestRepo(t)
	path := writeCSV(t, "Employee_ID,Name\n")

	if _, err := ImportEmployees(context.Background(), repo, path); err == nil {
		t.Fatal("expected error for header-only file")
	}
}
