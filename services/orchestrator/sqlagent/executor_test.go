// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sqlagent

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
)

// newDatasetFile creates a dataset db with a few rows and returns its path.
func newDatasetFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "u1_1_sales.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open dataset: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE dataset (region TEXT, "Revenue (USD)" REAL, units INTEGER)`,
		`INSERT INTO dataset VALUES ('west', 1200.50, 10)`,
		`INSERT INTO dataset VALUES ('east', 800.25, 7)`,
		`INSERT INTO dataset VALUES ('west', 300.00, 2)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed dataset: %v", err)
		}
	}
	return path
}

func TestExecuteSuccess(t *testing.T) {
	path := newDatasetFile(t)
	e := NewExecutor(filepath.Dir(path), 10*time.Second)

	res := e.Execute(context.Background(), path,
		`SELECT region, round(sum("Revenue (USD)"), 2) AS revenue FROM dataset GROUP BY region ORDER BY region;`,
		[]string{"region", "Revenue (USD)"})

	if res.Status != datatypes.ExecStatusSuccess {
		t.Fatalf("Status = %q, want success (detail: %s)", res.Status, res.ErrorDetail)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(res.Rows))
	}
	if res.Rows[0]["region"] != "east" {
		t.Errorf("first row region = %v, want east", res.Rows[0]["region"])
	}
	if rev, ok := res.Rows[1]["revenue"].(float64); !ok || rev != 1500.50 {
		t.Errorf("west revenue = %v, want 1500.50", res.Rows[1]["revenue"])
	}
}

func TestExecuteNoData(t *testing.T) {
	path := newDatasetFile(t)
	e := NewExecutor(filepath.Dir(path), 10*time.Second)

	res := e.Execute(context.Background(), path,
		`SELECT region FROM dataset WHERE region = 'north';`, []string{"region"})
	if res.Status != datatypes.ExecStatusNoData {
		t.Errorf("Status = %q, want no_data", res.Status)
	}
	if len(res.Rows) != 0 {
		t.Errorf("got %d rows, want 0", len(res.Rows))
	}
}

func TestExecuteErrorSurfacesColumnHint(t *testing.T) {
	path := newDatasetFile(t)
	e := NewExecutor(filepath.Dir(path), 10*time.Second)

	res := e.Execute(context.Background(), path,
		`SELECT no_such_column FROM dataset;`, []string{"region", "units"})
	if res.Status != datatypes.ExecStatusError {
		t.Fatalf("Status = %q, want error", res.Status)
	}
	if !strings.Contains(res.ErrorDetail, "Check datatype of [region, units]") {
		t.Errorf("ErrorDetail = %q, want column hint", res.ErrorDetail)
	}
}

func TestExecuteReadOnly(t *testing.T) {
	path := newDatasetFile(t)
	e := NewExecutor(filepath.Dir(path), 10*time.Second)

	// Datasets are opened read-only; a write attempt is an error outcome,
	// not a mutation.
	res := e.Execute(context.Background(), path,
		`DELETE FROM dataset;`, []string{"region"})
	if res.Status != datatypes.ExecStatusError {
		t.Fatalf("Status = %q, want error", res.Status)
	}

	check := e.Execute(context.Background(), path,
		`SELECT count(*) AS n FROM dataset;`, nil)
	if check.Status != datatypes.ExecStatusSuccess {
		t.Fatalf("count check failed: %s", check.ErrorDetail)
	}
	if n, ok := check.Rows[0]["n"].(int64); !ok || n != 3 {
		t.Errorf("row count after write attempt = %v, want 3", check.Rows[0]["n"])
	}
}

func TestDatasetPath(t *testing.T) {
	e := NewExecutor("/data/sets", time.Second)
	got := e.DatasetPath("u1", 4, "sales")
	want := filepath.Join("/data/sets", "u1_4_sales.db")
	if got != want {
		t.Errorf("DatasetPath() = %q, want %q", got, want)
	}
}

func TestSchemaColumns(t *testing.T) {
	path := newDatasetFile(t)

	cols, err := SchemaColumns(context.Background(), path)
	if err != nil {
		t.Fatalf("SchemaColumns() failed: %v", err)
	}
	want := []string{"region", "Revenue (USD)", "units"}
	if len(cols) != len(want) {
		t.Fatalf("got %d columns, want %d", len(cols), len(want))
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("cols[%d] = %q, want %q", i, cols[i], want[i])
		}
	}
}

func TestSchemaColumnsMissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE other (x INTEGER)"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	db.Close()

	if _, err := SchemaColumns(context.Background(), path); err == nil {
		t.Error("SchemaColumns() succeeded without dataset table, want error")
	}
}
