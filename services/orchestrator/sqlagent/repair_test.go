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

import "testing"

func TestRepairColumns(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		columns []string
		want    string
	}{
		{
			name:    "spaced column name",
			sql:     "select customername from dataset;",
			columns: []string{"Customer Name"},
			want:    `select "Customer Name" from dataset;`,
		},
		{
			name:    "parenthesized unit",
			sql:     "select sum(revenueusd) from dataset;",
			columns: []string{"Revenue (USD)"},
			want:    `select sum("Revenue (USD)") from dataset;`,
		},
		{
			name:    "underscored guess",
			sql:     "select round(sum(revenue_usd),2) from dataset;",
			columns: []string{"Revenue (USD)"},
			want:    `select round(sum("Revenue (USD)"),2) from dataset;`,
		},
		{
			name:    "underscored spaced name",
			sql:     "select customer_name from dataset;",
			columns: []string{"Customer Name"},
			want:    `select "Customer Name" from dataset;`,
		},
		{
			name:    "underscored percent guess",
			sql:     "select growth_percent from dataset;",
			columns: []string{"Growth %"},
			want:    `select "Growth %" from dataset;`,
		},
		{
			name:    "percent sign",
			sql:     "select growth from dataset;",
			columns: []string{"Growth %"},
			want:    `select "Growth %" from dataset;`,
		},
		{
			name:    "case-insensitive match",
			sql:     "select CUSTOMERNAME from dataset;",
			columns: []string{"Customer Name"},
			want:    `select "Customer Name" from dataset;`,
		},
		{
			name:    "no partial word substitution",
			sql:     "select regional from dataset;",
			columns: []string{"region"},
			want:    "select regional from dataset;",
		},
		{
			name:    "plain name gets quoted",
			sql:     "select region from dataset where lower(region) = 'west';",
			columns: []string{"region"},
			want:    `select "region" from dataset where lower("region") = 'west';`,
		},
		{
			name:    "no columns is a no-op",
			sql:     "select 1;",
			columns: nil,
			want:    "select 1;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RepairColumns(tt.sql, tt.columns)
			if got != tt.want {
				t.Errorf("RepairColumns() = %q, want %q", got, tt.want)
			}
		})
	}
}

// A column whose name appears as a word inside another column's quoted real
// name must not be rewritten within that span.
func TestRepairColumnsNestedName(t *testing.T) {
	columns := []string{"Revenue (USD)", "USD"}
	sql := "select revenue_usd, usd from dataset;"
	want := `select "Revenue (USD)", "USD" from dataset;`

	got := RepairColumns(sql, columns)
	if got != want {
		t.Errorf("RepairColumns() = %q, want %q", got, want)
	}

	again := RepairColumns(got, columns)
	if again != got {
		t.Errorf("repair not idempotent with nested names:\nonce:  %q\ntwice: %q", got, again)
	}
}

// Repair must be idempotent: a second pass over repaired SQL changes nothing.
func TestRepairColumnsIdempotent(t *testing.T) {
	columns := []string{"Customer Name", "Revenue (USD)", "region"}
	sql := "select customer_name, sum(revenue_usd) from dataset where lower(region) = 'west' group by customername;"

	once := RepairColumns(sql, columns)
	twice := RepairColumns(once, columns)
	if once != twice {
		t.Errorf("repair not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}

	thrice := RepairColumns(twice, columns)
	if twice != thrice {
		t.Errorf("repair not stable on third pass:\ntwice:  %q\nthrice: %q", twice, thrice)
	}
}

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Customer Name", "customername"},
		{"Revenue (USD)", "revenueusd"},
		{"Growth %", "growth"},
		{"region", "region"},
	}
	for _, tt := range tests {
		if got := normalizeColumn(tt.in); got != tt.want {
			t.Errorf("normalizeColumn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeUnderscored(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Customer Name", "customer_name"},
		{"Revenue (USD)", "revenue_usd"},
		{"Growth %", "growth_percent"},
		{"region", "region"},
	}
	for _, tt := range tests {
		if got := normalizeUnderscored(tt.in); got != tt.want {
			t.Errorf("normalizeUnderscored(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
