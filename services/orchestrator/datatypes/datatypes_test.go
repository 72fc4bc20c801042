// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"testing"
)

func TestAnswerRequestEnsureDefaults(t *testing.T) {
	req := AnswerRequest{TenantID: "acme", Query: "what is the refund policy"}
	req.EnsureDefaults()

	if req.RequestID == "" {
		t.Error("expected RequestID to be generated")
	}
	if req.Timestamp == 0 {
		t.Error("expected Timestamp to be populated")
	}

	// Defaults must not clobber caller-supplied values.
	fixed := AnswerRequest{RequestID: "req-1", Timestamp: 42, TenantID: "acme", Query: "q"}
	fixed.EnsureDefaults()
	if fixed.RequestID != "req-1" {
		t.Errorf("RequestID = %q, want %q", fixed.RequestID, "req-1")
	}
	if fixed.Timestamp != 42 {
		t.Errorf("Timestamp = %d, want 42", fixed.Timestamp)
	}
}

func TestAnswerRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     AnswerRequest
		wantErr bool
	}{
		{
			name:    "valid",
			req:     AnswerRequest{RequestID: "r", Timestamp: 1, TenantID: "acme", Query: "q"},
			wantErr: false,
		},
		{
			name:    "missing tenant",
			req:     AnswerRequest{RequestID: "r", Timestamp: 1, Query: "q"},
			wantErr: true,
		},
		{
			name:    "missing query",
			req:     AnswerRequest{RequestID: "r", Timestamp: 1, TenantID: "acme"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAnalyticsRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     AnalyticsRequest
		wantErr bool
	}{
		{
			name: "valid",
			req: AnalyticsRequest{
				UserID: "u1", SessionID: "3",
				Question: "total revenue by region", Dataset: "sales",
			},
			wantErr: false,
		},
		{
			name:    "missing user",
			req:     AnalyticsRequest{SessionID: "3", Question: "q", Dataset: "sales"},
			wantErr: true,
		},
		{
			name:    "missing dataset",
			req:     AnalyticsRequest{UserID: "u1", SessionID: "3", Question: "q"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQueryPlanJSONContract(t *testing.T) {
	// Field names here are the generation contract; a drift breaks the
	// compiler's parsing of model output.
	raw := `{
		"preface": "Here is revenue by region.",
		"Title": "Revenue by Region",
		"X-axis": "region",
		"Y-axis": "revenue",
		"Legend": "",
		"sql_query": "SELECT region, SUM(revenue) FROM dataset GROUP BY region;",
		"Possible_charts": ["bar", "pie"],
		"col_list": ["region", "revenue"]
	}`

	var plan QueryPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if plan.Title != "Revenue by Region" {
		t.Errorf("Title = %q, want %q", plan.Title, "Revenue by Region")
	}
	if plan.XAxis != "region" {
		t.Errorf("XAxis = %q, want %q", plan.XAxis, "region")
	}
	if len(plan.PossibleCharts) != 2 {
		t.Errorf("PossibleCharts length = %d, want 2", len(plan.PossibleCharts))
	}
	if len(plan.ColList) != 2 {
		t.Errorf("ColList length = %d, want 2", len(plan.ColList))
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("tenant not found")
	if resp.Status != "error" {
		t.Errorf("Status = %q, want %q", resp.Status, "error")
	}
	if resp.Message != "tenant not found" {
		t.Errorf("Message = %q, want %q", resp.Message, "tenant not found")
	}
}
