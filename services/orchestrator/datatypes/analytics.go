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
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var analyticsValidate = validator.New()

// =============================================================================
// Execution Status Values
// =============================================================================

// Execution result statuses. These are the only values the analytical
// pipeline reports to callers.
const (
	ExecStatusSuccess = "success"
	ExecStatusNoData  = "no_data"
	ExecStatusError   = "error"
)

// =============================================================================
// Query Plan
// =============================================================================

// QueryPlan is the structured output of the NL-to-SQL compiler, prior to
// validation and execution. The JSON field names are the generation
// collaborator's output contract and must not drift from the prompt in
// sqlagent/compiler.go.
//
// A plan is produced once per analytical question and consumed exactly once
// by the validator.
type QueryPlan struct {
	// Preface is a short conversational restatement of the user's intent.
	Preface string `json:"preface"`

	// Title, XAxis, YAxis and Legend are visualization hints. They are
	// always populated, even for single-value (KPI) results.
	Title  string `json:"Title"`
	XAxis  string `json:"X-axis"`
	YAxis  string `json:"Y-axis"`
	Legend string `json:"Legend,omitempty"`

	// SQLQuery is the proposed statement. It references the fixed virtual
	// relation name and terminates with a semicolon.
	SQLQuery string `json:"sql_query"`

	// PossibleCharts lists chart types suited to the result shape.
	PossibleCharts []string `json:"Possible_charts"`

	// ColList names every column referenced anywhere in the query. It is
	// surfaced to the caller as a datatype hint when execution fails.
	ColList []string `json:"col_list"`
}

// =============================================================================
// Execution Result
// =============================================================================

// ExecutionResult is the outcome of running a validated, repaired plan
// against the analytical engine.
type ExecutionResult struct {
	Status      string           `json:"status"`
	Rows        []map[string]any `json:"rows,omitempty"`
	ErrorDetail string           `json:"error_detail,omitempty"`
}

// =============================================================================
// Analytical Endpoint Types
// =============================================================================

// AnalyticsRequest is the body of POST /v1/analytics/query.
type AnalyticsRequest struct {
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	UserID    string `json:"user_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
	Question  string `json:"question" validate:"required"`
	Dataset   string `json:"dataset_name" validate:"required"`
}

// EnsureDefaults populates RequestID and Timestamp if the caller omitted them.
func (r *AnalyticsRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = uuid.New().String()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
}

// Validate checks required fields.
func (r *AnalyticsRequest) Validate() error {
	return analyticsValidate.Struct(r)
}

// AnalyticsResponse is the body returned by POST /v1/analytics/query. It
// carries the plan's presentation fields plus the execution outcome so the
// caller can render a chart or an error in one round trip.
type AnalyticsResponse struct {
	Status         string           `json:"status"`
	Question       string           `json:"question"`
	Preface        string           `json:"preface,omitempty"`
	Title          string           `json:"Title,omitempty"`
	XAxis          string           `json:"X-axis,omitempty"`
	YAxis          string           `json:"Y-axis,omitempty"`
	Legend         string           `json:"Legend,omitempty"`
	SQLQuery       string           `json:"sql_query,omitempty"`
	PossibleCharts []string         `json:"Possible_charts,omitempty"`
	ColList        []string         `json:"col_list,omitempty"`
	Rows           []map[string]any `json:"rows,omitempty"`
	Message        string           `json:"message,omitempty"`
}

// InsightsRequest is the body of POST /v1/analytics/insights. The caller
// echoes back a prior analytical response to have it summarized.
type InsightsRequest struct {
	Question string           `json:"question" validate:"required"`
	SQLQuery string           `json:"sql_query" validate:"required"`
	Rows     []map[string]any `json:"rows"`
}

// Validate checks required fields.
func (r *InsightsRequest) Validate() error {
	return analyticsValidate.Struct(r)
}

// InsightsResponse is the body returned by POST /v1/analytics/insights.
type InsightsResponse struct {
	Status   string `json:"status"`
	Insights string `json:"insights"`
}
