// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/atharva9trix/plamboBE/services/llm"
	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
	"github.com/atharva9trix/plamboBE/services/orchestrator/observability"
	"github.com/atharva9trix/plamboBE/services/orchestrator/sessions"
	"github.com/atharva9trix/plamboBE/services/orchestrator/sqlagent"
)

// =============================================================================
// Pipeline States
// =============================================================================

// pipelineState tracks where an analytical request is in its lifecycle.
// Rejected and executionError are terminal with a message; there is no retry
// loop back into plan generation, the caller issues a new request.
type pipelineState string

const (
	stateReceived       pipelineState = "RECEIVED"
	stateSchemaLoaded   pipelineState = "SCHEMA_LOADED"
	statePlanGenerated  pipelineState = "PLAN_GENERATED"
	stateValidated      pipelineState = "VALIDATED"
	stateRejected       pipelineState = "REJECTED"
	stateRepaired       pipelineState = "REPAIRED"
	stateExecuted       pipelineState = "EXECUTED"
	statePersisted      pipelineState = "PERSISTED"
	stateResponded      pipelineState = "RESPONDED"
	stateExecutionError pipelineState = "EXECUTION_ERROR"
)

// Response statuses for the analytical endpoint.
const (
	AnalyticsStatusSuccess      = "success"
	AnalyticsStatusInvalidQuery = "invalid_query"
	AnalyticsStatusNoData       = "no_data"
	AnalyticsStatusExecError    = "execution_error"
)

// User-facing messages for non-success outcomes.
const (
	msgInvalidQuery = "Query invalid: %s. Try a different question?"
	msgNoData       = "No data found for this query. Try another question?"
)

// =============================================================================
// Analytics Service
// =============================================================================

// AnalyticsService runs the analytical pipeline: schema load, plan
// generation, validation, column repair, execution, persistence.
type AnalyticsService struct {
	compiler      *sqlagent.Compiler
	executor      *sqlagent.Executor
	store         *sessions.Store
	insightsLLM   llm.LLMClient
	historyWindow int
}

// NewAnalyticsService wires the analytical pipeline.
func NewAnalyticsService(compiler *sqlagent.Compiler, executor *sqlagent.Executor,
	store *sessions.Store, insightsLLM llm.LLMClient, historyWindow int) *AnalyticsService {
	return &AnalyticsService{
		compiler:      compiler,
		executor:      executor,
		store:         store,
		insightsLLM:   insightsLLM,
		historyWindow: historyWindow,
	}
}

// Process answers one analytical question against the conversation's dataset.
//
// # Description
//
// Walks the pipeline states in order. Rejection and execution failure are
// terminal outcomes carried in the response, not errors; the returned error
// is reserved for infrastructure failures (bad session id, unreadable
// dataset, storage trouble). On success or an empty result the exchange is
// persisted before the response is built, so a crash can lose an answer but
// never record one that was not computed.
//
// # Inputs
//   - ctx: request context.
//   - req: the validated analytical request.
//
// # Outputs
//   - *datatypes.AnalyticsResponse: plan fields plus outcome.
//   - error: infrastructure failure only.
func (s *AnalyticsService) Process(ctx context.Context, req *datatypes.AnalyticsRequest) (*datatypes.AnalyticsResponse, error) {
	ctx, span := tracer.Start(ctx, "AnalyticsService.Process")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.id", req.RequestID),
		attribute.String("analytics.user", req.UserID),
		attribute.String("analytics.dataset", req.Dataset),
	)

	state := stateReceived
	defer func() {
		span.SetAttributes(attribute.String("analytics.final_state", string(state)))
	}()

	sessionID, err := strconv.Atoi(req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("session id %q is not numeric: %w", req.SessionID, err)
	}
	key := datatypes.SessionKey{UserID: req.UserID, SessionID: sessionID}
	dbPath := s.executor.DatasetPath(req.UserID, sessionID, req.Dataset)

	// Step 1: Load the dataset schema
	columns, err := sqlagent.SchemaColumns(ctx, dbPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Failed to load dataset schema", "request_id", req.RequestID,
			"dataset", req.Dataset, "error", err)
		return nil, fmt.Errorf("unable to read dataset %q: %w", req.Dataset, err)
	}
	state = stateSchemaLoaded

	// Step 2: Pull recent history for follow-up context
	history, err := s.store.Recent(ctx, key, s.historyWindow)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Step 3: Generate the plan
	genStart := time.Now()
	plan, err := s.compiler.Compile(ctx, req.Question, columns, history)
	observability.RecordGeneration("plan", time.Since(genStart).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if sqlagent.IsPlanParseError(err) {
			observability.RecordPlanOutcome("parse_error")
		}
		return nil, err
	}
	state = statePlanGenerated

	// Step 4: Validate
	verdict := sqlagent.Validate(plan.SQLQuery)
	if !verdict.Accepted {
		state = stateRejected
		observability.RecordPlanOutcome("rejected")
		slog.Info("Plan rejected", "request_id", req.RequestID, "reason", verdict.Reason)
		return &datatypes.AnalyticsResponse{
			Status:   AnalyticsStatusInvalidQuery,
			Question: req.Question,
			Message:  fmt.Sprintf(msgInvalidQuery, verdict.Reason),
		}, nil
	}
	state = stateValidated
	observability.RecordPlanOutcome("accepted")

	// Step 5: Repair column names against the real schema
	repaired := sqlagent.RepairColumns(plan.SQLQuery, columns)
	if repaired != plan.SQLQuery {
		slog.Debug("Columns repaired", "request_id", req.RequestID)
	}
	plan.SQLQuery = repaired
	state = stateRepaired

	// Step 6: Execute
	execStart := time.Now()
	result := s.executor.Execute(ctx, dbPath, plan.SQLQuery, plan.ColList)
	observability.RecordExecution(result.Status, time.Since(execStart).Seconds())
	state = stateExecuted

	if result.Status == datatypes.ExecStatusError {
		state = stateExecutionError
		slog.Warn("Execution failed", "request_id", req.RequestID, "detail", result.ErrorDetail)
		return &datatypes.AnalyticsResponse{
			Status:   AnalyticsStatusExecError,
			Question: req.Question,
			SQLQuery: plan.SQLQuery,
			ColList:  plan.ColList,
			Message:  result.ErrorDetail,
		}, nil
	}

	// Step 7: Persist the exchange, then close the bootstrap window
	if err := s.persistExchange(ctx, key, req.Question, plan, result.Status); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	state = statePersisted

	// Step 8: Build the response
	resp := &datatypes.AnalyticsResponse{
		Question:       req.Question,
		Preface:        plan.Preface,
		Title:          plan.Title,
		XAxis:          plan.XAxis,
		YAxis:          plan.YAxis,
		Legend:         plan.Legend,
		SQLQuery:       plan.SQLQuery,
		PossibleCharts: plan.PossibleCharts,
		ColList:        plan.ColList,
	}
	if result.Status == datatypes.ExecStatusNoData {
		resp.Status = AnalyticsStatusNoData
		resp.Message = msgNoData
	} else {
		resp.Status = AnalyticsStatusSuccess
		resp.Rows = result.Rows
	}
	state = stateResponded
	slog.Info("Analytical question answered", "request_id", req.RequestID,
		"status", resp.Status, "rows", len(resp.Rows))
	return resp, nil
}

// persistExchange appends the question and serialized plan to the session
// log and marks the session active so the next bootstrap starts fresh.
func (s *AnalyticsService) persistExchange(ctx context.Context, key datatypes.SessionKey,
	question string, plan *datatypes.QueryPlan, status string) error {

	record := struct {
		*datatypes.QueryPlan
		Status string `json:"status"`
	}{QueryPlan: plan, Status: status}
	answer, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize plan for persistence: %w", err)
	}
	if err := s.store.Append(ctx, key, question, string(answer)); err != nil {
		return err
	}
	return s.store.MarkActive(ctx, key)
}

// =============================================================================
// Insights
// =============================================================================

// Insights summarizes a prior analytical result in natural language.
func (s *AnalyticsService) Insights(ctx context.Context, req *datatypes.InsightsRequest) (*datatypes.InsightsResponse, error) {
	ctx, span := tracer.Start(ctx, "AnalyticsService.Insights")
	defer span.End()

	rows, err := json.Marshal(req.Rows)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize rows: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a data analyst. Summarize the key insights from this query result\n")
	b.WriteString("in 3-5 short bullet points. Mention concrete numbers. Do not mention SQL.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", req.Question)
	fmt.Fprintf(&b, "Query: %s\n", req.SQLQuery)
	fmt.Fprintf(&b, "Result rows: %s\n", string(rows))

	genStart := time.Now()
	text, err := s.insightsLLM.Generate(ctx, b.String(), llm.GenerationParams{})
	observability.RecordGeneration("insights", time.Since(genStart).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("insights generation failed: %w", err)
	}
	return &datatypes.InsightsResponse{
		Status:   "success",
		Insights: strings.TrimSpace(text),
	}, nil
}
