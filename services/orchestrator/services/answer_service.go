// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package services wires the orchestrator's pipelines: grounded answering
// over tenant knowledge, and the analytical question-to-result flow.
package services

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
	"github.com/atharva9trix/plamboBE/services/orchestrator/guardrails"
	"github.com/atharva9trix/plamboBE/services/orchestrator/observability"
	"github.com/atharva9trix/plamboBE/services/orchestrator/profiles"
)

var tracer = otel.Tracer("plambo.services")

// AnswerService runs the grounded answering pipeline: resolve tenant,
// retrieve fragments, synthesize under guardrails.
type AnswerService struct {
	registry    *profiles.Registry
	retriever   *profiles.Retriever
	synthesizer *guardrails.Synthesizer
}

// NewAnswerService wires the answering pipeline.
func NewAnswerService(registry *profiles.Registry, retriever *profiles.Retriever,
	synthesizer *guardrails.Synthesizer) *AnswerService {
	return &AnswerService{
		registry:    registry,
		retriever:   retriever,
		synthesizer: synthesizer,
	}
}

// Process answers one query against one tenant's knowledge.
//
// # Inputs
//   - ctx: request context.
//   - req: the validated answer request.
//
// # Outputs
//   - *datatypes.AnswerResponse: the answer plus the attributed fragments
//     it was grounded on.
//   - error: tenant resolution or retrieval failure. Generation failures do
//     not error; the guardrails fold them into the answer string.
func (s *AnswerService) Process(ctx context.Context, req *datatypes.AnswerRequest) (*datatypes.AnswerResponse, error) {
	ctx, span := tracer.Start(ctx, "AnswerService.Process")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.id", req.RequestID),
		attribute.String("tenant.id", req.TenantID),
	)

	// Step 1: Resolve the tenant
	profile, err := s.registry.Resolve(req.TenantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Step 2: Retrieve relevant fragments
	retrieved, err := s.retriever.Retrieve(ctx, profile.ID, req.Query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Retrieval failed", "request_id", req.RequestID, "tenant", profile.ID, "error", err)
		return nil, err
	}
	observability.RecordRetrieval(profile.ID, len(retrieved))

	// Step 3: Synthesize under guardrails
	answer, err := s.synthesizer.Answer(ctx, profile.DisplayName, req.Query, retrieved, req.ConversationContext)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if answer == guardrails.ScopeFallback {
		observability.RecordRefusal("no_context")
	}

	// Step 4: Build the response
	resp := &datatypes.AnswerResponse{
		Status:           "success",
		TenantID:         profile.ID,
		Query:            req.Query,
		Answer:           answer,
		ContextRetrieved: len(retrieved),
	}
	slog.Info("Answer produced", "request_id", req.RequestID, "tenant", profile.ID,
		"fragments", len(retrieved))
	return resp, nil
}
