// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the orchestrator service.
//
// This file contains request and response types for the tenant-scoped
// knowledge answer endpoint. For the analytical (NL-to-SQL) types, see
// analytics.go.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// answerValidate is the validator instance for answer datatypes.
var answerValidate = validator.New()

// =============================================================================
// Retrieval Types
// =============================================================================

// Fragment is one unit of indexed text with its attribution label.
// Fragments are immutable once indexed.
type Fragment struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// RetrievalResult is a fragment that cleared the relevance threshold for a
// query, with its similarity in [0,1]. Slices of RetrievalResult are always
// ordered by descending similarity.
type RetrievalResult struct {
	Fragment   Fragment `json:"fragment"`
	Similarity float64  `json:"similarity"`
}

// =============================================================================
// Answer Endpoint Types
// =============================================================================

// AnswerRequest is the body of POST /v1/query.
//
// # Fields
//
//   - TenantID: Required. Must resolve against the configured tenant set;
//     unknown tenants are a hard error, never defaulted.
//   - Query: Required. The user's natural-language question.
//   - ConversationContext: Optional. Prior conversation text supplied by the
//     caller for pronoun resolution. The synthesizer only consults it when
//     explicitly present; requests are otherwise independent.
type AnswerRequest struct {
	RequestID           string `json:"request_id"`
	Timestamp           int64  `json:"timestamp"`
	TenantID            string `json:"tenant_id" validate:"required"`
	Query               string `json:"query" validate:"required"`
	ConversationContext string `json:"conversation_context,omitempty"`
}

// EnsureDefaults populates RequestID and Timestamp if the caller omitted them.
func (r *AnswerRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = uuid.New().String()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
}

// Validate checks required fields. A nil return means the request is
// well-formed; it says nothing about whether the tenant exists.
func (r *AnswerRequest) Validate() error {
	return answerValidate.Struct(r)
}

// AnswerResponse is the body returned by POST /v1/query.
type AnswerResponse struct {
	Status           string `json:"status"`
	TenantID         string `json:"tenant_id"`
	Query            string `json:"query"`
	Answer           string `json:"answer"`
	ContextRetrieved int    `json:"context_retrieved_count"`
}

// ErrorResponse is the uniform error body for every endpoint. Handlers never
// surface stack traces or raw internal errors to callers.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewErrorResponse builds the canonical {status:"error", message} body.
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Status: "error", Message: message}
}
