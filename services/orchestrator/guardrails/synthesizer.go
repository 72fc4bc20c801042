// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package guardrails turns retrieved fragments into a grounded answer. Every
// answer passes a fixed gate sequence: context existence, attributed context
// assembly, constrained prompt construction, bounded generation, and
// not-found normalization. The gates are a contract, not a heuristic; the
// caller always receives either a grounded answer or one canonical refusal.
package guardrails

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/atharva9trix/plamboBE/services/llm"
	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
)

var tracer = otel.Tracer("plambo.guardrails")

// =============================================================================
// Canonical User-Facing Strings
// =============================================================================

// ScopeFallback is the single refusal string returned whenever the system
// cannot ground an answer in the tenant's knowledge. Callers key off this
// exact string, so it must never vary.
const ScopeFallback = "This question is not within the scope of the selected client. " +
	"Would you like me to perform a web search for this instead?"

// Generation failure strings. One per failure class, surfaced verbatim.
const (
	MsgGenerationTimeout = "The language model took too long to respond. Please try again."
	MsgServiceDown       = "The language model service is not running. Please start it and try again."
	MsgServiceError      = "The language model service returned an error. Please try again later."
)

// notFoundMarkers are phrasings models use to say the context lacked the
// answer. Any case-insensitive hit replaces the whole answer with
// ScopeFallback so callers see one canonical negative signal.
var notFoundMarkers = []string{
	"not available in the",
	"no mention of",
	"not in the context",
	"does not contain",
	"couldn't find",
	"cannot find",
	"no information about",
}

// =============================================================================
// Synthesizer
// =============================================================================

// Synthesizer runs the guardrail gate sequence over one query.
type Synthesizer struct {
	client            llm.LLMClient
	generationTimeout time.Duration
	allowNoContext    bool
	extraInstructions []string
}

// NewSynthesizer wires a synthesizer over a generation backend.
func NewSynthesizer(client llm.LLMClient, generationTimeout time.Duration, allowNoContext bool) *Synthesizer {
	return &Synthesizer{
		client:            client,
		generationTimeout: generationTimeout,
		allowNoContext:    allowNoContext,
	}
}

// WithExtraInstructions appends operator-supplied rules after the fixed
// ones. The fixed rules cannot be removed or reordered. Returns the
// receiver for chaining at wiring time.
func (s *Synthesizer) WithExtraInstructions(instructions []string) *Synthesizer {
	s.extraInstructions = instructions
	return s
}

// Answer produces a grounded answer from retrieved fragments.
//
// # Description
//
// Applies the gates in order. With empty retrieval the generation backend is
// never called and ScopeFallback is returned immediately, unless context-free
// generation was explicitly enabled. Generation failures are mapped to fixed
// user-facing strings and never retried; a retry could double-bill an
// external generation call. A raw answer containing any not-found marker is
// discarded and replaced with ScopeFallback.
//
// # Inputs
//   - ctx: request context. The generation call gets a derived deadline.
//   - tenantName: the tenant's display name, used in the prompt.
//   - query: the user's question.
//   - retrieved: relevance-ordered fragments from the tenant's store.
//   - convoCtx: optional prior conversation context supplied by the caller.
//
// # Outputs
//   - string: the answer or one of the canonical fixed strings. Never empty.
//   - error: nil. Failures are folded into the returned string so handlers
//     always have something presentable; reserved for future hard failures.
func (s *Synthesizer) Answer(ctx context.Context, tenantName, query string,
	retrieved []datatypes.RetrievalResult, convoCtx string) (string, error) {

	ctx, span := tracer.Start(ctx, "Synthesizer.Answer")
	defer span.End()
	span.SetAttributes(attribute.Int("guardrails.fragments", len(retrieved)))

	if len(retrieved) == 0 && !s.allowNoContext {
		slog.Info("Refusing out-of-scope query", "tenant", tenantName)
		span.SetAttributes(attribute.Bool("guardrails.refused", true))
		return ScopeFallback, nil
	}

	prompt := s.buildPrompt(tenantName, query, retrieved, convoCtx)

	genCtx, cancel := context.WithTimeout(ctx, s.generationTimeout)
	defer cancel()

	raw, err := s.client.Generate(genCtx, prompt, llm.GenerationParams{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		msg := classifyGenerationFailure(err)
		slog.Error("Generation failed", "tenant", tenantName, "error", err, "user_message", msg)
		return msg, nil
	}

	answer := strings.TrimSpace(raw)
	if answer == "" {
		slog.Warn("Generation returned empty answer", "tenant", tenantName)
		return ScopeFallback, nil
	}

	if containsNotFoundMarker(answer) {
		slog.Info("Normalizing not-found answer", "tenant", tenantName)
		span.SetAttributes(attribute.Bool("guardrails.normalized", true))
		return ScopeFallback, nil
	}

	return answer, nil
}

// containsNotFoundMarker reports whether the answer reads as a negative
// result under any curated marker.
func containsNotFoundMarker(answer string) bool {
	lower := strings.ToLower(answer)
	for _, marker := range notFoundMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// classifyGenerationFailure maps a generation error to its fixed user string.
func classifyGenerationFailure(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return MsgGenerationTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return MsgGenerationTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return MsgServiceDown
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return MsgServiceDown
	}
	return MsgServiceError
}

// =============================================================================
// Prompt Assembly
// =============================================================================

// buildPrompt assembles the constrained instruction block. Each fragment is
// listed with its source and similarity percentage; attribution survives
// verbatim into the prompt, fragments are never merged or summarized.
func (s *Synthesizer) buildPrompt(tenantName, query string, retrieved []datatypes.RetrievalResult, convoCtx string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are answering questions strictly about %s.\n\n", tenantName)
	b.WriteString("Context:\n")
	for i, r := range retrieved {
		pct := int(r.Similarity * 100)
		fmt.Fprintf(&b, "[%d] (%d%% match) source: %s\n%s\n\n", i+1, pct, r.Fragment.Source, r.Fragment.Text)
	}

	if convoCtx != "" {
		fmt.Fprintf(&b, "Prior conversation:\n%s\n\n", convoCtx)
	}

	b.WriteString("Rules:\n")
	b.WriteString("1. Answer only from the context above. Do not use outside knowledge.\n")
	b.WriteString("2. Never reference any other client or data scope.\n")
	b.WriteString("3. Format the answer as bullet points.\n")
	b.WriteString("4. Resolve pronouns using the prior conversation only when it is supplied above.\n")
	b.WriteString("5. Treat this request as independent. Do not assume any context that is not supplied.\n")
	for i, rule := range s.extraInstructions {
		fmt.Fprintf(&b, "%d. %s\n", 6+i, rule)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Question: %s\n", query)
	return b.String()
}
