// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package guardrails

import (
	"context"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/atharva9trix/plamboBE/services/llm"
	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
)

// mockLLM records calls and returns a canned response or error.
type mockLLM struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func someRetrieval() []datatypes.RetrievalResult {
	return []datatypes.RetrievalResult{
		{Fragment: datatypes.Fragment{Text: "Refunds take 5 days.", Source: "policy.md"}, Similarity: 0.92},
		{Fragment: datatypes.Fragment{Text: "Contact support first.", Source: "faq.md"}, Similarity: 0.41},
	}
}

func TestAnswerRefusesWithoutContext(t *testing.T) {
	mock := &mockLLM{response: "should never be seen"}
	syn := NewSynthesizer(mock, time.Minute, false)

	got, err := syn.Answer(context.Background(), "Acme", "what is quantum gravity", nil, "")
	if err != nil {
		t.Fatalf("Answer() failed: %v", err)
	}
	if got != ScopeFallback {
		t.Errorf("Answer() = %q, want ScopeFallback", got)
	}
	if mock.calls != 0 {
		t.Errorf("generation backend called %d times with empty retrieval, want 0", mock.calls)
	}
}

func TestAnswerAllowNoContext(t *testing.T) {
	mock := &mockLLM{response: "- Generated without context"}
	syn := NewSynthesizer(mock, time.Minute, true)

	got, err := syn.Answer(context.Background(), "Acme", "q", nil, "")
	if err != nil {
		t.Fatalf("Answer() failed: %v", err)
	}
	if got != "- Generated without context" {
		t.Errorf("Answer() = %q", got)
	}
	if mock.calls != 1 {
		t.Errorf("generation backend called %d times, want 1", mock.calls)
	}
}

func TestAnswerPromptAttribution(t *testing.T) {
	mock := &mockLLM{response: "- Refunds take 5 days."}
	syn := NewSynthesizer(mock, time.Minute, false)

	if _, err := syn.Answer(context.Background(), "Acme", "refund time?", someRetrieval(), ""); err != nil {
		t.Fatalf("Answer() failed: %v", err)
	}

	for _, want := range []string{
		"(92% match) source: policy.md",
		"(41% match) source: faq.md",
		"Answer only from the context",
		"Question: refund time?",
	} {
		if !strings.Contains(mock.lastPrompt, want) {
			t.Errorf("prompt missing %q\nprompt:\n%s", want, mock.lastPrompt)
		}
	}
}

func TestAnswerExtraInstructions(t *testing.T) {
	mock := &mockLLM{response: "- ok"}
	syn := NewSynthesizer(mock, time.Minute, false).
		WithExtraInstructions([]string{"Answer in French."})

	if _, err := syn.Answer(context.Background(), "Acme", "q", someRetrieval(), ""); err != nil {
		t.Fatalf("Answer() failed: %v", err)
	}

	if !strings.Contains(mock.lastPrompt, "6. Answer in French.") {
		t.Errorf("prompt missing appended rule:\n%s", mock.lastPrompt)
	}
	// The fixed rules stay first.
	if !strings.Contains(mock.lastPrompt, "1. Answer only from the context") {
		t.Errorf("prompt missing fixed rule:\n%s", mock.lastPrompt)
	}
}

func TestAnswerNotFoundNormalization(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "marker replaced",
			response: "The provided documents do not contain that answer.",
			want:     ScopeFallback,
		},
		{
			name:     "marker case-insensitive",
			response: "There is NO MENTION OF that topic here.",
			want:     ScopeFallback,
		},
		{
			name:     "clean answer passes through",
			response: "- Refunds take 5 days.",
			want:     "- Refunds take 5 days.",
		},
		{
			name:     "empty answer becomes fallback",
			response: "   ",
			want:     ScopeFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockLLM{response: tt.response}
			syn := NewSynthesizer(mock, time.Minute, false)
			got, err := syn.Answer(context.Background(), "Acme", "q", someRetrieval(), "")
			if err != nil {
				t.Fatalf("Answer() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Answer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnswerFailureClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline exceeded",
			err:  fmt.Errorf("call failed: %w", context.DeadlineExceeded),
			want: MsgGenerationTimeout,
		},
		{
			name: "connection refused",
			err:  fmt.Errorf("call failed: %w", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}),
			want: MsgServiceDown,
		},
		{
			name: "other error",
			err:  fmt.Errorf("backend returned status 500"),
			want: MsgServiceError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockLLM{err: tt.err}
			syn := NewSynthesizer(mock, time.Minute, false)
			got, err := syn.Answer(context.Background(), "Acme", "q", someRetrieval(), "")
			if err != nil {
				t.Fatalf("Answer() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Answer() = %q, want %q", got, tt.want)
			}
			if mock.calls != 1 {
				t.Errorf("calls = %d, want 1 (no retries)", mock.calls)
			}
		})
	}
}
