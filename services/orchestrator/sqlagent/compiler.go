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
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/atharva9trix/plamboBE/services/llm"
	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
)

var tracer = otel.Tracer("plambo.sqlagent")

// RelationName is the fixed virtual relation every generated query must
// reference. The executor maps it to the conversation's dataset table.
const RelationName = "dataset"

// maxHistoryExchanges caps how many prior exchanges seed a new plan.
const maxHistoryExchanges = 5

// PlanParseError is returned when the generation collaborator's output is
// not the strict JSON object the prompt demands.
type PlanParseError struct {
	Raw string
	Err error
}

// Error implements the error interface for PlanParseError.
func (e *PlanParseError) Error() string {
	return fmt.Sprintf("failed to parse query plan: %v", e.Err)
}

// Unwrap exposes the underlying cause.
func (e *PlanParseError) Unwrap() error { return e.Err }

// IsPlanParseError checks if an error is a PlanParseError.
func IsPlanParseError(err error) bool {
	_, ok := err.(*PlanParseError)
	return ok
}

// Compiler turns a natural-language question into a QueryPlan. It only
// proposes; validation and execution happen downstream.
type Compiler struct {
	client llm.LLMClient
}

// NewCompiler wires a compiler over a generation backend.
func NewCompiler(client llm.LLMClient) *Compiler {
	return &Compiler{client: client}
}

// Compile asks the generation collaborator for a plan.
//
// # Inputs
//   - ctx: request context, bounds the generation call.
//   - question: the user's analytical question.
//   - columns: the literal schema column list; the prompt forbids inventing
//     columns outside it.
//   - history: prior exchanges for the session, oldest first. Only the most
//     recent five are included so follow-ups can reuse prior filters.
//
// # Outputs
//   - *datatypes.QueryPlan: the proposed plan.
//   - error: generation failure or *PlanParseError.
func (c *Compiler) Compile(ctx context.Context, question string, columns []string,
	history []datatypes.ExchangeEntry) (*datatypes.QueryPlan, error) {

	ctx, span := tracer.Start(ctx, "Compiler.Compile")
	defer span.End()
	span.SetAttributes(
		attribute.Int("compile.columns", len(columns)),
		attribute.Int("compile.history", len(history)),
	)

	prompt := buildPlanPrompt(question, columns, history)
	raw, err := c.client.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	plan, err := parsePlan(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Plan output was not valid JSON", "error", err)
		return nil, err
	}
	slog.Debug("Plan generated", "sql", plan.SQLQuery)
	return plan, nil
}

// parsePlan tolerates the fenced output models emit despite being told not
// to: surrounding ```json fences and a leading "json" tag are stripped
// before unmarshaling.
func parsePlan(raw string) (*datatypes.QueryPlan, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	if strings.HasPrefix(strings.ToLower(cleaned), "json") {
		cleaned = strings.TrimSpace(cleaned[4:])
	}

	var plan datatypes.QueryPlan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, &PlanParseError{Raw: raw, Err: err}
	}
	if plan.SQLQuery == "" {
		return nil, &PlanParseError{Raw: raw, Err: fmt.Errorf("plan has no sql_query")}
	}
	return &plan, nil
}

// buildPlanPrompt assembles the strict-JSON planning instruction set.
func buildPlanPrompt(question string, columns []string, history []datatypes.ExchangeEntry) string {
	if len(history) > maxHistoryExchanges {
		history = history[len(history)-maxHistoryExchanges:]
	}

	var b strings.Builder
	b.WriteString("You are an expert SQL analyst.\n")
	b.WriteString("Generate a valid SQL query and return output in a strict JSON dictionary format.\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Only use the provided column names. Never invent a column.\n")
	fmt.Fprintf(&b, "- Assume the table name is `%s`.\n", RelationName)
	b.WriteString("- Always return output in this exact dictionary format:\n")
	b.WriteString("{\n")
	b.WriteString("  \"preface\": \"<2-3 short natural lines paraphrasing what the user is asking for>\",\n")
	b.WriteString("  \"Title\": \"<short descriptive title for visualization>\",\n")
	b.WriteString("  \"X-axis\": \"<column for the x-axis, or key field>\",\n")
	b.WriteString("  \"Y-axis\": \"<column for the y-axis, or metric>\",\n")
	b.WriteString("  \"Legend\": \"<optional column for series distinction, omit if not applicable>\",\n")
	b.WriteString("  \"sql_query\": \"<valid SQL query ending with a semicolon>\",\n")
	b.WriteString("  \"Possible_charts\": [\"bar\", \"line\", \"pie\", \"table\", \"kpi card\"],\n")
	b.WriteString("  \"col_list\": [\"<every column referenced anywhere in the query>\"]\n")
	b.WriteString("}\n")
	b.WriteString("- Do NOT add ```json or ``` at the beginning or end.\n")
	b.WriteString("- Always end the SQL query with a semicolon.\n")
	b.WriteString("- Round numeric aggregates to 2 decimal places with round(); cast to float inside\n")
	b.WriteString("  calculations that could be less than 1 to avoid integer truncation.\n")
	b.WriteString("- Use only lowercase for SQL keywords, column names, table names, and string literals.\n")
	b.WriteString("- For all string comparisons use lower(column_name) = 'value' so matching is case-insensitive.\n")
	b.WriteString("- Even for a single value, still provide Title, X-axis, and Y-axis.\n")
	b.WriteString("- Single numeric values suit [\"kpi card\", \"table\"]; grouped results suit charts.\n\n")

	if len(history) > 0 {
		b.WriteString("Previous exchanges (oldest first), reuse their filters and columns when the\n")
		b.WriteString("question is a follow-up:\n")
		for _, h := range history {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", h.Question, h.Answer)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User Question: %s\n", question)
	fmt.Fprintf(&b, "Columns: [%s]\n", strings.Join(columns, ", "))
	b.WriteString("Output:\n")
	return b.String()
}
