// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sqlagent implements the analytical pipeline: natural-language
// questions become structured query plans, which pass a deterministic safety
// gate, get their column names repaired against the real schema, and execute
// against the conversation's dataset.
package sqlagent

import (
	"regexp"
	"strings"
)

// Rejection reasons, surfaced verbatim to callers.
const (
	ReasonNotSelect     = "must start with SELECT"
	ReasonNoSemicolon   = "must end with semicolon"
	ReasonForbiddenVerb = "forbidden operation"
)

// forbiddenVerbs matches statement verbs that can mutate data, as whole
// words so column names like updated_at pass.
var forbiddenVerbs = regexp.MustCompile(`(?i)\b(drop|delete|alter|update|insert)\b`)

// ValidationResult is the outcome of the safety gate.
type ValidationResult struct {
	Accepted bool
	Reason   string
}

// Validate applies the safety rules to a proposed statement, in order.
// It is purely syntactic; no generation call, no schema lookup. This is the
// only thing standing between an arbitrary generated string and execution,
// so the rules are strict and the order is part of the contract.
func Validate(sqlText string) ValidationResult {
	trimmed := strings.TrimSpace(sqlText)
	if !strings.HasPrefix(strings.ToLower(trimmed), "select") {
		return ValidationResult{Reason: ReasonNotSelect}
	}
	if !strings.Contains(trimmed, ";") {
		return ValidationResult{Reason: ReasonNoSemicolon}
	}
	if forbiddenVerbs.MatchString(trimmed) {
		return ValidationResult{Reason: ReasonForbiddenVerb}
	}
	return ValidationResult{Accepted: true}
}
