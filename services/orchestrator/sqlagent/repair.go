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
	"regexp"
	"sort"
	"strings"
)

// normalizeColumn reduces a real column name to the compact form a
// generation collaborator tends to guess: lowercased, with spaces,
// parentheses and percent signs stripped.
func normalizeColumn(name string) string {
	n := strings.ToLower(name)
	n = strings.ReplaceAll(n, " ", "")
	n = strings.ReplaceAll(n, "(", "")
	n = strings.ReplaceAll(n, ")", "")
	n = strings.ReplaceAll(n, "%", "")
	return n
}

// normalizeUnderscored is the other common guess shape: spaces become
// underscores and percent signs become the word "percent", so
// "Revenue (USD)" yields "revenue_usd" and "Growth %" yields
// "growth_percent".
func normalizeUnderscored(name string) string {
	n := strings.ToLower(name)
	n = strings.ReplaceAll(n, " ", "_")
	n = strings.ReplaceAll(n, "%", "percent")
	n = strings.ReplaceAll(n, "(", "")
	n = strings.ReplaceAll(n, ")", "")
	return strings.Trim(n, "_")
}

// RepairColumns rewrites generator-guessed column names to the schema's real
// names, double-quoted.
//
// # Description
//
// Builds a map from each real column's normalized forms (compact and
// underscored) to the real name, then substitutes whole-word occurrences of
// each form with the quoted real name. The substitution pattern also matches
// the already-quoted real name and re-emits it unchanged, and bare-word hits
// inside an existing double-quoted span are left alone, which together make
// the operation idempotent: repairing repaired SQL is a no-op. Longer keys
// are applied first so a key that is a prefix of another cannot clobber it.
//
// # Inputs
//   - sqlText: the statement to rewrite.
//   - columns: the dataset's real column names.
//
// # Outputs
//   - string: the rewritten statement.
func RepairColumns(sqlText string, columns []string) string {
	norm := make(map[string]string, len(columns)*2)
	keys := make([]string, 0, len(columns)*2)
	for _, col := range columns {
		for _, n := range []string{normalizeColumn(col), normalizeUnderscored(col)} {
			if n == "" {
				continue
			}
			if _, seen := norm[n]; !seen {
				norm[n] = col
				keys = append(keys, n)
			}
		}
	}
	sort.Slice(keys, func(a, b int) bool {
		if len(keys[a]) != len(keys[b]) {
			return len(keys[a]) > len(keys[b])
		}
		return keys[a] < keys[b]
	})

	for _, key := range keys {
		real := norm[key]
		quoted := `"` + real + `"`
		// Match the quoted real name first so repeated repair passes leave
		// prior substitutions untouched.
		pattern := regexp.MustCompile(
			`(` + regexp.QuoteMeta(quoted) + `)|(?i)\b` + regexp.QuoteMeta(key) + `\b`)
		sqlText = replaceOutsideQuotes(sqlText, pattern, quoted)
	}
	return sqlText
}

// replaceOutsideQuotes substitutes pattern matches with quoted, skipping
// matches that are already the quoted form or that start inside an open
// double-quoted span (odd number of quotes before the match).
func replaceOutsideQuotes(sqlText string, pattern *regexp.Regexp, quoted string) string {
	matches := pattern.FindAllStringIndex(sqlText, -1)
	if len(matches) == 0 {
		return sqlText
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		seg := sqlText[m[0]:m[1]]
		if seg == quoted || strings.Count(sqlText[:m[0]], `"`)%2 == 1 {
			b.WriteString(sqlText[last:m[1]])
			last = m[1]
			continue
		}
		b.WriteString(sqlText[last:m[0]])
		b.WriteString(quoted)
		last = m[1]
	}
	b.WriteString(sqlText[last:])
	return b.String()
}
