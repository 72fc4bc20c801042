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
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
)

// Executor runs validated statements against per-conversation dataset files.
// Each conversation's uploaded dataset lives in its own SQLite file under
// the dataset directory, holding one table named after RelationName.
type Executor struct {
	datasetDir string
	timeout    time.Duration
}

// NewExecutor builds an executor over a dataset directory.
func NewExecutor(datasetDir string, timeout time.Duration) *Executor {
	return &Executor{datasetDir: datasetDir, timeout: timeout}
}

// DatasetPath returns the dataset file for one (user, session, dataset)
// triple. The naming scheme scopes every conversation to its own file so
// sessions can never read each other's data.
func (e *Executor) DatasetPath(userID string, sessionID int, dataset string) string {
	return filepath.Join(e.datasetDir, fmt.Sprintf("%s_%d_%s.db", userID, sessionID, dataset))
}

// Execute runs a statement against a dataset file.
//
// # Description
//
// The statement has already passed Validate and RepairColumns; this stage
// only runs it and shapes the outcome. An empty result set is reported as
// no_data, any engine error as error with the plan's column list surfaced
// as a datatype hint. The statement is bounded by the executor timeout; a
// timeout is an error outcome, never a retry.
//
// # Inputs
//   - ctx: request context; the statement gets a derived deadline.
//   - dbPath: the dataset file, from DatasetPath.
//   - sqlText: the repaired statement.
//   - colList: the plan's referenced columns, used in the error hint.
//
// # Outputs
//   - datatypes.ExecutionResult: status plus rows or error detail. Never an
//     error return; every failure mode is a reportable result.
func (e *Executor) Execute(ctx context.Context, dbPath, sqlText string, colList []string) datatypes.ExecutionResult {
	ctx, span := tracer.Start(ctx, "Executor.Execute")
	defer span.End()
	span.SetAttributes(attribute.String("exec.db_path", dbPath))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errorResult(colList, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("Statement execution failed", "error", err)
		return errorResult(colList, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return errorResult(colList, err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return errorResult(colList, err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			// The driver hands text back as []byte; present it as string.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errorResult(colList, err)
	}

	if len(out) == 0 {
		span.SetAttributes(attribute.String("exec.status", datatypes.ExecStatusNoData))
		return datatypes.ExecutionResult{Status: datatypes.ExecStatusNoData}
	}
	span.SetAttributes(
		attribute.String("exec.status", datatypes.ExecStatusSuccess),
		attribute.Int("exec.rows", len(out)),
	)
	return datatypes.ExecutionResult{Status: datatypes.ExecStatusSuccess, Rows: out}
}

func errorResult(colList []string, err error) datatypes.ExecutionResult {
	return datatypes.ExecutionResult{
		Status:      datatypes.ExecStatusError,
		ErrorDetail: fmt.Sprintf("Check datatype of [%s]: %v", strings.Join(colList, ", "), err),
	}
}
