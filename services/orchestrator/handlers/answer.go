// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers binds the HTTP surface to the service layer. Handlers
// validate input, call one service operation, and map the error taxonomy to
// status codes; they hold no business logic of their own.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
	"github.com/atharva9trix/plamboBE/services/orchestrator/observability"
	"github.com/atharva9trix/plamboBE/services/orchestrator/profiles"
	"github.com/atharva9trix/plamboBE/services/orchestrator/services"
)

var tracer = otel.Tracer("plambo.orchestrator.handlers")

// HandleAnswer serves POST /v1/query.
func HandleAnswer(svc *services.AnswerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleAnswer")
		defer span.End()

		var request datatypes.AnswerRequest
		if err := c.BindJSON(&request); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to bind answer request JSON", "error", err)
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("Invalid request body"))
			return
		}
		request.EnsureDefaults()
		if err := request.Validate(); err != nil {
			span.RecordError(err)
			observability.RecordRequest("query", "bad_request")
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse(err.Error()))
			return
		}
		span.SetAttributes(
			attribute.String("request.id", request.RequestID),
			attribute.String("tenant.id", request.TenantID),
		)

		resp, err := svc.Process(ctx, &request)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			switch {
			case profiles.IsUnknownTenant(err):
				observability.RecordRequest("query", "unknown_tenant")
				c.JSON(http.StatusNotFound, datatypes.NewErrorResponse(err.Error()))
			case profiles.IsStoreLoadError(err):
				observability.RecordRequest("query", "store_unavailable")
				c.JSON(http.StatusServiceUnavailable, datatypes.NewErrorResponse(err.Error()))
			default:
				observability.RecordRequest("query", "error")
				c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse(err.Error()))
			}
			return
		}

		observability.RecordRequest("query", "success")
		c.JSON(http.StatusOK, resp)
	}
}
