// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
	"github.com/atharva9trix/plamboBE/services/orchestrator/observability"
	"github.com/atharva9trix/plamboBE/services/orchestrator/services"
	"github.com/atharva9trix/plamboBE/services/orchestrator/sqlagent"
)

// HandleAnalyticsQuery serves POST /v1/analytics/query.
func HandleAnalyticsQuery(svc *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleAnalyticsQuery")
		defer span.End()

		var request datatypes.AnalyticsRequest
		if err := c.BindJSON(&request); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to bind analytics request JSON", "error", err)
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("Invalid request body"))
			return
		}
		request.EnsureDefaults()
		if err := request.Validate(); err != nil {
			span.RecordError(err)
			observability.RecordRequest("analytics_query", "bad_request")
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse(err.Error()))
			return
		}
		span.SetAttributes(
			attribute.String("request.id", request.RequestID),
			attribute.String("analytics.user", request.UserID),
			attribute.String("analytics.session", request.SessionID),
		)

		resp, err := svc.Process(ctx, &request)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if sqlagent.IsPlanParseError(err) {
				observability.RecordRequest("analytics_query", "plan_parse_error")
				c.JSON(http.StatusBadGateway, datatypes.NewErrorResponse(
					"The planner returned an unusable response. Please try again."))
				return
			}
			observability.RecordRequest("analytics_query", "error")
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse(err.Error()))
			return
		}

		observability.RecordRequest("analytics_query", resp.Status)
		c.JSON(http.StatusOK, resp)
	}
}

// HandleInsights serves POST /v1/analytics/insights.
func HandleInsights(svc *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleInsights")
		defer span.End()

		var request datatypes.InsightsRequest
		if err := c.BindJSON(&request); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("Invalid request body"))
			return
		}
		if err := request.Validate(); err != nil {
			observability.RecordRequest("insights", "bad_request")
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse(err.Error()))
			return
		}

		resp, err := svc.Insights(ctx, &request)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			observability.RecordRequest("insights", "error")
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse(err.Error()))
			return
		}
		observability.RecordRequest("insights", "success")
		c.JSON(http.StatusOK, resp)
	}
}
