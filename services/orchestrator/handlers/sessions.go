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
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
	"github.com/atharva9trix/plamboBE/services/orchestrator/sessions"
)

// HandleSessionBootstrap serves GET /v1/sessions/bootstrap?user_id=...
// Idempotent per user: returns the open session or allocates the next one.
func HandleSessionBootstrap(store *sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleSessionBootstrap")
		defer span.End()

		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("user_id is required"))
			return
		}
		span.SetAttributes(attribute.String("analytics.user", userID))

		sessionID, resumed, err := store.Bootstrap(ctx, userID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Session bootstrap failed", "user", userID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, datatypes.BootstrapResponse{
			Status:    "success",
			UserID:    userID,
			SessionID: sessionID,
			Resumed:   resumed,
		})
	}
}

// HandleSessionHistory serves GET /v1/sessions/:userId/:sessionId/history.
// Entries come back oldest first.
func HandleSessionHistory(store *sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleSessionHistory")
		defer span.End()

		userID := c.Param("userId")
		sessionID, err := strconv.Atoi(c.Param("sessionId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("sessionId must be numeric"))
			return
		}
		span.SetAttributes(
			attribute.String("analytics.user", userID),
			attribute.Int("analytics.session", sessionID),
		)

		key := datatypes.SessionKey{UserID: userID, SessionID: sessionID}
		exchanges, err := store.History(ctx, key)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse(err.Error()))
			return
		}
		if exchanges == nil {
			exchanges = []datatypes.ExchangeEntry{}
		}

		c.JSON(http.StatusOK, datatypes.HistoryResponse{
			Status:    "success",
			UserID:    userID,
			SessionID: sessionID,
			Exchanges: exchanges,
		})
	}
}
