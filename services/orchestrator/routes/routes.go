// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atharva9trix/plamboBE/services/orchestrator/handlers"
	"github.com/atharva9trix/plamboBE/services/orchestrator/profiles"
	"github.com/atharva9trix/plamboBE/services/orchestrator/services"
	"github.com/atharva9trix/plamboBE/services/orchestrator/sessions"
)

// SetupRoutes registers every endpoint on the router.
func SetupRoutes(router *gin.Engine, registry *profiles.Registry,
	answerSvc *services.AnswerService, analyticsSvc *services.AnalyticsService,
	sessionStore *sessions.Store) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/query", handlers.HandleAnswer(answerSvc))
		v1.GET("/tenants", handlers.HandleTenantList(registry))

		analytics := v1.Group("/analytics")
		{
			analytics.POST("/query", handlers.HandleAnalyticsQuery(analyticsSvc))
			analytics.POST("/insights", handlers.HandleInsights(analyticsSvc))
		}

		// Session administration routes
		sessionRoutes := v1.Group("/sessions")
		{
			sessionRoutes.GET("/bootstrap", handlers.HandleSessionBootstrap(sessionStore))
			sessionRoutes.GET("/:userId/:sessionId/history", handlers.HandleSessionHistory(sessionStore))
		}
	}
}
