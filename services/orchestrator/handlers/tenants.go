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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
	"github.com/atharva9trix/plamboBE/services/orchestrator/profiles"
)

// HandleTenantList serves GET /v1/tenants. IDs come back in sorted order so
// clients can render a stable picker.
func HandleTenantList(registry *profiles.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := tracer.Start(c.Request.Context(), "HandleTenantList")
		defer span.End()

		list := registry.List()
		tenants := make([]datatypes.TenantInfo, 0, len(list))
		for _, p := range list {
			tenants = append(tenants, datatypes.TenantInfo{
				ID:          p.ID,
				DisplayName: p.DisplayName,
			})
		}
		c.JSON(http.StatusOK, datatypes.TenantListResponse{
			Status:  "success",
			Tenants: tenants,
		})
	}
}
