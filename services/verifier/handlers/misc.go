// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
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
)

// ServiceVersion is reported by the root endpoint.
const ServiceVersion = "0.1.0"

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ap-verifier",
	})
}

// Root describes the service for anyone poking the base URL.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "AP Calculus Verifier",
		"version": ServiceVersion,
		"health":  "/health",
		"metrics": "/metrics",
	})
}
