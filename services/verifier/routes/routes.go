// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
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
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ApexPrepAI/apcalc/services/verifier/handlers"
	"github.com/ApexPrepAI/apcalc/services/verifier/observability"
)

func SetupRoutes(router *gin.Engine, metrics *observability.VerifierMetrics,
	budget time.Duration) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/", handlers.Root)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Verification endpoints
	calc := router.Group("/calc")
	{
		calc.POST("/derivative", handlers.HandleDerivative(metrics, budget))
		calc.POST("/integral", handlers.HandleIntegral(metrics, budget))
		calc.POST("/limit", handlers.HandleLimit(metrics, budget))
		calc.POST("/algebra", handlers.HandleAlgebra(metrics, budget))
		calc.POST("/dimensional", handlers.HandleDimensional(metrics, budget))
		calc.POST("/numeric-probe", handlers.HandleNumericProbe(metrics, budget))
	}
}
