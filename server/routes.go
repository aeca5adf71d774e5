// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all solve API routes with the router.
//
// Description:
//
//	Registers all /v1/* endpoints with the given Gin router group.
//	The router group should already have any required middleware
//	applied; health and metrics endpoints live at the router root and
//	are registered by New.
//
// Inputs:
//
//	rg - Target router group, /v1 in production wiring
//	handlers - Handler set the endpoints dispatch to
//
// Endpoints:
//
//	POST /v1/solve - Solve a problem document
//	POST /v1/check - Validate a problem document
//	GET  /v1/solve/stream - Solve with websocket progress streaming
//	GET  /v1/problems/example - The built-in example document
//
// Example:
//
//	handlers := server.NewHandlers(server.Config{}, slog.Default())
//
//	v1 := router.Group("/v1")
//	server.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.POST("/solve", handlers.HandleSolve)
	rg.POST("/check", handlers.HandleCheck)
	rg.GET("/solve/stream", handlers.HandleSolveStream)
	rg.GET("/problems/example", handlers.HandleExample)
}
