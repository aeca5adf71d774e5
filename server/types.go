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
	"github.com/AleutianAI/stevedore/assign"
	"github.com/AleutianAI/stevedore/manifest"
)

// SolveRequest is the request body for POST /v1/solve.
type SolveRequest struct {
	// Document is the problem to solve. Required.
	Document *manifest.Document `json:"document" binding:"required"`

	// MaxNodes caps the nodes this solve may explore. The server's own
	// cap still applies; the lower of the two wins. Zero means no
	// request-level cap.
	MaxNodes int64 `json:"max_nodes,omitempty"`

	// TimeLimitMs caps the solve wall clock in milliseconds. The
	// server's SolveTimeout still applies; the lower of the two wins.
	TimeLimitMs int64 `json:"time_limit_ms,omitempty"`
}

// SolveResponse is the response for POST /v1/solve.
type SolveResponse struct {
	// RunID identifies this solve run in logs and traces.
	RunID string `json:"run_id"`

	// Problem is the document's name.
	Problem string `json:"problem"`

	// Objective is the objective that was maximized.
	Objective string `json:"objective"`

	// Outcome is "optimal" or "best_effort".
	Outcome assign.Outcome `json:"outcome"`

	// Solution is the best assignment found.
	Solution assign.Solution `json:"solution"`

	// NodesExplored is the number of search nodes expanded.
	NodesExplored int64 `json:"nodes_explored"`

	// NodesPruned is the number of subtrees cut by the bound.
	NodesPruned int64 `json:"nodes_pruned"`

	// IncumbentUpdates is the number of best-solution improvements.
	IncumbentUpdates int64 `json:"incumbent_updates"`

	// ElapsedMs is the solve wall clock in milliseconds.
	ElapsedMs int64 `json:"elapsed_ms"`

	// StopCause names what ended the search early, empty for an
	// exhaustive search.
	StopCause string `json:"stop_cause,omitempty"`
}

// CheckRequest is the request body for POST /v1/check.
type CheckRequest struct {
	// Document is the problem document to validate. Required.
	Document *manifest.Document `json:"document" binding:"required"`
}

// CheckResponse is the response for POST /v1/check.
type CheckResponse struct {
	// Valid is true when the document has no issues.
	Valid bool `json:"valid"`

	// Issues lists every problem found, empty when the document is
	// valid. Each entry carries the field path and the message.
	Issues []manifest.FieldError `json:"issues,omitempty"`
}

// StreamFrame is one websocket message on GET /v1/solve/stream.
//
// The server sends a sequence of "event" frames while the solve runs,
// then exactly one "result" or "error" frame, then closes.
type StreamFrame struct {
	// Type is "event", "result", or "error".
	Type string `json:"type"`

	// Entry is the journal entry for "event" frames.
	Entry *assign.JournalEntry `json:"entry,omitempty"`

	// Result is the final result for "result" frames.
	Result *SolveResponse `json:"result,omitempty"`

	// Error describes the failure for "error" frames.
	Error *ErrorResponse `json:"error,omitempty"`
}

// HealthResponse is the response for GET /healthz.
type HealthResponse struct {
	// Status is "healthy" or "degraded".
	Status string `json:"status"`

	// Version is the service version.
	Version string `json:"version"`
}

// ReadyResponse is the response for GET /readyz.
type ReadyResponse struct {
	// Ready is true if the service is ready to accept requests.
	Ready bool `json:"ready"`

	// ActiveSolves is the number of solves currently running.
	ActiveSolves int64 `json:"active_solves"`
}

// ErrorResponse is the body every failing endpoint returns.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`

	// Details contains additional error context.
	Details string `json:"details,omitempty"`
}
