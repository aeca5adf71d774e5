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
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/stevedore/assign"
	"github.com/AleutianAI/stevedore/manifest"
	"github.com/AleutianAI/stevedore/telemetry"
)

// ServiceVersion is the solve server version.
const ServiceVersion = "1.0.0"

// Handlers contains the HTTP handlers for the solve API.
type Handlers struct {
	config Config
	logger *slog.Logger
	tracer *assign.SearchTracer

	// Atomic counter of solves currently running
	activeSolves int64
}

// NewHandlers creates handlers with the given configuration. A nil
// logger falls back to slog.Default.
//
// Solve runs are traced under the request span; when no telemetry
// provider is installed the spans are no-ops.
func NewHandlers(cfg Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	tracer := assign.NewSearchTracer(logger, assign.ObservabilityConfig{TracingEnabled: true})
	return &Handlers{config: cfg, logger: logger, tracer: tracer}
}

// HandleSolve handles POST /v1/solve.
//
// Description:
//
//	Solves the problem document in the request body and returns the
//	best assignment found. The request may lower the server's node and
//	time ceilings but never raise them; a solve cut short by a ceiling
//	returns 200 with outcome "best_effort" and a stop cause.
//
// Request Body:
//
//	SolveRequest
//
// Response:
//
//	200 OK: SolveResponse
//	400 Bad Request: Malformed body or invalid document
//	422 Unprocessable Entity: Valid document with no feasible solution
//	500 Internal Server Error: Solver failure
func (h *Handlers) HandleSolve(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleSolve")

	var req SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	doc := req.Document

	solver, errResp := h.buildSolver(doc, req, logger, nil)
	if errResp != nil {
		logger.Warn("Document rejected", "problem", doc.Name, "error", errResp.body.Details)
		c.JSON(errResp.status, errResp.body)
		return
	}

	ctx := c.Request.Context()
	_, timeLimit := h.solveBudget(req)
	if timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeLimit)
		defer cancel()
	}

	logger.Info("Solving",
		"problem", doc.Name,
		"agents", len(doc.Agents),
		"tasks", len(doc.Tasks))

	atomic.AddInt64(&h.activeSolves, 1)
	res, err := solver.Solve(ctx)
	atomic.AddInt64(&h.activeSolves, -1)
	if err != nil {
		telemetry.RecordError(telemetry.SpanFromContext(ctx), err)
		logger.Warn("Solve finished without a solution", "problem", doc.Name, "error", err)
		status, resp := solveError(err)
		c.JSON(status, resp)
		return
	}

	telemetry.SetSpanAttributes(telemetry.SpanFromContext(ctx),
		attribute.String("solve.run_id", res.RunID),
		attribute.String("solve.outcome", res.Outcome.String()))
	telemetry.LoggerWithRun(ctx, logger, res.RunID).Info("Solve complete",
		"problem", doc.Name,
		"outcome", res.Outcome.String(),
		"profit", res.Best.TotalProfit(),
		"stats", res.Stats.String())

	c.JSON(http.StatusOK, newSolveResponse(doc, res))
}

// HandleCheck handles POST /v1/check.
//
// Description:
//
//	Validates the problem document in the request body and returns
//	every issue found. Validation problems are data, not transport
//	errors: an invalid document still yields 200 with the issue list.
//
// Request Body:
//
//	CheckRequest
//
// Response:
//
//	200 OK: CheckResponse
//	400 Bad Request: Malformed body
func (h *Handlers) HandleCheck(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleCheck")

	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	issues := req.Document.Check()
	logger.Info("Checked document", "problem", req.Document.Name, "issues", len(issues))

	c.JSON(http.StatusOK, CheckResponse{
		Valid:  len(issues) == 0,
		Issues: issues,
	})
}

// HandleExample handles GET /v1/problems/example.
//
// Description:
//
//	Returns the built-in example document, ready to POST back to
//	/v1/solve or use as a template.
//
// Response:
//
//	200 OK: manifest.Document
func (h *Handlers) HandleExample(c *gin.Context) {
	c.JSON(http.StatusOK, manifest.Example())
}

// HandleHealth handles GET /healthz.
//
// Description:
//
//	Liveness probe. Answers 200 whenever the process is up.
//
// Response:
//
//	200 OK: HealthResponse
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /readyz.
//
// Description:
//
//	Returns the readiness status of the service. The solver has no
//	external dependencies, so the service is ready as soon as it
//	listens; the response also reports the number of running solves.
//
// Response:
//
//	200 OK: ReadyResponse
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, ReadyResponse{
		Ready:        true,
		ActiveSolves: atomic.LoadInt64(&h.activeSolves),
	})
}

// handlerError pairs a status code with the response body so builder
// helpers can hand a complete rejection back to the handler.
type handlerError struct {
	status int
	body   ErrorResponse
}

// buildSolver converts the document and constructs a solver with the
// request's budget caps applied. The journal may be nil; the stream
// handler passes one to observe incumbents mid-solve.
func (h *Handlers) buildSolver(doc *manifest.Document, req SolveRequest,
	logger *slog.Logger, journal *assign.SearchJournal) (*assign.Solver, *handlerError) {

	problem, err := doc.Problem()
	if err != nil {
		status, resp := problemError(err)
		return nil, &handlerError{status: status, body: resp}
	}

	opts, err := doc.SolverOptions()
	if err != nil {
		return nil, &handlerError{
			status: http.StatusBadRequest,
			body: ErrorResponse{
				Error:   "Invalid solve spec",
				Code:    "INVALID_SOLVE_SPEC",
				Details: err.Error(),
			},
		}
	}
	opts = append(opts, assign.WithLogger(logger), assign.WithTracer(h.tracer))
	if journal != nil {
		opts = append(opts, assign.WithJournal(journal))
	}

	maxNodes, _ := h.solveBudget(req)
	if maxNodes > 0 {
		opts = append(opts, assign.WithBudget(assign.NewSearchBudget(assign.SearchBudgetConfig{
			MaxNodes: maxNodes,
		})))
	}

	solver, err := assign.NewSolver(problem, opts...)
	if err != nil {
		return nil, &handlerError{
			status: http.StatusInternalServerError,
			body: ErrorResponse{
				Error:   "Solver construction failed",
				Code:    "SOLVER_FAILED",
				Details: err.Error(),
			},
		}
	}
	return solver, nil
}

// solveBudget merges the request's caps with the server's. The lower
// value wins on both dimensions; zero means uncapped for nodes.
func (h *Handlers) solveBudget(req SolveRequest) (maxNodes int64, timeLimit time.Duration) {
	maxNodes = h.config.MaxNodes
	if req.MaxNodes > 0 && (maxNodes == 0 || req.MaxNodes < maxNodes) {
		maxNodes = req.MaxNodes
	}

	timeLimit = h.config.SolveTimeout
	if req.TimeLimitMs > 0 {
		reqLimit := time.Duration(req.TimeLimitMs) * time.Millisecond
		if timeLimit == 0 || reqLimit < timeLimit {
			timeLimit = reqLimit
		}
	}
	return maxNodes, timeLimit
}

// newSolveResponse flattens a result into the wire shape.
func newSolveResponse(doc *manifest.Document, res *assign.Result) SolveResponse {
	obj, _ := assign.ParseObjective(doc.Solve.Objective)
	return SolveResponse{
		RunID:            res.RunID,
		Problem:          doc.Name,
		Objective:        obj.String(),
		Outcome:          res.Outcome,
		Solution:         res.Solution(),
		NodesExplored:    res.Stats.NodesExplored,
		NodesPruned:      res.Stats.NodesPruned,
		IncumbentUpdates: res.Stats.IncumbentUpdates,
		ElapsedMs:        res.Stats.Duration.Milliseconds(),
		StopCause:        res.Stats.StopCause,
	}
}

// problemError maps a document conversion failure to a response.
func problemError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, manifest.ErrUnsupportedVersion):
		return http.StatusBadRequest, ErrorResponse{
			Error:   "Unsupported document version",
			Code:    "UNSUPPORTED_VERSION",
			Details: err.Error(),
		}
	case errors.Is(err, assign.ErrInfeasibleHardAssignment):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Hard assignments violate a budget",
			Code:    "INFEASIBLE_HARD_ASSIGNMENT",
			Details: err.Error(),
		}
	default:
		return http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid problem document",
			Code:    "INVALID_DOCUMENT",
			Details: err.Error(),
		}
	}
}

// solveError maps a solve failure to a response.
func solveError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, assign.ErrNoFeasibleSolution):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: "No feasible complete assignment exists",
			Code:  "NO_FEASIBLE_SOLUTION",
		}
	case errors.Is(err, assign.ErrNoIncumbent):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Search stopped before any feasible assignment was found",
			Code:    "SEARCH_INTERRUPTED",
			Details: err.Error(),
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error:   "Solve failed",
			Code:    "SOLVE_FAILED",
			Details: err.Error(),
		}
	}
}

// getOrCreateRequestID echoes the caller's X-Request-ID or mints a fresh UUID.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
