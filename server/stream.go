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
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/stevedore/assign"
	"github.com/AleutianAI/stevedore/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// journalPollInterval is how often the stream handler drains new
// journal entries to the client.
const journalPollInterval = 100 * time.Millisecond

func sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleSolveStream handles GET /v1/solve/stream.
//
// Description:
//
//	Upgrades the connection to a websocket and solves one problem,
//	streaming search progress as it happens. The client sends a single
//	SolveRequest as its first message. The server replies with "event"
//	frames carrying journal entries (start, each incumbent improvement,
//	done), then exactly one "result" or "error" frame, and closes.
//
//	Closing the connection cancels the solve.
//
// Request Message:
//
//	SolveRequest (JSON text frame)
//
// Response Messages:
//
//	StreamFrame sequence: zero or more {"type":"event"}, then one
//	{"type":"result"} or {"type":"error"}
func (h *Handlers) HandleSolveStream(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleSolveStream")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()

	var req SolveRequest
	if err := ws.ReadJSON(&req); err != nil {
		logger.Warn("Invalid stream request", "error", err)
		_ = sendJSON(ws, StreamFrame{Type: "error", Error: &ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		}})
		return
	}
	if req.Document == nil {
		logger.Warn("Stream request without a document")
		_ = sendJSON(ws, StreamFrame{Type: "error", Error: &ErrorResponse{
			Error: "Request is missing the problem document",
			Code:  "INVALID_REQUEST",
		}})
		return
	}
	doc := req.Document

	journal := assign.NewSearchJournal()
	solver, errResp := h.buildSolver(doc, req, logger, journal)
	if errResp != nil {
		logger.Warn("Document rejected", "problem", doc.Name, "error", errResp.body.Details)
		body := errResp.body
		_ = sendJSON(ws, StreamFrame{Type: "error", Error: &body})
		return
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if _, timeLimit := h.solveBudget(req); timeLimit > 0 {
		ctx, cancel = context.WithTimeout(c.Request.Context(), timeLimit)
	} else {
		ctx, cancel = context.WithCancel(c.Request.Context())
	}
	defer cancel()

	// A read error means the client went away; cancel the solve.
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	logger.Info("Streaming solve",
		"problem", doc.Name,
		"agents", len(doc.Agents),
		"tasks", len(doc.Tasks))

	type solveDone struct {
		res *assign.Result
		err error
	}
	done := make(chan solveDone, 1)
	atomic.AddInt64(&h.activeSolves, 1)
	go func() {
		defer atomic.AddInt64(&h.activeSolves, -1)
		res, err := solver.Solve(ctx)
		done <- solveDone{res: res, err: err}
	}()

	var lastSeq int64
	flush := func() error {
		for _, entry := range journal.EntriesAfter(lastSeq) {
			lastSeq = entry.Seq
			e := entry
			if err := sendJSON(ws, StreamFrame{Type: "event", Entry: &e}); err != nil {
				return err
			}
		}
		return nil
	}

	ticker := time.NewTicker(journalPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := flush(); err != nil {
				cancel()
				<-done
				return
			}

		case out := <-done:
			// Drain the tail of the journal before the final frame so
			// the client sees the "done" entry first.
			if err := flush(); err != nil {
				return
			}
			if out.err != nil {
				telemetry.RecordError(telemetry.SpanFromContext(ctx), out.err)
				logger.Warn("Streamed solve finished without a solution",
					"problem", doc.Name, "error", out.err)
				_, resp := solveError(out.err)
				_ = sendJSON(ws, StreamFrame{Type: "error", Error: &resp})
				return
			}
			telemetry.LoggerWithRun(ctx, logger, out.res.RunID).Info("Streamed solve complete",
				"problem", doc.Name,
				"outcome", out.res.Outcome.String(),
				"stats", out.res.Stats.String())
			resp := newSolveResponse(doc, out.res)
			_ = sendJSON(ws, StreamFrame{Type: "result", Result: &resp})
			return
		}
	}
}
