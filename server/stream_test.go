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
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/stevedore/assign"
	"github.com/AleutianAI/stevedore/manifest"
)

// dialStream starts a test server and opens the solve stream socket.
func dialStream(t *testing.T) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(setupTestRouter())
	t.Cleanup(ts.Close)

	url := strings.Replace(ts.URL, "http", "ws", 1) + "/v1/solve/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	return conn
}

func TestHandleSolveStream_EventsThenResult(t *testing.T) {
	conn := dialStream(t)

	require.NoError(t, conn.WriteJSON(SolveRequest{Document: manifest.Example()}))

	var events []assign.JournalEntry
	var result *SolveResponse
	for result == nil {
		var frame StreamFrame
		require.NoError(t, conn.ReadJSON(&frame))

		switch frame.Type {
		case "event":
			require.NotNil(t, frame.Entry)
			events = append(events, *frame.Entry)
		case "result":
			require.NotNil(t, frame.Result)
			result = frame.Result
		case "error":
			t.Fatalf("unexpected error frame: %+v", frame.Error)
		default:
			t.Fatalf("unexpected frame type %q", frame.Type)
		}
	}

	require.NotEmpty(t, events)
	assert.Equal(t, assign.JournalStart, events[0].Event)
	assert.Equal(t, assign.JournalDone, events[len(events)-1].Event)

	// Sequence numbers arrive strictly increasing.
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Seq, events[i-1].Seq)
	}

	assert.Equal(t, "crew-split", result.Problem)
	assert.Equal(t, assign.OutcomeOptimal, result.Outcome)
	assert.Equal(t, float64(9), result.Solution.TotalProfit)
	assert.Equal(t, float64(4), result.Solution.MinTaskProfit)
}

func TestHandleSolveStream_MissingDocument(t *testing.T) {
	conn := dialStream(t)

	require.NoError(t, conn.WriteJSON(SolveRequest{}))

	var frame StreamFrame
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "error", frame.Type)
	require.NotNil(t, frame.Error)
	assert.Equal(t, "INVALID_REQUEST", frame.Error.Code)
}

func TestHandleSolveStream_InvalidDocument(t *testing.T) {
	conn := dialStream(t)

	doc := manifest.Example()
	doc.Version = manifest.SchemaVersion + 1
	require.NoError(t, conn.WriteJSON(SolveRequest{Document: doc}))

	var frame StreamFrame
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "error", frame.Type)
	require.NotNil(t, frame.Error)
	assert.Equal(t, "UNSUPPORTED_VERSION", frame.Error.Code)
}
