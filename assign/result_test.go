// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assign

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestOutcome_String(t *testing.T) {
	if got := OutcomeOptimal.String(); got != "optimal" {
		t.Errorf("String() = %q, want optimal", got)
	}
	if got := OutcomeBestEffort.String(); got != "best_effort" {
		t.Errorf("String() = %q, want best_effort", got)
	}
}

func TestOutcome_JSONRoundTrip(t *testing.T) {
	for _, outcome := range []Outcome{OutcomeOptimal, OutcomeBestEffort} {
		data, err := json.Marshal(outcome)
		if err != nil {
			t.Fatalf("Marshal(%v) failed: %v", outcome, err)
		}
		if want := `"` + outcome.String() + `"`; string(data) != want {
			t.Errorf("Marshal(%v) = %s, want %s", outcome, data, want)
		}

		var back Outcome
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", data, err)
		}
		if back != outcome {
			t.Errorf("round trip = %v, want %v", back, outcome)
		}
	}
}

func TestOutcome_UnmarshalUnknown(t *testing.T) {
	var o Outcome
	if err := json.Unmarshal([]byte(`"hopeful"`), &o); err == nil {
		t.Error("Unmarshal of unknown outcome should fail")
	}
}

func TestStats_String(t *testing.T) {
	stats := Stats{
		NodesExplored:    120,
		NodesPruned:      40,
		TerminalStates:   12,
		IncumbentUpdates: 3,
		MaxDepth:         5,
		Duration:         1500 * time.Microsecond,
	}

	got := stats.String()
	if !strings.Contains(got, "nodes=120") {
		t.Errorf("String() = %q, want nodes=120", got)
	}
	if !strings.Contains(got, "pruned=40") {
		t.Errorf("String() = %q, want pruned=40", got)
	}
	if strings.Contains(got, "stop=") {
		t.Errorf("String() = %q, should not contain stop cause", got)
	}

	stats.StopCause = "nodes"
	if got := stats.String(); !strings.Contains(got, "stop=nodes") {
		t.Errorf("String() = %q, want stop=nodes", got)
	}
}

func TestResult_JSON(t *testing.T) {
	p := twoByTwoTight(t)
	st := mustAssign(t, p.InitialState(), "A1", "T1")

	result := Result{
		RunID:   "run-1",
		Outcome: OutcomeOptimal,
		Best:    st,
		Stats:   Stats{NodesExplored: 4},
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	s := string(data)
	if !strings.Contains(s, `"outcome":"optimal"`) {
		t.Errorf("JSON = %s, want outcome name", s)
	}
	if !strings.Contains(s, `"total_profit":8`) {
		t.Errorf("JSON = %s, want embedded solution profit", s)
	}
}
