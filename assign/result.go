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
	"fmt"
	"time"
)

// Outcome describes how much the solver can claim about its result.
type Outcome int

const (
	// OutcomeOptimal means the search space was exhausted and the
	// returned solution is provably optimal for the objective.
	OutcomeOptimal Outcome = iota

	// OutcomeBestEffort means the search stopped early (cancellation,
	// budget, depth truncation). The returned solution is the best
	// found so far with no optimality claim.
	OutcomeBestEffort
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeOptimal:
		return "optimal"
	case OutcomeBestEffort:
		return "best_effort"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MarshalJSON encodes the outcome as its string name.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON decodes an outcome from its string name.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "optimal":
		*o = OutcomeOptimal
	case "best_effort":
		*o = OutcomeBestEffort
	default:
		return fmt.Errorf("unknown outcome %q", s)
	}
	return nil
}

// Solution is a flattened, serializable view of an assignment state.
type Solution struct {
	Pairs          []Pair             `json:"pairs" yaml:"pairs"`
	AgentRemaining map[string]float64 `json:"agent_remaining" yaml:"agent_remaining"`
	TaskRemaining  map[string]float64 `json:"task_remaining" yaml:"task_remaining"`
	TaskProfits    map[string]float64 `json:"task_profits" yaml:"task_profits"`
	TotalProfit    float64            `json:"total_profit" yaml:"total_profit"`
	MinTaskProfit  float64            `json:"min_task_profit" yaml:"min_task_profit"`
}

// Stats summarizes the work one solve performed.
type Stats struct {
	NodesExplored    int64         `json:"nodes_explored" yaml:"nodes_explored"`
	NodesPruned      int64         `json:"nodes_pruned" yaml:"nodes_pruned"`
	TerminalStates   int64         `json:"terminal_states" yaml:"terminal_states"`
	IncumbentUpdates int64         `json:"incumbent_updates" yaml:"incumbent_updates"`
	MaxDepth         int           `json:"max_depth" yaml:"max_depth"`
	Duration         time.Duration `json:"duration" yaml:"duration"`

	// StopCause names what ended the search early: "canceled",
	// "deadline", "nodes", "time" or "depth". Empty when the search
	// ran to exhaustion.
	StopCause string `json:"stop_cause,omitempty" yaml:"stop_cause,omitempty"`
}

// String returns a compact single-line summary for logs.
func (st Stats) String() string {
	s := fmt.Sprintf("nodes=%d pruned=%d terminal=%d incumbents=%d depth=%d elapsed=%v",
		st.NodesExplored, st.NodesPruned, st.TerminalStates,
		st.IncumbentUpdates, st.MaxDepth, st.Duration.Round(time.Microsecond))
	if st.StopCause != "" {
		s += " stop=" + st.StopCause
	}
	return s
}

// Incumbent is a point-in-time snapshot of the best solution found,
// delivered to incumbent callbacks and recorded in the journal.
type Incumbent struct {
	State       *State        `json:"state"`
	TotalProfit float64       `json:"total_profit"`
	FairProfit  float64       `json:"fair_profit"`
	Nodes       int64         `json:"nodes"`
	FoundAt     time.Duration `json:"found_at"`
}

// Result is the output of a solve.
//
// Best is nil only when Solve returns an error; when the search found
// no feasible solution Solve reports ErrNoFeasibleSolution (or
// ErrNoIncumbent for interrupted runs) instead of an empty result.
type Result struct {
	RunID   string  `json:"run_id"`
	Outcome Outcome `json:"outcome"`
	Best    *State  `json:"solution"`
	Stats   Stats   `json:"stats"`
}

// Solution returns the flattened view of the best state.
func (r *Result) Solution() Solution {
	return r.Best.Snapshot()
}
