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
	"errors"
	"testing"
)

func mustAssign(t *testing.T, s *State, agentID, taskID string) *State {
	t.Helper()
	next, err := s.WithAssignment(agentID, taskID)
	if err != nil {
		t.Fatalf("WithAssignment(%s, %s) failed: %v", agentID, taskID, err)
	}
	return next
}

func TestInitialState(t *testing.T) {
	p := twoByTwo(t)
	s := p.InitialState()

	if s.Depth() != 0 {
		t.Errorf("Depth = %d, want 0", s.Depth())
	}
	if s.TotalProfit() != 0 {
		t.Errorf("TotalProfit = %v, want 0", s.TotalProfit())
	}
	if len(s.Pairs()) != 0 {
		t.Errorf("Pairs = %v, want empty", s.Pairs())
	}

	rem, err := s.AgentRemaining("A1")
	if err != nil {
		t.Fatalf("AgentRemaining failed: %v", err)
	}
	if rem != 10 {
		t.Errorf("AgentRemaining(A1) = %v, want 10", rem)
	}
	rem, err = s.TaskRemaining("T2")
	if err != nil {
		t.Fatalf("TaskRemaining failed: %v", err)
	}
	if rem != 10 {
		t.Errorf("TaskRemaining(T2) = %v, want 10", rem)
	}
}

func TestInitialState_HardAssignments(t *testing.T) {
	p := twoByTwo(t, WithHardAssignments(Pair{Agent: "A1", Task: "T1"}))
	s := p.InitialState()

	if s.Depth() != 1 {
		t.Errorf("Depth = %d, want 1", s.Depth())
	}
	if s.TotalProfit() != 8 {
		t.Errorf("TotalProfit = %v, want 8", s.TotalProfit())
	}

	assigned, err := s.Assigned("A1", "T1")
	if err != nil {
		t.Fatalf("Assigned failed: %v", err)
	}
	if !assigned {
		t.Error("hard pair A1->T1 not assigned in initial state")
	}

	rem, _ := s.AgentRemaining("A1")
	if rem != 5 {
		t.Errorf("AgentRemaining(A1) = %v, want 5", rem)
	}
	rem, _ = s.TaskRemaining("T1")
	if rem != 5 {
		t.Errorf("TaskRemaining(T1) = %v, want 5", rem)
	}
}

func TestState_WithAssignment(t *testing.T) {
	p := twoByTwo(t)
	root := p.InitialState()

	s := mustAssign(t, root, "A1", "T1")

	if s.Depth() != 1 {
		t.Errorf("Depth = %d, want 1", s.Depth())
	}
	if s.TotalProfit() != 8 {
		t.Errorf("TotalProfit = %v, want 8", s.TotalProfit())
	}
	rem, _ := s.AgentRemaining("A1")
	if rem != 5 {
		t.Errorf("AgentRemaining(A1) = %v, want 5", rem)
	}

	// Parent must be untouched.
	if root.Depth() != 0 || root.TotalProfit() != 0 {
		t.Error("deriving a child mutated the parent state")
	}
	rem, _ = root.AgentRemaining("A1")
	if rem != 10 {
		t.Errorf("parent AgentRemaining(A1) = %v, want 10", rem)
	}
}

func TestState_WithAssignmentErrors(t *testing.T) {
	p := twoByTwo(t, WithHardAssignments(Pair{Agent: "A2", Task: "T2"}))
	root := p.InitialState()

	if _, err := root.WithAssignment("AX", "T1"); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("unknown agent error = %v, want ErrUnknownAgent", err)
	}
	if _, err := root.WithAssignment("A1", "TX"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("unknown task error = %v, want ErrUnknownTask", err)
	}
	// Re-adding a hard pair is a duplicate.
	if _, err := root.WithAssignment("A2", "T2"); !errors.Is(err, ErrDuplicateAssignment) {
		t.Errorf("duplicate error = %v, want ErrDuplicateAssignment", err)
	}

	s := mustAssign(t, root, "A1", "T1")
	if _, err := s.WithAssignment("A1", "T1"); !errors.Is(err, ErrDuplicateAssignment) {
		t.Errorf("duplicate error = %v, want ErrDuplicateAssignment", err)
	}
}

func TestState_BudgetExceeded(t *testing.T) {
	p, err := NewProblem(
		[]Agent{{ID: "A1", Budget: 3}},
		[]Task{{ID: "T1", Budget: 10}},
		UniformCosts(Costs{AgentCost: 5, TaskCost: 5, Profit: 1}),
	)
	if err != nil {
		t.Fatalf("NewProblem failed: %v", err)
	}

	_, err = p.InitialState().WithAssignment("A1", "T1")
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("WithAssignment error = %v, want ErrBudgetExceeded", err)
	}
}

func TestState_Pairs(t *testing.T) {
	p := twoByTwo(t, WithHardAssignments(Pair{Agent: "A2", Task: "T1"}))
	s := p.InitialState()
	s = mustAssign(t, s, "A1", "T1")
	s = mustAssign(t, s, "A1", "T2")

	pairs := s.Pairs()
	want := []Pair{
		{Agent: "A1", Task: "T1"},
		{Agent: "A1", Task: "T2"},
		{Agent: "A2", Task: "T1"},
	}
	if len(pairs) != len(want) {
		t.Fatalf("Pairs len = %d, want %d", len(pairs), len(want))
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("Pairs[%d] = %v, want %v", i, pairs[i], want[i])
		}
	}
}

func TestState_IsComplete(t *testing.T) {
	p := twoByTwo(t)
	root := p.InitialState()

	if root.IsComplete(false) {
		t.Error("empty state with feasible pairs reported complete")
	}

	// Assign everything; no pair remains.
	s := mustAssign(t, root, "A1", "T1")
	s = mustAssign(t, s, "A1", "T2")
	s = mustAssign(t, s, "A2", "T1")
	s = mustAssign(t, s, "A2", "T2")

	if !s.IsComplete(false) {
		t.Error("fully assigned state not reported complete")
	}
	// All budgets are exactly zero here (4 assignments of cost 5 against
	// budgets of 10 on each side).
	if !s.IsComplete(true) {
		t.Error("state with zero budgets not complete under completeRequired")
	}
}

func TestState_IsCompleteExactZero(t *testing.T) {
	// A1 can exhaust its budget exactly, T1 cannot reach zero.
	p, err := NewProblem(
		[]Agent{{ID: "A1", Budget: 5}},
		[]Task{{ID: "T1", Budget: 8}},
		UniformCosts(Costs{AgentCost: 5, TaskCost: 5, Profit: 1}),
	)
	if err != nil {
		t.Fatalf("NewProblem failed: %v", err)
	}

	s := mustAssign(t, p.InitialState(), "A1", "T1")

	if !s.IsComplete(false) {
		t.Error("state with no feasible pairs not complete")
	}
	if s.IsComplete(true) {
		t.Error("state with leftover task budget reported complete under completeRequired")
	}
}

func TestState_Key(t *testing.T) {
	p := twoByTwo(t)
	root := p.InitialState()

	// Same assignment set reached in different insertion orders.
	a := mustAssign(t, mustAssign(t, root, "A1", "T1"), "A2", "T2")
	b := mustAssign(t, mustAssign(t, root, "A2", "T2"), "A1", "T1")

	if a.Key() != b.Key() {
		t.Errorf("Key differs for identical sets: %x vs %x", a.Key(), b.Key())
	}
	if a.Key() == root.Key() {
		t.Error("Key of extended state equals root key")
	}

	c := mustAssign(t, mustAssign(t, root, "A1", "T2"), "A2", "T1")
	if a.Key() == c.Key() {
		t.Error("Key collision between different assignment sets")
	}
}

func TestState_TaskProfits(t *testing.T) {
	p := twoByTwo(t)
	s := mustAssign(t, p.InitialState(), "A1", "T1")
	s = mustAssign(t, s, "A2", "T1")

	got, err := s.TaskProfit("T1")
	if err != nil {
		t.Fatalf("TaskProfit failed: %v", err)
	}
	if got != 10 {
		t.Errorf("TaskProfit(T1) = %v, want 10", got)
	}

	profits := s.TaskProfits()
	if profits["T1"] != 10 || profits["T2"] != 0 {
		t.Errorf("TaskProfits = %v, want map[T1:10 T2:0]", profits)
	}
	if s.MinTaskProfit() != 0 {
		t.Errorf("MinTaskProfit = %v, want 0", s.MinTaskProfit())
	}

	s = mustAssign(t, s, "A1", "T2")
	if s.MinTaskProfit() != 3 {
		t.Errorf("MinTaskProfit = %v, want 3", s.MinTaskProfit())
	}
}

func TestState_Snapshot(t *testing.T) {
	p := twoByTwo(t)
	s := mustAssign(t, p.InitialState(), "A1", "T1")

	sol := s.Snapshot()
	if sol.TotalProfit != 8 {
		t.Errorf("Snapshot.TotalProfit = %v, want 8", sol.TotalProfit)
	}
	if sol.AgentRemaining["A1"] != 5 || sol.AgentRemaining["A2"] != 10 {
		t.Errorf("Snapshot.AgentRemaining = %v", sol.AgentRemaining)
	}
	if len(sol.Pairs) != 1 || sol.Pairs[0] != (Pair{Agent: "A1", Task: "T1"}) {
		t.Errorf("Snapshot.Pairs = %v, want [A1->T1]", sol.Pairs)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded Solution
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.TotalProfit != 8 {
		t.Errorf("decoded TotalProfit = %v, want 8", decoded.TotalProfit)
	}
}
