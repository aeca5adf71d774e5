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
	"errors"
	"math"
	"testing"
)

// pairCosts builds a cost function from an explicit table. Pairs missing
// from the table cost nothing and earn nothing.
func pairCosts(m map[Pair]Costs) CostFunc {
	return func(agentID, taskID string) Costs {
		return m[Pair{Agent: agentID, Task: taskID}]
	}
}

// twoByTwo returns the 2-agent, 2-task instance used across the package:
// all costs 5, budgets 10, profits 8/3/2/9. The budgets accommodate two
// assignments per agent and per task, so the standard optimum takes all
// four pairs for a total profit of 22 and consumes every budget exactly.
func twoByTwo(t *testing.T, opts ...ProblemOption) *Problem {
	t.Helper()
	p, err := NewProblem(
		[]Agent{{ID: "A1", Budget: 10}, {ID: "A2", Budget: 10}},
		[]Task{{ID: "T1", Budget: 10}, {ID: "T2", Budget: 10}},
		pairCosts(map[Pair]Costs{
			{Agent: "A1", Task: "T1"}: {AgentCost: 5, TaskCost: 5, Profit: 8},
			{Agent: "A1", Task: "T2"}: {AgentCost: 5, TaskCost: 5, Profit: 3},
			{Agent: "A2", Task: "T1"}: {AgentCost: 5, TaskCost: 5, Profit: 2},
			{Agent: "A2", Task: "T2"}: {AgentCost: 5, TaskCost: 5, Profit: 9},
		}),
		opts...,
	)
	if err != nil {
		t.Fatalf("NewProblem failed: %v", err)
	}
	return p
}

func TestNewProblem(t *testing.T) {
	p := twoByTwo(t)

	if p.NumAgents() != 2 {
		t.Errorf("NumAgents = %d, want 2", p.NumAgents())
	}
	if p.NumTasks() != 2 {
		t.Errorf("NumTasks = %d, want 2", p.NumTasks())
	}
	if p.Epsilon() != DefaultEpsilon {
		t.Errorf("Epsilon = %g, want %g", p.Epsilon(), DefaultEpsilon)
	}

	c, err := p.Costs("A2", "T2")
	if err != nil {
		t.Fatalf("Costs failed: %v", err)
	}
	if c.AgentCost != 5 || c.TaskCost != 5 || c.Profit != 9 {
		t.Errorf("Costs(A2, T2) = %+v, want {5 5 9}", c)
	}
}

func TestNewProblem_Validation(t *testing.T) {
	agents := []Agent{{ID: "A1", Budget: 10}}
	tasks := []Task{{ID: "T1", Budget: 10}}
	zero := UniformCosts(Costs{})

	tests := []struct {
		name    string
		agents  []Agent
		tasks   []Task
		costs   CostFunc
		wantErr error
	}{
		{"no agents", nil, tasks, zero, ErrNoAgents},
		{"no tasks", agents, nil, zero, ErrNoTasks},
		{"nil costs", agents, tasks, nil, ErrInvalidConfig},
		{"empty agent id", []Agent{{ID: "", Budget: 1}}, tasks, zero, ErrEmptyID},
		{"empty task id", agents, []Task{{ID: ""}}, zero, ErrEmptyID},
		{"duplicate agent", []Agent{{ID: "A1"}, {ID: "A1"}}, tasks, zero, ErrDuplicateID},
		{"duplicate task", agents, []Task{{ID: "T1"}, {ID: "T1"}}, zero, ErrDuplicateID},
		{"negative agent budget", []Agent{{ID: "A1", Budget: -1}}, tasks, zero, ErrNegativeValue},
		{"negative task budget", agents, []Task{{ID: "T1", Budget: -1}}, zero, ErrNegativeValue},
		{"negative profit", agents, tasks, UniformCosts(Costs{Profit: -1}), ErrNegativeValue},
		{"nan cost", agents, tasks, UniformCosts(Costs{AgentCost: math.NaN()}), ErrNonFiniteValue},
		{"inf cost", agents, tasks, UniformCosts(Costs{TaskCost: math.Inf(1)}), ErrNonFiniteValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProblem(tt.agents, tt.tasks, tt.costs)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewProblem error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewProblem_HardAssignments(t *testing.T) {
	p := twoByTwo(t, WithHardAssignments(Pair{Agent: "A1", Task: "T2"}))

	hard := p.HardAssignments()
	if len(hard) != 1 {
		t.Fatalf("HardAssignments len = %d, want 1", len(hard))
	}
	if hard[0] != (Pair{Agent: "A1", Task: "T2"}) {
		t.Errorf("HardAssignments[0] = %v, want A1->T2", hard[0])
	}
}

func TestNewProblem_HardAssignmentErrors(t *testing.T) {
	agents := []Agent{{ID: "A1", Budget: 10}}
	tasks := []Task{{ID: "T1", Budget: 4}}
	costs := UniformCosts(Costs{AgentCost: 3, TaskCost: 3, Profit: 1})

	tests := []struct {
		name    string
		opts    []ProblemOption
		wantErr error
	}{
		{
			"unknown agent",
			[]ProblemOption{WithHardAssignments(Pair{Agent: "AX", Task: "T1"})},
			ErrUnknownAgent,
		},
		{
			"unknown task",
			[]ProblemOption{WithHardAssignments(Pair{Agent: "A1", Task: "TX"})},
			ErrUnknownTask,
		},
		{
			"duplicate pair",
			[]ProblemOption{WithHardAssignments(
				Pair{Agent: "A1", Task: "T1"},
				Pair{Agent: "A1", Task: "T1"},
			)},
			ErrDuplicateHardAssignment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProblem(agents, tasks, costs, tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewProblem error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewProblem_HardAssignmentOverdraw(t *testing.T) {
	// One pair fits, but cumulatively the task budget of 4 cannot absorb
	// two contributions of 3.
	agents := []Agent{{ID: "A1", Budget: 10}, {ID: "A2", Budget: 10}}
	tasks := []Task{{ID: "T1", Budget: 4}}
	costs := UniformCosts(Costs{AgentCost: 3, TaskCost: 3, Profit: 1})

	_, err := NewProblem(agents, tasks, costs, WithHardAssignments(
		Pair{Agent: "A1", Task: "T1"},
		Pair{Agent: "A2", Task: "T1"},
	))
	if !errors.Is(err, ErrInfeasibleHardAssignment) {
		t.Errorf("NewProblem error = %v, want ErrInfeasibleHardAssignment", err)
	}

	// A single pair that alone exceeds the agent budget.
	_, err = NewProblem(
		[]Agent{{ID: "A1", Budget: 2}},
		[]Task{{ID: "T1", Budget: 10}},
		costs,
		WithHardAssignments(Pair{Agent: "A1", Task: "T1"}),
	)
	if !errors.Is(err, ErrInfeasibleHardAssignment) {
		t.Errorf("NewProblem error = %v, want ErrInfeasibleHardAssignment", err)
	}
}

func TestProblem_CostsUnknown(t *testing.T) {
	p := twoByTwo(t)

	if _, err := p.Costs("AX", "T1"); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("Costs(AX, T1) error = %v, want ErrUnknownAgent", err)
	}
	if _, err := p.Costs("A1", "TX"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("Costs(A1, TX) error = %v, want ErrUnknownTask", err)
	}
}

func TestUniformCosts(t *testing.T) {
	fn := UniformCosts(Costs{AgentCost: 1, TaskCost: 2, Profit: 3})
	c := fn("anything", "goes")
	if c.AgentCost != 1 || c.TaskCost != 2 || c.Profit != 3 {
		t.Errorf("UniformCosts = %+v, want {1 2 3}", c)
	}
}

func TestPair_String(t *testing.T) {
	p := Pair{Agent: "A1", Task: "T2"}
	if got := p.String(); got != "A1->T2" {
		t.Errorf("String() = %q, want %q", got, "A1->T2")
	}
}

func TestWithEpsilon(t *testing.T) {
	p := twoByTwo(t, WithEpsilon(1e-6))
	if p.Epsilon() != 1e-6 {
		t.Errorf("Epsilon = %g, want 1e-6", p.Epsilon())
	}

	// Non-positive values fall back to the default.
	p = twoByTwo(t, WithEpsilon(-1))
	if p.Epsilon() != DefaultEpsilon {
		t.Errorf("Epsilon = %g, want %g", p.Epsilon(), DefaultEpsilon)
	}
}

func TestProblem_Immutable(t *testing.T) {
	agents := []Agent{{ID: "A1", Budget: 10}}
	tasks := []Task{{ID: "T1", Budget: 10}}
	p, err := NewProblem(agents, tasks, UniformCosts(Costs{AgentCost: 1, TaskCost: 1, Profit: 1}))
	if err != nil {
		t.Fatalf("NewProblem failed: %v", err)
	}

	// Mutating the caller's slice must not affect the problem.
	agents[0].Budget = 999
	if got := p.Agents()[0].Budget; got != 10 {
		t.Errorf("agent budget after caller mutation = %v, want 10", got)
	}

	// Mutating an accessor's result must not affect the problem.
	view := p.Agents()
	view[0].Budget = 777
	if got := p.Agents()[0].Budget; got != 10 {
		t.Errorf("agent budget after view mutation = %v, want 10", got)
	}
}
