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
	"sort"
)

// State is an immutable snapshot of a partial assignment.
//
// Description:
//
//	A State records which (agent, task) pairs are assigned, the remaining
//	budget of every agent and task, the accrued per-task profits, and the
//	total profit. States form a chain: each one stores a single-pair delta
//	plus a reference to its parent, so the assignment set is structurally
//	shared while the small derived vectors are copied per state. A State is
//	never mutated after construction; deriving a child leaves the parent
//	untouched.
//
//	Key returns a 64-bit value built by XOR-ing one fixed random token per
//	assigned pair, so two states hold the same assignment set exactly when
//	their keys and depths agree (up to token collisions). States are
//	therefore usable as map keys for memoization.
//
// Thread Safety: Immutable; safe for concurrent reads.
type State struct {
	problem *Problem
	parent  *State

	// pairIdx is the dense pair index added relative to parent, -1 at root.
	pairIdx int32
	depth   int32

	agentRem   []float64
	taskRem    []float64
	taskProfit []float64

	// Monotone counters of budgets that have reached exactly zero.
	zeroAgents int32
	zeroTasks  int32

	profit float64
	key    uint64
}

// newRoot builds the initial state with all hard assignments applied.
// The problem validated hard-assignment feasibility at construction, so
// the root is always budget-feasible.
func newRoot(p *Problem) *State {
	s := &State{
		problem:    p,
		pairIdx:    -1,
		agentRem:   make([]float64, len(p.agents)),
		taskRem:    make([]float64, len(p.tasks)),
		taskProfit: make([]float64, len(p.tasks)),
	}
	for i, a := range p.agents {
		s.agentRem[i] = a.Budget
	}
	for i, t := range p.tasks {
		s.taskRem[i] = t.Budget
	}
	for _, h := range p.hard {
		a, t := p.agentIdx[h.Agent], p.taskIdx[h.Task]
		i := p.pairIndex(a, t)
		s.agentRem[a] -= p.agentCost[i]
		s.taskRem[t] -= p.taskCost[i]
		s.taskProfit[t] += p.profit[i]
		s.profit += p.profit[i]
		s.key ^= p.tokens[i]
		s.depth++
	}
	for _, rem := range s.agentRem {
		if rem <= p.eps {
			s.zeroAgents++
		}
	}
	for _, rem := range s.taskRem {
		if rem <= p.eps {
			s.zeroTasks++
		}
	}
	return s
}

// InitialState returns the state a search starts from: no assignments
// beyond the problem's hard assignments. Further states can be derived
// with WithAssignment, for example to replay or verify a solution.
func (p *Problem) InitialState() *State {
	return newRoot(p)
}

// withPair derives the child state for a dense pair index the caller has
// already checked for feasibility. Engine-internal: no validation.
func (s *State) withPair(i int) *State {
	p := s.problem
	a, t := p.pairAgent(i), p.pairTask(i)

	child := &State{
		problem:    p,
		parent:     s,
		pairIdx:    int32(i),
		depth:      s.depth + 1,
		agentRem:   make([]float64, len(s.agentRem)),
		taskRem:    make([]float64, len(s.taskRem)),
		taskProfit: make([]float64, len(s.taskProfit)),
		zeroAgents: s.zeroAgents,
		zeroTasks:  s.zeroTasks,
		profit:     s.profit + p.profit[i],
		key:        s.key ^ p.tokens[i],
	}
	copy(child.agentRem, s.agentRem)
	copy(child.taskRem, s.taskRem)
	copy(child.taskProfit, s.taskProfit)

	child.agentRem[a] -= p.agentCost[i]
	child.taskRem[t] -= p.taskCost[i]
	child.taskProfit[t] += p.profit[i]

	if s.agentRem[a] > p.eps && child.agentRem[a] <= p.eps {
		child.zeroAgents++
	}
	if s.taskRem[t] > p.eps && child.taskRem[t] <= p.eps {
		child.zeroTasks++
	}
	return child
}

// feasiblePair reports whether the pair fits both remaining budgets.
func (s *State) feasiblePair(i int) bool {
	p := s.problem
	a, t := p.pairAgent(i), p.pairTask(i)
	return p.agentCost[i] <= s.agentRem[a]+p.eps && p.taskCost[i] <= s.taskRem[t]+p.eps
}

// exactlyComplete reports whether every agent and task budget has been
// consumed to exactly zero (within the problem tolerance).
func (s *State) exactlyComplete() bool {
	return int(s.zeroAgents) == len(s.problem.agents) && int(s.zeroTasks) == len(s.problem.tasks)
}

// assignedMask builds the dense membership bitmap for this state by
// walking the parent chain and adding the hard assignments.
func (s *State) assignedMask() []bool {
	mask := make([]bool, s.problem.numPairs())
	if s.problem.hardMask != nil {
		copy(mask, s.problem.hardMask)
	}
	for st := s; st != nil && st.pairIdx >= 0; st = st.parent {
		mask[st.pairIdx] = true
	}
	return mask
}

// WithAssignment returns a new state with the pair added.
//
// Description:
//
//	Public counterpart of the engine's internal derivation, for callers
//	exploring assignment space manually. The engine never produces the
//	errors below because its candidate generation filters first; receiving
//	ErrBudgetExceeded from inside a solve indicates a bug, not a normal
//	runtime outcome.
//
// Outputs:
//   - *State: The derived state. Nil on error.
//   - error: ErrUnknownAgent, ErrUnknownTask, ErrDuplicateAssignment, or
//     ErrBudgetExceeded.
func (s *State) WithAssignment(agentID, taskID string) (*State, error) {
	p := s.problem
	a, ok := p.agentIdx[agentID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, agentID)
	}
	t, ok := p.taskIdx[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, taskID)
	}
	i := p.pairIndex(a, t)
	if s.assignedMask()[i] {
		return nil, fmt.Errorf("%w: %s->%s", ErrDuplicateAssignment, agentID, taskID)
	}
	if !s.feasiblePair(i) {
		return nil, fmt.Errorf("%w: %s->%s", ErrBudgetExceeded, agentID, taskID)
	}
	return s.withPair(i), nil
}

// IsComplete reports whether no further feasible decision can change the
// outcome of this state.
//
// Description:
//
//	With completeRequired, the state is complete only when every remaining
//	agent and task budget is exactly zero. Otherwise the state is complete
//	when no unassigned (agent, task) pair fits both remaining budgets.
func (s *State) IsComplete(completeRequired bool) bool {
	if completeRequired {
		return s.exactlyComplete()
	}
	mask := s.assignedMask()
	for i := range mask {
		if !mask[i] && s.feasiblePair(i) {
			return false
		}
	}
	return true
}

// Pairs returns every assigned pair, hard assignments included, sorted by
// agent then task ID.
func (s *State) Pairs() []Pair {
	p := s.problem
	out := make([]Pair, 0, int(s.depth))
	out = append(out, p.hard...)
	for st := s; st != nil && st.pairIdx >= 0; st = st.parent {
		out = append(out, Pair{
			Agent: p.agents[p.pairAgent(int(st.pairIdx))].ID,
			Task:  p.tasks[p.pairTask(int(st.pairIdx))].ID,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Agent != out[j].Agent {
			return out[i].Agent < out[j].Agent
		}
		return out[i].Task < out[j].Task
	})
	return out
}

// Assigned reports whether the pair is part of this state.
func (s *State) Assigned(agentID, taskID string) (bool, error) {
	p := s.problem
	a, ok := p.agentIdx[agentID]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownAgent, agentID)
	}
	t, ok := p.taskIdx[taskID]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownTask, taskID)
	}
	return s.assignedMask()[p.pairIndex(a, t)], nil
}

// AgentRemaining returns the agent's remaining budget.
func (s *State) AgentRemaining(agentID string) (float64, error) {
	a, ok := s.problem.agentIdx[agentID]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAgent, agentID)
	}
	return s.agentRem[a], nil
}

// TaskRemaining returns the task's remaining budget.
func (s *State) TaskRemaining(taskID string) (float64, error) {
	t, ok := s.problem.taskIdx[taskID]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTask, taskID)
	}
	return s.taskRem[t], nil
}

// TotalProfit returns the sum of profits over all assigned pairs.
func (s *State) TotalProfit() float64 {
	return s.profit
}

// TaskProfit returns the profit accrued by one task.
func (s *State) TaskProfit(taskID string) (float64, error) {
	t, ok := s.problem.taskIdx[taskID]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTask, taskID)
	}
	return s.taskProfit[t], nil
}

// TaskProfits returns the accrued profit of every task keyed by ID.
func (s *State) TaskProfits() map[string]float64 {
	out := make(map[string]float64, len(s.problem.tasks))
	for i, t := range s.problem.tasks {
		out[t.ID] = s.taskProfit[i]
	}
	return out
}

// MinTaskProfit returns the smallest per-task accrued profit, the fair
// objective value of this state.
func (s *State) MinTaskProfit() float64 {
	minP := s.taskProfit[0]
	for _, v := range s.taskProfit[1:] {
		if v < minP {
			minP = v
		}
	}
	return minP
}

// Depth returns the number of assigned pairs, hard assignments included.
func (s *State) Depth() int {
	return int(s.depth)
}

// Key returns the structural identity of the assignment set.
func (s *State) Key() uint64 {
	return s.key
}

// Problem returns the problem this state belongs to.
func (s *State) Problem() *Problem {
	return s.problem
}

// MarshalJSON renders the state through its Snapshot.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// Snapshot flattens the state into a serializable view for rendering.
func (s *State) Snapshot() Solution {
	p := s.problem
	sol := Solution{
		Pairs:          s.Pairs(),
		AgentRemaining: make(map[string]float64, len(p.agents)),
		TaskRemaining:  make(map[string]float64, len(p.tasks)),
		TaskProfits:    s.TaskProfits(),
		TotalProfit:    s.profit,
		MinTaskProfit:  s.MinTaskProfit(),
	}
	for i, a := range p.agents {
		sol.AgentRemaining[a.ID] = s.agentRem[i]
	}
	for i, t := range p.tasks {
		sol.TaskRemaining[t.ID] = s.taskRem[i]
	}
	return sol
}
