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
	"fmt"
	"math"
	"math/rand/v2"
)

// DefaultEpsilon is the tolerance used for all budget and objective
// comparisons unless the problem overrides it.
const DefaultEpsilon = 1e-9

// Agent is a resource-constrained actor that can be assigned to tasks.
type Agent struct {
	// ID uniquely identifies the agent within a problem.
	ID string `json:"id" yaml:"id"`

	// Budget is the total spending capacity of the agent.
	Budget float64 `json:"budget" yaml:"budget"`
}

// Task is a unit of work that can absorb contributions from one or more
// agents up to its budget.
type Task struct {
	// ID uniquely identifies the task within a problem.
	ID string `json:"id" yaml:"id"`

	// Budget is the maximum cumulative cost the task can absorb.
	Budget float64 `json:"budget" yaml:"budget"`
}

// Pair names a single (agent, task) assignment.
type Pair struct {
	Agent string `json:"agent" yaml:"agent"`
	Task  string `json:"task" yaml:"task"`
}

// String returns "agent->task".
func (p Pair) String() string {
	return p.Agent + "->" + p.Task
}

// Costs carries the three per-pair values of the cost model. AgentCost is
// charged against the agent's budget, TaskCost against the task's budget,
// and Profit is the value generated when the pair is assigned. The two
// costs are independent; the classic single-cost model sets them equal.
type Costs struct {
	AgentCost float64 `json:"agent_cost" yaml:"agent_cost"`
	TaskCost  float64 `json:"task_cost" yaml:"task_cost"`
	Profit    float64 `json:"profit" yaml:"profit"`
}

// CostFunc returns the cost model values for one (agent, task) pair.
// It is called once per pair during problem construction; the solver
// never calls back into it afterwards.
type CostFunc func(agentID, taskID string) Costs

// UniformCosts returns a CostFunc that yields the same values for every
// pair. Useful for unit-cost problems like the classic formulation.
func UniformCosts(c Costs) CostFunc {
	return func(string, string) Costs { return c }
}

// tokenSeed fixes the PCG stream for pair tokens so state keys are
// reproducible across runs of the same problem.
const tokenSeed = 0x5745ED0E

// Problem is an immutable description of an assignment problem instance.
//
// Description:
//
//	Problem prefetches the full cost model into dense matrices indexed by
//	(agent index, task index) so the search hot path performs no map
//	lookups and no calls into user code. Construction validates the
//	instance and the optional hard assignments; a successfully built
//	Problem can always produce at least one feasible root state.
//
// Thread Safety: Immutable after construction; safe to share between
// goroutines and across concurrent solves.
type Problem struct {
	agents []Agent
	tasks  []Task

	agentIdx map[string]int
	taskIdx  map[string]int

	// Dense per-pair matrices, indexed a*len(tasks)+t.
	agentCost []float64
	taskCost  []float64
	profit    []float64

	// Per-pair random tokens for incremental state keys.
	tokens []uint64

	hard     []Pair
	hardMask []bool

	eps float64
}

// ProblemOption customizes problem construction.
type ProblemOption func(*problemOptions)

type problemOptions struct {
	hard []Pair
	eps  float64
}

// WithHardAssignments pre-fixes the given pairs before search begins.
// Every returned solution contains all of them.
func WithHardAssignments(pairs ...Pair) ProblemOption {
	return func(o *problemOptions) {
		o.hard = append(o.hard, pairs...)
	}
}

// WithEpsilon overrides the comparison tolerance for this problem.
// Values at or below zero fall back to DefaultEpsilon.
func WithEpsilon(eps float64) ProblemOption {
	return func(o *problemOptions) {
		o.eps = eps
	}
}

// NewProblem validates and builds an immutable problem instance.
//
// Description:
//
//	Checks identifiers for uniqueness, budgets, costs, and profits for
//	finite non-negative values, and hard assignments for individual and
//	cumulative budget feasibility. The cost function is sampled once for
//	every (agent, task) pair.
//
// Inputs:
//   - agents: At least one agent with a unique non-empty ID.
//   - tasks: At least one task with a unique non-empty ID.
//   - costs: Cost model callback. Must not be nil.
//   - opts: Optional hard assignments and tolerance override.
//
// Outputs:
//   - *Problem: The validated instance.
//   - error: ErrNoAgents, ErrNoTasks, ErrEmptyID, ErrDuplicateID,
//     ErrNegativeValue, ErrNonFiniteValue, ErrUnknownAgent, ErrUnknownTask,
//     ErrDuplicateHardAssignment, or ErrInfeasibleHardAssignment.
func NewProblem(agents []Agent, tasks []Task, costs CostFunc, opts ...ProblemOption) (*Problem, error) {
	if len(agents) == 0 {
		return nil, ErrNoAgents
	}
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	if costs == nil {
		return nil, fmt.Errorf("%w: nil cost function", ErrInvalidConfig)
	}

	o := problemOptions{eps: DefaultEpsilon}
	for _, opt := range opts {
		opt(&o)
	}
	if o.eps <= 0 {
		o.eps = DefaultEpsilon
	}

	p := &Problem{
		agents:   make([]Agent, len(agents)),
		tasks:    make([]Task, len(tasks)),
		agentIdx: make(map[string]int, len(agents)),
		taskIdx:  make(map[string]int, len(tasks)),
		eps:      o.eps,
	}
	copy(p.agents, agents)
	copy(p.tasks, tasks)

	for i, a := range p.agents {
		if a.ID == "" {
			return nil, fmt.Errorf("%w: agent at index %d", ErrEmptyID, i)
		}
		if _, dup := p.agentIdx[a.ID]; dup {
			return nil, fmt.Errorf("%w: agent %q", ErrDuplicateID, a.ID)
		}
		if err := checkValue("agent "+a.ID+" budget", a.Budget); err != nil {
			return nil, err
		}
		p.agentIdx[a.ID] = i
	}
	for i, t := range p.tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: task at index %d", ErrEmptyID, i)
		}
		if _, dup := p.taskIdx[t.ID]; dup {
			return nil, fmt.Errorf("%w: task %q", ErrDuplicateID, t.ID)
		}
		if err := checkValue("task "+t.ID+" budget", t.Budget); err != nil {
			return nil, err
		}
		p.taskIdx[t.ID] = i
	}

	if err := p.prefetch(costs); err != nil {
		return nil, err
	}
	if err := p.applyHard(o.hard); err != nil {
		return nil, err
	}
	return p, nil
}

// prefetch samples the cost function into dense matrices and draws the
// per-pair key tokens from a fixed-seed PCG stream.
func (p *Problem) prefetch(costs CostFunc) error {
	nPairs := len(p.agents) * len(p.tasks)
	p.agentCost = make([]float64, nPairs)
	p.taskCost = make([]float64, nPairs)
	p.profit = make([]float64, nPairs)
	p.tokens = make([]uint64, nPairs)

	rng := rand.New(rand.NewPCG(tokenSeed, uint64(nPairs)))
	for a := range p.agents {
		for t := range p.tasks {
			c := costs(p.agents[a].ID, p.tasks[t].ID)
			name := p.agents[a].ID + "/" + p.tasks[t].ID
			if err := checkValue("agent cost "+name, c.AgentCost); err != nil {
				return err
			}
			if err := checkValue("task cost "+name, c.TaskCost); err != nil {
				return err
			}
			if err := checkValue("profit "+name, c.Profit); err != nil {
				return err
			}
			i := p.pairIndex(a, t)
			p.agentCost[i] = c.AgentCost
			p.taskCost[i] = c.TaskCost
			p.profit[i] = c.Profit
			p.tokens[i] = rng.Uint64()
		}
	}
	return nil
}

// applyHard validates hard assignments individually and cumulatively.
// The cumulative check simulates applying every hard pair in order; if any
// remaining budget goes negative the set as a whole is infeasible even
// when each pair fits on its own.
func (p *Problem) applyHard(hard []Pair) error {
	if len(hard) == 0 {
		return nil
	}

	p.hardMask = make([]bool, len(p.agents)*len(p.tasks))
	agentRem := make([]float64, len(p.agents))
	taskRem := make([]float64, len(p.tasks))
	for i, a := range p.agents {
		agentRem[i] = a.Budget
	}
	for i, t := range p.tasks {
		taskRem[i] = t.Budget
	}

	p.hard = make([]Pair, 0, len(hard))
	for _, h := range hard {
		a, ok := p.agentIdx[h.Agent]
		if !ok {
			return fmt.Errorf("%w: hard assignment %s", ErrUnknownAgent, h)
		}
		t, ok := p.taskIdx[h.Task]
		if !ok {
			return fmt.Errorf("%w: hard assignment %s", ErrUnknownTask, h)
		}
		i := p.pairIndex(a, t)
		if p.hardMask[i] {
			return fmt.Errorf("%w: %s", ErrDuplicateHardAssignment, h)
		}
		agentRem[a] -= p.agentCost[i]
		taskRem[t] -= p.taskCost[i]
		if agentRem[a] < -p.eps {
			return fmt.Errorf("%w: %s overdraws agent %q", ErrInfeasibleHardAssignment, h, h.Agent)
		}
		if taskRem[t] < -p.eps {
			return fmt.Errorf("%w: %s overdraws task %q", ErrInfeasibleHardAssignment, h, h.Task)
		}
		p.hardMask[i] = true
		p.hard = append(p.hard, h)
	}
	return nil
}

func checkValue(what string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s = %v", ErrNonFiniteValue, what, v)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s = %v", ErrNegativeValue, what, v)
	}
	return nil
}

// pairIndex flattens (agent index, task index) into the dense matrices.
func (p *Problem) pairIndex(a, t int) int {
	return a*len(p.tasks) + t
}

// pairAgent recovers the agent index from a dense pair index.
func (p *Problem) pairAgent(i int) int {
	return i / len(p.tasks)
}

// pairTask recovers the task index from a dense pair index.
func (p *Problem) pairTask(i int) int {
	return i % len(p.tasks)
}

// numPairs returns the size of the dense pair space.
func (p *Problem) numPairs() int {
	return len(p.agents) * len(p.tasks)
}

// isHard reports whether the dense pair index is a hard assignment.
func (p *Problem) isHard(i int) bool {
	return p.hardMask != nil && p.hardMask[i]
}

// NumAgents returns the number of agents.
func (p *Problem) NumAgents() int {
	return len(p.agents)
}

// NumTasks returns the number of tasks.
func (p *Problem) NumTasks() int {
	return len(p.tasks)
}

// Agents returns a copy of the agent list in construction order.
func (p *Problem) Agents() []Agent {
	out := make([]Agent, len(p.agents))
	copy(out, p.agents)
	return out
}

// Tasks returns a copy of the task list in construction order.
func (p *Problem) Tasks() []Task {
	out := make([]Task, len(p.tasks))
	copy(out, p.tasks)
	return out
}

// Costs returns the cost model values for one pair.
//
// Outputs:
//   - Costs: Agent cost, task cost, and profit for the pair.
//   - error: ErrUnknownAgent or ErrUnknownTask.
func (p *Problem) Costs(agentID, taskID string) (Costs, error) {
	a, ok := p.agentIdx[agentID]
	if !ok {
		return Costs{}, fmt.Errorf("%w: %q", ErrUnknownAgent, agentID)
	}
	t, ok := p.taskIdx[taskID]
	if !ok {
		return Costs{}, fmt.Errorf("%w: %q", ErrUnknownTask, taskID)
	}
	i := p.pairIndex(a, t)
	return Costs{
		AgentCost: p.agentCost[i],
		TaskCost:  p.taskCost[i],
		Profit:    p.profit[i],
	}, nil
}

// HardAssignments returns a copy of the hard assignment list in the order
// it was applied.
func (p *Problem) HardAssignments() []Pair {
	if len(p.hard) == 0 {
		return nil
	}
	out := make([]Pair, len(p.hard))
	copy(out, p.hard)
	return out
}

// Epsilon returns the comparison tolerance for this problem.
func (p *Problem) Epsilon() float64 {
	return p.eps
}
