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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Objective selects what the solver maximizes.
type Objective int

const (
	// ObjectiveStandard maximizes the total profit over assigned pairs.
	ObjectiveStandard Objective = iota

	// ObjectiveFair maximizes the minimum per-task profit (maximin).
	// Ties on the minimum are broken by greater total profit.
	ObjectiveFair
)

// String returns the objective name.
func (o Objective) String() string {
	switch o {
	case ObjectiveStandard:
		return "standard"
	case ObjectiveFair:
		return "fair"
	default:
		return fmt.Sprintf("objective(%d)", int(o))
	}
}

// ParseObjective parses an objective name. The empty string selects the
// standard objective.
func ParseObjective(s string) (Objective, error) {
	switch s {
	case "", "standard":
		return ObjectiveStandard, nil
	case "fair":
		return ObjectiveFair, nil
	default:
		return ObjectiveStandard, fmt.Errorf("%w: %q", ErrUnknownObjective, s)
	}
}

// Solver implements branch-and-bound depth-first search over agent-task
// assignments.
//
// The solver explores assignment sets in a fixed canonical order: every
// state only considers pairs that come after its newest pair in the
// exploration order, so each assignment set is generated exactly once.
// At each node it computes an admissible upper bound and abandons the
// subtree when the bound cannot improve on the incumbent.
//
// Thread Safety: Safe for concurrent use. Concurrent Solve calls share
// the budget and journal when those were supplied by the caller.
type Solver struct {
	problem     *Problem
	objective   Objective
	complete    bool
	orderPolicy OrderPolicy
	boundKind   BoundKind

	budgetConfig  SearchBudgetConfig
	observability ObservabilityConfig

	budget      *SearchBudget
	journal     *SearchJournal
	tracer      *SearchTracer
	logger      *slog.Logger
	onIncumbent func(Incumbent)

	// Built once at construction
	order  []int32
	bounds *bounder
	root   *State

	initErr error
}

// SolverOption configures the solver.
type SolverOption func(*Solver)

// WithObjective sets the objective to maximize.
func WithObjective(o Objective) SolverOption {
	return func(s *Solver) {
		s.objective = o
	}
}

// WithComplete requires every agent and task budget to be consumed
// exactly; states with leftover budget are not feasible solutions.
func WithComplete(complete bool) SolverOption {
	return func(s *Solver) {
		s.complete = complete
	}
}

// WithOrder sets the candidate exploration order.
func WithOrder(policy OrderPolicy) SolverOption {
	return func(s *Solver) {
		s.orderPolicy = policy
	}
}

// WithBound sets the pruning bound.
func WithBound(kind BoundKind) SolverOption {
	return func(s *Solver) {
		s.boundKind = kind
	}
}

// WithConfig applies a full solver configuration. Invalid configurations
// surface as an error from NewSolver.
func WithConfig(config SolverConfig) SolverOption {
	return func(s *Solver) {
		if err := config.Validate(); err != nil {
			s.initErr = err
			return
		}
		s.objective, _ = ParseObjective(config.Search.Objective)
		s.orderPolicy, _ = ParseOrderPolicy(config.Search.Order)
		s.boundKind, _ = ParseBoundKind(config.Search.Bound)
		s.complete = config.Search.Complete
		s.budgetConfig = config.Budget
		s.observability = config.Observability
	}
}

// WithBudget sets a caller-owned budget tracker. The solver does not
// reset it, so a shared budget caps consecutive solves cumulatively.
// Without this option each Solve call builds a fresh budget from the
// configuration.
func WithBudget(b *SearchBudget) SolverOption {
	return func(s *Solver) {
		s.budget = b
	}
}

// WithJournal attaches a journal that records search events.
func WithJournal(j *SearchJournal) SolverOption {
	return func(s *Solver) {
		s.journal = j
	}
}

// WithTracer attaches a SearchTracer for span and event reporting.
func WithTracer(tracer *SearchTracer) SolverOption {
	return func(s *Solver) {
		s.tracer = tracer
	}
}

// WithLogger directs the solver's structured logs to logger.
func WithLogger(logger *slog.Logger) SolverOption {
	return func(s *Solver) {
		s.logger = logger
	}
}

// WithIncumbentCallback registers a function invoked on every incumbent
// improvement, from the solving goroutine. Callbacks must be fast; slow
// callbacks stall the search.
func WithIncumbentCallback(fn func(Incumbent)) SolverOption {
	return func(s *Solver) {
		s.onIncumbent = fn
	}
}

// NewSolver creates a solver for the given problem.
//
// Inputs:
//   - p: The problem to solve.
//   - opts: Functional options applied in order.
//
// Outputs:
//   - *Solver: Ready to use solver.
//   - error: Non-nil if the problem is nil or an option carried an
//     invalid configuration.
func NewSolver(p *Problem, opts ...SolverOption) (*Solver, error) {
	if p == nil {
		return nil, ErrNilProblem
	}

	defaults := DefaultSolverConfig()
	s := &Solver{
		problem:       p,
		objective:     ObjectiveStandard,
		orderPolicy:   OrderByDensity,
		boundKind:     BoundClipped,
		budgetConfig:  defaults.Budget,
		observability: defaults.Observability,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.initErr != nil {
		return nil, s.initErr
	}

	s.order = buildOrder(p, s.orderPolicy)
	s.bounds = newBounder(p, s.boundKind, s.order)
	s.root = newRoot(p)

	return s, nil
}

// Solve runs the search to exhaustion or until stopped.
//
// The search stops early on context cancellation or budget exhaustion,
// polled at node entry and between candidates. An early stop preserves
// the incumbent and yields OutcomeBestEffort; a run to exhaustion yields
// OutcomeOptimal.
//
// Inputs:
//   - ctx: Context for cancellation. Must be non-nil.
//
// Outputs:
//   - *Result: Best solution found plus outcome and statistics.
//   - error: ErrNoFeasibleSolution when the exhausted search found no
//     feasible solution (complete mode with unsatisfiable budgets), or
//     ErrNoIncumbent when the search was stopped before finding one.
func (s *Solver) Solve(ctx context.Context) (*Result, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	runID := uuid.NewString()
	budget := s.budget
	if budget == nil {
		budget = NewSearchBudget(s.budgetConfig)
	}

	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.StartSolve(ctx, runID, s.problem, s.objective, budget)
	}
	logger := LoggerWithTrace(ctx, s.logger)
	logger.DebugContext(ctx, "starting solve",
		slog.String("run_id", runID),
		slog.String("objective", s.objective.String()),
		slog.Bool("complete", s.complete),
		slog.Int("pairs", len(s.order)))

	if s.journal != nil {
		s.journal.Record(JournalEntry{
			Event:  JournalStart,
			Detail: fmt.Sprintf("objective=%s complete=%v order=%s bound=%s", s.objective, s.complete, s.orderPolicy, s.boundKind),
		})
	}

	r := &search{
		solver: s,
		budget: budget,
		start:  time.Now(),
	}
	r.run(ctx)

	r.stats.Duration = time.Since(r.start)
	r.stats.StopCause = r.stopCause
	if r.stats.StopCause == "" && r.truncated {
		r.stats.StopCause = "depth"
	}

	outcome := OutcomeOptimal
	if r.stats.StopCause != "" {
		outcome = OutcomeBestEffort
	}

	if s.journal != nil {
		entry := JournalEntry{
			Event:  JournalDone,
			Nodes:  r.stats.NodesExplored,
			Detail: fmt.Sprintf("outcome=%s %s", outcome, r.stats),
		}
		if r.best != nil {
			entry.Profit = r.bestTotal
			entry.FairProfit = r.bestFair
			entry.Depth = r.best.Depth()
		}
		s.journal.Record(entry)
	}

	if r.best == nil {
		var err error
		reason := "no_incumbent"
		if outcome == OutcomeOptimal {
			// Exhausted without a single feasible solution. Only complete
			// mode can get here: with plain budget feasibility the empty
			// assignment is always feasible.
			err = ErrNoFeasibleSolution
			reason = "infeasible"
		} else {
			err = ErrNoIncumbent
		}
		RecordSolveFailure(ctx, s.objective, reason)
		if s.tracer != nil {
			s.tracer.EndSolve(span, nil, err)
		}
		logger.DebugContext(ctx, "solve finished without solution",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
			slog.String("stats", r.stats.String()))
		return nil, err
	}

	result := &Result{
		RunID:   runID,
		Outcome: outcome,
		Best:    r.best,
		Stats:   r.stats,
	}
	RecordSolve(ctx, s.objective, result)
	RecordBudgetUtilization(ctx, budget)
	if s.tracer != nil {
		s.tracer.EndSolve(span, result, nil)
	}
	logger.DebugContext(ctx, "solve finished",
		slog.String("run_id", runID),
		slog.String("outcome", outcome.String()),
		slog.Float64("profit", r.bestTotal),
		slog.String("stats", r.stats.String()))

	return result, nil
}

// Solve runs a search with default settings for the given objective.
// It is shorthand for NewSolver plus Solver.Solve.
func Solve(ctx context.Context, p *Problem, objective Objective, complete bool) (*Result, error) {
	s, err := NewSolver(p, WithObjective(objective), WithComplete(complete))
	if err != nil {
		return nil, err
	}
	return s.Solve(ctx)
}

// search holds the mutable bookkeeping of one Solve call. The incumbent
// lives here and nowhere else; only evaluate updates it.
type search struct {
	solver *Solver
	budget *SearchBudget
	start  time.Time
	stats  Stats

	best      *State
	bestTotal float64
	bestFair  float64

	truncated bool
	stopCause string
}

// frame is one level of the explicit depth-first stack: a state plus its
// not-yet-visited candidates, stored as positions in the exploration
// order.
type frame struct {
	state *State
	cands []int32
	next  int
}

// run drives the depth-first loop until the stack empties or a poll
// point requests a stop.
func (r *search) run(ctx context.Context) {
	if err := r.poll(ctx); err != nil {
		r.interrupt(ctx, err)
		return
	}

	rootFrame, keep := r.enter(ctx, r.solver.root, -1)
	if !keep {
		return
	}

	stack := []frame{rootFrame}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.next >= len(f.cands) {
			stack = stack[:len(stack)-1]
			continue
		}

		if err := r.poll(ctx); err != nil {
			r.interrupt(ctx, err)
			return
		}

		pos := f.cands[f.next]
		f.next++

		child := f.state.withPair(int(r.solver.order[pos]))
		cf, keep := r.enter(ctx, child, pos)
		if keep {
			stack = append(stack, cf)
		}
	}
}

// enter processes one node: count it, generate its candidate suffix,
// apply the bound, evaluate it against the incumbent. Returns the node's
// frame and whether the subtree survives.
func (r *search) enter(ctx context.Context, st *State, fromPos int32) (frame, bool) {
	r.stats.NodesExplored++
	r.budget.RecordNodeExplored()
	if d := st.Depth(); d > r.stats.MaxDepth {
		r.stats.MaxDepth = d
	}

	order := r.solver.order
	p := r.solver.problem
	var cands []int32
	relaxedSum := 0.0
	for pos := fromPos + 1; pos < int32(len(order)); pos++ {
		if st.feasiblePair(int(order[pos])) {
			cands = append(cands, pos)
			relaxedSum += p.profit[order[pos]]
		}
	}

	// Core pruning rule: abandon the subtree when no completion can
	// improve on the incumbent. Equal bounds are pruned; matching the
	// incumbent is not an improvement.
	if r.best != nil && !r.keepSubtree(st, fromPos, relaxedSum) {
		r.stats.NodesPruned++
		return frame{}, false
	}

	r.evaluate(ctx, st, len(cands) == 0)

	if len(cands) > 0 && r.budget.CheckDepth(st.Depth()) != nil {
		// Stop deepening but keep exploring the rest of the space.
		r.truncated = true
		cands = nil
	}

	return frame{state: st, cands: cands}, true
}

// keepSubtree reports whether the bound at this node leaves room to
// improve on the incumbent. Callers must ensure an incumbent exists.
func (r *search) keepSubtree(st *State, fromPos int32, relaxedSum float64) bool {
	eps := r.solver.problem.Epsilon()
	ub := r.solver.bounds.totalBound(st, fromPos, relaxedSum)
	if r.solver.objective == ObjectiveFair {
		fairUB := r.solver.bounds.fairBound(st, fromPos)
		if fairUB > r.bestFair+eps {
			return true
		}
		// The subtree can at best tie the maximin; keep it only if it
		// can still win the total-profit tie-break.
		return fairUB > r.bestFair-eps && ub > r.bestTotal+eps
	}
	return ub > r.bestTotal+eps
}

// evaluate treats the state as a candidate solution and updates the
// incumbent when it strictly improves. Every state on the path is a
// budget-feasible assignment, so outside complete mode each one is a
// candidate; in complete mode only states with fully consumed budgets
// qualify, and the search then continues into any zero-cost candidates
// still ahead of them.
func (r *search) evaluate(ctx context.Context, st *State, leaf bool) {
	if leaf {
		r.stats.TerminalStates++
	}
	if r.solver.complete && !st.exactlyComplete() {
		return
	}
	if !r.improves(st) {
		return
	}

	r.best = st
	r.bestTotal = st.TotalProfit()
	r.bestFair = st.MinTaskProfit()
	r.stats.IncumbentUpdates++

	inc := Incumbent{
		State:       st,
		TotalProfit: r.bestTotal,
		FairProfit:  r.bestFair,
		Nodes:       r.stats.NodesExplored,
		FoundAt:     time.Since(r.start),
	}
	if r.solver.journal != nil {
		r.solver.journal.Record(JournalEntry{
			Event:      JournalIncumbent,
			Profit:     r.bestTotal,
			FairProfit: r.bestFair,
			Nodes:      inc.Nodes,
			Depth:      st.Depth(),
			Pairs:      st.Pairs(),
		})
	}
	if r.solver.tracer != nil {
		r.solver.tracer.RecordIncumbent(ctx, inc)
	}
	if r.solver.onIncumbent != nil {
		r.solver.onIncumbent(inc)
	}
}

// improves reports whether the state strictly beats the incumbent under
// the configured objective.
func (r *search) improves(st *State) bool {
	if r.best == nil {
		return true
	}
	eps := r.solver.problem.Epsilon()
	if r.solver.objective == ObjectiveFair {
		fair := st.MinTaskProfit()
		if fair > r.bestFair+eps {
			return true
		}
		return fair > r.bestFair-eps && st.TotalProfit() > r.bestTotal+eps
	}
	return st.TotalProfit() > r.bestTotal+eps
}

// poll checks the cooperative stop conditions.
func (r *search) poll(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if r.budget.Exhausted() {
		if r.budget.ExhaustedBy() == "time" {
			return ErrTimeLimitExceeded
		}
		return ErrNodeLimitExceeded
	}
	return nil
}

// interrupt records why the search stopped early.
func (r *search) interrupt(ctx context.Context, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		r.stopCause = "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		r.stopCause = "deadline"
	case errors.Is(err, ErrTimeLimitExceeded):
		r.stopCause = "time"
	case errors.Is(err, ErrNodeLimitExceeded):
		r.stopCause = "nodes"
	default:
		r.stopCause = "stopped"
	}

	if r.solver.tracer != nil && (r.stopCause == "time" || r.stopCause == "nodes") {
		r.solver.tracer.RecordBudgetExhaustion(ctx, r.stopCause, r.budget)
	}
}
