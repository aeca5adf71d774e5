// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package assign solves a shared-task variant of the generalized assignment
// problem with depth-first branch and bound.
//
// Agents carry a spending budget, tasks carry an absorption budget, and each
// (agent, task) pair has an agent-side cost, a task-side cost, and a profit.
// Unlike classic GAP, several agents may work the same task as long as the
// task's cumulative budget holds. The solver maximizes total profit, or the
// minimum per-task profit when the fair objective is selected, and can
// additionally require every budget to be consumed exactly (complete mode).
//
// # Search
//
// The engine explores assignment sets depth-first over an explicit frame
// stack, expanding the most promising candidate pair first and pruning any
// subtree whose admissible upper bound cannot beat the incumbent. Candidate
// pairs are restricted to positions after the parent's pair in a static
// promise order, so every assignment set is visited exactly once without a
// transposition table. A run that exhausts the space yields an Optimal
// outcome; cancelling the context or exhausting the SearchBudget yields
// BestEffort with the strongest incumbent found so far.
//
// # Usage
//
//	p, err := assign.NewProblem(agents, tasks, costs)
//	if err != nil {
//	    return err
//	}
//	res, err := assign.Solve(ctx, p, assign.ObjectiveFair, true)
//	if err != nil {
//	    return err
//	}
//	for _, pr := range res.Solution().Pairs {
//	    fmt.Println(pr.Agent, "->", pr.Task)
//	}
//
// NewSolver exposes the full option surface (candidate order, bound,
// search budget, journal, incumbent callbacks) for callers that need
// more than the one-shot Solve.
//
// # Thread Safety
//
// Problem and State values are immutable after construction and safe to
// share. A Solver is safe for concurrent Solve calls; each call carries
// its own search state, though a caller-supplied budget or journal is
// shared across them.
package assign
