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

import "errors"

// Sentinel errors for the assign package.
var (
	// Problem construction errors
	ErrNilProblem               = errors.New("problem is nil")
	ErrNoAgents                 = errors.New("problem has no agents")
	ErrNoTasks                  = errors.New("problem has no tasks")
	ErrDuplicateID              = errors.New("duplicate identifier")
	ErrEmptyID                  = errors.New("empty identifier")
	ErrNegativeValue            = errors.New("negative budget, cost, or profit")
	ErrNonFiniteValue           = errors.New("budget, cost, or profit is NaN or infinite")
	ErrUnknownAgent             = errors.New("unknown agent")
	ErrUnknownTask              = errors.New("unknown task")
	ErrInfeasibleHardAssignment = errors.New("hard assignment violates a budget")
	ErrDuplicateHardAssignment  = errors.New("duplicate hard assignment")

	// State errors
	ErrBudgetExceeded      = errors.New("assignment would exceed a remaining budget")
	ErrDuplicateAssignment = errors.New("pair is already assigned")

	// Solve errors
	ErrNilContext         = errors.New("context is nil")
	ErrNoFeasibleSolution = errors.New("no feasible complete assignment exists")
	ErrNoIncumbent        = errors.New("interrupted before any feasible assignment was found")

	// Search budget errors
	ErrSearchBudgetExhausted = errors.New("search budget exhausted")
	ErrNodeLimitExceeded     = errors.New("search node limit exceeded")
	ErrDepthLimitExceeded    = errors.New("search depth limit exceeded")
	ErrTimeLimitExceeded     = errors.New("search time limit exceeded")

	// Configuration errors
	ErrInvalidConfig    = errors.New("invalid solver configuration")
	ErrUnknownObjective = errors.New("unknown objective")
	ErrUnknownOrder     = errors.New("unknown order policy")
	ErrUnknownBound     = errors.New("unknown bound kind")
)
