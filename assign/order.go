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
	"sort"
)

// OrderPolicy selects how candidate pairs are ranked for exploration.
//
// The order is computed once per solve and is static: candidates of a
// state are the feasible pairs strictly after the state's own pair in
// this order. Restricting candidates to the order suffix guarantees each
// assignment set is generated exactly once, which is why the policy set
// is closed — a dynamic per-state reordering would re-introduce duplicate
// states and require a transposition table.
type OrderPolicy int

const (
	// OrderByDensity ranks pairs by profit per unit of combined cost,
	// highest first. Zero-cost pairs rank above everything. Default.
	OrderByDensity OrderPolicy = iota

	// OrderByProfit ranks pairs by raw profit, highest first.
	OrderByProfit

	// OrderLexicographic ranks pairs by agent ID then task ID. Slowest to
	// prune but fully predictable; intended for tests and debugging.
	OrderLexicographic
)

// String returns the string representation.
func (o OrderPolicy) String() string {
	switch o {
	case OrderByDensity:
		return "density"
	case OrderByProfit:
		return "profit"
	case OrderLexicographic:
		return "lex"
	default:
		return fmt.Sprintf("order(%d)", int(o))
	}
}

// ParseOrderPolicy converts a string to an OrderPolicy.
func ParseOrderPolicy(s string) (OrderPolicy, error) {
	switch s {
	case "density", "":
		return OrderByDensity, nil
	case "profit":
		return OrderByProfit, nil
	case "lex", "lexicographic":
		return OrderLexicographic, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOrder, s)
	}
}

// pairScore is the promise of a pair under a score-based policy.
// Zero-cost pairs score +Inf so they sort ahead of everything.
func pairScore(p *Problem, i int, policy OrderPolicy) float64 {
	switch policy {
	case OrderByProfit:
		return p.profit[i]
	default:
		denom := p.agentCost[i] + p.taskCost[i]
		if denom == 0 {
			return math.Inf(1)
		}
		return p.profit[i] / denom
	}
}

// buildOrder computes the static exploration order over dense pair
// indices, hard assignments excluded. Ties break on the pair index so the
// order is deterministic for a given problem.
func buildOrder(p *Problem, policy OrderPolicy) []int32 {
	order := make([]int32, 0, p.numPairs())
	for i := 0; i < p.numPairs(); i++ {
		if p.isHard(i) {
			continue
		}
		order = append(order, int32(i))
	}

	if policy == OrderLexicographic {
		sort.Slice(order, func(x, y int) bool {
			ax, tx := p.pairAgent(int(order[x])), p.pairTask(int(order[x]))
			ay, ty := p.pairAgent(int(order[y])), p.pairTask(int(order[y]))
			if p.agents[ax].ID != p.agents[ay].ID {
				return p.agents[ax].ID < p.agents[ay].ID
			}
			if p.tasks[tx].ID != p.tasks[ty].ID {
				return p.tasks[tx].ID < p.tasks[ty].ID
			}
			return order[x] < order[y]
		})
		return order
	}

	scores := make([]float64, p.numPairs())
	for _, i := range order {
		scores[i] = pairScore(p, int(i), policy)
	}
	sort.Slice(order, func(x, y int) bool {
		if scores[order[x]] != scores[order[y]] {
			return scores[order[x]] > scores[order[y]]
		}
		return order[x] < order[y]
	})
	return order
}
