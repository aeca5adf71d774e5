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

// BoundKind selects the admissible upper-bound estimator used for pruning.
//
// Every kind never underestimates the best completion reachable from a
// partial state, so pruning on it cannot discard a true optimum. Tighter
// bounds prune more subtrees at a higher per-node cost.
type BoundKind int

const (
	// BoundClipped caps the undecided profit by the tighter of two
	// one-sided relaxations: a per-agent and a per-task fractional fill of
	// the remaining budgets in density order. Default.
	BoundClipped BoundKind = iota

	// BoundRelaxed sums the profit of every feasible undecided candidate,
	// ignoring budget interaction entirely.
	BoundRelaxed

	// BoundNone disables pruning. Exhaustive enumeration for tests and
	// diagnostics.
	BoundNone
)

// String returns the string representation.
func (b BoundKind) String() string {
	switch b {
	case BoundClipped:
		return "clipped"
	case BoundRelaxed:
		return "relaxed"
	case BoundNone:
		return "none"
	default:
		return fmt.Sprintf("bound(%d)", int(b))
	}
}

// ParseBoundKind converts a string to a BoundKind.
func ParseBoundKind(s string) (BoundKind, error) {
	switch s {
	case "clipped", "":
		return BoundClipped, nil
	case "relaxed":
		return BoundRelaxed, nil
	case "none":
		return BoundNone, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBound, s)
	}
}

// bounder evaluates upper bounds for one solve.
//
// It precomputes, per agent and per task, that entity's pairs in density
// order (profit per unit of the entity-side cost, zero-cost pairs first)
// so the per-node fractional fills are simple filtered walks. rank maps a
// dense pair index to its position in the exploration order; hard pairs
// keep rank -1 and are never counted as undecided.
type bounder struct {
	p    *Problem
	kind BoundKind

	rank    []int32
	byAgent [][]int32
	byTask  [][]int32
}

func newBounder(p *Problem, kind BoundKind, order []int32) *bounder {
	b := &bounder{
		p:       p,
		kind:    kind,
		rank:    make([]int32, p.numPairs()),
		byAgent: make([][]int32, len(p.agents)),
		byTask:  make([][]int32, len(p.tasks)),
	}
	for i := range b.rank {
		b.rank[i] = -1
	}
	for pos, i := range order {
		b.rank[i] = int32(pos)
	}

	for _, i := range order {
		a, t := p.pairAgent(int(i)), p.pairTask(int(i))
		b.byAgent[a] = append(b.byAgent[a], i)
		b.byTask[t] = append(b.byTask[t], i)
	}
	for a := range b.byAgent {
		sortByDensity(b.byAgent[a], p.profit, p.agentCost)
	}
	for t := range b.byTask {
		sortByDensity(b.byTask[t], p.profit, p.taskCost)
	}
	return b
}

// sortByDensity orders pair indices by profit/cost descending with the
// pair index as tie-break. Zero-cost pairs rank first.
func sortByDensity(pairs []int32, profit, cost []float64) {
	density := func(i int32) float64 {
		if cost[i] == 0 {
			return math.Inf(1)
		}
		return profit[i] / cost[i]
	}
	sort.Slice(pairs, func(x, y int) bool {
		dx, dy := density(pairs[x]), density(pairs[y])
		if dx != dy {
			return dx > dy
		}
		return pairs[x] < pairs[y]
	})
}

// totalBound returns an admissible upper bound on the total profit of any
// completion of s whose added pairs sit after fromPos in the exploration
// order. relaxedSum must be the profit sum of exactly those candidates;
// the engine accumulates it while generating them.
func (b *bounder) totalBound(s *State, fromPos int32, relaxedSum float64) float64 {
	switch b.kind {
	case BoundNone:
		return math.Inf(1)
	case BoundRelaxed:
		return s.profit + relaxedSum
	default:
		add := relaxedSum
		if agentSide := b.fill(s, fromPos, b.byAgent, b.p.agentCost, s.agentRem); agentSide < add {
			add = agentSide
		}
		if taskSide := b.fill(s, fromPos, b.byTask, b.p.taskCost, s.taskRem); taskSide < add {
			add = taskSide
		}
		return s.profit + add
	}
}

// fairBound returns an admissible upper bound on the maximin per-task
// profit of any completion of s restricted to candidates after fromPos.
// Optimistic per task: the task keeps its accrued profit plus everything
// that could still be routed to it.
func (b *bounder) fairBound(s *State, fromPos int32) float64 {
	if b.kind == BoundNone {
		return math.Inf(1)
	}
	bound := math.Inf(1)
	for t := range b.byTask {
		add := 0.0
		if b.kind == BoundRelaxed {
			for _, i := range b.byTask[t] {
				if b.rank[i] > fromPos && s.feasiblePair(int(i)) {
					add += b.p.profit[i]
				}
			}
		} else {
			add = b.fillOne(s, fromPos, b.byTask[t], b.p.taskCost, s.taskRem[t])
		}
		if v := s.taskProfit[t] + add; v < bound {
			bound = v
		}
	}
	return bound
}

// fill sums the per-entity fractional fills for one side of the problem.
func (b *bounder) fill(s *State, fromPos int32, lists [][]int32, cost, rem []float64) float64 {
	total := 0.0
	for e := range lists {
		total += b.fillOne(s, fromPos, lists[e], cost, rem[e])
	}
	return total
}

// fillOne performs a fractional-knapsack fill of one entity's candidates
// against its remaining budget. The list is in density order, so once the
// budget breaks only zero contributions remain and the walk stops.
func (b *bounder) fillOne(s *State, fromPos int32, list []int32, cost []float64, rem float64) float64 {
	add := 0.0
	for _, i := range list {
		if b.rank[i] <= fromPos || !s.feasiblePair(int(i)) {
			continue
		}
		c := cost[i]
		switch {
		case c == 0:
			add += b.p.profit[i]
		case c <= rem:
			add += b.p.profit[i]
			rem -= c
		default:
			if rem > 0 {
				add += b.p.profit[i] * (rem / c)
			}
			return add
		}
	}
	return add
}
