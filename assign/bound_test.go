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

// threeByThree returns a 3-agent, 3-task instance with uneven costs used
// for bound property checks.
func threeByThree(t *testing.T) *Problem {
	t.Helper()
	p, err := NewProblem(
		[]Agent{{ID: "A", Budget: 7}, {ID: "B", Budget: 5}, {ID: "C", Budget: 9}},
		[]Task{{ID: "X", Budget: 6}, {ID: "Y", Budget: 8}, {ID: "Z", Budget: 4}},
		pairCosts(map[Pair]Costs{
			{Agent: "A", Task: "X"}: {AgentCost: 3, TaskCost: 2, Profit: 6},
			{Agent: "A", Task: "Y"}: {AgentCost: 4, TaskCost: 3, Profit: 5},
			{Agent: "A", Task: "Z"}: {AgentCost: 2, TaskCost: 2, Profit: 3},
			{Agent: "B", Task: "X"}: {AgentCost: 2, TaskCost: 3, Profit: 4},
			{Agent: "B", Task: "Y"}: {AgentCost: 3, TaskCost: 4, Profit: 7},
			{Agent: "B", Task: "Z"}: {AgentCost: 1, TaskCost: 1, Profit: 2},
			{Agent: "C", Task: "X"}: {AgentCost: 4, TaskCost: 1, Profit: 5},
			{Agent: "C", Task: "Y"}: {AgentCost: 5, TaskCost: 4, Profit: 8},
			{Agent: "C", Task: "Z"}: {AgentCost: 3, TaskCost: 2, Profit: 4},
		}),
	)
	if err != nil {
		t.Fatalf("NewProblem failed: %v", err)
	}
	return p
}

// suffixRelaxedSum sums the profits of feasible candidates after fromPos,
// the same quantity the engine hands to totalBound.
func suffixRelaxedSum(s *State, order []int32, fromPos int32) float64 {
	sum := 0.0
	for pos := fromPos + 1; pos < int32(len(order)); pos++ {
		if s.feasiblePair(int(order[pos])) {
			sum += s.problem.profit[order[pos]]
		}
	}
	return sum
}

// bestSuffixCompletion exhaustively finds the best total profit over all
// feasible extensions of s restricted to candidates after fromPos.
func bestSuffixCompletion(s *State, order []int32, fromPos int32) float64 {
	best := s.TotalProfit()
	for pos := fromPos + 1; pos < int32(len(order)); pos++ {
		if s.feasiblePair(int(order[pos])) {
			if v := bestSuffixCompletion(s.withPair(int(order[pos])), order, pos); v > best {
				best = v
			}
		}
	}
	return best
}

// bestSuffixFair exhaustively finds the best minimum per-task profit over
// all feasible extensions of s restricted to candidates after fromPos.
func bestSuffixFair(s *State, order []int32, fromPos int32) float64 {
	best := s.MinTaskProfit()
	for pos := fromPos + 1; pos < int32(len(order)); pos++ {
		if s.feasiblePair(int(order[pos])) {
			if v := bestSuffixFair(s.withPair(int(order[pos])), order, pos); v > best {
				best = v
			}
		}
	}
	return best
}

// walkStates visits every (state, position) node of the canonical
// enumeration tree.
func walkStates(s *State, order []int32, fromPos int32, visit func(*State, int32)) {
	visit(s, fromPos)
	for pos := fromPos + 1; pos < int32(len(order)); pos++ {
		if s.feasiblePair(int(order[pos])) {
			walkStates(s.withPair(int(order[pos])), order, pos, visit)
		}
	}
}

func TestParseBoundKind(t *testing.T) {
	tests := []struct {
		in      string
		want    BoundKind
		wantErr bool
	}{
		{"", BoundClipped, false},
		{"clipped", BoundClipped, false},
		{"relaxed", BoundRelaxed, false},
		{"none", BoundNone, false},
		{"magic", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseBoundKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBoundKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil {
			if !errors.Is(err, ErrUnknownBound) {
				t.Errorf("ParseBoundKind(%q) error = %v, want ErrUnknownBound", tt.in, err)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBoundKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBoundNone(t *testing.T) {
	p := twoByTwo(t)
	order := buildOrder(p, OrderByDensity)
	b := newBounder(p, BoundNone, order)
	root := p.InitialState()

	if got := b.totalBound(root, -1, 0); !math.IsInf(got, 1) {
		t.Errorf("totalBound = %v, want +Inf", got)
	}
	if got := b.fairBound(root, -1); !math.IsInf(got, 1) {
		t.Errorf("fairBound = %v, want +Inf", got)
	}
}

func TestBoundRelaxed_Admissible(t *testing.T) {
	p := threeByThree(t)
	order := buildOrder(p, OrderByDensity)
	b := newBounder(p, BoundRelaxed, order)

	walkStates(p.InitialState(), order, -1, func(s *State, pos int32) {
		relaxed := suffixRelaxedSum(s, order, pos)
		bound := b.totalBound(s, pos, relaxed)
		best := bestSuffixCompletion(s, order, pos)
		if bound+1e-9 < best {
			t.Fatalf("relaxed bound %v below best completion %v at depth %d", bound, best, s.Depth())
		}
	})
}

func TestBoundClipped_Admissible(t *testing.T) {
	p := threeByThree(t)
	order := buildOrder(p, OrderByDensity)
	b := newBounder(p, BoundClipped, order)

	walkStates(p.InitialState(), order, -1, func(s *State, pos int32) {
		relaxed := suffixRelaxedSum(s, order, pos)
		bound := b.totalBound(s, pos, relaxed)
		best := bestSuffixCompletion(s, order, pos)
		if bound+1e-9 < best {
			t.Fatalf("clipped bound %v below best completion %v at depth %d", bound, best, s.Depth())
		}
	})
}

func TestBoundClipped_NoLooserThanRelaxed(t *testing.T) {
	p := threeByThree(t)
	order := buildOrder(p, OrderByDensity)
	clipped := newBounder(p, BoundClipped, order)
	relaxed := newBounder(p, BoundRelaxed, order)

	walkStates(p.InitialState(), order, -1, func(s *State, pos int32) {
		sum := suffixRelaxedSum(s, order, pos)
		c := clipped.totalBound(s, pos, sum)
		r := relaxed.totalBound(s, pos, sum)
		if c > r+1e-9 {
			t.Fatalf("clipped bound %v exceeds relaxed bound %v at depth %d", c, r, s.Depth())
		}
	})
}

func TestFairBound_Admissible(t *testing.T) {
	p := threeByThree(t)
	order := buildOrder(p, OrderByDensity)

	for _, kind := range []BoundKind{BoundRelaxed, BoundClipped} {
		b := newBounder(p, kind, order)
		walkStates(p.InitialState(), order, -1, func(s *State, pos int32) {
			bound := b.fairBound(s, pos)
			best := bestSuffixFair(s, order, pos)
			if bound+1e-9 < best {
				t.Fatalf("%v fair bound %v below best fair completion %v at depth %d",
					kind, bound, best, s.Depth())
			}
		})
	}
}

func TestBound_RootCoversOptimum(t *testing.T) {
	p := twoByTwo(t)
	order := buildOrder(p, OrderByDensity)
	b := newBounder(p, BoundClipped, order)
	root := p.InitialState()

	bound := b.totalBound(root, -1, suffixRelaxedSum(root, order, -1))
	if bound < 22 {
		t.Errorf("root bound = %v, want >= 22 (the known optimum)", bound)
	}
}
