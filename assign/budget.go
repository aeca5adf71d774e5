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
	"sync"
	"sync/atomic"
	"time"
)

// SearchBudgetConfig contains limits for one search run. A zero value
// means the corresponding dimension is unlimited.
type SearchBudgetConfig struct {
	MaxNodes  int64         `json:"max_nodes" yaml:"max_nodes"`   // Maximum nodes to explore
	MaxDepth  int           `json:"max_depth" yaml:"max_depth"`   // Maximum assignment depth
	TimeLimit time.Duration `json:"time_limit" yaml:"time_limit"` // Wall clock limit
}

// DefaultSearchBudgetConfig returns an unlimited budget. The solver runs
// to exhaustion and proves optimality unless the caller sets limits.
func DefaultSearchBudgetConfig() SearchBudgetConfig {
	return SearchBudgetConfig{}
}

// Validate checks the configuration for negative limits.
func (c SearchBudgetConfig) Validate() error {
	if c.MaxNodes < 0 {
		return fmt.Errorf("%w: max_nodes = %d", ErrInvalidConfig, c.MaxNodes)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max_depth = %d", ErrInvalidConfig, c.MaxDepth)
	}
	if c.TimeLimit < 0 {
		return fmt.Errorf("%w: time_limit = %v", ErrInvalidConfig, c.TimeLimit)
	}
	return nil
}

// SearchBudget tracks resource consumption during a search.
//
// Exhaustion is sticky: once a limit trips, Exhausted stays true until
// Reset. A budget can be shared across consecutive solves to cap their
// combined node count and wall time, for example in watch mode.
//
// Thread Safety: Safe for concurrent use.
type SearchBudget struct {
	config    SearchBudgetConfig
	startTime time.Time

	// Atomic counter
	nodesExplored int64

	mu          sync.RWMutex
	exhausted   bool
	exhaustedBy string // Which limit was hit
}

// NewSearchBudget creates a budget tracker. The wall clock starts now.
//
// Thread Safety: The returned budget may be shared across goroutines.
func NewSearchBudget(config SearchBudgetConfig) *SearchBudget {
	return &SearchBudget{
		config:    config,
		startTime: time.Now(),
	}
}

// Config returns the limits this budget was built with.
func (b *SearchBudget) Config() SearchBudgetConfig {
	return b.config
}

// NodesExplored returns the number of nodes explored so far.
func (b *SearchBudget) NodesExplored() int64 {
	return atomic.LoadInt64(&b.nodesExplored)
}

// RecordNodeExplored records one node expansion and returns the new count.
func (b *SearchBudget) RecordNodeExplored() int64 {
	return atomic.AddInt64(&b.nodesExplored, 1)
}

// Elapsed returns time elapsed since the budget was created or reset.
func (b *SearchBudget) Elapsed() time.Duration {
	return time.Since(b.startTime)
}

// Exhausted returns whether any limit has been hit.
func (b *SearchBudget) Exhausted() bool {
	b.mu.RLock()
	if b.exhausted {
		b.mu.RUnlock()
		return true
	}
	b.mu.RUnlock()

	return b.checkLimits() != nil
}

// ExhaustedBy returns which limit caused exhaustion (empty if none).
func (b *SearchBudget) ExhaustedBy() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exhaustedBy
}

// checkLimits errors once a limit is crossed and latches which one tripped.
func (b *SearchBudget) checkLimits() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.exhausted {
		return ErrSearchBudgetExhausted
	}

	if b.config.TimeLimit > 0 && time.Since(b.startTime) >= b.config.TimeLimit {
		b.exhausted = true
		b.exhaustedBy = "time"
		return ErrTimeLimitExceeded
	}

	if b.config.MaxNodes > 0 && atomic.LoadInt64(&b.nodesExplored) >= b.config.MaxNodes {
		b.exhausted = true
		b.exhaustedBy = "nodes"
		return ErrNodeLimitExceeded
	}

	return nil
}

// CheckDepth reports whether assignments may be added at the given depth.
//
// A depth limit does not exhaust the budget: the engine stops deepening
// past the limit but keeps exploring the rest of the space. Any truncation
// still downgrades the outcome, since the search is no longer exhaustive.
func (b *SearchBudget) CheckDepth(depth int) error {
	if b.config.MaxDepth > 0 && depth >= b.config.MaxDepth {
		return ErrDepthLimitExceeded
	}
	return nil
}

// Remaining returns the remaining budget. Dimensions without a limit
// report -1.
func (b *SearchBudget) Remaining() BudgetRemaining {
	rem := BudgetRemaining{Nodes: -1, Time: -1}
	if b.config.MaxNodes > 0 {
		rem.Nodes = b.config.MaxNodes - b.NodesExplored()
	}
	if b.config.TimeLimit > 0 {
		rem.Time = b.config.TimeLimit - b.Elapsed()
	}
	return rem
}

// BudgetRemaining is the headroom left on each limited dimension, -1
// when a dimension is unlimited.
type BudgetRemaining struct {
	Nodes int64         `json:"nodes"`
	Time  time.Duration `json:"time"`
}

// String renders usage against each limit, printing inf for unlimited ones.
func (b *SearchBudget) String() string {
	limit := func(v int64) string {
		if v <= 0 {
			return "inf"
		}
		return fmt.Sprintf("%d", v)
	}
	timeLimit := "inf"
	if b.config.TimeLimit > 0 {
		timeLimit = b.config.TimeLimit.String()
	}
	exhaustedStatus := ""
	if b.Exhausted() {
		exhaustedStatus = fmt.Sprintf(" [EXHAUSTED by %s]", b.ExhaustedBy())
	}

	return fmt.Sprintf("SearchBudget{nodes=%d/%s, depth<=%s, time=%v/%s}%s",
		b.NodesExplored(), limit(b.config.MaxNodes),
		limit(int64(b.config.MaxDepth)),
		b.Elapsed().Round(time.Millisecond), timeLimit,
		exhaustedStatus)
}

// UsageReport contains a point-in-time account of budget consumption.
type UsageReport struct {
	Elapsed       time.Duration   `json:"elapsed"`
	NodesExplored int64           `json:"nodes_explored"`
	Exhausted     bool            `json:"exhausted"`
	ExhaustedBy   string          `json:"exhausted_by,omitempty"`
	Remaining     BudgetRemaining `json:"remaining"`
}

// Report snapshots usage for logs and solve results.
func (b *SearchBudget) Report() UsageReport {
	return UsageReport{
		Elapsed:       b.Elapsed(),
		NodesExplored: b.NodesExplored(),
		Exhausted:     b.Exhausted(),
		ExhaustedBy:   b.ExhaustedBy(),
		Remaining:     b.Remaining(),
	}
}

// Reset clears the counters and restarts the wall clock, keeping the
// same configuration.
func (b *SearchBudget) Reset() {
	atomic.StoreInt64(&b.nodesExplored, 0)

	b.mu.Lock()
	b.exhausted = false
	b.exhaustedBy = ""
	b.startTime = time.Now()
	b.mu.Unlock()
}
