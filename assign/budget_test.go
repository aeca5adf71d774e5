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
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSearchBudgetConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  SearchBudgetConfig
		wantErr bool
	}{
		{"unlimited", SearchBudgetConfig{}, false},
		{"every limit set", SearchBudgetConfig{MaxNodes: 512, MaxDepth: 6, TimeLimit: 2 * time.Second}, false},
		{"negative nodes", SearchBudgetConfig{MaxNodes: -3}, true},
		{"negative depth", SearchBudgetConfig{MaxDepth: -1}, true},
		{"negative time", SearchBudgetConfig{TimeLimit: -time.Minute}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestSearchBudget_FreshState(t *testing.T) {
	budget := NewSearchBudget(DefaultSearchBudgetConfig())

	if got := budget.NodesExplored(); got != 0 {
		t.Errorf("fresh budget NodesExplored() = %d, want 0", got)
	}
	if budget.Exhausted() {
		t.Error("fresh budget reports Exhausted()")
	}
	if got := budget.ExhaustedBy(); got != "" {
		t.Errorf("fresh budget ExhaustedBy() = %q, want empty", got)
	}
}

func TestSearchBudget_RecordNodeExplored(t *testing.T) {
	t.Run("returns the running count", func(t *testing.T) {
		budget := NewSearchBudget(DefaultSearchBudgetConfig())
		for want := int64(1); want <= 3; want++ {
			if got := budget.RecordNodeExplored(); got != want {
				t.Errorf("RecordNodeExplored() = %d, want %d", got, want)
			}
		}
	})

	t.Run("counts are exact under contention", func(t *testing.T) {
		budget := NewSearchBudget(SearchBudgetConfig{MaxNodes: 1 << 20})

		const workers = 64
		const perWorker = 250

		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					budget.RecordNodeExplored()
				}
			}()
		}
		wg.Wait()

		if got, want := budget.NodesExplored(), int64(workers*perWorker); got != want {
			t.Errorf("NodesExplored() = %d after %d workers, want %d", got, workers, want)
		}
	})
}

func TestSearchBudget_Exhaustion(t *testing.T) {
	t.Run("node ceiling", func(t *testing.T) {
		budget := NewSearchBudget(SearchBudgetConfig{MaxNodes: 7, TimeLimit: time.Hour})
		for i := 0; i < 7; i++ {
			budget.RecordNodeExplored()
		}

		if !budget.Exhausted() {
			t.Fatal("seventh node should trip a MaxNodes of 7")
		}
		if got := budget.ExhaustedBy(); got != "nodes" {
			t.Errorf("ExhaustedBy() = %q, want %q", got, "nodes")
		}
	})

	t.Run("wall clock ceiling", func(t *testing.T) {
		budget := NewSearchBudget(SearchBudgetConfig{TimeLimit: 10 * time.Millisecond, MaxNodes: 1 << 20})
		time.Sleep(25 * time.Millisecond)

		if !budget.Exhausted() {
			t.Fatal("budget should trip once the time limit passes")
		}
		if got := budget.ExhaustedBy(); got != "time" {
			t.Errorf("ExhaustedBy() = %q, want %q", got, "time")
		}
	})

	t.Run("cause sticks across re-checks", func(t *testing.T) {
		budget := NewSearchBudget(SearchBudgetConfig{MaxNodes: 1})
		budget.RecordNodeExplored()

		for i := 0; i < 3; i++ {
			if !budget.Exhausted() {
				t.Fatal("exhaustion must not clear on its own")
			}
			if got := budget.ExhaustedBy(); got != "nodes" {
				t.Errorf("ExhaustedBy() = %q on re-check, want %q", got, "nodes")
			}
		}
	})

	t.Run("zero limits never trip", func(t *testing.T) {
		budget := NewSearchBudget(SearchBudgetConfig{})
		for i := 0; i < 500; i++ {
			budget.RecordNodeExplored()
		}
		if budget.Exhausted() {
			t.Error("an unlimited budget reported Exhausted()")
		}
	})
}

func TestSearchBudget_CheckDepth(t *testing.T) {
	budget := NewSearchBudget(SearchBudgetConfig{MaxDepth: 4})

	for depth := 0; depth < 4; depth++ {
		if err := budget.CheckDepth(depth); err != nil {
			t.Errorf("CheckDepth(%d) = %v, want nil under MaxDepth 4", depth, err)
		}
	}

	err := budget.CheckDepth(4)
	if !errors.Is(err, ErrDepthLimitExceeded) {
		t.Errorf("CheckDepth(4) = %v, want ErrDepthLimitExceeded", err)
	}

	// Truncating depth caps the tree, it does not end the search.
	if budget.Exhausted() {
		t.Error("a depth refusal must not exhaust the budget")
	}
}

func TestSearchBudget_CheckDepthUnlimited(t *testing.T) {
	budget := NewSearchBudget(DefaultSearchBudgetConfig())

	if err := budget.CheckDepth(1 << 20); err != nil {
		t.Errorf("CheckDepth() with MaxDepth 0 = %v, want nil", err)
	}
}

func TestSearchBudget_Remaining(t *testing.T) {
	t.Run("counts down against limits", func(t *testing.T) {
		budget := NewSearchBudget(SearchBudgetConfig{MaxNodes: 24, TimeLimit: time.Hour})
		for i := 0; i < 3; i++ {
			budget.RecordNodeExplored()
		}

		rem := budget.Remaining()
		if rem.Nodes != 21 {
			t.Errorf("Remaining().Nodes = %d, want 21", rem.Nodes)
		}
		if rem.Time <= 0 || rem.Time > time.Hour {
			t.Errorf("Remaining().Time = %v, want within (0, 1h]", rem.Time)
		}
	})

	t.Run("unlimited dimensions report -1", func(t *testing.T) {
		budget := NewSearchBudget(DefaultSearchBudgetConfig())
		budget.RecordNodeExplored()

		rem := budget.Remaining()
		if rem.Nodes != -1 {
			t.Errorf("Remaining().Nodes = %d, want -1", rem.Nodes)
		}
		if rem.Time != -1 {
			t.Errorf("Remaining().Time = %v, want -1", rem.Time)
		}
	})
}

func TestSearchBudget_String(t *testing.T) {
	t.Run("shows usage against limits", func(t *testing.T) {
		budget := NewSearchBudget(SearchBudgetConfig{MaxNodes: 100, TimeLimit: time.Minute})

		str := budget.String()
		for _, want := range []string{"SearchBudget{", "nodes=0/100"} {
			if !strings.Contains(str, want) {
				t.Errorf("String() = %q, want it to contain %q", str, want)
			}
		}
	})

	t.Run("unlimited shows inf", func(t *testing.T) {
		str := NewSearchBudget(DefaultSearchBudgetConfig()).String()
		if !strings.Contains(str, "nodes=0/inf") {
			t.Errorf("String() = %q, want it to contain %q", str, "nodes=0/inf")
		}
	})

	t.Run("names the tripped limit", func(t *testing.T) {
		budget := NewSearchBudget(SearchBudgetConfig{MaxNodes: 1, TimeLimit: time.Hour})
		budget.RecordNodeExplored()

		if str := budget.String(); !strings.Contains(str, "[EXHAUSTED by nodes]") {
			t.Errorf("String() = %q, want the exhaustion cause", str)
		}
	})
}

func TestSearchBudget_Report(t *testing.T) {
	budget := NewSearchBudget(SearchBudgetConfig{MaxNodes: 10})
	budget.RecordNodeExplored()

	report := budget.Report()
	if report.NodesExplored != 1 {
		t.Errorf("Report().NodesExplored = %d, want 1", report.NodesExplored)
	}
	if report.Exhausted {
		t.Error("Report().Exhausted = true with 1 of 10 nodes used")
	}
	if report.Remaining.Nodes != 9 {
		t.Errorf("Report().Remaining.Nodes = %d, want 9", report.Remaining.Nodes)
	}
	if report.Elapsed < 0 {
		t.Errorf("Report().Elapsed = %v, want non-negative", report.Elapsed)
	}
}

func TestSearchBudget_Reset(t *testing.T) {
	budget := NewSearchBudget(SearchBudgetConfig{MaxNodes: 10, TimeLimit: time.Hour})
	for i := 0; i < 10; i++ {
		budget.RecordNodeExplored()
	}
	if !budget.Exhausted() {
		t.Fatal("setup: budget should be exhausted before Reset")
	}

	budget.Reset()

	if budget.Exhausted() {
		t.Error("Exhausted() still true after Reset")
	}
	if got := budget.NodesExplored(); got != 0 {
		t.Errorf("NodesExplored() = %d after Reset, want 0", got)
	}
	if got := budget.ExhaustedBy(); got != "" {
		t.Errorf("ExhaustedBy() = %q after Reset, want empty", got)
	}

	// The same limits apply to the next run.
	if got := budget.Config().MaxNodes; got != 10 {
		t.Errorf("Config().MaxNodes = %d after Reset, want 10", got)
	}
}

func TestSearchBudget_Config(t *testing.T) {
	cfg := SearchBudgetConfig{MaxNodes: 37, MaxDepth: 2, TimeLimit: time.Second}
	got := NewSearchBudget(cfg).Config()
	if got != cfg {
		t.Errorf("Config() = %+v, want %+v", got, cfg)
	}
}
