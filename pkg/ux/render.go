// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// AgentTasks is one agent's task list in a rendered assignment.
type AgentTasks struct {
	Agent string
	Tasks []string
}

// SolveReport carries the result fields the CLI prints. The caller
// flattens its solver result into this; ux stays free of solver types.
type SolveReport struct {
	Problem       string
	Objective     string
	Outcome       string
	Fair          bool
	TotalProfit   float64
	MinTaskProfit float64
	Rows          []AgentTasks

	NodesExplored    int64
	NodesPruned      int64
	IncumbentUpdates int64
	Elapsed          time.Duration
	StopCause        string
}

// FormatProfit renders a profit value without trailing zeros.
//
// Integer-valued profits print as integers (9, not 9.000000), matching
// how budgets and profits read in problem documents.
func FormatProfit(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatAssignment renders an assignment on a single line:
//
//	9 - (alice: rigging), (bob: rigging, stowage)
//
// Agents and each agent's tasks are sorted so equal assignments always
// render identically. The input is not modified.
func FormatAssignment(profit float64, rows []AgentTasks) string {
	sorted := make([]AgentTasks, len(rows))
	for i, row := range rows {
		tasks := make([]string, len(row.Tasks))
		copy(tasks, row.Tasks)
		sort.Strings(tasks)
		sorted[i] = AgentTasks{Agent: row.Agent, Tasks: tasks}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Agent < sorted[j].Agent })

	parts := make([]string, 0, len(sorted))
	for _, row := range sorted {
		parts = append(parts, fmt.Sprintf("(%s: %s)", row.Agent, strings.Join(row.Tasks, ", ")))
	}
	return fmt.Sprintf("%s - %s", FormatProfit(profit), strings.Join(parts, ", "))
}

// Assignment prints one assignment line, used while streaming
// incumbent improvements during a verbose solve.
func Assignment(profit float64, rows []AgentTasks) {
	line := FormatAssignment(profit, rows)
	if CurrentLevel() == PersonalityMachine {
		fmt.Println(line)
		return
	}
	fmt.Printf("%s %s\n", styleMuted.Render(gutter), line)
}

// Report prints a full solve report per personality level.
//
// Machine mode emits one parseable RESULT line followed by one ASSIGN
// line per agent. Other modes render a styled block with per-agent
// task lines and a muted search-stats footer.
func Report(r SolveReport) {
	if CurrentLevel() == PersonalityMachine {
		fmt.Print(machineReport(r))
		return
	}

	headline := fmt.Sprintf("%s assignment, total profit %s", r.Outcome, FormatProfit(r.TotalProfit))
	if r.Fair {
		headline = fmt.Sprintf("%s assignment, fair profit %s (total %s)",
			r.Outcome, FormatProfit(r.MinTaskProfit), FormatProfit(r.TotalProfit))
	}
	Success(headline)

	rows := make([]AgentTasks, len(r.Rows))
	copy(rows, r.Rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Agent < rows[j].Agent })
	for _, row := range rows {
		tasks := make([]string, len(row.Tasks))
		copy(tasks, row.Tasks)
		sort.Strings(tasks)
		fmt.Printf("Agent: %s\tTasks: %s\n", row.Agent, strings.Join(tasks, ", "))
	}

	if r.StopCause != "" {
		Warning(fmt.Sprintf("search stopped early (%s); result is the best found, not proven optimal", r.StopCause))
	}
	Muted(fmt.Sprintf("nodes=%d pruned=%d incumbents=%d elapsed=%v",
		r.NodesExplored, r.NodesPruned, r.IncumbentUpdates, r.Elapsed.Round(time.Microsecond)))
}

// machineReport builds the machine-mode report text.
func machineReport(r SolveReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RESULT: problem=%s outcome=%s objective=%s profit=%s",
		r.Problem, r.Outcome, r.Objective, FormatProfit(r.TotalProfit))
	if r.Fair {
		fmt.Fprintf(&b, " fair_profit=%s", FormatProfit(r.MinTaskProfit))
	}
	fmt.Fprintf(&b, " nodes=%d pruned=%d incumbents=%d elapsed_ms=%d",
		r.NodesExplored, r.NodesPruned, r.IncumbentUpdates, r.Elapsed.Milliseconds())
	if r.StopCause != "" {
		fmt.Fprintf(&b, " stop=%s", r.StopCause)
	}
	b.WriteString("\n")

	rows := make([]AgentTasks, len(r.Rows))
	copy(rows, r.Rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Agent < rows[j].Agent })
	for _, row := range rows {
		tasks := make([]string, len(row.Tasks))
		copy(tasks, row.Tasks)
		sort.Strings(tasks)
		fmt.Fprintf(&b, "ASSIGN: %s\t%s\n", row.Agent, strings.Join(tasks, ", "))
	}
	return b.String()
}

// Issue prints one document validation issue, used by check.
func Issue(field, problem string) {
	switch CurrentLevel() {
	case PersonalityMachine:
		fmt.Printf("ISSUE: %s\t%s\n", field, problem)
	case PersonalityMinimal:
		fmt.Printf("%s %s: %s\n", styleError.Render(iconFail), field, problem)
	default:
		fmt.Printf("%s %s %s\n", styleError.Render(iconFail), styleBold.Render(field), problem)
	}
}
