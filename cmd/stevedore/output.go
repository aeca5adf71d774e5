// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AleutianAI/stevedore/assign"
	"github.com/AleutianAI/stevedore/manifest"
	"github.com/AleutianAI/stevedore/pkg/ux"
	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess  = 0 // Operation completed successfully
	CLIExitFindings = 1 // Operation completed with findings (invalid or infeasible problems)
	CLIExitError    = 2 // Operation failed
)

// solveResult is the machine-readable form of one solve, shared by the
// json and yaml output formats. Its field names match the HTTP solve
// response so scripted callers can switch transports freely.
type solveResult struct {
	Problem   string          `json:"problem" yaml:"problem"`
	RunID     string          `json:"run_id" yaml:"run_id"`
	Objective string          `json:"objective" yaml:"objective"`
	Outcome   string          `json:"outcome" yaml:"outcome"`
	Solution  assign.Solution `json:"solution" yaml:"solution"`

	NodesExplored    int64  `json:"nodes_explored" yaml:"nodes_explored"`
	NodesPruned      int64  `json:"nodes_pruned" yaml:"nodes_pruned"`
	IncumbentUpdates int64  `json:"incumbent_updates" yaml:"incumbent_updates"`
	ElapsedMs        int64  `json:"elapsed_ms" yaml:"elapsed_ms"`
	StopCause        string `json:"stop_cause,omitempty" yaml:"stop_cause,omitempty"`
}

func newSolveResult(doc *manifest.Document, res *assign.Result) solveResult {
	obj, _ := assign.ParseObjective(doc.Solve.Objective)
	return solveResult{
		Problem:          doc.Name,
		RunID:            res.RunID,
		Objective:        obj.String(),
		Outcome:          res.Outcome.String(),
		Solution:         res.Solution(),
		NodesExplored:    res.Stats.NodesExplored,
		NodesPruned:      res.Stats.NodesPruned,
		IncumbentUpdates: res.Stats.IncumbentUpdates,
		ElapsedMs:        res.Stats.Duration.Milliseconds(),
		StopCause:        res.Stats.StopCause,
	}
}

// solutionRows regroups solution pairs into one row per agent for
// table rendering. Row order follows first appearance; ux sorts.
func solutionRows(sol assign.Solution) []ux.AgentTasks {
	byAgent := make(map[string][]string)
	var agents []string
	for _, pair := range sol.Pairs {
		if _, ok := byAgent[pair.Agent]; !ok {
			agents = append(agents, pair.Agent)
		}
		byAgent[pair.Agent] = append(byAgent[pair.Agent], pair.Task)
	}

	rows := make([]ux.AgentTasks, 0, len(agents))
	for _, agent := range agents {
		rows = append(rows, ux.AgentTasks{Agent: agent, Tasks: byAgent[agent]})
	}
	return rows
}

func newSolveReport(doc *manifest.Document, res *assign.Result) ux.SolveReport {
	obj, _ := assign.ParseObjective(doc.Solve.Objective)
	sol := res.Solution()
	return ux.SolveReport{
		Problem:          doc.Name,
		Objective:        obj.String(),
		Outcome:          res.Outcome.String(),
		Fair:             obj == assign.ObjectiveFair,
		TotalProfit:      sol.TotalProfit,
		MinTaskProfit:    sol.MinTaskProfit,
		Rows:             solutionRows(sol),
		NodesExplored:    res.Stats.NodesExplored,
		NodesPruned:      res.Stats.NodesPruned,
		IncumbentUpdates: res.Stats.IncumbentUpdates,
		Elapsed:          res.Stats.Duration,
		StopCause:        res.Stats.StopCause,
	}
}

// outputSolve renders one solve result in the requested format.
func outputSolve(format string, doc *manifest.Document, res *assign.Result) error {
	switch format {
	case "", "table":
		ux.Report(newSolveReport(doc, res))
		return nil
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(newSolveResult(doc, res))
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		defer encoder.Close()
		return encoder.Encode(newSolveResult(doc, res))
	default:
		return fmt.Errorf("unknown output format %q (want table, json, or yaml)", format)
	}
}
