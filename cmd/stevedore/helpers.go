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
	"fmt"
	"os"

	"github.com/AleutianAI/stevedore/assign"
	"github.com/AleutianAI/stevedore/cmd/stevedore/config"
	"github.com/AleutianAI/stevedore/manifest"
	"github.com/AleutianAI/stevedore/pkg/logging"
	"github.com/AleutianAI/stevedore/pkg/ux"
	"github.com/spf13/cobra"
)

// loadConfigOrExit loads the config file before a command reads
// config.Global. The version and check commands never call this, so
// they work without a config file.
func loadConfigOrExit() {
	if err := config.Load(configPath); err != nil {
		ux.Error(fmt.Sprintf("Failed to load config: %v", err))
		os.Exit(CLIExitError)
	}
}

// newRunLogger builds the logger for one command invocation. The
// --log-level flag overrides the config file level.
func newRunLogger() *logging.Logger {
	loadConfigOrExit()
	level := config.Global.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	return logging.New(logging.Config{
		Level:   logging.ParseLevel(level),
		LogDir:  config.Global.Logging.Dir,
		Service: "stevedore",
	})
}

// mergeSolveSpec folds solver settings into the document's solve block.
// Precedence: explicit flags, then the document, then the config file.
func mergeSolveSpec(cmd *cobra.Command, doc *manifest.Document) {
	defaults := config.Global.Solve

	switch {
	case cmd.Flags().Changed("objective"):
		doc.Solve.Objective = solveObjective
	case doc.Solve.Objective == "":
		doc.Solve.Objective = defaults.Objective
	}
	switch {
	case cmd.Flags().Changed("order"):
		doc.Solve.Order = solveOrder
	case doc.Solve.Order == "":
		doc.Solve.Order = defaults.Order
	}
	switch {
	case cmd.Flags().Changed("bound"):
		doc.Solve.Bound = solveBound
	case doc.Solve.Bound == "":
		doc.Solve.Bound = defaults.Bound
	}
	if cmd.Flags().Changed("complete") {
		doc.Solve.Complete = solveComplete
	} else if !doc.Solve.Complete {
		doc.Solve.Complete = defaults.Complete
	}
}

// searchBudget resolves the node, depth, and time limits for one solve.
// Explicit flags override the config file; zero means no limit.
func searchBudget(cmd *cobra.Command) assign.SearchBudgetConfig {
	defaults := config.Global.Solve
	budget := assign.SearchBudgetConfig{
		MaxNodes:  defaults.MaxNodes,
		MaxDepth:  defaults.MaxDepth,
		TimeLimit: defaults.TimeLimit.Std(),
	}
	if cmd.Flags().Changed("max-nodes") {
		budget.MaxNodes = solveMaxNodes
	}
	if cmd.Flags().Changed("max-depth") {
		budget.MaxDepth = solveMaxDepth
	}
	if cmd.Flags().Changed("time-limit") {
		budget.TimeLimit = solveTimeLimit
	}
	return budget
}
