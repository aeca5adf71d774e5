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
	"time"

	"github.com/AleutianAI/stevedore/pkg/ux"
	"github.com/spf13/cobra"
)

// --- Command Tree and Shared Flags ---
var (
	configPath       string
	logLevel         string
	personalityLevel string // UX personality level (full/standard/minimal/machine)

	// solve flags
	solveObjective string
	solveComplete  bool
	solveOrder     string
	solveBound     string
	solveTimeLimit time.Duration
	solveMaxNodes  int64
	solveMaxDepth  int
	solveVerbose   bool
	solveWatch     bool
	solveOutput    string

	// serve flags
	serveAddr string

	rootCmd = &cobra.Command{
		Use:   "stevedore",
		Short: "A branch-and-bound solver for shared-task assignment problems",
		Long: `Stevedore loads cargo: it assigns agents to tasks under cumulative
				budgets, where several agents may work the same task, and searches
				depth-first with branch and bound for the most profitable plan.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}
		},
	}

	// --- Solve ---
	solveCmd = &cobra.Command{
		Use:   "solve [problem file]",
		Short: "Solve an assignment problem document",
		Args:  cobra.ExactArgs(1),
		Run:   runSolve, // Defined in cmd_solve.go
	}

	// --- Check ---
	checkCmd = &cobra.Command{
		Use:   "check [problem file...]",
		Short: "Validate problem documents without solving them",
		Args:  cobra.MinimumNArgs(1),
		Run:   runCheck, // Defined in cmd_check.go
	}

	// --- Serve ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP solve service",
		Run:   runServe, // Defined in cmd_serve.go
	}

	// --- Version ---
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the stevedore version",
		Run:   runVersion, // Defined in cmd_serve.go
	}
)

// init wires flags and subcommands onto rootCmd before main executes.
func init() {
	rootCmd.Version = version

	// Global flags
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default, rich nautical), standard, minimal, or machine (scripting)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the config file (default ~/.stevedore/stevedore.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, or error (default from config, info)")

	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringVar(&solveObjective, "objective", "",
		"Objective: standard (total profit) or fair (least profitable task)")
	solveCmd.Flags().BoolVar(&solveComplete, "complete", false,
		"Require every agent and task budget to be consumed exactly")
	solveCmd.Flags().StringVar(&solveOrder, "order", "", "Candidate order: density, profit, or lex")
	solveCmd.Flags().StringVar(&solveBound, "bound", "", "Pruning bound: clipped, relaxed, or none")
	solveCmd.Flags().DurationVar(&solveTimeLimit, "time-limit", 0,
		"Stop the search after this long, e.g. 30s (0 = no limit)")
	solveCmd.Flags().Int64Var(&solveMaxNodes, "max-nodes", 0,
		"Stop the search after exploring this many nodes (0 = no limit)")
	solveCmd.Flags().IntVar(&solveMaxDepth, "max-depth", 0,
		"Do not branch below this many assignments (0 = no limit)")
	solveCmd.Flags().BoolVarP(&solveVerbose, "verbose", "v", false,
		"Print each incumbent improvement as the search finds it")
	solveCmd.Flags().BoolVar(&solveWatch, "watch", false,
		"Watch the problem file and re-solve when it changes")
	solveCmd.Flags().StringVarP(&solveOutput, "output", "o", "table", "Output format: table, json, or yaml")

	rootCmd.AddCommand(checkCmd)

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides the config file, default :9190)")

	rootCmd.AddCommand(versionCmd)
}
