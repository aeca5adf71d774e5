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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/AleutianAI/stevedore/assign"
	"github.com/AleutianAI/stevedore/manifest"
	"github.com/AleutianAI/stevedore/pkg/logging"
	"github.com/AleutianAI/stevedore/pkg/ux"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce coalesces the burst of filesystem events an editor
// fires on save into one re-solve.
const watchDebounce = 250 * time.Millisecond

// runSolve is the CLI handler for the "stevedore solve" command.
//
// It loads the problem document, merges solver settings from flags,
// the document, and the config file (in that order of precedence),
// and runs the branch-and-bound search. With --watch it re-solves
// whenever the document changes on disk. Ctrl-C during a long search
// stops it and reports the best solution found so far.
//
// # Exit Codes
//
//   - 0: A solution was found
//   - 1: The problem has no feasible solution
//   - 2: Error (unreadable document, invalid settings, interrupted search)
func runSolve(cmd *cobra.Command, args []string) {
	path := args[0]
	logger := newRunLogger()
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if solveWatch {
		if err := watchAndSolve(ctx, cmd, path, logger); err != nil {
			ux.Error(fmt.Sprintf("Watch failed: %v", err))
			os.Exit(CLIExitError)
		}
		return
	}
	os.Exit(solveFile(ctx, cmd, path, logger))
}

// solveFile loads, solves, and renders one problem document, returning
// the exit code.
func solveFile(ctx context.Context, cmd *cobra.Command, path string, logger *logging.Logger) int {
	doc, err := manifest.Load(path)
	if err != nil {
		ux.Error(fmt.Sprintf("Failed to load %s: %v", path, err))
		return CLIExitError
	}
	mergeSolveSpec(cmd, doc)

	problem, err := doc.Problem()
	if err != nil {
		if errors.Is(err, assign.ErrInfeasibleHardAssignment) {
			ux.Error(fmt.Sprintf("%s: hard assignments violate a budget: %v", doc.Name, err))
			return CLIExitFindings
		}
		ux.Error(fmt.Sprintf("Invalid document %s: %v", path, err))
		return CLIExitError
	}

	opts, err := doc.SolverOptions()
	if err != nil {
		ux.Error(fmt.Sprintf("Invalid solve settings: %v", err))
		return CLIExitError
	}
	opts = append(opts, assign.WithLogger(logger.Slog()))

	if budget := searchBudget(cmd); budget != (assign.SearchBudgetConfig{}) {
		opts = append(opts, assign.WithBudget(assign.NewSearchBudget(budget)))
	}

	objective, _ := assign.ParseObjective(doc.Solve.Objective)
	incumbentProfit := func(inc assign.Incumbent) float64 {
		if objective == assign.ObjectiveFair {
			return inc.FairProfit
		}
		return inc.TotalProfit
	}

	var spin *ux.Spinner
	switch {
	case solveVerbose:
		// Runs on the solving goroutine, which is this one.
		opts = append(opts, assign.WithIncumbentCallback(func(inc assign.Incumbent) {
			ux.Assignment(incumbentProfit(inc), solutionRows(inc.State.Snapshot()))
		}))
	case ux.ShouldShowProgress():
		spin = ux.NewSpinner(fmt.Sprintf("Solving %s...", doc.Name)).WithType(ux.SpinnerCargo)
		opts = append(opts, assign.WithIncumbentCallback(func(inc assign.Incumbent) {
			spin.UpdateMessage(fmt.Sprintf("Solving %s... best %s after %d nodes",
				doc.Name, ux.FormatProfit(incumbentProfit(inc)), inc.Nodes))
		}))
	}

	solver, err := assign.NewSolver(problem, opts...)
	if err != nil {
		ux.Error(fmt.Sprintf("Failed to build solver: %v", err))
		return CLIExitError
	}

	logger.Info("solve started", "problem", doc.Name, "path", path,
		"objective", objective.String(), "complete", doc.Solve.Complete)
	if spin != nil {
		spin.Start()
	}
	res, err := solver.Solve(ctx)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return reportSolveError(doc, err)
	}

	logger.Info("solve finished", "run_id", res.RunID,
		"outcome", res.Outcome.String(), "stats", res.Stats.String())
	if err := outputSolve(solveOutput, doc, res); err != nil {
		ux.Error(err.Error())
		return CLIExitError
	}
	return CLIExitSuccess
}

// reportSolveError prints a solver failure and picks its exit code.
func reportSolveError(doc *manifest.Document, err error) int {
	switch {
	case errors.Is(err, assign.ErrNoFeasibleSolution):
		ux.Error(fmt.Sprintf("%s: no feasible complete assignment exists", doc.Name))
		return CLIExitFindings
	case errors.Is(err, assign.ErrNoIncumbent):
		ux.Error("Search stopped before any solution was found")
		return CLIExitError
	default:
		ux.Error(fmt.Sprintf("Solve failed: %v", err))
		return CLIExitError
	}
}

// watchAndSolve re-runs the solve whenever the problem document
// changes. Editors usually replace the file on save, so the watch is
// on the parent directory with events filtered to the document path.
func watchAndSolve(ctx context.Context, cmd *cobra.Command, path string, logger *logging.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	solveFile(ctx, cmd, path, logger)
	ux.Info(fmt.Sprintf("Watching %s for changes (Ctrl-C to stop)", path))

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || abs != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Reset or start debounce timer
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			logger.Info("document changed, solving again", "path", path)
			solveFile(ctx, cmd, path, logger)
			ux.Info(fmt.Sprintf("Watching %s for changes (Ctrl-C to stop)", path))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
