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

	"github.com/AleutianAI/stevedore/manifest"
	"github.com/AleutianAI/stevedore/pkg/ux"
	"github.com/spf13/cobra"
)

// runCheck is the CLI handler for the "stevedore check" command.
//
// Every document is decoded and validated, and every issue is listed,
// not just the first, so a broken document can be repaired in one
// pass. Valid documents print a one-line shape summary.
//
// # Exit Codes
//
//   - 0: All documents are valid
//   - 1: At least one document has issues
//   - 2: Error (unreadable or undecodable file)
func runCheck(cmd *cobra.Command, args []string) {
	exit := CLIExitSuccess
	for _, path := range args {
		if code := checkFile(path); code > exit {
			exit = code
		}
	}
	os.Exit(exit)
}

// checkFile validates one document and returns its exit code.
func checkFile(path string) int {
	doc, err := manifest.Load(path)
	if err != nil {
		ux.Error(fmt.Sprintf("Failed to load %s: %v", path, err))
		return CLIExitError
	}

	issues := doc.Check()
	if len(issues) == 0 {
		ux.Success(fmt.Sprintf("%s: valid (%d agents, %d tasks, %d listed pairs)",
			path, len(doc.Agents), len(doc.Tasks), len(doc.Pairs)))
		return CLIExitSuccess
	}

	ux.Warning(fmt.Sprintf("%s: %d issue(s)", path, len(issues)))
	for _, issue := range issues {
		ux.Issue(issue.Field, issue.Err.Error())
	}
	return CLIExitFindings
}
