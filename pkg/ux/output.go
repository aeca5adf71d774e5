// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux renders stevedore's terminal output: status lines, solve
// reports, and progress indicators. Every helper consults the active
// personality level, so the same binary reads well on an interactive
// terminal and stays parseable when piped (machine mode emits stable
// one-line records and nothing else).
package ux

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Aleutian brand palette, trimmed to the colors stevedore prints.
var (
	colorFoam  = lipgloss.Color("#2CD7C7") // bright teal: success, highlights
	colorAmber = lipgloss.Color("#F4D03F") // warnings
	colorCoral = lipgloss.Color("#E74C3C") // errors
	colorSlate = lipgloss.Color("#2C4A54") // muted text, the gutter rail
)

var (
	styleBold      = lipgloss.NewStyle().Bold(true)
	styleSuccess   = lipgloss.NewStyle().Foreground(colorFoam)
	styleWarning   = lipgloss.NewStyle().Foreground(colorAmber)
	styleError     = lipgloss.NewStyle().Foreground(colorCoral)
	styleMuted     = lipgloss.NewStyle().Foreground(colorSlate)
	styleHighlight = lipgloss.NewStyle().Foreground(colorFoam).Bold(true)
)

const (
	iconOK   = "✓"
	iconWarn = "⚠"
	iconFail = "✗"
	gutter   = "│"
)

// statusLine prints one icon-prefixed line. The icon is always colored;
// the text is colored only above minimal personality.
func statusLine(w *os.File, icon string, style lipgloss.Style, text string) {
	if CurrentLevel() == PersonalityMinimal {
		fmt.Fprintf(w, "%s %s\n", style.Render(icon), text)
		return
	}
	fmt.Fprintf(w, "%s %s\n", style.Render(icon), style.Render(text))
}

// Success prints a completed-action line. Machine mode emits "OK: ...".
func Success(text string) {
	if CurrentLevel() == PersonalityMachine {
		fmt.Fprintf(os.Stdout, "OK: %s\n", text)
		return
	}
	statusLine(os.Stdout, iconOK, styleSuccess, text)
}

// Warning prints a warning line. Machine mode emits "WARN: ..." on
// stderr so it never corrupts a parsed result stream.
func Warning(text string) {
	if CurrentLevel() == PersonalityMachine {
		fmt.Fprintf(os.Stderr, "WARN: %s\n", text)
		return
	}
	statusLine(os.Stdout, iconWarn, styleWarning, text)
}

// Error prints an error line. Machine mode emits "ERROR: ..." on stderr.
func Error(text string) {
	if CurrentLevel() == PersonalityMachine {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", text)
		return
	}
	statusLine(os.Stdout, iconFail, styleError, text)
}

// Info prints a gutter-prefixed progress line; machine mode prints the
// bare text.
func Info(text string) {
	if CurrentLevel() == PersonalityMachine {
		fmt.Println(text)
		return
	}
	fmt.Printf("%s %s\n", styleMuted.Render(gutter), text)
}

// Muted prints secondary text that machine mode drops entirely.
func Muted(text string) {
	if CurrentLevel() == PersonalityMachine {
		return
	}
	fmt.Println(styleMuted.Render(text))
}
