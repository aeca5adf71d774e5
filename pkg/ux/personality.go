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
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// PersonalityLevel selects how much styling and commentary the CLI
// emits.
type PersonalityLevel string

const (
	// PersonalityFull is the interactive default: color, icons, and
	// spinner animation.
	PersonalityFull PersonalityLevel = "full"

	// PersonalityStandard keeps color and icons, drops the animation.
	PersonalityStandard PersonalityLevel = "standard"

	// PersonalityMinimal is icons and plain text only.
	PersonalityMinimal PersonalityLevel = "minimal"

	// PersonalityMachine is the contract for scripts: stable one-line
	// records (OK:/WARN:/ERROR:/RESULT:/ASSIGN:), no color, no
	// decoration. Forced when stdout is not a terminal.
	PersonalityMachine PersonalityLevel = "machine"
)

var (
	levelMu     sync.RWMutex
	activeLevel = PersonalityFull
)

// CurrentLevel returns the active personality level.
func CurrentLevel() PersonalityLevel {
	levelMu.RLock()
	defer levelMu.RUnlock()
	return activeLevel
}

// SetPersonalityLevel sets the active personality level.
func SetPersonalityLevel(level PersonalityLevel) {
	levelMu.Lock()
	defer levelMu.Unlock()
	activeLevel = level
}

// ParsePersonalityLevel maps a flag or environment value to a level.
// Unrecognized values fall back to standard.
func ParsePersonalityLevel(s string) PersonalityLevel {
	switch strings.ToLower(s) {
	case "full", "f":
		return PersonalityFull
	case "standard", "std", "s":
		return PersonalityStandard
	case "minimal", "min", "m":
		return PersonalityMinimal
	case "machine", "quiet", "q":
		return PersonalityMachine
	default:
		return PersonalityStandard
	}
}

// InitPersonality picks the startup level: STEVEDORE_PERSONALITY wins,
// then a non-terminal stdout forces machine mode, otherwise full.
func InitPersonality() {
	if env := os.Getenv("STEVEDORE_PERSONALITY"); env != "" {
		SetPersonalityLevel(ParsePersonalityLevel(env))
		return
	}
	if !isTerminal() {
		SetPersonalityLevel(PersonalityMachine)
		return
	}
	SetPersonalityLevel(PersonalityFull)
}

func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ShouldShowProgress reports whether spinners and progress lines belong
// in the output.
func ShouldShowProgress() bool {
	return CurrentLevel() != PersonalityMachine
}
