// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"log/slog"
	"strings"
)

// Level is the minimum severity a logger lets through. Levels order as
// Debug < Info < Warn < Error; a logger at LevelWarn drops Debug and
// Info records.
type Level int

const (
	// LevelDebug traces the search itself: node counts, incumbent
	// churn, candidate ordering. Off unless someone is debugging.
	LevelDebug Level = iota

	// LevelInfo marks lifecycle events: document loaded, solve
	// started, solve finished.
	LevelInfo

	// LevelWarn marks degraded-but-continuing situations: a budget
	// cut a solve short, telemetry export failed.
	LevelWarn

	// LevelError marks failed operations the process survives.
	LevelError
)

// String returns the level name as it appears in log output.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// toSlogLevel maps Level onto the slog scale. Unknown values map to
// Info, same as ParseLevel's fallback.
func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a flag or config value to a Level. It accepts
// "debug", "info", "warn"/"warning", "error"/"err" and their first
// letters, in any case. Unknown values fall back to LevelInfo so a
// mistyped flag degrades to the default instead of silencing logs.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "d":
		return LevelDebug
	case "info", "i":
		return LevelInfo
	case "warn", "warning", "w":
		return LevelWarn
	case "error", "err", "e":
		return LevelError
	default:
		return LevelInfo
	}
}
