// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package manifest reads, validates, and converts problem documents.
//
// A manifest is a YAML or JSON file that declares an assignment problem:
// the agents and their budgets, the tasks and theirs, the cost model for
// every (agent, task) pair, and optionally how the instance should be
// solved. Decoding is strict (unknown fields are rejected), and Check
// reports every semantic issue in a document rather than stopping at
// the first.
//
// # Document Format
//
//	version: 1
//	name: crew-split
//	solve:
//	  objective: fair
//	  complete: true
//	defaults:
//	  agent_cost: 1
//	  task_cost: 1
//	agents:
//	  - id: alice
//	    budget: 1
//	tasks:
//	  - id: rigging
//	    budget: 2
//	pairs:
//	  - agent: alice
//	    task: rigging
//	    profit: 3
//
// Pairs not listed under pairs fall back to the defaults block. Without
// a defaults block every (agent, task) combination must be listed with
// all three values.
//
// # Thread Safety
//
// Load and Parse are safe for concurrent use. A Document is safe for
// concurrent reads; it must not be modified while shared.
package manifest

import (
	"errors"
	"fmt"
)

// Sentinel errors for document operations.
var (
	// ErrNotFound is returned by Load when the document file does not
	// exist.
	ErrNotFound = errors.New("problem document not found")

	// ErrUnknownFormat is returned when a format name is not one of
	// "yaml", "yml", or "json".
	ErrUnknownFormat = errors.New("unknown document format")

	// ErrUnsupportedVersion is returned when a document declares a
	// schema version this build does not read.
	ErrUnsupportedVersion = errors.New("unsupported document version")

	// ErrInvalidDocument is returned when a document is syntactically
	// or semantically invalid. Check lists the individual issues.
	ErrInvalidDocument = errors.New("invalid problem document")
)

// FieldError reports a single invalid element of a document.
//
// Field is a dotted path into the document using the YAML key names,
// for example "pairs[2].agent". Err wraps ErrInvalidDocument or
// ErrUnsupportedVersion so callers can classify issues with errors.Is.
type FieldError struct {
	// Field is the path to the offending element.
	Field string `json:"field"`

	// Err is the underlying error.
	Err error `json:"error"`
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e FieldError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler.
// Serializes the error as its string representation.
func (e FieldError) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"field":%q,"error":%q}`, e.Field, e.Err.Error())), nil
}
