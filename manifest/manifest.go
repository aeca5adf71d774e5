// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/stevedore/assign"
)

// SchemaVersion is the document schema version this build reads.
const SchemaVersion = 1

// Format identifies a document encoding.
type Format string

// Supported document encodings.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name. It accepts "yaml", "yml", and
// "json" in any case and returns ErrUnknownFormat otherwise.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatForPath picks the format for a file path by extension.
// Paths ending in ".json" decode as JSON; everything else decodes as
// YAML, which also accepts JSON input.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// SolveSpec declares how a document wants its problem solved. All
// fields are optional; empty fields leave the solver's configuration
// untouched.
type SolveSpec struct {
	// Objective selects what the solver maximizes.
	Objective string `json:"objective,omitempty" yaml:"objective,omitempty" validate:"omitempty,oneof=standard fair"`

	// Complete requires every budget to be consumed exactly.
	Complete bool `json:"complete,omitempty" yaml:"complete,omitempty"`

	// Order selects the candidate exploration order.
	Order string `json:"order,omitempty" yaml:"order,omitempty" validate:"omitempty,oneof=density profit lex"`

	// Bound selects the pruning bound.
	Bound string `json:"bound,omitempty" yaml:"bound,omitempty" validate:"omitempty,oneof=clipped relaxed none"`
}

// Defaults supplies cost model values for pairs the document does not
// list, and fills fields omitted from listed pairs.
type Defaults struct {
	AgentCost float64 `json:"agent_cost,omitempty" yaml:"agent_cost,omitempty"`
	TaskCost  float64 `json:"task_cost,omitempty" yaml:"task_cost,omitempty"`
	Profit    float64 `json:"profit,omitempty" yaml:"profit,omitempty"`
}

// PairEntry sets the cost model for one (agent, task) pair. Nil value
// fields fall back to the document's defaults block.
type PairEntry struct {
	Agent     string   `json:"agent" yaml:"agent" validate:"required"`
	Task      string   `json:"task" yaml:"task" validate:"required"`
	AgentCost *float64 `json:"agent_cost,omitempty" yaml:"agent_cost,omitempty"`
	TaskCost  *float64 `json:"task_cost,omitempty" yaml:"task_cost,omitempty"`
	Profit    *float64 `json:"profit,omitempty" yaml:"profit,omitempty"`
}

// Document is a declarative description of one assignment problem.
//
// Description:
//
//	A Document carries the full problem instance: agents, tasks, the
//	cost model, optional pre-fixed assignments, and optional solve
//	settings. Decode one with Load or Parse, inspect it with Check,
//	and convert it with Problem and SolverOptions.
//
// Thread Safety: Safe for concurrent reads. Not safe to modify while
// shared.
type Document struct {
	// Version is the schema version. Must equal SchemaVersion.
	Version int `json:"version" yaml:"version"`

	// Name identifies the problem instance in logs and results.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Solve carries optional solver settings for this instance.
	Solve SolveSpec `json:"solve,omitempty" yaml:"solve,omitempty"`

	// Epsilon overrides the comparison tolerance. Zero keeps the
	// solver default.
	Epsilon float64 `json:"epsilon,omitempty" yaml:"epsilon,omitempty"`

	// Defaults fills cost model values for unlisted pairs. When nil,
	// the pairs list must cover every (agent, task) combination with
	// all three values.
	Defaults *Defaults `json:"defaults,omitempty" yaml:"defaults,omitempty"`

	// Agents lists the agents and their budgets.
	Agents []assign.Agent `json:"agents" yaml:"agents" validate:"required,min=1"`

	// Tasks lists the tasks and their budgets.
	Tasks []assign.Task `json:"tasks" yaml:"tasks" validate:"required,min=1"`

	// Pairs lists per-pair cost model values.
	Pairs []PairEntry `json:"pairs,omitempty" yaml:"pairs,omitempty" validate:"omitempty,dive"`

	// Hard lists assignments fixed before the search begins.
	Hard []assign.Pair `json:"hard_assignments,omitempty" yaml:"hard_assignments,omitempty"`
}

// docValidate checks document struct tags. Reported field names use
// the YAML key so issues point at the document source.
var docValidate *validator.Validate

func init() {
	docValidate = validator.New()
	docValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Load reads and decodes a problem document from a file.
//
// Description:
//
//	Reads the file and decodes it with the format chosen by
//	FormatForPath. Load does not validate the document; call Check or
//	Validate, or let Problem validate on conversion.
//
// Inputs:
//
//	path - Path to a YAML or JSON document.
//
// Outputs:
//
//	*Document - The decoded document.
//	error - ErrNotFound if the file does not exist, ErrInvalidDocument
//	if it does not decode.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	doc, err := Parse(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a problem document from raw bytes.
//
// Description:
//
//	Decodes strictly: a field the schema does not define is an error
//	in both formats. Parse does not validate the document beyond
//	decoding.
//
// Inputs:
//
//	data - The document bytes.
//	format - FormatYAML or FormatJSON.
//
// Outputs:
//
//	*Document - The decoded document.
//	error - ErrUnknownFormat for other formats, ErrInvalidDocument if
//	the data does not decode.
func Parse(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: document is empty", ErrInvalidDocument)
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: document is empty", ErrInvalidDocument)
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
	return &doc, nil
}

// Check validates the document and returns every issue found.
//
// Description:
//
//	Runs the struct tag validation and the cross-field checks:
//	schema version, duplicate identifiers, pair references, cost
//	model coverage, and value ranges. All issues are collected so a
//	document can be repaired in one pass.
//
// Outputs:
//
//	[]FieldError - One entry per issue, empty when the document is
//	valid. Entries wrap ErrInvalidDocument or ErrUnsupportedVersion.
//
// Behavior:
//
//   - Budget feasibility of hard assignments is not checked here;
//     Problem reports it when the instance is constructed.
func (d *Document) Check() []FieldError {
	var issues []FieldError

	if d.Version != SchemaVersion {
		issues = append(issues, FieldError{
			Field: "version",
			Err:   fmt.Errorf("%w: %d", ErrUnsupportedVersion, d.Version),
		})
	}

	issues = append(issues, d.tagIssues()...)

	agents := make(map[string]bool, len(d.Agents))
	for i, a := range d.Agents {
		field := fmt.Sprintf("agents[%d]", i)
		if a.ID == "" {
			issues = append(issues, invalid(field+".id", "missing identifier"))
		} else if agents[a.ID] {
			issues = append(issues, invalidf(field+".id", "duplicate agent id %q", a.ID))
		}
		agents[a.ID] = true
		issues = checkNumber(issues, field+".budget", a.Budget)
	}

	tasks := make(map[string]bool, len(d.Tasks))
	for i, t := range d.Tasks {
		field := fmt.Sprintf("tasks[%d]", i)
		if t.ID == "" {
			issues = append(issues, invalid(field+".id", "missing identifier"))
		} else if tasks[t.ID] {
			issues = append(issues, invalidf(field+".id", "duplicate task id %q", t.ID))
		}
		tasks[t.ID] = true
		issues = checkNumber(issues, field+".budget", t.Budget)
	}

	issues = checkNumber(issues, "epsilon", d.Epsilon)
	if d.Defaults != nil {
		issues = checkNumber(issues, "defaults.agent_cost", d.Defaults.AgentCost)
		issues = checkNumber(issues, "defaults.task_cost", d.Defaults.TaskCost)
		issues = checkNumber(issues, "defaults.profit", d.Defaults.Profit)
	}

	listed := make(map[assign.Pair]bool, len(d.Pairs))
	for i, pe := range d.Pairs {
		field := fmt.Sprintf("pairs[%d]", i)
		if pe.Agent != "" && !agents[pe.Agent] {
			issues = append(issues, invalidf(field+".agent", "unknown agent %q", pe.Agent))
		}
		if pe.Task != "" && !tasks[pe.Task] {
			issues = append(issues, invalidf(field+".task", "unknown task %q", pe.Task))
		}

		key := assign.Pair{Agent: pe.Agent, Task: pe.Task}
		if listed[key] {
			issues = append(issues, invalidf(field, "duplicate entry for %s", key))
		}
		listed[key] = true

		issues = checkOptional(issues, field+".agent_cost", pe.AgentCost, d.Defaults == nil)
		issues = checkOptional(issues, field+".task_cost", pe.TaskCost, d.Defaults == nil)
		issues = checkOptional(issues, field+".profit", pe.Profit, d.Defaults == nil)
	}

	if d.Defaults == nil {
		for _, a := range d.Agents {
			for _, t := range d.Tasks {
				if a.ID == "" || t.ID == "" {
					continue
				}
				if !listed[assign.Pair{Agent: a.ID, Task: t.ID}] {
					issues = append(issues, invalidf("pairs",
						"no entry for %s->%s and no defaults block", a.ID, t.ID))
				}
			}
		}
	}

	fixed := make(map[assign.Pair]bool, len(d.Hard))
	for i, h := range d.Hard {
		field := fmt.Sprintf("hard_assignments[%d]", i)
		if h.Agent == "" {
			issues = append(issues, invalid(field+".agent", "missing agent"))
		} else if !agents[h.Agent] {
			issues = append(issues, invalidf(field+".agent", "unknown agent %q", h.Agent))
		}
		if h.Task == "" {
			issues = append(issues, invalid(field+".task", "missing task"))
		} else if !tasks[h.Task] {
			issues = append(issues, invalidf(field+".task", "unknown task %q", h.Task))
		}
		if fixed[h] {
			issues = append(issues, invalidf(field, "duplicate entry for %s", h))
		}
		fixed[h] = true
	}

	return issues
}

// Validate reports the first issue in the document, or nil when it is
// valid. Use Check for the full list.
func (d *Document) Validate() error {
	issues := d.Check()
	if len(issues) == 0 {
		return nil
	}
	return issues[0]
}

// tagIssues runs the struct tag validation and converts the result.
func (d *Document) tagIssues() []FieldError {
	err := docValidate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{
			Field: "document",
			Err:   fmt.Errorf("%w: %v", ErrInvalidDocument, err),
		}}
	}

	issues := make([]FieldError, 0, len(verrs))
	for _, ve := range verrs {
		field := strings.TrimPrefix(ve.Namespace(), "Document.")
		issues = append(issues, invalidf(field, "fails %q constraint", ve.Tag()))
	}
	return issues
}

// Problem validates the document and builds the problem instance.
//
// Description:
//
//	Converts the declarative document into an immutable problem:
//	resolves each pair's cost model against the defaults block and
//	applies the hard assignments.
//
// Outputs:
//
//	*assign.Problem - The constructed instance.
//	error - The first Check issue, or a construction error such as
//	assign.ErrInfeasibleHardAssignment.
func (d *Document) Problem() (*assign.Problem, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var base assign.Costs
	if d.Defaults != nil {
		base = assign.Costs{
			AgentCost: d.Defaults.AgentCost,
			TaskCost:  d.Defaults.TaskCost,
			Profit:    d.Defaults.Profit,
		}
	}

	resolved := make(map[assign.Pair]assign.Costs, len(d.Pairs))
	for _, pe := range d.Pairs {
		c := base
		if pe.AgentCost != nil {
			c.AgentCost = *pe.AgentCost
		}
		if pe.TaskCost != nil {
			c.TaskCost = *pe.TaskCost
		}
		if pe.Profit != nil {
			c.Profit = *pe.Profit
		}
		resolved[assign.Pair{Agent: pe.Agent, Task: pe.Task}] = c
	}

	costs := func(agentID, taskID string) assign.Costs {
		if c, ok := resolved[assign.Pair{Agent: agentID, Task: taskID}]; ok {
			return c
		}
		return base
	}

	var opts []assign.ProblemOption
	if len(d.Hard) > 0 {
		opts = append(opts, assign.WithHardAssignments(d.Hard...))
	}
	if d.Epsilon > 0 {
		opts = append(opts, assign.WithEpsilon(d.Epsilon))
	}

	return assign.NewProblem(d.Agents, d.Tasks, costs, opts...)
}

// SolverOptions converts the document's solve block into solver
// options. Empty fields contribute nothing, so a document without a
// solve block yields no options.
func (d *Document) SolverOptions() ([]assign.SolverOption, error) {
	var opts []assign.SolverOption

	if d.Solve.Objective != "" {
		obj, err := assign.ParseObjective(d.Solve.Objective)
		if err != nil {
			return nil, err
		}
		opts = append(opts, assign.WithObjective(obj))
	}
	if d.Solve.Complete {
		opts = append(opts, assign.WithComplete(true))
	}
	if d.Solve.Order != "" {
		policy, err := assign.ParseOrderPolicy(d.Solve.Order)
		if err != nil {
			return nil, err
		}
		opts = append(opts, assign.WithOrder(policy))
	}
	if d.Solve.Bound != "" {
		kind, err := assign.ParseBoundKind(d.Solve.Bound)
		if err != nil {
			return nil, err
		}
		opts = append(opts, assign.WithBound(kind))
	}

	return opts, nil
}

// Example returns a small built-in document: a three-worker crew split
// across two deck jobs with unit costs, solved for the fair objective
// with every budget consumed. The fair optimum spreads a profit of 9
// so the least profitable task still earns 4.
func Example() *Document {
	return &Document{
		Version:  SchemaVersion,
		Name:     "crew-split",
		Solve:    SolveSpec{Objective: "fair", Complete: true},
		Defaults: &Defaults{AgentCost: 1, TaskCost: 1},
		Agents: []assign.Agent{
			{ID: "alice", Budget: 1},
			{ID: "bob", Budget: 2},
			{ID: "cara", Budget: 1},
		},
		Tasks: []assign.Task{
			{ID: "rigging", Budget: 2},
			{ID: "stowage", Budget: 2},
		},
		Pairs: []PairEntry{
			{Agent: "alice", Task: "rigging", Profit: f64(3)},
			{Agent: "bob", Task: "rigging", Profit: f64(1)},
			{Agent: "cara", Task: "rigging", Profit: f64(2)},
			{Agent: "alice", Task: "stowage", Profit: f64(1)},
			{Agent: "bob", Task: "stowage", Profit: f64(3)},
			{Agent: "cara", Task: "stowage", Profit: f64(2)},
		},
	}
}

// invalid builds a FieldError wrapping ErrInvalidDocument.
func invalid(field, msg string) FieldError {
	return FieldError{Field: field, Err: fmt.Errorf("%w: %s", ErrInvalidDocument, msg)}
}

// invalidf is invalid with a format string.
func invalidf(field, format string, args ...any) FieldError {
	return invalid(field, fmt.Sprintf(format, args...))
}

// checkNumber appends an issue when v is not a finite non-negative
// number.
func checkNumber(issues []FieldError, field string, v float64) []FieldError {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(issues, invalid(field, "value is not finite"))
	}
	if v < 0 {
		return append(issues, invalid(field, "value is negative"))
	}
	return issues
}

// checkOptional appends an issue for an optional pair value: required
// when there is no defaults block, range-checked when present.
func checkOptional(issues []FieldError, field string, v *float64, required bool) []FieldError {
	if v == nil {
		if required {
			return append(issues, invalid(field, "value required without a defaults block"))
		}
		return issues
	}
	return checkNumber(issues, field, *v)
}

// f64 returns a pointer to v for optional document fields.
func f64(v float64) *float64 {
	return &v
}
