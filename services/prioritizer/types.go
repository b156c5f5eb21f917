// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package prioritizer ranks technical-debt findings by delegating the
// ordering decision to an LLM and mechanically enforcing an output
// contract on its answer.
//
// The package owns the pipe-separated ranking table as a wire format:
// exact header, exact column count, contiguous ranks, every smell id
// exactly once, a closed severity vocabulary, and a severity ordering
// rule. Generated text that breaks the contract is fed back to the
// model with the full violation map for a bounded number of repair
// attempts.
package prioritizer

// Smell is one technical-debt finding together with all contextual
// evidence gathered for it. The id is assigned at ingestion time and
// stays stable for the lifetime of a run, across repair attempts.
type Smell struct {
	// ID uniquely identifies the finding within a run.
	ID string

	// Category is the analyzer's smell category (e.g. "Implementation").
	Category string

	// Name is the smell name (e.g. "Feature Envy", "Long Method").
	Name string

	// Entity is the module, class, or function the smell is attached to.
	Entity string

	// FilePath is the path reported by the analyzer.
	FilePath string

	// LineNumber is the 1-based start line of the entity, 0 when the
	// smell is file-scoped.
	LineNumber int

	// Description is the analyzer's free-text description.
	Description string

	// GitAnalysis is the rendered git stability/evolution report for
	// the file. Opaque to the contract enforcement.
	GitAnalysis string

	// StaticReport is the rendered static-analysis report for the file.
	StaticReport string

	// CodeSegment is the raw source of the smelly entity.
	CodeSegment string

	// CodeSummary is an optional AI-written summary of CodeSegment.
	CodeSummary string
}

// RankedRow is one parsed data row of the model's answer. Rows are
// rebuilt from scratch on every parse attempt and never mutated.
type RankedRow struct {
	Rank       int
	ID         string
	SmellName  string
	EntityName string
	File       string
	Severity   string
	Reason     string
}

// ValidationResult carries the violations found in one pass over one
// parsed output. It is recomputed per attempt, never merged across
// attempts.
type ValidationResult struct {
	// Violations maps a violation kind to an aggregated human-readable
	// diagnostic. Presence of a key means that class of problem
	// occurred at least once.
	Violations map[string]string
}

// IsValid reports whether the output satisfied the whole contract.
func (v ValidationResult) IsValid() bool {
	return len(v.Violations) == 0
}

// RunState is the repair loop's working memory. It is owned by a
// single run and must not be shared across concurrent runs.
type RunState struct {
	Smells          []Smell
	CurrentOutput   string
	LastValidation  ValidationResult
	AttemptsUsed    int
	AttemptsAllowed int
	Phase           Phase
}

// NewRunState seeds the loop state for a fixed smell set and budget.
func NewRunState(smells []Smell, attemptsAllowed int) *RunState {
	return &RunState{
		Smells:          smells,
		AttemptsAllowed: attemptsAllowed,
		Phase:           PhaseInitial,
	}
}

// Outcome is the terminal result of one prioritization run: the last
// generated text plus its validation, whether accepted or not.
type Outcome struct {
	// Text is the final raw output, valid or not.
	Text string

	// Validation is the result of the last validation pass. Empty
	// violations means the ranking is usable as data.
	Validation ValidationResult

	// Phase is the terminal phase, PhaseAccepted or PhaseExhausted.
	Phase Phase

	// AttemptsUsed counts repair generations actually consumed.
	AttemptsUsed int
}

// Accepted reports whether the run ended with a fully valid ranking.
func (o *Outcome) Accepted() bool {
	return o.Phase == PhaseAccepted
}

// ExpectedIDs returns the id of every smell, in presentation order.
func ExpectedIDs(smells []Smell) []string {
	ids := make([]string, 0, len(smells))
	for _, s := range smells {
		ids = append(ids, s.ID)
	}
	return ids
}
