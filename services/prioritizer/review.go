// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prioritizer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Violation kinds. The strings double as map keys in repair prompts,
// so they are part of the contract and must not be reworded.
const (
	ViolationEmptyOutput      = "Empty output"
	ViolationEmptyRows        = "Empty rows"
	ViolationHeaderFormat     = "Invalid header format"
	ViolationRowCount         = "Incorrect number of rows"
	ViolationColumnCount      = "Invalid column count"
	ViolationRankValue        = "Invalid rank value"
	ViolationRankOrdering     = "Invalid rank ordering"
	ViolationNonNumericalID   = "Non-numerical id"
	ViolationMissingIDs       = "Missing smell identifiers"
	ViolationUnexpectedIDs    = "Unexpected smell identifiers"
	ViolationDuplicateIDs     = "Duplicate smell identifiers"
	ViolationSeverityValue    = "Invalid severity value"
	ViolationReasonTooShort   = "Lacking description"
	ViolationSeverityOrdering = "Severity ordering violation"
)

// minReasonLength is the shortest reason accepted as a justification.
const minReasonLength = 5

// severityLevels is the closed severity vocabulary.
var severityLevels = map[string]bool{
	"HIGH":   true,
	"MEDIUM": true,
	"LOW":    true,
}

// Review runs one full validation pass over raw model output against
// the fixed smell set. Every rule is evaluated; results never depend
// on earlier attempts. Multiple instances of the same rule collapse
// into one diagnostic naming the offending rows or ids.
func Review(raw string, smells []Smell) ValidationResult {
	res := ValidationResult{Violations: map[string]string{}}
	add := func(kind, msg string) { res.Violations[kind] = msg }

	normalized := Normalize(raw)
	if normalized == "" {
		add(ViolationEmptyOutput, "the model returned no usable text")
		return res
	}

	header, rows := ParseTable(raw)
	if !isExpectedHeader(header) {
		add(ViolationHeaderFormat, fmt.Sprintf(
			"the first line must be exactly %q, got %q",
			ExpectedHeaderLine, strings.Join(header, "|")))
	}
	if len(rows) == 0 {
		add(ViolationEmptyRows, "the table contains no data rows")
		add(ViolationRowCount, fmt.Sprintf(
			"expected exactly %d data rows (one per smell), got 0", len(smells)))
		return res
	}
	if len(rows) != len(smells) {
		add(ViolationRowCount, fmt.Sprintf(
			"expected exactly %d data rows (one per smell), got %d",
			len(smells), len(rows)))
	}

	var badColumns []int
	for i, r := range rows {
		if len(r) != len(ExpectedHeader) {
			badColumns = append(badColumns, i+1)
		}
	}
	if len(badColumns) > 0 {
		add(ViolationColumnCount, fmt.Sprintf(
			"rows %s do not have exactly %d pipe-separated columns",
			joinInts(badColumns), len(ExpectedHeader)))
	}

	// Field-level rules only consider well-shaped rows; malformed rows
	// are already covered by the column-count diagnostic.
	var (
		ranks         []int
		badRanks      []int
		badIDs        []int
		badSeverities []int
		badReasons    []int
		afterLow      []int
		seen          = map[string]int{}
		duplicates    []string
		unexpected    []string
	)
	expected := map[string]bool{}
	for _, s := range smells {
		expected[s.ID] = true
	}

	sawLow := false
	for i, r := range rows {
		if len(r) != len(ExpectedHeader) {
			continue
		}
		row := i + 1

		rank, err := strconv.Atoi(r[0])
		if err != nil || rank < 1 {
			badRanks = append(badRanks, row)
		} else {
			ranks = append(ranks, rank)
		}

		id := r[1]
		if !isNumeric(id) {
			badIDs = append(badIDs, row)
		} else {
			seen[id]++
			if seen[id] == 2 {
				duplicates = append(duplicates, id)
			}
			if !expected[id] {
				unexpected = append(unexpected, id)
			}
		}

		sev := strings.ToUpper(strings.TrimSpace(r[5]))
		if !severityLevels[sev] {
			badSeverities = append(badSeverities, row)
		} else if sev == "LOW" {
			sawLow = true
		} else if sawLow {
			afterLow = append(afterLow, row)
		}

		if len(strings.TrimSpace(r[6])) < minReasonLength {
			badReasons = append(badReasons, row)
		}
	}

	if len(badRanks) > 0 {
		add(ViolationRankValue, fmt.Sprintf(
			"rank must be a positive integer; offending rows: %s",
			joinInts(badRanks)))
	}
	if len(ranks) > 0 {
		sorted := append([]int(nil), ranks...)
		sort.Ints(sorted)
		if !ranksAreContiguous(sorted, len(smells)) {
			add(ViolationRankOrdering, fmt.Sprintf(
				"ranks must be the integers 1..%d with no gaps or repeats, got %v",
				len(smells), sorted))
		}
	}
	if len(badIDs) > 0 {
		add(ViolationNonNumericalID, fmt.Sprintf(
			"id must be numerical; offending rows: %s", joinInts(badIDs)))
	}
	if len(duplicates) > 0 {
		add(ViolationDuplicateIDs, fmt.Sprintf(
			"ids ranked more than once: %s", strings.Join(duplicates, ", ")))
	}
	if len(unexpected) > 0 {
		add(ViolationUnexpectedIDs, fmt.Sprintf(
			"ids that are not part of the input: %s",
			strings.Join(unexpected, ", ")))
	}
	if missing := missingIDs(smells, seen); len(missing) > 0 {
		add(ViolationMissingIDs, fmt.Sprintf(
			"ids never ranked: %s", strings.Join(missing, ", ")))
	}
	if len(badSeverities) > 0 {
		add(ViolationSeverityValue, fmt.Sprintf(
			"severity must be one of HIGH, MEDIUM, LOW; offending rows: %s",
			joinInts(badSeverities)))
	}
	if len(badReasons) > 0 {
		add(ViolationReasonTooShort, fmt.Sprintf(
			"the reason must be at least %d characters; offending rows: %s",
			minReasonLength, joinInts(badReasons)))
	}
	if len(afterLow) > 0 {
		add(ViolationSeverityOrdering, fmt.Sprintf(
			"HIGH or MEDIUM severity appears after a LOW-ranked entry; offending rows: %s",
			joinInts(afterLow)))
	}

	return res
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ranksAreContiguous reports whether sorted ranks is exactly 1..n.
// Row order carries no meaning here; only the set of ranks does.
func ranksAreContiguous(ranks []int, n int) bool {
	if len(ranks) != n {
		return false
	}
	for i, r := range ranks {
		if r != i+1 {
			return false
		}
	}
	return true
}

// missingIDs returns unranked ids in smell presentation order.
func missingIDs(smells []Smell, seen map[string]int) []string {
	var missing []string
	for _, s := range smells {
		if seen[s.ID] == 0 {
			missing = append(missing, s.ID)
		}
	}
	return missing
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
