// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package evidence loads code-smell findings and enriches them with
// repository history, static metrics, source segments, and AI
// summaries before they are handed to the prioritizer.
package evidence

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/SINTEF-9012/TDPrioritization/services/prioritizer"
)

// shuffleSeed fixes the presentation order of smells. The order is
// randomized so the model cannot read priority out of the analyzer's
// file ordering, and seeded so runs stay reproducible.
const shuffleSeed = 42

// Columns of the analyzer's code quality report.
var reportColumns = []string{
	"Type", "Name", "File", "Module/Class", "Line Number", "Description",
}

// LoadSmells reads the analyzer's CSV report, keeps only the smells
// named in filter (all when filter is empty), assigns sequential ids
// in file order, and deterministically shuffles the result.
func LoadSmells(reportPath string, filter []string) ([]prioritizer.Smell, error) {
	f, err := os.Open(reportPath)
	if err != nil {
		return nil, fmt.Errorf("open smell report: %w", err)
	}
	defer f.Close()

	smells, err := readSmells(f, filter)
	if err != nil {
		return nil, fmt.Errorf("parse smell report %s: %w", reportPath, err)
	}
	return smells, nil
}

func readSmells(r io.Reader, filter []string) ([]prioritizer.Smell, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	keep := map[string]bool{}
	for _, name := range filter {
		keep[name] = true
	}

	var smells []prioritizer.Smell
	id := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		name := field(rec, col["Name"])
		if len(keep) > 0 && !keep[name] {
			continue
		}

		line := 0
		if raw := field(rec, col["Line Number"]); raw != "" {
			// Some analyzers emit fractional or empty line numbers
			// for file-scoped smells; those stay at 0.
			if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
				line = int(v)
			}
		}

		smells = append(smells, prioritizer.Smell{
			ID:          strconv.Itoa(id),
			Category:    field(rec, col["Type"]),
			Name:        name,
			FilePath:    field(rec, col["File"]),
			Entity:      field(rec, col["Module/Class"]),
			LineNumber:  line,
			Description: field(rec, col["Description"]),
		})
		id++
	}

	rng := rand.New(rand.NewSource(shuffleSeed))
	rng.Shuffle(len(smells), func(i, j int) {
		smells[i], smells[j] = smells[j], smells[i]
	})
	return smells, nil
}

func columnIndex(header []string) (map[string]int, error) {
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, want := range reportColumns {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("report is missing column %q", want)
		}
	}
	return col, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// NormalizePath maps an analyzer-reported path onto a repo-relative
// one. Reports generated from a sibling checkout prefix paths with
// "../".
func NormalizePath(p string) string {
	return strings.TrimPrefix(p, "../")
}
