// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package evaluation

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SINTEF-9012/TDPrioritization/services/prioritizer"
)

// severityRelevance maps the severity vocabulary to NDCG relevance.
var severityRelevance = map[string]int{"HIGH": 3, "MEDIUM": 2, "LOW": 1}

// GroundTruthEntry is one row of the human ranking.
type GroundTruthEntry struct {
	Rank     int
	ID       string
	Severity string
}

// LoadGroundTruth reads a pipe-separated ground truth file carrying
// the same table format the model is asked to emit.
func LoadGroundTruth(path string) ([]GroundTruthEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ground truth: %w", err)
	}

	_, rows := prioritizer.ParseTable(string(raw))
	entries := make([]GroundTruthEntry, 0, len(rows))
	for _, r := range prioritizer.RankedRows(rows) {
		entries = append(entries, GroundTruthEntry{
			Rank:     r.Rank,
			ID:       r.ID,
			Severity: strings.ToUpper(strings.TrimSpace(r.Severity)),
		})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("ground truth %s contains no rows", path)
	}
	return entries, nil
}

// ExtractIDs pulls the ranked id sequence out of raw model output,
// tolerating fences, quotes, and a missing header: a headerless table
// with the right column count is still scored.
func ExtractIDs(raw string) []string {
	header, rows := prioritizer.ParseTable(raw)
	if header != nil && len(rows) == 0 && len(header) == len(prioritizer.ExpectedHeader) {
		// Single-line output; the only line may be a data row.
		rows = [][]string{header}
	} else if headerIsData(header) {
		rows = append([][]string{header}, rows...)
	}

	var ids []string
	for _, r := range rows {
		if len(r) != len(prioritizer.ExpectedHeader) {
			continue
		}
		id := strings.TrimSpace(r[1])
		if id == "" || id == "Id" {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// headerIsData reports whether the first parsed line looks like a
// data row rather than any kind of header.
func headerIsData(header []string) bool {
	if len(header) != len(prioritizer.ExpectedHeader) {
		return false
	}
	for _, c := range header[0] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return header[0] != ""
}

// RanksWithMissingPenalty positions every ground-truth id inside the
// predicted ranking; ids the model never ranked share the worst
// position, after all predicted items.
func RanksWithMissingPenalty(gtIDs, llmIDs []string) (ranksLLM, ranksGT []int, missing []string) {
	pos := make(map[string]int, len(llmIDs))
	for i, id := range llmIDs {
		pos[id] = i
	}
	worst := len(llmIDs)

	for i, id := range gtIDs {
		ranksGT = append(ranksGT, i)
		if p, ok := pos[id]; ok {
			ranksLLM = append(ranksLLM, p)
		} else {
			ranksLLM = append(ranksLLM, worst)
			missing = append(missing, id)
		}
	}
	return ranksLLM, ranksGT, missing
}

// Metrics is the full agreement scorecard for one run.
type Metrics struct {
	Tau          float64  `json:"tau"`
	Rho          float64  `json:"rho"`
	NDCG         float64  `json:"ndcg"`
	SeverityNDCG float64  `json:"ndcg_based_on_smell_severity"`
	RBO          float64  `json:"rbo"`
	NumGT        int      `json:"n_gt"`
	NumLLM       int      `json:"n_llm"`
	NumMissing   int      `json:"n_missing"`
	MissingIDs   []string `json:"missing_ids"`
}

// MarshalJSON renders degenerate correlations as null: JSON has no
// NaN.
func (m Metrics) MarshalJSON() ([]byte, error) {
	opt := func(v float64) *float64 {
		if math.IsNaN(v) {
			return nil
		}
		return &v
	}
	type out struct {
		Tau          *float64 `json:"tau"`
		Rho          *float64 `json:"rho"`
		NDCG         float64  `json:"ndcg"`
		SeverityNDCG float64  `json:"ndcg_based_on_smell_severity"`
		RBO          float64  `json:"rbo"`
		NumGT        int      `json:"n_gt"`
		NumLLM       int      `json:"n_llm"`
		NumMissing   int      `json:"n_missing"`
		MissingIDs   []string `json:"missing_ids"`
	}
	return json.Marshal(out{
		Tau: opt(m.Tau), Rho: opt(m.Rho),
		NDCG: m.NDCG, SeverityNDCG: m.SeverityNDCG, RBO: m.RBO,
		NumGT: m.NumGT, NumLLM: m.NumLLM,
		NumMissing: m.NumMissing, MissingIDs: m.MissingIDs,
	})
}

// Compute scores a predicted id ordering against the ground truth.
func Compute(groundTruth []GroundTruthEntry, llmIDs []string) Metrics {
	gtIDs := make([]string, 0, len(groundTruth))
	relevance := make(map[string]int, len(groundTruth))
	for _, e := range groundTruth {
		gtIDs = append(gtIDs, e.ID)
		relevance[e.ID] = severityRelevance[e.Severity]
	}

	ranksLLM, ranksGT, missing := RanksWithMissingPenalty(gtIDs, llmIDs)

	return Metrics{
		Tau:          KendallTau(ranksLLM, ranksGT),
		Rho:          SpearmanRho(ranksLLM, ranksGT),
		NDCG:         NDCGFromGroundTruth(gtIDs, llmIDs),
		SeverityNDCG: NDCGFromSeverity(llmIDs, relevance),
		RBO:          RBO(llmIDs, gtIDs, 1.0),
		NumGT:        len(gtIDs),
		NumLLM:       len(llmIDs),
		NumMissing:   len(missing),
		MissingIDs:   missing,
	}
}

// Report is the persisted evaluation record for one run.
type Report struct {
	Timestamp   string  `json:"timestamp"`
	ProjectName string  `json:"project_name"`
	Pipeline    string  `json:"pipeline"`
	LLMProvider string  `json:"llm_provider"`
	Model       string  `json:"model"`
	UseGit      bool    `json:"use_git"`
	UseStatics  bool    `json:"use_statics"`
	UseCode     bool    `json:"use_code"`
	Metrics     Metrics `json:"metrics"`
}

// WriteReport evaluates the persisted run output in outDir against
// the ground truth and writes a timestamped JSON report next to it.
func WriteReport(groundTruthPath, outDir string, report Report) (string, error) {
	gt, err := LoadGroundTruth(groundTruthPath)
	if err != nil {
		return "", err
	}
	raw, err := prioritizer.ReadRawOutput(outDir)
	if err != nil {
		return "", fmt.Errorf("read run output: %w", err)
	}

	report.Metrics = Compute(gt, ExtractIDs(raw))
	now := time.Now()
	report.Timestamp = now.Format(time.RFC3339)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal evaluation report: %w", err)
	}

	path := filepath.Join(outDir, fmt.Sprintf("evaluation__%s.json", now.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write evaluation report: %w", err)
	}
	return path, nil
}
