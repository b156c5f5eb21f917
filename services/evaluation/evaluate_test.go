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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SINTEF-9012/TDPrioritization/services/prioritizer"
)

const groundTruthTable = `Rank|Id|Name of Smell|Name|File|Severity|Reason for Prioritization
1|1|Feature Envy|f|a.py|HIGH|Most critical coupling
2|2|Long Method|g|b.py|HIGH|Still critical
3|3|Large Class|C|c.py|MEDIUM|Moderate concern
4|4|Long File|d.py|d.py|LOW|Cosmetic`

func writeGroundTruth(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prioritized_smells.csv")
	require.NoError(t, os.WriteFile(path, []byte(groundTruthTable), 0o644))
	return path
}

func TestLoadGroundTruth(t *testing.T) {
	entries, err := LoadGroundTruth(writeGroundTruth(t))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, GroundTruthEntry{Rank: 1, ID: "1", Severity: "HIGH"}, entries[0])
	assert.Equal(t, GroundTruthEntry{Rank: 4, ID: "4", Severity: "LOW"}, entries[3])
}

func TestLoadGroundTruth_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gt.csv")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	_, err := LoadGroundTruth(path)
	require.Error(t, err)
}

func TestExtractIDs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			"with header",
			groundTruthTable,
			[]string{"1", "2", "3", "4"},
		},
		{
			"headerless",
			"1|9|Feature Envy|f|a.py|HIGH|Reason text\n2|7|Long Method|g|b.py|LOW|Other reason",
			[]string{"9", "7"},
		},
		{
			"fenced and quoted",
			"```csv\n\"" + groundTruthTable + "\"\n```",
			[]string{"1", "2", "3", "4"},
		},
		{
			"garbage",
			"I could not produce a ranking.",
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractIDs(tt.raw))
		})
	}
}

func TestRanksWithMissingPenalty(t *testing.T) {
	ranksLLM, ranksGT, missing := RanksWithMissingPenalty(
		[]string{"1", "2", "3", "4"},
		[]string{"2", "1"},
	)

	assert.Equal(t, []int{1, 0, 2, 2}, ranksLLM)
	assert.Equal(t, []int{0, 1, 2, 3}, ranksGT)
	assert.Equal(t, []string{"3", "4"}, missing)
}

func TestCompute_PerfectRanking(t *testing.T) {
	gt, err := LoadGroundTruth(writeGroundTruth(t))
	require.NoError(t, err)

	m := Compute(gt, []string{"1", "2", "3", "4"})

	assert.InDelta(t, 1.0, m.Tau, 1e-9)
	assert.InDelta(t, 1.0, m.Rho, 1e-9)
	assert.InDelta(t, 1.0, m.NDCG, 1e-9)
	assert.InDelta(t, 1.0, m.SeverityNDCG, 1e-9)
	assert.InDelta(t, 1.0, m.RBO, 1e-9)
	assert.Equal(t, 4, m.NumGT)
	assert.Equal(t, 4, m.NumLLM)
	assert.Zero(t, m.NumMissing)
}

func TestCompute_MissingIDs(t *testing.T) {
	gt, err := LoadGroundTruth(writeGroundTruth(t))
	require.NoError(t, err)

	m := Compute(gt, []string{"2", "1"})

	assert.Equal(t, 2, m.NumLLM)
	assert.Equal(t, 2, m.NumMissing)
	assert.Equal(t, []string{"3", "4"}, m.MissingIDs)
	assert.Less(t, m.Tau, 1.0)
}

func TestWriteReport(t *testing.T) {
	gtPath := writeGroundTruth(t)
	outDir := filepath.Join(t.TempDir(), "run_agent_model_test")

	outcome := &prioritizer.Outcome{
		Text:       groundTruthTable,
		Validation: prioritizer.ValidationResult{Violations: map[string]string{}},
		Phase:      prioritizer.PhaseAccepted,
	}
	require.NoError(t, prioritizer.WriteRunArtifacts(outDir, []prioritizer.Smell{{ID: "1"}}, prioritizer.PromptOptions{}, outcome))

	path, err := WriteReport(gtPath, outDir, Report{
		ProjectName: "gitmetrics",
		Pipeline:    "agent",
		LLMProvider: "ollama",
		Model:       "gpt-oss",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rep Report
	require.NoError(t, json.Unmarshal(data, &rep))

	assert.Equal(t, "gitmetrics", rep.ProjectName)
	assert.InDelta(t, 1.0, rep.Metrics.NDCG, 1e-9)
	assert.NotEmpty(t, rep.Timestamp)
	assert.Contains(t, filepath.Base(path), "evaluation__")
}
