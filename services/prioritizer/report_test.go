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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExperimentDir(t *testing.T) {
	tests := []struct {
		base, model, want string
	}{
		{"experiments/run1", "gpt-oss", "experiments/run1_agent_model_gpt-oss"},
		{"experiments/run1", "qwen2.5:32b", "experiments/run1_agent_model_qwen2.5_32b"},
		{"out", "library/llama3:8b", "out_agent_model_library_llama3_8b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExperimentDir(tt.base, tt.model))
	}
}

func TestWriteRunArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run_agent_model_test")
	smells := smellSet("14", "20")
	outcome := &Outcome{
		Text:         twoSmellTable,
		Validation:   ValidationResult{Violations: map[string]string{}},
		Phase:        PhaseAccepted,
		AttemptsUsed: 1,
	}

	err := WriteRunArtifacts(dir, smells, PromptOptions{}, outcome)
	require.NoError(t, err)

	prompt, err := os.ReadFile(filepath.Join(dir, PromptFileName))
	require.NoError(t, err)
	assert.Contains(t, string(prompt), "[1], id=14,")
	assert.Contains(t, string(prompt), "[2], id=20,")

	var rec runRecord
	data, err := os.ReadFile(filepath.Join(dir, ValidationFileName))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "ACCEPTED", rec.Phase)
	assert.True(t, rec.Accepted)
	assert.Equal(t, 1, rec.AttemptsUsed)
	assert.NotEmpty(t, rec.RunID)
}

func TestWriteRunArtifacts_ExhaustedRunIsStillPersisted(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run_agent_model_test")
	outcome := &Outcome{
		Text: "not a table at all",
		Validation: ValidationResult{Violations: map[string]string{
			ViolationHeaderFormat: "the first line must be exactly ...",
		}},
		Phase:        PhaseExhausted,
		AttemptsUsed: 2,
	}

	err := WriteRunArtifacts(dir, smellSet("14"), PromptOptions{}, outcome)
	require.NoError(t, err)

	var rec runRecord
	data, err := os.ReadFile(filepath.Join(dir, ValidationFileName))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.False(t, rec.Accepted)
	assert.Contains(t, rec.Violations, ViolationHeaderFormat)
}

func TestReadRawOutput_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run_agent_model_test")
	outcome := &Outcome{
		Text:       twoSmellTable,
		Validation: ValidationResult{Violations: map[string]string{}},
		Phase:      PhaseAccepted,
	}
	require.NoError(t, WriteRunArtifacts(dir, smellSet("14", "20"), PromptOptions{}, outcome))

	got, err := ReadRawOutput(dir)
	require.NoError(t, err)
	assert.Equal(t, twoSmellTable, got)
}
