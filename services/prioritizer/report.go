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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Artifact file names inside an experiment directory.
const (
	PromptFileName     = "prompt.txt"
	OutputFileName     = "agent_output.csv"
	ValidationFileName = "validation.json"
)

// ExperimentDir derives the per-run output directory from the base
// output name and the model identifier. Model names may contain
// characters that are unsafe in paths (ollama tags like
// "qwen2.5:32b", registry paths with slashes); those are flattened to
// underscores.
func ExperimentDir(outputDir, model string) string {
	safe := strings.NewReplacer(":", "_", "/", "_").Replace(model)
	return fmt.Sprintf("%s_agent_model_%s", outputDir, safe)
}

// runRecord is the persisted shape of a finished run.
type runRecord struct {
	RunID        string            `json:"run_id"`
	Phase        string            `json:"phase"`
	Accepted     bool              `json:"accepted"`
	AttemptsUsed int               `json:"attempts_used"`
	Violations   map[string]string `json:"violations,omitempty"`
}

// WriteRunArtifacts persists one finished run: the evidence block
// that was prompted, the raw final output as a single-cell CSV
// record, and the validation verdict as JSON. Artifacts are written
// for exhausted runs too; a rejected output is still data.
func WriteRunArtifacts(dir string, smells []Smell, opts PromptOptions, outcome *Outcome) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create experiment dir: %w", err)
	}

	prompt := SmellsBlock(smells, opts)
	if err := os.WriteFile(filepath.Join(dir, PromptFileName), []byte(prompt), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", PromptFileName, err)
	}

	f, err := os.Create(filepath.Join(dir, OutputFileName))
	if err != nil {
		return fmt.Errorf("create %s: %w", OutputFileName, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{outcome.Text}); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", OutputFileName, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", OutputFileName, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", OutputFileName, err)
	}

	rec := runRecord{
		RunID:        uuid.NewString(),
		Phase:        outcome.Phase.String(),
		Accepted:     outcome.Accepted(),
		AttemptsUsed: outcome.AttemptsUsed,
		Violations:   outcome.Validation.Violations,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal validation record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ValidationFileName), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", ValidationFileName, err)
	}
	return nil
}

// ReadRawOutput loads the raw model output back from an experiment
// directory, undoing the single-cell CSV encoding.
func ReadRawOutput(dir string) (string, error) {
	f, err := os.Open(filepath.Join(dir, OutputFileName))
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rec, err := r.Read()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", OutputFileName, err)
	}
	if len(rec) == 0 {
		return "", nil
	}
	return rec[0], nil
}
