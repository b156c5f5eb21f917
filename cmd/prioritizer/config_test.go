// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "test_projects", cfg.ProjectsDir)
	assert.Equal(t, "python_smells_detector/code_quality_report.csv", cfg.ReportPath)
	assert.Equal(t, "experiments", cfg.ExperimentsDir)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.Contains(t, cfg.SmellTypes, "Feature Envy")
}

func TestLoadConfig_FileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
  json: true
telemetry:
  trace_exporter: stdout
projects_dir: /srv/projects
weaviate_url: ""
`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "/srv/projects", cfg.ProjectsDir)
	assert.Empty(t, cfg.WeaviateURL)
	// Untouched keys keep their defaults.
	assert.Equal(t, "experiments", cfg.ExperimentsDir)
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	badLevel := filepath.Join(dir, "bad_level.yaml")
	require.NoError(t, os.WriteFile(badLevel, []byte("logging:\n  level: loud\n"), 0o644))
	_, err := loadConfig(badLevel)
	assert.Error(t, err)

	badExporter := filepath.Join(dir, "bad_exporter.yaml")
	require.NoError(t, os.WriteFile(badExporter, []byte("telemetry:\n  trace_exporter: jaeger\n"), 0o644))
	_, err = loadConfig(badExporter)
	assert.Error(t, err)

	notYaml := filepath.Join(dir, "not_yaml.yaml")
	require.NoError(t, os.WriteFile(notYaml, []byte("{{nope"), 0o644))
	_, err = loadConfig(notYaml)
	assert.Error(t, err)
}
