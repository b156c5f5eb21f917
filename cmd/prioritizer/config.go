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
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the file-backed configuration. CLI flags override the
// per-run knobs; the file carries the environment-shaped ones.
type Config struct {
	Logging struct {
		Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
		Dir   string `yaml:"dir"`
		JSON  bool   `yaml:"json"`
	} `yaml:"logging"`

	Telemetry struct {
		TraceExporter  string `yaml:"trace_exporter" validate:"omitempty,oneof=stdout none"`
		MetricExporter string `yaml:"metric_exporter" validate:"omitempty,oneof=stdout none"`
	} `yaml:"telemetry"`

	// ProjectsDir holds the analyzed project checkouts, one directory
	// per project name.
	ProjectsDir string `yaml:"projects_dir"`

	// ReportPath is the smell detector's CSV report.
	ReportPath string `yaml:"report_path"`

	// ExperimentsDir is where run artifacts and evaluation reports go.
	ExperimentsDir string `yaml:"experiments_dir"`

	// WeaviateURL locates the article store. Empty disables retrieval.
	WeaviateURL string `yaml:"weaviate_url"`

	// SmellTypes is the default smell filter applied to the report.
	SmellTypes []string `yaml:"smell_types"`
}

func defaultConfig() Config {
	var cfg Config
	cfg.Telemetry.TraceExporter = "none"
	cfg.Telemetry.MetricExporter = "none"
	cfg.ProjectsDir = "test_projects"
	cfg.ReportPath = "python_smells_detector/code_quality_report.csv"
	cfg.ExperimentsDir = "experiments"
	cfg.WeaviateURL = "localhost:8080"
	cfg.SmellTypes = []string{
		"Long Method",
		"Large Class",
		"Long File",
		"High Cyclomatic Complexity",
		"Feature Envy",
	}
	return cfg
}

// loadConfig reads path when it exists and overlays it on the
// defaults. A missing file is not an error so the CLI runs out of the
// box.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}
