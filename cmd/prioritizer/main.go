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
	"context"
	"log"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/SINTEF-9012/TDPrioritization/pkg/logging"
)

var (
	config            Config
	logger            *logging.Logger
	telemetryShutdown func(context.Context) error
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}

	if telemetryShutdown != nil {
		if err := telemetryShutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}
	if logger != nil {
		_ = logger.Close()
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		var err error
		config, err = loadConfig("config.yaml")
		if err != nil {
			log.Fatalf("Error loading config.yaml: %v", err)
		}

		level := logging.LevelInfo
		if config.Logging.Level != "" {
			level, err = logging.ParseLevel(config.Logging.Level)
			if err != nil {
				log.Fatalf("Error in logging config: %v", err)
			}
		}
		logger = logging.New(logging.Config{
			Level:   level,
			LogDir:  config.Logging.Dir,
			Service: "tdp",
			JSON:    config.Logging.JSON,
		})
		logger.SetAsDefault()

		telemetryShutdown, err = initTelemetry(cmd.Context(), config)
		if err != nil {
			log.Fatalf("Error initializing telemetry: %v", err)
		}
	}
}
