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
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SINTEF-9012/TDPrioritization/services/evaluation"
)

func runEvaluate(_ *cobra.Command, args []string) {
	groundTruth := args[0]
	runDir := args[1]

	report := evaluation.Report{
		ProjectName: evalProject,
		Pipeline:    evalPipeline,
		LLMProvider: evalProvider,
		Model:       evalModel,
		UseGit:      !noGitStats,
		UseStatics:  !noStaticAnalysis,
		UseCode:     codeContextMode == "code",
	}

	path, err := evaluation.WriteReport(groundTruth, runDir, report)
	if err != nil {
		slog.Error("Evaluation failed", "ground_truth", groundTruth, "run_dir", runDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Evaluation report written", "path", path)
}
