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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	llmProvider         string
	ollamaModel         string
	outputDir           string
	noGitStats          bool
	noStaticAnalysis    bool
	noArticles          bool
	addProjectStructure bool
	codeContextMode     string
	maxRepairAttempts   int
	smellTypes          []string
	evalPipeline        string
	evalProject         string
	evalProvider        string
	evalModel           string

	rootCmd = &cobra.Command{
		Use:   "tdp",
		Short: "A cli to analyze and prioritize code smells for a project",
		Long: `tdp collects technical-debt evidence (git history, static
metrics, code segments), asks an LLM for a validated priority ranking,
and evaluates rankings against a hand-labeled ground truth.`,
	}

	prioritizeCmd = &cobra.Command{
		Use:   "prioritize [project]",
		Short: "Run the evidence-gathering and ranking pipeline for a project",
		Args:  cobra.ExactArgs(1),
		Run:   runPrioritize, // Defined in cmd_prioritize.go
	}

	evaluateCmd = &cobra.Command{
		Use:   "evaluate [ground-truth.csv] [run-dir]",
		Short: "Score a persisted run against a ground-truth ranking",
		Args:  cobra.ExactArgs(2),
		Run:   runEvaluate, // Defined in cmd_evaluate.go
	}

	ingestArticlesCmd = &cobra.Command{
		Use:   "ingest-articles [file or directory path...]",
		Short: "Chunk and store background literature in the article store",
		Args:  cobra.MinimumNArgs(1),
		Run:   runIngestArticles, // Defined in cmd_ingest.go
	}
)

func init() {
	prioritizeCmd.Flags().StringVar(&llmProvider, "llm-provider", "ollama",
		"Determines if the pipeline uses a personal azure deployment or ollama.")
	prioritizeCmd.Flags().StringVar(&ollamaModel, "ollama-model", "gpt-oss:120b-cloud",
		"Ollama model to use (only when --llm-provider=ollama).")
	prioritizeCmd.Flags().StringVar(&outputDir, "outdir", "baseline",
		"Directory where the output files should be stored")
	prioritizeCmd.Flags().BoolVar(&noGitStats, "no-git-stats", false,
		"Disable Git statistics.")
	prioritizeCmd.Flags().BoolVar(&noStaticAnalysis, "no-static-analysis", false,
		"Disable static analysis.")
	prioritizeCmd.Flags().BoolVar(&noArticles, "no-articles", false,
		"Disable background literature retrieval.")
	prioritizeCmd.Flags().BoolVar(&addProjectStructure, "add-project-structure", false,
		"Add the project folder structure to the prompt.")
	prioritizeCmd.Flags().StringVar(&codeContextMode, "code-context", "analysis",
		"Use AI summaries of code segments ('analysis') or embed the raw code snippets directly ('code').")
	prioritizeCmd.Flags().IntVar(&maxRepairAttempts, "max-repair-attempts", 0,
		"Repair generations allowed after a rejected ranking (0 uses the default).")
	prioritizeCmd.Flags().StringSliceVar(&smellTypes, "smell-types", nil,
		"Smell type names to rank (defaults to the configured set).")

	evaluateCmd.Flags().StringVar(&evalPipeline, "pipeline", "agent",
		"Pipeline label recorded in the evaluation report.")
	evaluateCmd.Flags().StringVar(&evalProject, "project", "",
		"Project name recorded in the evaluation report.")
	evaluateCmd.Flags().StringVar(&evalProvider, "llm-provider", "ollama",
		"Provider label recorded in the evaluation report.")
	evaluateCmd.Flags().StringVar(&evalModel, "model", "",
		"Model label recorded in the evaluation report.")

	rootCmd.AddCommand(prioritizeCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(ingestArticlesCmd)
}
