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
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/SINTEF-9012/TDPrioritization/services/evidence"
	"github.com/SINTEF-9012/TDPrioritization/services/llm"
	"github.com/SINTEF-9012/TDPrioritization/services/prioritizer"
	"github.com/SINTEF-9012/TDPrioritization/services/retrieval"
)

func newLLMClient() (llm.LLMClient, string, error) {
	if llmProvider == "azure" {
		client, err := llm.NewAzureClient()
		if err != nil {
			return nil, "", err
		}
		return client, "azure", nil
	}
	client, err := llm.NewOllamaClient(ollamaModel)
	if err != nil {
		return nil, "", err
	}
	return client, client.Model(), nil
}

// backgroundPassages queries the article store for literature about
// the ranked smell types. Any failure downgrades to a warning; the run
// proceeds without the background section.
func backgroundPassages(ctx context.Context, types []string) string {
	if config.WeaviateURL == "" {
		return ""
	}

	store, err := retrieval.NewArticleStore(config.WeaviateURL, logger.Slog())
	if err != nil {
		slog.Warn("article store unavailable, skipping background retrieval", "error", err)
		return ""
	}
	if !store.Ready(ctx) {
		slog.Warn("weaviate not ready, skipping background retrieval", "url", config.WeaviateURL)
		return ""
	}

	concepts := append([]string{"technical debt", "code smells", "refactoring prioritization"}, types...)
	passages, err := store.Search(ctx, concepts, retrieval.DefaultSearchLimit)
	if err != nil {
		slog.Warn("article search failed, skipping background retrieval", "error", err)
		return ""
	}
	return retrieval.BackgroundBlock(passages)
}

func runPrioritize(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	project := args[0]
	repoPath := filepath.Join(config.ProjectsDir, project)

	types := smellTypes
	if len(types) == 0 {
		types = config.SmellTypes
	}

	client, modelName, err := newLLMClient()
	if err != nil {
		slog.Error("Failed to create LLM client", "provider", llmProvider, "error", err)
		os.Exit(1)
	}

	smells, err := evidence.LoadSmells(config.ReportPath, types)
	if err != nil {
		slog.Error("Failed to load smell report", "path", config.ReportPath, "error", err)
		os.Exit(1)
	}
	if len(smells) == 0 {
		slog.Warn("The project does not contain any of the code smells you inquired about",
			"project", project, "smell_types", types)
		return
	}

	useCode := codeContextMode == "code"
	enricher := evidence.NewEnricher(repoPath, client, logger.Slog())
	smells, err = enricher.Enrich(ctx, smells, evidence.EnrichOptions{
		UseGit:       !noGitStats,
		UseStatics:   !noStaticAnalysis,
		UseCode:      useCode,
		UseSummaries: !useCode,
	})
	if err != nil {
		slog.Error("Failed to enrich smells", "project", project, "error", err)
		os.Exit(1)
	}

	promptOpts := prioritizer.PromptOptions{IncludeCode: useCode}
	if !noArticles {
		promptOpts.Background = backgroundPassages(ctx, types)
	}
	if addProjectStructure {
		structure, err := evidence.BuildProjectStructure(repoPath)
		if err != nil {
			slog.Warn("Failed to build project structure, omitting it", "error", err)
		} else {
			promptOpts.ProjectStructure = structure
		}
	}

	pipeline := prioritizer.NewPipeline(client, prioritizer.Config{
		AttemptsAllowed: maxRepairAttempts,
		Prompt:          promptOpts,
		Logger:          logger.Slog(),
	})

	slog.Info("Running model", "provider", llmProvider, "model", modelName)
	outcome, err := pipeline.Run(ctx, smells)
	if err != nil {
		slog.Error("Prioritization run failed", "error", err)
		os.Exit(1)
	}

	runDir := filepath.Join(config.ExperimentsDir, prioritizer.ExperimentDir(outputDir, modelName))
	if err := prioritizer.WriteRunArtifacts(runDir, smells, promptOpts, outcome); err != nil {
		slog.Error("Failed to persist run artifacts", "dir", runDir, "error", err)
		os.Exit(1)
	}

	if outcome.Accepted() {
		slog.Info("Ranking accepted", "dir", runDir, "attempts_used", outcome.AttemptsUsed)
	} else {
		slog.Warn("Repair budget exhausted, final output persisted with violations",
			"dir", runDir,
			"violations", len(outcome.Validation.Violations))
	}
}
