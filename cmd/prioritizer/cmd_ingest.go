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
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SINTEF-9012/TDPrioritization/services/retrieval"
)

var articleExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

func collectArticleFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && articleExtensions[strings.ToLower(filepath.Ext(p))] {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func ingestArticle(ctx context.Context, store *retrieval.ArticleStore, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return store.IngestArticle(ctx, filepath.Base(path), string(content))
}

func runIngestArticles(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	if config.WeaviateURL == "" {
		slog.Error("No weaviate_url configured, cannot ingest articles")
		os.Exit(1)
	}

	store, err := retrieval.NewArticleStore(config.WeaviateURL, logger.Slog())
	if err != nil {
		slog.Error("Failed to create article store", "url", config.WeaviateURL, "error", err)
		os.Exit(1)
	}
	if !store.Ready(ctx) {
		slog.Error("Weaviate is not ready", "url", config.WeaviateURL)
		os.Exit(1)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("Failed to ensure article schema", "error", err)
		os.Exit(1)
	}

	files, err := collectArticleFiles(args)
	if err != nil {
		slog.Error("Failed to collect article files", "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		slog.Warn("No article files found", "paths", strings.Join(args, ", "))
		return
	}

	total := 0
	for _, file := range files {
		accepted, err := ingestArticle(ctx, store, file)
		if err != nil {
			slog.Error("Failed to ingest article", "file", file, "error", err)
			os.Exit(1)
		}
		total += accepted
	}
	slog.Info("Article ingestion complete", "files", len(files), "chunks", total)
}
