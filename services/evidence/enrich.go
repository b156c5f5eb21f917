// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/SINTEF-9012/TDPrioritization/services/llm"
	"github.com/SINTEF-9012/TDPrioritization/services/prioritizer"
)

// EnrichOptions selects which evidence gets attached to each smell.
type EnrichOptions struct {
	UseGit       bool
	UseStatics   bool
	UseCode      bool
	UseSummaries bool
}

// Enricher attaches git history, static metrics, code segments, and
// AI summaries to a smell set. Caches are per-enricher: all smells in
// one file share one git report, one static report, and one segment
// per distinct line.
type Enricher struct {
	repoPath   string
	miner      *GitMiner
	statics    *StaticAnalyzer
	summarizer *Summarizer
	log        *slog.Logger

	segmentCache map[string]string
}

// NewEnricher creates an enricher rooted at the analyzed repository.
// client may be nil when summaries are disabled.
func NewEnricher(repoPath string, client llm.LLMClient, log *slog.Logger) *Enricher {
	if log == nil {
		log = slog.Default()
	}
	e := &Enricher{
		repoPath:     repoPath,
		miner:        NewGitMiner(repoPath),
		statics:      NewStaticAnalyzer(),
		log:          log,
		segmentCache: map[string]string{},
	}
	if client != nil {
		e.summarizer = NewSummarizer(client)
	}
	return e
}

// Enrich fills in the evidence fields selected by opts. Evidence
// failures for a single file degrade to a log entry and an empty
// field; only git mining and summarization failures abort, since they
// poison every smell.
func (e *Enricher) Enrich(ctx context.Context, smells []prioritizer.Smell, opts EnrichOptions) ([]prioritizer.Smell, error) {
	if opts.UseGit {
		if err := e.miner.Mine(ctx); err != nil {
			return nil, err
		}
	}

	for i := range smells {
		path := NormalizePath(smells[i].FilePath)

		if opts.UseGit {
			report, err := e.miner.FileReport(ctx, path)
			if err != nil {
				return nil, err
			}
			smells[i].GitAnalysis = report
		}

		if opts.UseStatics {
			report, err := e.statics.Report(ctx, filepath.Join(e.repoPath, path))
			if err != nil {
				e.log.Warn("static analysis failed", "file", path, "error", err)
				report = fmt.Sprintf("No static analysis available for %s.", path)
			}
			smells[i].StaticReport = report
		}

		if opts.UseCode || opts.UseSummaries {
			key := fmt.Sprintf("%s:%d", path, smells[i].LineNumber)
			segment, ok := e.segmentCache[key]
			if !ok {
				var err error
				segment, err = ExtractSegment(ctx, filepath.Join(e.repoPath, path), smells[i].LineNumber)
				if err != nil {
					e.log.Warn("segment extraction failed", "file", path, "line", smells[i].LineNumber, "error", err)
					segment = ""
				}
				e.segmentCache[key] = segment
			}
			smells[i].CodeSegment = segment
		}
	}

	if opts.UseSummaries {
		if e.summarizer == nil {
			return nil, fmt.Errorf("summaries requested but no LLM client configured")
		}
		var err error
		smells, err = e.summarizer.Summarize(ctx, smells)
		if err != nil {
			return nil, err
		}
	}

	// Segments prompted only through summaries are not shown raw.
	if !opts.UseCode {
		for i := range smells {
			smells[i].CodeSegment = ""
		}
	}

	return smells, nil
}
