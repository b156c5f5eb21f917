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
	"hash/fnv"
	"strings"

	"github.com/SINTEF-9012/TDPrioritization/services/llm"
	"github.com/SINTEF-9012/TDPrioritization/services/prioritizer"
)

// SummarySystemPrompt asks for a short prose assessment of how a
// snippet relates to its smell. No refactoring advice, no markup.
const SummarySystemPrompt = `You are a senior Python engineer specialized in code smells and technical debt.

Task:
- Given a smell type, smell description, and a code snippet, write a concise summary (2-4 sentences)
  describing how the snippet relates to that smell and the likely impact (maintainability, testability, defect risk).
- Do not propose refactorings.
- Do not output JSON, markdown, or bullet points.
Return ONLY the summary text.
`

// Summarizer writes AI summaries of code segments. Summaries are
// cached by smell category, file, line, and snippet content, so
// identical segments cost one generation.
type Summarizer struct {
	client llm.LLMClient
	cache  map[string]string
}

// NewSummarizer creates a summarizer over the given client.
func NewSummarizer(client llm.LLMClient) *Summarizer {
	return &Summarizer{
		client: client,
		cache:  map[string]string{},
	}
}

func summaryCacheKey(s *prioritizer.Smell) string {
	h := fnv.New64a()
	h.Write([]byte(s.CodeSegment))
	return fmt.Sprintf("%s|%s|%d|%x", s.Category, s.FilePath, s.LineNumber, h.Sum64())
}

// Summarize fills in CodeSummary for every smell that has a code
// segment. Smells without a segment keep an empty summary. A
// transport failure aborts the pass; partial summaries written so far
// are kept.
func (s *Summarizer) Summarize(ctx context.Context, smells []prioritizer.Smell) ([]prioritizer.Smell, error) {
	for i := range smells {
		segment := strings.TrimSpace(smells[i].CodeSegment)
		if segment == "" {
			continue
		}

		key := summaryCacheKey(&smells[i])
		if cached, ok := s.cache[key]; ok {
			smells[i].CodeSummary = cached
			continue
		}

		userPrompt := fmt.Sprintf(`Smell type: %s
Smell category: %s

Analyzer description:
%s

Code snippet:
%s
`, smells[i].Name, smells[i].Category, smells[i].Description, segment)

		out, err := s.client.Chat(ctx, []llm.Message{
			{Role: llm.RoleSystem, Content: SummarySystemPrompt},
			{Role: llm.RoleUser, Content: userPrompt},
		}, llm.GenerationParams{})
		if err != nil {
			return smells, fmt.Errorf("summarize segment for smell %s: %w", smells[i].ID, err)
		}

		summary := strings.TrimSpace(out)
		smells[i].CodeSummary = summary
		s.cache[key] = summary
	}
	return smells, nil
}
