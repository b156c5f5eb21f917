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
	"fmt"
	"sort"
	"strings"
)

// SystemPrompt instructs the model to evaluate each smell in
// isolation before ranking, and pins down the exact output format.
const SystemPrompt = `You are a prioritization agent specialized in software quality and technical debt management.

Your task is to prioritize ALL given code smells found in a software project.
Each smell represents a concrete instance of technical debt and must be evaluated independently.

IMPORTANT CONSTRAINTS (READ CAREFULLY):
- The order in which smells are presented is ARBITRARY and MUST NOT influence prioritization.
- You must evaluate each smell independently BEFORE producing a global ranking.
- You must include ALL smells exactly once in the final ranking.
- Do NOT merge, drop, or group smells, even if they are similar.
- Use ONLY the provided information. Do not invent missing data.

PHASE 1 — INDEPENDENT EVALUATION (INTERNAL ONLY)
For each smell (identified by its unique Id), internally assess its priority using:
- Severity (maintainability/correctness/evolution impact)
- Change & Fault Risk (change-proneness, churn, defect association evidence)
- Propagation Risk (impact on other components)
- Criticality (importance of affected file/module)
- Refactoring Cost vs Benefit (expected payoff vs effort)

Rules:
- Each smell MUST be assessed in isolation.
- Do NOT compare smells during this phase.
- Do NOT assume relative importance from presentation order.
- Do NOT output this phase.

PHASE 2 — GLOBAL PRIORITIZATION
After evaluating all smells independently, produce a single global ranking.

Ranking rules:
- Higher severity and higher propagation risk rank first.
- Break ties using: criticality → change/fault risk → refactoring benefit.
- If still tied, rank broader architectural impact higher.
- Severity is divided into three categories: HIGH, MEDIUM, LOW.
- No smell with severity LOW may appear above a smell with severity MEDIUM or HIGH.

OUTPUT FORMAT (STRICT — MUST FOLLOW EXACTLY)

The output MUST be a pipe-separated table.
The FIRST row MUST be the header shown below.
ALL subsequent rows MUST be data rows.

HEADER (MUST BE INCLUDED AS FIRST ROW — COPY EXACTLY):
Rank|Id|Name of Smell|Name|File|Severity|Reason for Prioritization

Rules:
- Rank must start at 1 and be sequential with no gaps.
- Id must match the smell Id exactly.
- Every smell MUST appear exactly once.
- The Reason must be concise, technical, and grounded in the provided evidence.
- Do NOT include any text, explanation, or formatting outside the table.
- Do NOT omit the header.
- Do NOT wrap the output in quotes, code fences, or markdown.
`

// RepairSystemPrompt replaces SystemPrompt on repair turns. The model
// already produced a ranking; it only needs to fix the format.
const RepairSystemPrompt = `You are a strict output repair assistant.

Return ONLY a corrected pipe-separated table.
- The first row MUST be the exact header.
- Then exactly one row per smell Id.
- No extra text, no code fences, no quotes.
`

// PromptOptions controls which evidence sections are rendered into
// the prompt.
type PromptOptions struct {
	// IncludeCode renders the raw code segment for each smell.
	IncludeCode bool

	// Background holds retrieved literature passages. Empty means the
	// background section is omitted.
	Background string

	// ProjectStructure holds the textual project tree. Empty means the
	// section is omitted.
	ProjectStructure string
}

// FormatSmell renders one smell and its evidence for the prompt. idx
// is the 1-based position in the presentation order, distinct from
// the smell id.
func FormatSmell(s Smell, idx int, opts PromptOptions) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%d], id=%s, smell=%s, category=%s,\n", idx, s.ID, s.Name, s.Category)
	fmt.Fprintf(&b, "file=%s line=%d\n\n", s.FilePath, s.LineNumber)
	fmt.Fprintf(&b, "analyzer_description:\n%s\n\n", s.Description)
	fmt.Fprintf(&b, "git_analysis:\n%s\n\n", s.GitAnalysis)
	fmt.Fprintf(&b, "static_analysis_report:\n%s\n", s.StaticReport)
	if opts.IncludeCode {
		fmt.Fprintf(&b, "\nCode segment:\n%s\n", s.CodeSegment)
	}
	fmt.Fprintf(&b, "\nai_code_segment_summary:\n%s", s.CodeSummary)

	return strings.TrimSpace(b.String())
}

// SmellsBlock joins all formatted smells with a visual divider. The
// block is also what gets persisted as the run's prompt artifact.
func SmellsBlock(smells []Smell, opts PromptOptions) string {
	parts := make([]string, 0, len(smells))
	for i, s := range smells {
		parts = append(parts, FormatSmell(s, i+1, opts))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// BuildUserPrompt builds the first-turn user message. Background
// literature and the project tree are appended as clearly labelled
// sections when the caller supplies them.
func BuildUserPrompt(smells []Smell, opts PromptOptions) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Rank the following smell instances by refactoring priority (highest priority first).

Smell instances:
%s

`, SmellsBlock(smells, opts))

	if opts.Background != "" {
		fmt.Fprintf(&b, `---

## BACKGROUND KNOWLEDGE (GENERAL GUIDANCE ONLY)
The following documents provide general insights about technical debt and code smells.
They must NOT be treated as smell-specific evidence.

%s

`, opts.Background)
	}

	if opts.ProjectStructure != "" {
		fmt.Fprintf(&b, `---

## PROJECT STRUCTURE (CONTEXTUAL AWARENESS)
%s

`, opts.ProjectStructure)
	}

	return b.String()
}

// BuildRepairPrompt builds the user message for a repair turn. It
// restates the required header, the full id set, every violation from
// the last validation pass, and the prior output verbatim.
func BuildRepairPrompt(smells []Smell, validation ValidationResult, prior string) string {
	ids := ExpectedIDs(smells)

	kinds := make([]string, 0, len(validation.Violations))
	for k := range validation.Violations {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	var errs strings.Builder
	for _, k := range kinds {
		fmt.Fprintf(&errs, "- %s: %s\n", k, validation.Violations[k])
	}

	return fmt.Sprintf(`Fix the output to satisfy all constraints.

Required header (must be first row, exact):
%s

Expected smell Ids (each exactly once):
[%s]

Validation errors (fix ALL):
%s
Prior output to repair:
%s
`, ExpectedHeaderLine, strings.Join(ids, ", "), errs.String(), prior)
}
