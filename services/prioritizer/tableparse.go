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
	"regexp"
	"strconv"
	"strings"
)

// ExpectedHeader is the only header the contract accepts, compared
// field by field after normalization.
var ExpectedHeader = []string{
	"Rank", "Id", "Name of Smell", "Name", "File", "Severity",
	"Reason for Prioritization",
}

// ExpectedHeaderLine is ExpectedHeader joined the way the model is
// told to emit it.
const ExpectedHeaderLine = "Rank|Id|Name of Smell|Name|File|Severity|Reason for Prioritization"

// wrapperTokens are decorations models habitually put around the
// table. They are peeled from both ends, repeatedly, in this order.
var wrapperTokens = []string{"```csv", "```text", "```", `"`, "'"}

// separatorLine matches markdown table separators like |---|:---:|.
var separatorLine = regexp.MustCompile(`^[-|:\s]+$`)

// typographic maps smart quotes and long dashes to their ASCII
// equivalents so quoting and severity checks see plain characters.
var typographic = strings.NewReplacer(
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
	"–", "-", "—", "-",
)

// Normalize strips code fences, stray quote characters, and other
// non-table decoration from raw model output. It removes blank lines,
// markdown separator lines, and repeated copies of the expected
// header, but deliberately does not skip leading prose: text before
// the header is a contract violation, not noise.
func Normalize(raw string) string {
	s := strings.TrimSpace(typographic.Replace(raw))

	for changed := true; changed; {
		changed = false
		for _, tok := range wrapperTokens {
			if strings.HasPrefix(s, tok) {
				s = strings.TrimSpace(s[len(tok):])
				changed = true
			}
			if strings.HasSuffix(s, tok) {
				s = strings.TrimSpace(s[:len(s)-len(tok)])
				changed = true
			}
		}
	}

	s = trimNonAlnum(s)
	if s == "" {
		return ""
	}

	var kept []string
	seenHeader := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if separatorLine.MatchString(line) {
			continue
		}
		if isExpectedHeader(SplitRow(line)) {
			if seenHeader {
				continue
			}
			seenHeader = true
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// trimNonAlnum drops leading and trailing characters that are neither
// letters nor digits. Inner punctuation is untouched.
func trimNonAlnum(s string) string {
	isAlnum := func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9')
	}
	start := strings.IndexFunc(s, isAlnum)
	if start < 0 {
		return ""
	}
	end := strings.LastIndexFunc(s, isAlnum)
	return s[start : end+1]
}

// SplitRow splits one table line into fields on the pipe character,
// trimming surrounding whitespace and a single layer of quoting from
// each field.
func SplitRow(line string) []string {
	parts := strings.Split(line, "|")
	out := make([]string, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) >= 2 {
			if (p[0] == '"' && p[len(p)-1] == '"') ||
				(p[0] == '\'' && p[len(p)-1] == '\'') {
				p = strings.TrimSpace(p[1 : len(p)-1])
			}
		}
		out[i] = p
	}
	return out
}

func isExpectedHeader(fields []string) bool {
	if len(fields) != len(ExpectedHeader) {
		return false
	}
	for i, f := range fields {
		if f != ExpectedHeader[i] {
			return false
		}
	}
	return true
}

// ParseTable normalizes raw output and splits it into a header and
// zero or more data rows. An all-decoration input yields a nil header
// and no rows; judging the result is the validator's job.
func ParseTable(raw string) (header []string, rows [][]string) {
	normalized := Normalize(raw)
	if normalized == "" {
		return nil, nil
	}
	lines := strings.Split(normalized, "\n")
	header = SplitRow(lines[0])
	for _, line := range lines[1:] {
		rows = append(rows, SplitRow(line))
	}
	return header, rows
}

// RankedRows converts raw parsed rows into typed rows. Rows with the
// wrong field count are skipped; callers should only rely on the
// result after validation has passed.
func RankedRows(rows [][]string) []RankedRow {
	out := make([]RankedRow, 0, len(rows))
	for _, r := range rows {
		if len(r) != len(ExpectedHeader) {
			continue
		}
		rank, err := strconv.Atoi(r[0])
		if err != nil {
			rank = -1
		}
		out = append(out, RankedRow{
			Rank:       rank,
			ID:         r[1],
			SmellName:  r[2],
			EntityName: r[3],
			File:       r[4],
			Severity:   r[5],
			Reason:     r[6],
		})
	}
	return out
}
