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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minedMiner builds a miner over a canned git log, skipping the exec
// path so history parsing can be tested without a repository.
func minedMiner(log string) *GitMiner {
	g := NewGitMiner("testrepo")
	g.parseLog(log)
	g.mined = true
	return g
}

func commitLine(ts time.Time, email, name, subject string) string {
	return strings.Join([]string{
		commitMarker, ts.Format(time.RFC3339), email, name, subject,
	}, "\t")
}

func sampleLog(now time.Time) string {
	recent := now.AddDate(0, 0, -5)
	older := now.AddDate(0, 0, -60)
	ancient := now.AddDate(0, 0, -400)

	return strings.Join([]string{
		commitLine(recent, "ada@example.com", "Ada", "Fix crash in coupling metric"),
		"10\t2\tgitmetrics/metrics/coupling.py",
		"3\t1\tgitmetrics/cli.py",
		"",
		commitLine(older, "grace@example.com", "Grace", "Add co-change analysis"),
		"120\t0\tgitmetrics/metrics/coupling.py",
		"-\t-\tdocs/diagram.png",
		"",
		commitLine(ancient, "ada@example.com", "Ada", "Initial commit"),
		"200\t0\tgitmetrics/metrics/coupling.py",
		"50\t0\tgitmetrics/cli.py",
	}, "\n")
}

func TestParseLog_RepoStats(t *testing.T) {
	g := NewGitMiner("testrepo")
	g.parseLog(sampleLog(g.now))

	assert.Equal(t, 3, g.repo.TotalCommits)
	assert.Equal(t, 1, g.repo.Commits30Days)
	assert.Equal(t, 2, g.repo.Commits90Days)
	assert.Equal(t, 2, g.repo.Contributors, "keyed by email, Ada counted once")
}

func TestParseLog_FileStats(t *testing.T) {
	g := NewGitMiner("testrepo")
	g.parseLog(sampleLog(g.now))

	fs := g.StatsFor("gitmetrics/metrics/coupling.py")
	require.NotNil(t, fs)
	assert.Equal(t, 3, fs.CommitCount)
	assert.Equal(t, 330, fs.AddedLines)
	assert.Equal(t, 3, fs.DeletedLines)
	assert.Equal(t, 333, fs.ChurnTotal)
	assert.Equal(t, 12, fs.Churn30Days, "only the recent commit is inside the window")
	assert.Equal(t, 1, fs.BugFixCommits, "only the 'Fix crash' commit matches")

	cli := g.StatsFor("gitmetrics/cli.py")
	require.NotNil(t, cli)
	assert.Equal(t, 2, cli.CommitCount)

	binary := g.StatsFor("docs/diagram.png")
	require.NotNil(t, binary)
	assert.Equal(t, 0, binary.ChurnTotal, "binary numstat contributes no churn")
	assert.Equal(t, 1, binary.CommitCount)
}

func TestParseNumstat(t *testing.T) {
	tests := []struct {
		line         string
		added, del   int
		path         string
		ok           bool
	}{
		{"10\t2\tsrc/a.py", 10, 2, "src/a.py", true},
		{"-\t-\timg.png", 0, 0, "img.png", true},
		{"", 0, 0, "", false},
		{"not a stat line", 0, 0, "", false},
		{"1\t2", 0, 0, "", false},
	}
	for _, tt := range tests {
		added, del, path, ok := parseNumstat(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		if tt.ok {
			assert.Equal(t, tt.added, added, tt.line)
			assert.Equal(t, tt.del, del, tt.line)
			assert.Equal(t, tt.path, path, tt.line)
		}
	}
}

func TestRenamedPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"src/a.py", "src/a.py"},
		{"old.py => new.py", "new.py"},
		{"src/{old => new}/a.py", "src/new/a.py"},
		{"src/{ => sub}/a.py", "src/sub/a.py"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, renamedPath(tt.in), tt.in)
	}
}

func TestFileReport_Rendering(t *testing.T) {
	g := minedMiner(sampleLog(NewGitMiner("x").now))

	report, err := g.FileReport(context.Background(), "gitmetrics/metrics/coupling.py")
	require.NoError(t, err)

	assert.Contains(t, report, "<git_file_data>")
	assert.Contains(t, report, "File: gitmetrics/metrics/coupling.py")
	assert.Contains(t, report, "- commits_total: 3")
	assert.Contains(t, report, "- churn_total: 333 (added=330, deleted=3)")
	assert.Contains(t, report, "- error_fixing_commits: 1")
	assert.Contains(t, report, "</git_file_data>")
}

func TestFileReport_UnknownFile(t *testing.T) {
	g := minedMiner(sampleLog(NewGitMiner("x").now))

	report, err := g.FileReport(context.Background(), "missing.py")
	require.NoError(t, err)
	assert.Contains(t, report, "No git metrics found for this file.")
}

func TestRepoReport_Rendering(t *testing.T) {
	g := minedMiner(sampleLog(NewGitMiner("x").now))

	report, err := g.RepoReport(context.Background())
	require.NoError(t, err)

	assert.Contains(t, report, "<git_repo_context>")
	assert.Contains(t, report, "repo: testrepo")
	assert.Contains(t, report, "commits_total: 3")
	assert.Contains(t, report, "commits_last_30d: 1")
	assert.Contains(t, report, "commits_last_90d: 2")
	assert.Contains(t, report, "contributors: 2")
}

func TestRepoReport_EmptyHistory(t *testing.T) {
	g := minedMiner("")

	report, err := g.RepoReport(context.Background())
	require.NoError(t, err)
	assert.Contains(t, report, "no commits found")
}

func TestMine_MissingRepo(t *testing.T) {
	g := NewGitMiner(fmt.Sprintf("%s/definitely-not-a-repo", t.TempDir()))

	err := g.Mine(context.Background())
	require.Error(t, err)
}
