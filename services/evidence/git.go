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
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("tdp.evidence")

// bugKeywords flag a commit message as defect-related. Substring
// match on the lowercased message, same heuristic the literature
// uses.
var bugKeywords = []string{"fix", "bug", "issue", "error"}

// commitMarker starts each commit header line in the mined log.
const commitMarker = "@commit"

// FileStats are lifetime change metrics for one file.
type FileStats struct {
	CommitCount   int
	ChurnTotal    int
	Churn30Days   int
	AddedLines    int
	DeletedLines  int
	BugFixCommits int
	FirstModified time.Time
	LastModified  time.Time
}

// RepoStats are repository-level activity metrics.
type RepoStats struct {
	TotalCommits  int
	Commits30Days int
	Commits90Days int
	Contributors  int
	OldestCommit  time.Time
	NewestCommit  time.Time
}

// GitMiner mines change history for a repository in a single pass
// over git log and serves per-file and repo-level reports from the
// mined data. A miner is bound to one repository and caches for the
// lifetime of a run.
type GitMiner struct {
	repoPath string
	now      time.Time

	mined bool
	files map[string]*FileStats
	repo  RepoStats
}

// NewGitMiner creates a miner for the repository at repoPath.
func NewGitMiner(repoPath string) *GitMiner {
	return &GitMiner{
		repoPath: repoPath,
		now:      time.Now().UTC(),
		files:    map[string]*FileStats{},
	}
}

// Mine runs git log once and parses it into per-file and repo-level
// stats. Safe to call repeatedly; only the first call hits git.
func (g *GitMiner) Mine(ctx context.Context) error {
	if g.mined {
		return nil
	}

	ctx, span := tracer.Start(ctx, "GitMiner.Mine",
		trace.WithAttributes(attribute.String("git.repo_path", g.repoPath)))
	defer span.End()

	cmd := exec.CommandContext(ctx, "git", "-C", g.repoPath,
		"log", "--all", "--no-merges", "--numstat",
		"--pretty=format:"+commitMarker+"%x09%cI%x09%ae%x09%an%x09%s")
	out, err := cmd.Output()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "git log failed")
		return fmt.Errorf("git log in %s: %w", g.repoPath, err)
	}

	g.parseLog(string(out))
	g.mined = true
	span.SetAttributes(attribute.Int("git.total_commits", g.repo.TotalCommits))
	return nil
}

// parseLog consumes the mined log: one commit header line followed by
// that commit's numstat lines.
func (g *GitMiner) parseLog(out string) {
	cutoff30 := g.now.AddDate(0, 0, -30)
	cutoff90 := g.now.AddDate(0, 0, -90)
	contributors := map[string]bool{}

	var commitTime time.Time
	var isBugFix bool
	haveCommit := false

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, commitMarker+"\t") {
			parts := strings.SplitN(line, "\t", 5)
			if len(parts) < 5 {
				continue
			}
			ts, err := time.Parse(time.RFC3339, parts[1])
			if err != nil {
				haveCommit = false
				continue
			}
			commitTime = ts.UTC()
			haveCommit = true

			msg := strings.ToLower(parts[4])
			isBugFix = false
			for _, kw := range bugKeywords {
				if strings.Contains(msg, kw) {
					isBugFix = true
					break
				}
			}

			key := strings.ToLower(strings.TrimSpace(parts[2]))
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(parts[3]))
			}
			if key != "" {
				contributors[key] = true
			}

			g.repo.TotalCommits++
			if commitTime.After(cutoff30) {
				g.repo.Commits30Days++
			}
			if commitTime.After(cutoff90) {
				g.repo.Commits90Days++
			}
			if g.repo.NewestCommit.IsZero() || commitTime.After(g.repo.NewestCommit) {
				g.repo.NewestCommit = commitTime
			}
			if g.repo.OldestCommit.IsZero() || commitTime.Before(g.repo.OldestCommit) {
				g.repo.OldestCommit = commitTime
			}
			continue
		}

		if !haveCommit {
			continue
		}
		added, deleted, path, ok := parseNumstat(line)
		if !ok {
			continue
		}

		fs := g.files[path]
		if fs == nil {
			fs = &FileStats{}
			g.files[path] = fs
		}
		fs.CommitCount++
		fs.AddedLines += added
		fs.DeletedLines += deleted
		fs.ChurnTotal += added + deleted
		if commitTime.After(cutoff30) {
			fs.Churn30Days += added + deleted
		}
		if isBugFix {
			fs.BugFixCommits++
		}
		if fs.FirstModified.IsZero() || commitTime.Before(fs.FirstModified) {
			fs.FirstModified = commitTime
		}
		if commitTime.After(fs.LastModified) {
			fs.LastModified = commitTime
		}
	}

	g.repo.Contributors = len(contributors)
}

// parseNumstat parses one "added<TAB>deleted<TAB>path" line. Binary
// files report "-" for both counts and contribute zero churn. Rename
// lines keep the new path.
func parseNumstat(line string) (added, deleted int, path string, ok bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) != 3 || parts[2] == "" {
		return 0, 0, "", false
	}
	if parts[0] != "-" {
		if v, err := strconv.Atoi(parts[0]); err == nil {
			added = v
		} else {
			return 0, 0, "", false
		}
	}
	if parts[1] != "-" {
		if v, err := strconv.Atoi(parts[1]); err == nil {
			deleted = v
		}
	}
	return added, deleted, renamedPath(parts[2]), true
}

// renamedPath resolves numstat rename notation to the new path:
// "a/{old => new}/f.py" and "old.py => new.py" both occur.
func renamedPath(p string) string {
	if i := strings.Index(p, "{"); i >= 0 {
		if j := strings.Index(p, " => "); j > i {
			if k := strings.Index(p[j:], "}"); k >= 0 {
				return filepath.Clean(p[:i] + p[j+4:j+k] + p[j+k+1:])
			}
		}
	}
	if j := strings.Index(p, " => "); j >= 0 {
		return p[j+4:]
	}
	return p
}

// StatsFor returns the mined stats for a repo-relative path, or nil
// when the file has no history.
func (g *GitMiner) StatsFor(path string) *FileStats {
	return g.files[path]
}

// FileReport renders the per-file git context block for the prompt.
func (g *GitMiner) FileReport(ctx context.Context, path string) (string, error) {
	if err := g.Mine(ctx); err != nil {
		return "", err
	}

	fs := g.files[path]
	if fs == nil {
		return fmt.Sprintf("<git_file_data>\nFile: %s\nNo git metrics found for this file.\n</git_file_data>\n", path), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<git_file_data>\n")
	fmt.Fprintf(&b, "File: %s\n", path)
	fmt.Fprintf(&b, "Units:\n- churn = lines_added + lines_deleted\n\n")
	fmt.Fprintf(&b, "Metrics:\n")
	fmt.Fprintf(&b, "- commits_total: %d\n", fs.CommitCount)
	fmt.Fprintf(&b, "- churn_total: %d (added=%d, deleted=%d)\n", fs.ChurnTotal, fs.AddedLines, fs.DeletedLines)
	fmt.Fprintf(&b, "- churn_last_30_days: %d\n", fs.Churn30Days)
	fmt.Fprintf(&b, "- error_fixing_commits: %d  # heuristic from commit messages\n", fs.BugFixCommits)
	fmt.Fprintf(&b, "- first_modified: %s\n", fs.FirstModified.Format("2006-01-02"))
	fmt.Fprintf(&b, "- last_modified: %s\n", fs.LastModified.Format("2006-01-02"))
	fmt.Fprintf(&b, "- days_since_last_change: %d\n", int(g.now.Sub(fs.LastModified).Hours()/24))
	fmt.Fprintf(&b, "</git_file_data>\n")
	return b.String(), nil
}

// RepoReport renders the repository-level git context block.
func (g *GitMiner) RepoReport(ctx context.Context) (string, error) {
	if err := g.Mine(ctx); err != nil {
		return "", err
	}

	name := filepath.Base(strings.TrimRight(g.repoPath, "/"))
	if g.repo.TotalCommits == 0 {
		return fmt.Sprintf("<git_repo_context>\nrepo: %s\nstatus: no commits found\n</git_repo_context>\n", name), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<git_repo_context>\n")
	fmt.Fprintf(&b, "repo: %s\n", name)
	fmt.Fprintf(&b, "age_days: %d\n", int(g.now.Sub(g.repo.OldestCommit).Hours()/24))
	fmt.Fprintf(&b, "days_since_last_commit: %d\n", int(g.now.Sub(g.repo.NewestCommit).Hours()/24))
	fmt.Fprintf(&b, "commits_total: %d\n", g.repo.TotalCommits)
	fmt.Fprintf(&b, "commits_last_30d: %d\n", g.repo.Commits30Days)
	fmt.Fprintf(&b, "commits_last_90d: %d\n", g.repo.Commits90Days)
	fmt.Fprintf(&b, "contributors: %d\n", g.repo.Contributors)
	fmt.Fprintf(&b, "</git_repo_context>\n")
	return b.String(), nil
}
