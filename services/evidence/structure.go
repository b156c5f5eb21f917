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
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// excludedDirs are transient or generated directories that carry no
// signal about project structure.
var excludedDirs = map[string]bool{
	".git":        true,
	"__pycache__": true,
	".venv":       true,
	"venv":        true,
	".idea":       true,
	".mypy_cache": true,
}

// BuildProjectStructure renders a textual tree of the project under
// rootDir: one line per directory, its files nested one level below.
func BuildProjectStructure(rootDir string) (string, error) {
	var lines []string

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && excludedDirs[d.Name()] {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			depth := 0
			name := filepath.Base(rootDir)
			if rel != "." {
				depth = strings.Count(rel, string(filepath.Separator)) + 1
				name = d.Name()
			}
			lines = append(lines, fmt.Sprintf("%s├── %s/", strings.Repeat("│   ", depth), name))
			return nil
		}

		parentDepth := 0
		if dir := filepath.Dir(rel); dir != "." {
			parentDepth = strings.Count(dir, string(filepath.Separator)) + 1
		}
		indent := strings.Repeat("│   ", parentDepth)
		lines = append(lines, fmt.Sprintf("%s│   ├── %s", indent, d.Name()))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk %s: %w", rootDir, err)
	}
	return strings.Join(lines, "\n"), nil
}
