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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProjectStructure(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "pkg"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "__pycache__"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "setup.py"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "pkg", "main.py"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), nil, 0o644))

	tree, err := BuildProjectStructure(root)
	require.NoError(t, err)

	assert.Contains(t, tree, "├── src/")
	assert.Contains(t, tree, "├── pkg/")
	assert.Contains(t, tree, "├── setup.py")
	assert.Contains(t, tree, "├── main.py")
	assert.NotContains(t, tree, ".git")
	assert.NotContains(t, tree, "__pycache__")
	assert.NotContains(t, tree, "HEAD")
}

func TestBuildProjectStructure_Indentation(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "f.py"), nil, 0o644))

	tree, err := BuildProjectStructure(root)
	require.NoError(t, err)

	assert.Contains(t, tree, "│   ├── a/")
	assert.Contains(t, tree, "│   │   ├── f.py")
}
