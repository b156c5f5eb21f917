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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectArticleFiles_DirectoryFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"smells.md", "debt.TXT", "notes.markdown", "data.csv", "image.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "deep.md"), []byte("x"), 0o644))

	files, err := collectArticleFiles([]string{dir})
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.ElementsMatch(t, []string{"smells.md", "debt.TXT", "notes.markdown", "deep.md"}, names)
}

func TestCollectArticleFiles_ExplicitFileBypassesFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "survey.pdf.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	files, err := collectArticleFiles([]string{path})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestCollectArticleFiles_MissingPath(t *testing.T) {
	_, err := collectArticleFiles([]string{filepath.Join(t.TempDir(), "absent")})
	assert.Error(t, err)
}
