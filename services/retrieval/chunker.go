// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval stores curated refactoring literature in Weaviate and
// surfaces the passages most relevant to a smell category at prompt-build
// time. The store is strictly optional: when Weaviate is unreachable the
// rest of the pipeline runs without background material.
package retrieval

import (
	"fmt"
	"path/filepath"

	"github.com/tmc/langchaingo/textsplitter"
)

var (
	chunkSize    = 1000
	chunkOverlap = chunkSize / 10

	defaultSeparators = []string{"\n\n", "\n", " ", ""}

	markdownSeparators = []string{
		"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ",
		"\n\n", "\n", " ", "",
	}
)

// Chunk is a single splitter-produced slice of an article, tagged with its
// position so ingestion can derive a stable per-chunk identity.
type Chunk struct {
	Text   string
	Source string
	Part   int
}

func splitterForFile(filename string) textsplitter.TextSplitter {
	switch filepath.Ext(filename) {
	case ".md", ".markdown":
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(markdownSeparators),
		)
	default:
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(defaultSeparators),
		)
	}
}

// ChunkArticle splits article content into overlapping chunks sized for
// embedding. Markdown sources split along heading boundaries first so a
// chunk rarely straddles two sections.
func ChunkArticle(source, content string) ([]Chunk, error) {
	splitter := splitterForFile(source)

	parts, err := splitter.SplitText(content)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", source, err)
	}

	chunks := make([]Chunk, 0, len(parts))
	for i, text := range parts {
		chunks = append(chunks, Chunk{
			Text:   text,
			Source: source,
			Part:   i + 1,
		})
	}
	return chunks, nil
}
