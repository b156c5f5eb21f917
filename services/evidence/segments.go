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
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ExtractSegment returns the source of the class or function that
// starts at startLine (1-based). A non-positive line means the smell
// is file-scoped and the entire file is returned. An empty string
// means no entity starts at that line.
func ExtractSegment(ctx context.Context, path string, startLine int) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return ExtractSegmentFromSource(ctx, content, startLine)
}

// ExtractSegmentFromSource is ExtractSegment over in-memory source.
func ExtractSegmentFromSource(ctx context.Context, content []byte, startLine int) (string, error) {
	if startLine <= 0 {
		return string(content), nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return "", fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	node := findEntityAtLine(tree.RootNode(), startLine)
	if node == nil {
		return "", nil
	}

	lines := strings.SplitAfter(string(content), "\n")
	start := int(node.StartPoint().Row)
	end := int(node.EndPoint().Row)
	if end >= len(lines) {
		end = len(lines) - 1
	}
	return strings.Join(lines[start:end+1], ""), nil
}

// findEntityAtLine locates the function or class definition whose
// first line is startLine. Decorated definitions match on the line of
// the def/class itself, the way analyzers report them.
func findEntityAtLine(node *sitter.Node, startLine int) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "function_definition", "class_definition":
			if int(child.StartPoint().Row)+1 == startLine {
				return child
			}
		}
		if found := findEntityAtLine(child, startLine); found != nil {
			return found
		}
	}
	return nil
}
