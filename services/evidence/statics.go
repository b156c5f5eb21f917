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
	"math"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// highComplexity marks a function as a refactor candidate.
const highComplexity = 10

// FunctionMetrics are per-function complexity results.
type FunctionMetrics struct {
	Name       string
	Line       int
	Complexity int
}

// FileMetrics are file-level static metrics for one Python source
// file.
type FileMetrics struct {
	File                 string
	LOC                  int
	NumClasses           int
	NumFunctions         int
	Imports              int
	AvgComplexity        float64
	MaxComplexity        int
	ComplexityStd        float64
	MaintainabilityIndex float64
	Functions            []FunctionMetrics
	SyntaxErrors         bool
}

// TechnicalRiskScore folds the metrics into a single comparable
// number: complexity, maintainability deficit, and refactor
// candidates all push it up.
func (m *FileMetrics) TechnicalRiskScore() float64 {
	refactor := 0
	for _, f := range m.Functions {
		if f.Complexity >= highComplexity {
			refactor++
		}
	}
	return m.AvgComplexity/10 +
		(100-m.MaintainabilityIndex)/20 +
		float64(refactor)*0.5
}

// StaticAnalyzer computes file-level metrics for Python sources via
// tree-sitter. Results are cached per path for the lifetime of the
// analyzer; metrics are deterministic for a given file.
type StaticAnalyzer struct {
	cache map[string]*FileMetrics
}

// NewStaticAnalyzer creates an analyzer with an empty cache.
func NewStaticAnalyzer() *StaticAnalyzer {
	return &StaticAnalyzer{cache: map[string]*FileMetrics{}}
}

// Analyze parses the file and computes its metrics. Repeated calls
// for the same path return the cached result.
func (a *StaticAnalyzer) Analyze(ctx context.Context, path string) (*FileMetrics, error) {
	if m, ok := a.cache[path]; ok {
		return m, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	m, err := AnalyzeSource(ctx, path, content)
	if err != nil {
		return nil, err
	}
	a.cache[path] = m
	return m, nil
}

// AnalyzeSource computes metrics for in-memory Python source.
func AnalyzeSource(ctx context.Context, path string, content []byte) (*FileMetrics, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	m := &FileMetrics{
		File:         path,
		LOC:          countLines(content),
		SyntaxErrors: root.HasError(),
	}

	collectCounts(root, content, m)

	if len(m.Functions) > 0 {
		sum := 0
		for _, f := range m.Functions {
			sum += f.Complexity
			if f.Complexity > m.MaxComplexity {
				m.MaxComplexity = f.Complexity
			}
		}
		m.AvgComplexity = float64(sum) / float64(len(m.Functions))

		varsum := 0.0
		for _, f := range m.Functions {
			d := float64(f.Complexity) - m.AvgComplexity
			varsum += d * d
		}
		m.ComplexityStd = math.Sqrt(varsum / float64(len(m.Functions)))
	}

	m.MaintainabilityIndex = maintainabilityIndex(root, content, m)
	return m, nil
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	return len(strings.Split(strings.TrimRight(string(content), "\n"), "\n"))
}

// collectCounts walks the tree once, counting classes, functions,
// imports, and per-function decision points.
func collectCounts(node *sitter.Node, content []byte, m *FileMetrics) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "class_definition":
			m.NumClasses++
		case "function_definition":
			m.NumFunctions++
			name := "<anonymous>"
			if n := child.ChildByFieldName("name"); n != nil {
				name = n.Content(content)
			}
			m.Functions = append(m.Functions, FunctionMetrics{
				Name:       name,
				Line:       int(child.StartPoint().Row) + 1,
				Complexity: 1 + countDecisions(child),
			})
		case "import_statement", "import_from_statement":
			m.Imports++
		}
		collectCounts(child, content, m)
	}
}

// decisionTypes are node types that add a branch to cyclomatic
// complexity.
var decisionTypes = map[string]bool{
	"if_statement":           true,
	"elif_clause":            true,
	"for_statement":          true,
	"while_statement":        true,
	"except_clause":          true,
	"conditional_expression": true,
	"boolean_operator":       true,
	"assert_statement":       true,
	"if_clause":              true,
	"case_clause":            true,
}

// countDecisions counts decision points in a function body, not
// descending into nested function definitions: those are scored on
// their own.
func countDecisions(fn *sitter.Node) int {
	count := 0
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.Type() == "function_definition" {
				continue
			}
			if decisionTypes[child.Type()] {
				count++
			}
			walk(child)
		}
	}
	walk(fn)
	return count
}

// maintainabilityIndex computes the classic MI on a 0..100 scale,
// with Halstead volume approximated from the token stream: length is
// the number of leaf tokens, vocabulary the number of distinct ones.
func maintainabilityIndex(root *sitter.Node, content []byte, m *FileMetrics) float64 {
	length := 0
	vocab := map[string]bool{}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.ChildCount() == 0 {
			length++
			vocab[n.Content(content)] = true
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	if length == 0 || m.LOC == 0 {
		return 100
	}
	volume := float64(length) * math.Log2(math.Max(float64(len(vocab)), 2))
	mi := 171 - 5.2*math.Log(volume) - 0.23*m.AvgComplexity - 16.2*math.Log(float64(m.LOC))
	mi = mi * 100 / 171
	return math.Min(100, math.Max(0, mi))
}

// Report renders the File Analysis Report block for the prompt.
func (a *StaticAnalyzer) Report(ctx context.Context, path string) (string, error) {
	m, err := a.Analyze(ctx, path)
	if err != nil {
		return "", err
	}
	return RenderFileReport(m), nil
}

// RenderFileReport renders metrics into the LLM-facing report.
func RenderFileReport(m *FileMetrics) string {
	var hotspots []string
	refactor := 0
	for _, f := range m.Functions {
		if f.Complexity >= highComplexity {
			refactor++
			if len(hotspots) < 5 {
				hotspots = append(hotspots, fmt.Sprintf(
					"Line %d: function %q has cyclomatic complexity %d",
					f.Line, f.Name, f.Complexity))
			}
		}
	}
	hotspotText := "No complexity hotspots found."
	if len(hotspots) > 0 {
		hotspotText = strings.Join(hotspots, "\n")
	}

	var interpretations []string
	if m.AvgComplexity >= 10 {
		interpretations = append(interpretations, "High cyclomatic complexity indicates dense logical branching.")
	} else if m.AvgComplexity >= 7 {
		interpretations = append(interpretations, "Moderate complexity; may still benefit from refactoring.")
	}
	if m.MaintainabilityIndex < 65 {
		interpretations = append(interpretations, "Low maintainability index suggests high technical debt risk.")
	} else if m.MaintainabilityIndex < 75 {
		interpretations = append(interpretations, "Slightly reduced maintainability; monitor this file over time.")
	}
	if m.LOC > 250 {
		interpretations = append(interpretations, "The file size is large, which may indicate a 'Large File' smell.")
	}
	if m.NumClasses > 5 {
		interpretations = append(interpretations, "Multiple class definitions may indicate over-responsibility.")
	}
	if refactor > 0 {
		interpretations = append(interpretations, "Highly complex functions suggest design or correctness issues.")
	}
	if m.SyntaxErrors {
		interpretations = append(interpretations, "The file contains syntax errors; metrics are computed on a partial parse.")
	}
	interpretation := "No major maintainability risks detected."
	if len(interpretations) > 0 {
		interpretation = strings.Join(interpretations, " ")
	}

	return strings.TrimSpace(fmt.Sprintf(`### File Analysis Report: %s

--- Static Code Metrics ---
- Lines of Code (LOC): %d
- Number of Classes: %d
- Number of Functions: %d
- Imports: %d
- Average Cyclomatic Complexity: %.2f
- Maximum Cyclomatic Complexity: %d
- Maintainability Index: %.2f

--- Complexity Hotspots ---
%s

--- Interpretation ---
%s

--- Instruction for LLM ---
Use this report to evaluate how maintainable, complex, or stylistically consistent the file is.
When prioritizing technical debt, files with higher complexity, lower maintainability index,
or multiple complexity hotspots should be ranked higher.`,
		m.File, m.LOC, m.NumClasses, m.NumFunctions, m.Imports,
		m.AvgComplexity, m.MaxComplexity, m.MaintainabilityIndex,
		hotspotText, interpretation))
}
