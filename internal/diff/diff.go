// Package diff renders unified diffs between an original document and its
// decoded reconstruction.
package diff

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of context lines around each hunk.
const DefaultContext = 3

const noNewline = "\\ No newline at end of file\n"

// Unified returns a unified diff turning a into b, or "" when they are equal.
// A context of 0 or less means DefaultContext.
func Unified(aName, bName, a, b string, context int) string {
	if a == b {
		return ""
	}
	if context <= 0 {
		context = DefaultContext
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(a),
		B:        splitLinesKeepNL(b),
		FromFile: aName,
		ToFile:   bName,
		Context:  context,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil || s == "" {
		// Only line-ending differences difflib could not express as hunks.
		return fmt.Sprintf("--- %s\n+++ %s\n@@ content differs @@\n", aName, bName)
	}
	return s
}

// splitLinesKeepNL splits s into lines that keep their "\n". A final line
// without one is marked the way diff(1) does, so that "x" and "x\n" differ
// visibly.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	last := len(lines) - 1
	if lines[last] == "" {
		return lines[:last]
	}
	lines[last] += "\n" + noNewline
	return lines
}
