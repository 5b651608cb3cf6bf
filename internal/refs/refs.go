// Package refs finds repeated multi-character structures and registers them
// as document references.
package refs

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/utcp/internal/meta"
	"github.com/rcliao/utcp/internal/model"
	"github.com/rcliao/utcp/internal/textscan"
)

const (
	// Sliding-window scan parameters.
	Stride     = 10
	MinWindow  = 40
	MaxWindow  = 200
	WindowStep = 10
	TopK       = 20

	// MinStructure is the shortest structural block worth a reference.
	MinStructure = 40
)

// Extract scans content and returns its references with ids R1, R2, ... in
// discovery order: sliding windows first, then structural blocks, then JSON
// objects. Strategies are independent; overlapping captures are all kept.
func Extract(content, fileType string) model.References {
	var found []string
	found = append(found, repeatedWindows(content)...)

	domain := meta.DomainFor(fileType)
	if domain != meta.DomainMarkup && domain != meta.DomainStyle {
		found = append(found, structural(content)...)
	}
	if strings.EqualFold(fileType, "json") || domain == meta.DomainCode {
		found = append(found, repeatedSpans(content, textscan.JSONObjects(content))...)
	}

	refs := make(model.References, len(found))
	for i, s := range found {
		refs[i] = model.Reference{ID: fmt.Sprintf("R%d", i+1), Structure: s}
	}
	return refs
}

type window struct {
	text  string
	count int
}

// repeatedWindows samples substrings at a fixed stride and keeps the TopK
// repeated ones ranked by count x length.
func repeatedWindows(s string) []string {
	tally := textscan.NewTally()
	for i := 0; i < len(s)-MinWindow; i += Stride {
		if !utf8.RuneStart(s[i]) {
			continue
		}
		for l := MinWindow; l < MaxWindow && i+l <= len(s); l += WindowStep {
			if i+l < len(s) && !utf8.RuneStart(s[i+l]) {
				continue
			}
			tally.Add(s[i : i+l])
		}
	}

	var ws []window
	tally.Each(func(text string, n int) {
		if n > 1 {
			ws = append(ws, window{text: text, count: n})
		}
	})
	sort.SliceStable(ws, func(i, j int) bool {
		return ws[i].count*len(ws[i].text) > ws[j].count*len(ws[j].text)
	})
	if len(ws) > TopK {
		ws = ws[:TopK]
	}

	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.text
	}
	return out
}

// structural collects repeated function, method, declaration and control blocks.
func structural(s string) []string {
	var out []string
	for _, find := range []func(string) []textscan.Span{
		textscan.FunctionBlocks,
		textscan.Methods,
		textscan.Declarations,
		textscan.ControlBlocks,
	} {
		out = append(out, repeatedSpans(s, find(s))...)
	}
	return out
}

// repeatedSpans returns the span texts of at least MinStructure bytes that
// occur two or more times, in first-seen order.
func repeatedSpans(s string, spans []textscan.Span) []string {
	tally := textscan.NewTally()
	for _, sp := range spans {
		if sp.End-sp.Start >= MinStructure {
			tally.Add(sp.Text(s))
		}
	}
	var out []string
	tally.Each(func(text string, n int) {
		if n >= 2 {
			out = append(out, text)
		}
	})
	return out
}
