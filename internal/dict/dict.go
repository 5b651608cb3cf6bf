// Package dict builds the global and domain dictionaries of a document.
package dict

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/rcliao/utcp/internal/meta"
	"github.com/rcliao/utcp/internal/model"
	"github.com/rcliao/utcp/internal/textscan"
)

const (
	DefaultMinOccurrences    = 2
	DefaultMinTermLength     = 5
	DefaultParallelThreshold = 1 << 20

	// minFunctionTerm is the shortest function block worth a dictionary code.
	minFunctionTerm = 20
)

// Options configures dictionary construction.
type Options struct {
	MinOccurrences int
	MinTermLength  int

	// Parallel splits the identifier and word passes across Workers chunks
	// once the content reaches ParallelThreshold bytes.
	Parallel          bool
	ParallelThreshold int
	Workers           int
}

// DefaultOptions returns the default builder options.
func DefaultOptions() Options {
	return Options{
		MinOccurrences:    DefaultMinOccurrences,
		MinTermLength:     DefaultMinTermLength,
		ParallelThreshold: DefaultParallelThreshold,
	}
}

func (o Options) withDefaults() Options {
	if o.MinOccurrences <= 0 {
		o.MinOccurrences = DefaultMinOccurrences
	}
	if o.MinTermLength <= 0 {
		o.MinTermLength = DefaultMinTermLength
	}
	if o.ParallelThreshold <= 0 {
		o.ParallelThreshold = DefaultParallelThreshold
	}
	if o.Workers <= 0 {
		o.Workers = max(2, runtime.NumCPU())
	}
	return o
}

// reserved identifiers are counted as plain words, never as identifiers.
var reserved = map[string]bool{
	"function": true, "class": true, "const": true, "let": true, "var": true,
}

// Build returns the global dictionary followed by the domain dictionary for
// fileType, if any. Empty dictionaries are omitted.
func Build(ctx context.Context, content, fileType string, opts Options) (model.Dictionaries, error) {
	opts = opts.withDefaults()

	global, err := buildGlobal(ctx, content, opts)
	if err != nil {
		return nil, err
	}

	var dicts model.Dictionaries
	if len(global.Entries) > 0 {
		dicts = append(dicts, global)
	}
	if domain := meta.DomainFor(fileType); domain != "" {
		if d := buildDomain(content, domain, opts.MinOccurrences); len(d.Entries) > 0 {
			dicts = append(dicts, d)
		}
	}
	return dicts, nil
}

type candidate struct {
	term  string
	count int
}

func buildGlobal(ctx context.Context, content string, opts Options) (model.Dictionary, error) {
	var cands []candidate

	// Function blocks can span any chunk boundary, so this pass always sees
	// the whole document.
	fns := textscan.NewTally()
	for _, sp := range textscan.FunctionBlocks(content) {
		body := sp.Text(content)
		if len(body) < minFunctionTerm || strings.ContainsAny(body, "\r\n") {
			continue
		}
		fns.Add(body)
	}
	fns.Each(func(s string, n int) {
		cands = append(cands, candidate{term: s, count: n})
	})

	var tc tokenCounts
	if opts.Parallel && len(content) >= opts.ParallelThreshold {
		var err error
		tc, err = countParallel(ctx, content, opts.MinTermLength, opts.Workers)
		if err != nil {
			return model.Dictionary{}, fmt.Errorf("count terms: %w", err)
		}
	} else {
		tc = countTokens(content, 0, opts.MinTermLength)
	}
	cands = append(cands, tc.idents.ordered()...)
	cands = append(cands, tc.words.ordered()...)

	kept := cands[:0]
	for _, c := range cands {
		if c.count >= opts.MinOccurrences {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return len(kept[i].term)*kept[i].count > len(kept[j].term)*kept[j].count
	})

	d := model.Dictionary{Domain: model.GlobalDomain}
	for i, c := range kept {
		d.Entries = append(d.Entries, model.Entry{Code: fmt.Sprintf("$G%d", i+1), Term: c.term})
	}
	return d, nil
}

func buildDomain(content, domain string, minOccurrences int) model.Dictionary {
	vocab := domainTerms[domain]
	want := make(map[string]bool, len(vocab))
	for _, term := range vocab {
		want[term] = true
	}
	counts := make(map[string]int)
	textscan.Tokens(content, func(tok string, _ int) {
		if want[tok] {
			counts[tok]++
		}
	})

	var cands []candidate
	for _, term := range vocab {
		if n := counts[term]; n >= minOccurrences {
			cands = append(cands, candidate{term: term, count: n})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].count > cands[j].count })

	d := model.Dictionary{Domain: domain}
	prefix := "$" + strings.ToUpper(domain[:1])
	for _, c := range cands {
		code := fmt.Sprintf("%s%d", prefix, len(d.Entries)+1)
		// A code at least as long as its term would only grow the text.
		if len(c.term) <= len(code) {
			continue
		}
		d.Entries = append(d.Entries, model.Entry{Code: code, Term: c.term})
	}
	return d
}
