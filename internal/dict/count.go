package dict

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rcliao/utcp/internal/textscan"
)

type freq struct {
	count int
	first int // byte offset of the first occurrence
}

type freqMap map[string]freq

func (m freqMap) add(term string, at int) {
	f, ok := m[term]
	if !ok {
		f.first = at
	}
	f.count++
	m[term] = f
}

// ordered returns the terms by first occurrence.
func (m freqMap) ordered() []candidate {
	terms := make([]string, 0, len(m))
	for term := range m {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool { return m[terms[i]].first < m[terms[j]].first })
	out := make([]candidate, len(terms))
	for i, term := range terms {
		out[i] = candidate{term: term, count: m[term].count}
	}
	return out
}

type tokenCounts struct {
	idents freqMap
	words  freqMap
}

// countTokens counts identifier and word candidates of s; base is the offset
// of s inside the whole document.
func countTokens(s string, base, minLen int) tokenCounts {
	tc := tokenCounts{idents: freqMap{}, words: freqMap{}}
	textscan.Tokens(s, func(tok string, start int) {
		if len(tok) < minLen {
			return
		}
		if textscan.IsDigit(tok[0]) || reserved[tok] {
			tc.words.add(tok, base+start)
			return
		}
		tc.idents.add(tok, base+start)
	})
	return tc
}

// chunkBounds cuts s into n ranges whose edges never fall inside a token.
func chunkBounds(s string, n int) []textscan.Span {
	size := (len(s) + n - 1) / n
	var spans []textscan.Span
	start := 0
	for start < len(s) {
		end := min(start+size, len(s))
		for end < len(s) && textscan.IsTokenByte(s[end]) {
			end++
		}
		spans = append(spans, textscan.Span{Start: start, End: end})
		start = end
	}
	return spans
}

// countParallel is countTokens fanned out over chunks. Counts are summed and
// first offsets take the minimum, so the result equals the sequential pass.
func countParallel(ctx context.Context, s string, minLen, workers int) (tokenCounts, error) {
	chunks := chunkBounds(s, workers)
	results := make([]tokenCounts, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = countTokens(s[c.Start:c.End], c.Start, minLen)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return tokenCounts{}, err
	}
	return mergeCounts(results), nil
}

func mergeCounts(parts []tokenCounts) tokenCounts {
	out := tokenCounts{idents: freqMap{}, words: freqMap{}}
	for _, p := range parts {
		mergeInto(out.idents, p.idents)
		mergeInto(out.words, p.words)
	}
	return out
}

func mergeInto(dst, src freqMap) {
	for term, f := range src {
		cur, ok := dst[term]
		if !ok || f.first < cur.first {
			cur.first = f.first
		}
		cur.count += f.count
		dst[term] = cur
	}
}
