// Package textscan holds the byte-level scanners shared by the dictionary
// builder and the reference extractor: token iteration, balanced bracket
// matching and the structural block finders.
package textscan

import "strings"

// IsTokenByte reports whether b can be part of an identifier or word token.
func IsTokenByte(b byte) bool {
	return b == '_' || b == '$' ||
		('0' <= b && b <= '9') ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z')
}

// IsDigit reports whether b is an ASCII digit.
func IsDigit(b byte) bool {
	return '0' <= b && b <= '9'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// Tokens calls fn for every maximal run of token bytes in s.
func Tokens(s string, fn func(tok string, start int)) {
	start := -1
	for i := 0; i < len(s); i++ {
		if IsTokenByte(s[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			fn(s[start:i], start)
			start = -1
		}
	}
	if start >= 0 {
		fn(s[start:], start)
	}
}

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// Text returns the slice of s covered by sp.
func (sp Span) Text(s string) string {
	return s[sp.Start:sp.End]
}

// MatchPair returns the index of the bracket closing the one at s[open], or -1.
// A backslash escapes the following byte, so \{ and \} never change the depth.
func MatchPair(s string, open int, l, r byte) int {
	if open < 0 || open >= len(s) || s[open] != l {
		return -1
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case l:
			depth++
		case r:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// MatchBrace is MatchPair for curly braces.
func MatchBrace(s string, open int) int {
	return MatchPair(s, open, '{', '}')
}

// IndexToken returns the index of the first occurrence of word at or after
// from that is not glued to other token bytes, or -1.
func IndexToken(s, word string, from int) int {
	for from <= len(s)-len(word) {
		j := strings.Index(s[from:], word)
		if j < 0 {
			return -1
		}
		j += from
		end := j + len(word)
		if (j == 0 || !IsTokenByte(s[j-1])) && (end == len(s) || !IsTokenByte(s[end])) {
			return j
		}
		from = j + 1
	}
	return -1
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func skipToken(s string, i int) int {
	for i < len(s) && IsTokenByte(s[i]) {
		i++
	}
	return i
}

// FunctionBlocks finds non-overlapping `function name(params) {...}` blocks.
func FunctionBlocks(s string) []Span {
	return scanKeyword(s, "function", matchFunction)
}

// matchFunction matches the remainder of a function declaration whose
// keyword starts at i and returns the end offset, or -1.
func matchFunction(s string, i int) int {
	p := i + len("function")
	if p >= len(s) || !isSpace(s[p]) {
		return -1
	}
	p = skipSpace(s, p)
	name := skipToken(s, p)
	if name == p {
		return -1
	}
	p = skipSpace(s, name)
	if p >= len(s) || s[p] != '(' {
		return -1
	}
	closeParen := strings.IndexByte(s[p:], ')')
	if closeParen < 0 {
		return -1
	}
	return blockAfter(s, p+closeParen+1)
}

// blockAfter expects optional whitespace and then a brace block at i.
func blockAfter(s string, i int) int {
	i = skipSpace(s, i)
	if i >= len(s) || s[i] != '{' {
		return -1
	}
	end := MatchBrace(s, i)
	if end < 0 {
		return -1
	}
	return end + 1
}

// scanKeyword runs match at every token-delimited occurrence of keyword and
// collects the non-overlapping spans it accepts.
func scanKeyword(s, keyword string, match func(s string, i int) int) []Span {
	var out []Span
	from := 0
	for {
		j := IndexToken(s, keyword, from)
		if j < 0 {
			return out
		}
		if end := match(s, j); end > 0 {
			out = append(out, Span{Start: j, End: end})
			from = end
			continue
		}
		from = j + len(keyword)
	}
}

// ControlBlocks finds `if|for|while|switch (...) {...}` blocks.
func ControlBlocks(s string) []Span {
	var out []Span
	for _, kw := range []string{"if", "for", "while", "switch"} {
		out = append(out, scanKeyword(s, kw, func(s string, i int) int {
			p := skipSpace(s, i+len(kw))
			end := MatchPair(s, p, '(', ')')
			if end < 0 {
				return -1
			}
			return blockAfter(s, end+1)
		})...)
	}
	return out
}

// Declarations finds `const|let|var name = {...}` and `... = [...]`
// declarations, including a trailing semicolon when present.
func Declarations(s string) []Span {
	var out []Span
	for _, kw := range []string{"const", "let", "var"} {
		out = append(out, scanKeyword(s, kw, func(s string, i int) int {
			p := i + len(kw)
			if p >= len(s) || !isSpace(s[p]) {
				return -1
			}
			p = skipSpace(s, p)
			name := skipToken(s, p)
			if name == p {
				return -1
			}
			p = skipSpace(s, name)
			if p >= len(s) || s[p] != '=' {
				return -1
			}
			p = skipSpace(s, p+1)
			if p >= len(s) {
				return -1
			}
			var end int
			switch s[p] {
			case '{':
				end = MatchBrace(s, p)
			case '[':
				end = MatchPair(s, p, '[', ']')
			default:
				return -1
			}
			if end < 0 {
				return -1
			}
			end++
			if end < len(s) && s[end] == ';' {
				end++
			}
			return end
		})...)
	}
	return out
}

var notMethods = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"function": true, "return": true, "with": true,
}

// Methods finds class-method style blocks: an indented line starting with
// `name(args) {`, the span running from name to the closing brace.
func Methods(s string) []Span {
	var out []Span
	for ls := 0; ls < len(s); {
		p := ls
		for p < len(s) && (s[p] == ' ' || s[p] == '\t') {
			p++
		}
		next := ls
		if p > ls {
			if end := matchMethod(s, p); end > 0 {
				out = append(out, Span{Start: p, End: end})
				next = end
			}
		}
		nl := strings.IndexByte(s[next:], '\n')
		if nl < 0 {
			break
		}
		ls = next + nl + 1
	}
	return out
}

func matchMethod(s string, p int) int {
	name := skipToken(s, p)
	if name == p || IsDigit(s[p]) || notMethods[s[p:name]] {
		return -1
	}
	q := name
	for q < len(s) && (s[q] == ' ' || s[q] == '\t') {
		q++
	}
	end := MatchPair(s, q, '(', ')')
	if end < 0 {
		return -1
	}
	return blockAfter(s, end+1)
}

// JSONObjects finds outermost object literals that open with a quoted key.
func JSONObjects(s string) []Span {
	var out []Span
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		k := skipSpace(s, i+1)
		if k >= len(s) || s[k] != '"' {
			continue
		}
		end := MatchBrace(s, i)
		if end < 0 {
			continue
		}
		out = append(out, Span{Start: i, End: end + 1})
		i = end
	}
	return out
}

// Tally counts strings and remembers the order they were first seen in.
type Tally struct {
	order  []string
	counts map[string]int
}

// NewTally returns an empty Tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// Add records one more occurrence of s.
func (t *Tally) Add(s string) {
	if _, ok := t.counts[s]; !ok {
		t.order = append(t.order, s)
	}
	t.counts[s]++
}

// Each visits every distinct string in first-seen order.
func (t *Tally) Each(fn func(s string, n int)) {
	for _, s := range t.order {
		fn(s, t.counts[s])
	}
}
