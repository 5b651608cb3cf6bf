package rules

import (
	"strings"

	"github.com/rcliao/utcp/internal/textscan"
)

// replaceTerm replaces the occurrences of term that sit on token boundaries
// and are not followed by a digit. It returns the new text and the number of
// replacements.
func replaceTerm(s, term, code string) (string, int) {
	if term == "" {
		return s, 0
	}
	leftTok := textscan.IsTokenByte(term[0])
	rightTok := textscan.IsTokenByte(term[len(term)-1])

	var b strings.Builder
	n, pos, last := 0, 0, 0
	for {
		i := strings.Index(s[pos:], term)
		if i < 0 {
			break
		}
		start := pos + i
		end := start + len(term)
		ok := !(leftTok && start > 0 && textscan.IsTokenByte(s[start-1])) &&
			!(rightTok && end < len(s) && textscan.IsTokenByte(s[end])) &&
			!(end < len(s) && textscan.IsDigit(s[end]))
		if !ok {
			pos = start + 1
			continue
		}
		if n == 0 {
			b.Grow(len(s))
		}
		b.WriteString(s[last:start])
		b.WriteString(code)
		n++
		pos, last = end, end
	}
	if n == 0 {
		return s, 0
	}
	b.WriteString(s[last:])
	return b.String(), n
}

// replaceStructure replaces literal occurrences of structure with marker,
// skipping any occurrence followed by a digit.
func replaceStructure(s, structure, marker string) (string, int) {
	if structure == "" {
		return s, 0
	}
	var b strings.Builder
	n, pos, last := 0, 0, 0
	for {
		i := strings.Index(s[pos:], structure)
		if i < 0 {
			break
		}
		start := pos + i
		end := start + len(structure)
		if end < len(s) && textscan.IsDigit(s[end]) {
			pos = start + 1
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(marker)
		n++
		pos, last = end, end
	}
	if n == 0 {
		return s, 0
	}
	b.WriteString(s[last:])
	return b.String(), n
}

// markVerbatim wraps each fenced block, fences included, in verbatim tags.
// An unterminated fence is left alone.
func markVerbatim(s string) string {
	var b strings.Builder
	pos := 0
	for {
		open := strings.Index(s[pos:], fence)
		if open < 0 {
			break
		}
		open += pos
		close := strings.Index(s[open+len(fence):], fence)
		if close < 0 {
			break
		}
		end := open + len(fence) + close + len(fence)
		b.WriteString(s[pos:open])
		b.WriteString(VerbOpen)
		b.WriteString(s[open:end])
		b.WriteString(VerbClose)
		pos = end
	}
	b.WriteString(s[pos:])
	return b.String()
}
