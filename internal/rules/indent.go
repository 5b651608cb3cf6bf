package rules

import "strings"

const (
	indentIn  = ">> "
	indentOut = "<< "
	indentW   = 2
)

// indentState mirrors the decoder's indent level while encoding, so
// shorthand is only emitted where the decoder will rebuild the same indent.
type indentState struct {
	last  int // width of the previous indented line
	level int
}

func (st *indentState) line(l string) string {
	ind, rest := splitIndent(l)
	if ind == "" || rest == "" {
		return l
	}
	w := len(ind)
	defer func() { st.last = w }()

	switch {
	case w > st.last && ind == spaces(indentW*(st.level+1)):
		st.level++
		return indentIn + rest
	case w < st.last && st.level > 1 && ind == spaces(indentW*(st.level-1)):
		st.level--
		return indentOut + rest
	}
	return l
}

func encodeIndent(s string) string {
	lines := strings.Split(s, "\n")
	var st indentState
	for i, l := range lines {
		lines[i] = st.line(l)
	}
	return strings.Join(lines, "\n")
}

func decodeIndent(s string) string {
	lines := strings.Split(s, "\n")
	level := 0
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, indentIn):
			level++
			lines[i] = spaces(indentW*level) + l[len(indentIn):]
		case strings.HasPrefix(l, indentOut):
			level = max(level-1, 0)
			lines[i] = spaces(indentW*level) + l[len(indentOut):]
		}
	}
	return strings.Join(lines, "\n")
}

func splitIndent(l string) (string, string) {
	i := 0
	for i < len(l) && (l[i] == ' ' || l[i] == '\t') {
		i++
	}
	return l[:i], l[i:]
}

func spaces(n int) string {
	return strings.Repeat(" ", n)
}
