package envelope

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rcliao/utcp/internal/model"
)

const (
	closeLight    = "</UTCP-v1-light>"
	closeStandard = "</UTCP-v1>"
	closeOriginal = "</UTCP-v1-original>"

	openDescription  = "<FORMAT-DESCRIPTION>"
	closeDescription = "</FORMAT-DESCRIPTION>"
	openContent      = "<CONTENT>"
	closeContent     = "\n</CONTENT>"
)

var (
	metaLine = regexp.MustCompile(`^<META:([A-Za-z]+)="([^"]*)">$`)
	eofLine  = regexp.MustCompile(`^<EOF:checksum="([^"]*)">$`)
)

var requiredMeta = []string{"type", "checksum", "size", "lines", "date"}

// sections are the parts of a Standard or Original body.
type sections struct {
	meta    map[string]string
	dicts   model.Dictionaries
	refs    model.References
	content string
	eof     string
}

func parseStandard(text string) (*Standard, error) {
	sec, err := parseSections(text[len(markStandard):], closeStandard)
	if err != nil {
		return nil, err
	}
	m, err := sec.metadata()
	if err != nil {
		return nil, err
	}
	return &Standard{
		Meta:        m,
		Dicts:       sec.dicts,
		Refs:        sec.refs,
		Content:     sec.content,
		EOFChecksum: sec.eof,
	}, nil
}

func parseOriginal(text string) (*Original, error) {
	sec, err := parseSections(text[len(markOriginal):], closeOriginal)
	if err != nil {
		return nil, err
	}
	m, err := sec.metadata()
	if err != nil {
		return nil, err
	}
	return &Original{Meta: m, Content: sec.content}, nil
}

// parseSections walks the tagged sections in any order. Reading stops at
// the closing marker or at the first line it does not recognize; without a
// CONTENT block the rest of the document becomes the content. Section lines
// may end in CRLF.
func parseSections(s, closing string) (sections, error) {
	sec := sections{meta: make(map[string]string)}
	found := false
	pos := 0

scan:
	for pos < len(s) {
		if s[pos] == '\n' {
			pos++
			continue
		}
		if strings.HasPrefix(s[pos:], "\r\n") {
			pos += 2
			continue
		}
		rest := s[pos:]
		switch {
		case strings.HasPrefix(rest, openDescription):
			end := strings.Index(rest, closeDescription)
			if end < 0 {
				return sec, fmt.Errorf("%w: unterminated format description", ErrMalformed)
			}
			pos += end + len(closeDescription)

		case strings.HasPrefix(rest, "<META:"):
			line := firstLine(rest)
			m := metaLine.FindStringSubmatch(strings.TrimSuffix(line, "\r"))
			if m == nil {
				return sec, fmt.Errorf("%w: bad metadata line %q", ErrMalformed, line)
			}
			sec.meta[m[1]] = m[2]
			pos += len(line)

		case strings.HasPrefix(rest, "<DICT:"):
			name, body, n, err := block(rest, "DICT")
			if err != nil {
				return sec, err
			}
			if sec.dicts.Domain(name) != nil {
				return sec, fmt.Errorf("%w: duplicate dictionary %q", ErrMalformed, name)
			}
			sec.dicts = append(sec.dicts, parseDict(name, body))
			pos += n

		case strings.HasPrefix(rest, "<REF:"):
			id, body, n, err := block(rest, "REF")
			if err != nil {
				return sec, err
			}
			sec.refs = append(sec.refs, model.Reference{ID: id, Structure: body})
			pos += n

		case strings.HasPrefix(rest, openContent+"\n"), strings.HasPrefix(rest, openContent+"\r\n"):
			header := len(firstLine(rest)) + 1
			body := rest[header:]
			end := strings.LastIndex(body, closeContent)
			if end < 0 {
				break scan
			}
			sec.content = body[:end]
			if header == len(openContent)+2 {
				sec.content = strings.TrimSuffix(sec.content, "\r")
			}
			found = true
			pos += header + end + len(closeContent)

		case strings.HasPrefix(rest, "<EOF:"):
			line := firstLine(rest)
			if m := eofLine.FindStringSubmatch(strings.TrimSuffix(line, "\r")); m != nil {
				sec.eof = m[1]
			}
			pos += len(line)

		case strings.HasPrefix(rest, closing):
			pos = len(s)

		default:
			break scan
		}
	}

	if !found {
		sec.content = fallbackContent(s[pos:], closing)
	}
	return sec, nil
}

func (sec sections) metadata() (model.Metadata, error) {
	for _, k := range requiredMeta {
		if _, ok := sec.meta[k]; !ok {
			return model.Metadata{}, fmt.Errorf("%w: %s", ErrMissingMeta, k)
		}
	}
	size, err := atoi("size", sec.meta["size"])
	if err != nil {
		return model.Metadata{}, err
	}
	lines, err := atoi("lines", sec.meta["lines"])
	if err != nil {
		return model.Metadata{}, err
	}
	return model.Metadata{
		Type:     sec.meta["type"],
		Checksum: sec.meta["checksum"],
		Size:     size,
		Lines:    lines,
		Date:     sec.meta["date"],
	}, nil
}

// block reads "<KIND:name>\nbody\n</KIND:name>" from the start of s and
// returns the name, the body and the number of bytes consumed. With a CRLF
// header the CR before the closing tag is dropped as well.
func block(s, kind string) (string, string, int, error) {
	nl := strings.IndexByte(s, '\n')
	header := ""
	if nl >= 0 {
		header = s[:nl]
	}
	crlf := strings.HasSuffix(header, "\r")
	header = strings.TrimSuffix(header, "\r")
	if !strings.HasSuffix(header, ">") || len(header) < len(kind)+3 {
		return "", "", 0, fmt.Errorf("%w: bad %s header", ErrMalformed, kind)
	}
	name := header[len(kind)+2 : len(header)-1]
	closeTag := "\n</" + kind + ":" + name + ">"

	end := strings.Index(s[nl:], closeTag)
	if end < 0 {
		return "", "", 0, fmt.Errorf("%w: unterminated %s:%s", ErrMalformed, kind, name)
	}
	body := ""
	if end > 0 {
		body = s[nl+1 : nl+end]
	}
	if crlf {
		body = strings.TrimSuffix(body, "\r")
	}
	return name, body, nl + end + len(closeTag), nil
}

func parseDict(name, body string) model.Dictionary {
	d := model.Dictionary{Domain: name}
	for _, line := range strings.Split(body, "\n") {
		code, term, ok := strings.Cut(strings.TrimSuffix(line, "\r"), "=")
		if !ok || code == "" {
			continue
		}
		d.Entries = append(d.Entries, model.Entry{Code: code, Term: term})
	}
	return d
}

func fallbackContent(rest, closing string) string {
	if i := strings.Index(rest, "<EOF:"); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.NewReplacer("<CONTENT>", "", "</CONTENT>", "", closing, "").Replace(rest)
	return strings.TrimSpace(rest)
}

func parseLight(text string) (*Light, error) {
	rest := strings.TrimPrefix(text[len(markLight):], "\r")
	rest = strings.TrimPrefix(rest, "\n")
	line, body, _ := strings.Cut(rest, "\n")
	m := metaLine.FindStringSubmatch(strings.TrimSuffix(line, "\r"))
	if m == nil || m[1] != "size" {
		return nil, fmt.Errorf("%w: size", ErrMissingMeta)
	}
	size, err := atoi("size", m[2])
	if err != nil {
		return nil, err
	}

	crlf := strings.HasSuffix(line, "\r")
	body, ok := strings.CutSuffix(body, closeLight+"\n")
	if !ok && crlf {
		body, ok = strings.CutSuffix(body, closeLight+"\r\n")
	}
	if !ok {
		body, ok = strings.CutSuffix(body, closeLight)
	}
	if ok {
		body = strings.TrimSuffix(body, "\n")
		if crlf {
			body = strings.TrimSuffix(body, "\r")
		}
	}
	return &Light{Size: size, Content: body}, nil
}

func parseSplitIndex(text string) (*SplitIndex, error) {
	idx := &SplitIndex{}
	var err error
	if idx.TotalFiles, err = intTag(text, "TOTAL-FILES"); err != nil {
		return nil, err
	}
	if idx.TotalSize, err = intTag(text, "TOTAL-SIZE"); err != nil {
		return nil, err
	}
	if idx.EstimatedTokens, err = intTag(text, "ESTIMATED-TOKENS"); err != nil {
		return nil, err
	}
	idx.OriginalFilename, _ = tagValue(text, "ORIGINAL-FILENAME")

	parts, ok := tagValue(text, "PARTS")
	if !ok {
		return nil, fmt.Errorf("%w: split index without parts", ErrMalformed)
	}
	for _, p := range strings.Split(parts, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			idx.Parts = append(idx.Parts, p)
		}
	}
	if len(idx.Parts) == 0 {
		return nil, fmt.Errorf("%w: split index without parts", ErrMalformed)
	}
	return idx, nil
}

func parseSplitPart(text string) (*SplitPart, error) {
	rest := strings.TrimPrefix(text[len(markSplitPart):], "\r")
	rest = strings.TrimPrefix(rest, "\n")
	p := &SplitPart{}
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"TOTAL-FILES", &p.TotalFiles},
		{"PART", &p.Part},
		{"TOTAL-PARTS", &p.TotalParts},
		{"OFFSET", &p.Offset},
	} {
		line, after, ok := strings.Cut(rest, "\n")
		if !ok {
			return nil, fmt.Errorf("%w: truncated split part header", ErrMalformed)
		}
		v, ok := strings.CutPrefix(strings.TrimSuffix(line, "\r"), "<"+f.name+">")
		if ok {
			v, ok = strings.CutSuffix(v, "</"+f.name+">")
		}
		if !ok {
			return nil, fmt.Errorf("%w: expected %s, got %q", ErrMalformed, f.name, line)
		}
		n, err := atoi(f.name, v)
		if err != nil {
			return nil, err
		}
		*f.dst = n
		rest = after
	}
	p.Data = rest
	return p, nil
}

func tagValue(s, name string) (string, bool) {
	open, close := "<"+name+">", "</"+name+">"
	i := strings.Index(s, open)
	if i < 0 {
		return "", false
	}
	i += len(open)
	j := strings.Index(s[i:], close)
	if j < 0 {
		return "", false
	}
	return s[i : i+j], true
}

func intTag(s, name string) (int, error) {
	v, ok := tagValue(s, name)
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformed, name)
	}
	return atoi(name, v)
}

func atoi(name, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrMalformed, name, v)
	}
	return n, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
