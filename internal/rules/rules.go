// Package rules applies the substitution pipeline that turns document text
// into envelope content, and inverts it.
package rules

import (
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/rcliao/utcp/internal/model"
)

const (
	RefPrefix = "$REF:"
	VerbOpen  = "<VERB>"
	VerbClose = "</VERB>"

	fence = "```"
)

// Options configures the encoder.
type Options struct {
	PreserveVerbatim bool
	Logger           *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// Encoded is the result of running the encoder.
type Encoded struct {
	Text string
	// Applied lists the references that produced at least one marker.
	Applied model.References
	// Degenerate is set when the pipeline collapsed the text and the
	// original content was returned instead.
	Degenerate bool
}

// Encode substitutes dictionary terms, then references, then rewrites
// indentation, then marks fenced blocks verbatim. The text is checked after
// every stage; if one leaves it blank or a bare ellipsis the original
// content is returned instead.
func Encode(content string, dicts model.Dictionaries, refs model.References, opts Options) Encoded {
	s := content
	for _, d := range dicts {
		for _, e := range d.Entries {
			s, _ = replaceTerm(s, e.Term, e.Code)
		}
	}
	if collapsed(s) {
		return keepOriginal(content, "dictionary", opts)
	}

	var applied model.References
	for _, r := range refs {
		var n int
		s, n = replaceStructure(s, r.Structure, RefPrefix+r.ID)
		if n > 0 {
			applied = append(applied, r)
		}
	}
	if collapsed(s) {
		return keepOriginal(content, "references", opts)
	}

	s = encodeIndent(s)
	if opts.PreserveVerbatim {
		s = markVerbatim(s)
	}
	if collapsed(s) {
		return keepOriginal(content, "layout", opts)
	}
	return Encoded{Text: s, Applied: applied}
}

func collapsed(s string) bool {
	t := strings.TrimSpace(s)
	return t == "" || t == "..."
}

func keepOriginal(content, stage string, opts Options) Encoded {
	opts.logger().Warn("degenerate encoding, keeping original content", "stage", stage, "size", len(content))
	return Encoded{Text: content, Degenerate: true}
}

// Decode expands references, restores indentation, strips verbatim tags and
// finally expands dictionary codes. References go first because their text
// may itself carry dictionary codes.
func Decode(processed string, dicts model.Dictionaries, refs model.References) string {
	s := expandRefs(processed, refs)
	s = decodeIndent(s)
	s = strings.NewReplacer(VerbOpen, "", VerbClose, "").Replace(s)
	return expandCodes(s, dicts)
}

func expandRefs(s string, refs model.References) string {
	if len(refs) == 0 {
		return s
	}
	sorted := make(model.References, len(refs))
	copy(sorted, refs)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i].ID) > len(sorted[j].ID) })

	pairs := make([]string, 0, 2*len(sorted))
	for _, r := range sorted {
		pairs = append(pairs, RefPrefix+r.ID, r.Structure)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// expandCodes replaces every code in a single pass. Longer codes are listed
// first so $G12 wins over $G1 at the same position.
func expandCodes(s string, dicts model.Dictionaries) string {
	codes := dicts.Codes()
	if len(codes) == 0 {
		return s
	}
	keys := make([]string, 0, len(codes))
	for k := range codes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, codes[k])
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
