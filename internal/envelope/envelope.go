// Package envelope defines the UTCP wire format: the six envelope variants,
// their serializers and the parser that recognizes them.
package envelope

import (
	"errors"
	"strings"

	"github.com/rcliao/utcp/internal/model"
)

var (
	ErrMalformed   = errors.New("malformed envelope")
	ErrMissingMeta = errors.New("missing metadata")
)

// Format names an envelope variant.
type Format string

const (
	FormatLight      Format = "light"
	FormatStandard   Format = "standard"
	FormatOriginal   Format = "original"
	FormatSplitIndex Format = "split-index"
	FormatSplitPart  Format = "split-part"
	FormatRaw        Format = "raw"
)

// Leading markers.
const (
	markLight      = "<UTCP-v1-light>"
	markStandard   = "<UTCP-v1>"
	markOriginal   = "<UTCP-v1-original>"
	markSplitIndex = "<UTCP-SPLIT-INDEX>"
	markSplitPart  = "<UTCP-SPLIT-FILE>"
)

// Envelope is one of *Light, *Standard, *Original, *SplitIndex, *SplitPart
// or *Raw.
type Envelope interface {
	Format() Format
	String() string
}

// Light wraps a small document with its size only.
type Light struct {
	Size    int
	Content string
}

// Standard carries dictionaries, references and the processed content.
type Standard struct {
	Meta    model.Metadata
	Dicts   model.Dictionaries
	Refs    model.References
	Content string
	// EOFChecksum is the checksum of Content.
	EOFChecksum string
}

// Original wraps an untouched document when compression did not pay off.
type Original struct {
	Meta    model.Metadata
	Content string
}

// SplitIndex lists the part files of an envelope split by token budget.
type SplitIndex struct {
	TotalFiles       int
	OriginalFilename string
	TotalSize        int
	EstimatedTokens  int
	Parts            []string
}

// SplitPart is one window of a split envelope.
type SplitPart struct {
	TotalFiles int
	Part       int
	TotalParts int
	Offset     int
	Data       string
}

// Raw is any text without a recognized marker.
type Raw struct {
	Content string
}

func (*Light) Format() Format      { return FormatLight }
func (*Standard) Format() Format   { return FormatStandard }
func (*Original) Format() Format   { return FormatOriginal }
func (*SplitIndex) Format() Format { return FormatSplitIndex }
func (*SplitPart) Format() Format  { return FormatSplitPart }
func (*Raw) Format() Format        { return FormatRaw }

// Classify reports the variant of text from its leading marker.
func Classify(text string) Format {
	switch {
	case strings.HasPrefix(text, markLight):
		return FormatLight
	case strings.HasPrefix(text, markOriginal):
		return FormatOriginal
	case strings.HasPrefix(text, markStandard):
		return FormatStandard
	case strings.HasPrefix(text, markSplitIndex):
		return FormatSplitIndex
	case strings.HasPrefix(text, markSplitPart):
		return FormatSplitPart
	}
	return FormatRaw
}

// Parse classifies text once and hands it to the matching variant parser.
// Unrecognized text is returned as *Raw.
func Parse(text string) (Envelope, error) {
	switch Classify(text) {
	case FormatLight:
		return parseLight(text)
	case FormatStandard:
		return parseStandard(text)
	case FormatOriginal:
		return parseOriginal(text)
	case FormatSplitIndex:
		return parseSplitIndex(text)
	case FormatSplitPart:
		return parseSplitPart(text)
	}
	return &Raw{Content: text}, nil
}
