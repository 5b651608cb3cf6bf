// Package split lays a finished envelope out over several part files when it
// exceeds a token budget, and joins the parts back together.
package split

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/utcp/internal/envelope"
	"github.com/rcliao/utcp/internal/meta"
)

const (
	DefaultCharsPerToken    = 4
	DefaultMaxTokensPerFile = 40000
)

// ErrMismatch reports parts that do not line up with their index.
var ErrMismatch = errors.New("split parts do not match index")

// Options configures the token budget.
type Options struct {
	MaxTokensPerFile int
	CharsPerToken    int
}

// DefaultOptions returns the default budget.
func DefaultOptions() Options {
	return Options{
		MaxTokensPerFile: DefaultMaxTokensPerFile,
		CharsPerToken:    DefaultCharsPerToken,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxTokensPerFile <= 0 {
		o.MaxTokensPerFile = DefaultMaxTokensPerFile
	}
	if o.CharsPerToken <= 0 {
		o.CharsPerToken = DefaultCharsPerToken
	}
	return o
}

// EstimateTokens approximates the token count of n bytes.
func EstimateTokens(n, charsPerToken int) int {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return (n + charsPerToken - 1) / charsPerToken
}

// Needed reports whether text exceeds the per-file budget.
func Needed(text string, opts Options) bool {
	opts = opts.withDefaults()
	return EstimateTokens(len(text), opts.CharsPerToken) > opts.MaxTokensPerFile
}

// Window is a slice of the envelope text and its byte offset.
type Window struct {
	Offset int
	Text   string
}

// Windows cuts text into windows of at most MaxTokensPerFile*CharsPerToken
// bytes. Cuts never fall inside a UTF-8 sequence.
func Windows(text string, opts Options) []Window {
	opts = opts.withDefaults()
	size := opts.MaxTokensPerFile * opts.CharsPerToken

	var out []Window
	for start := 0; start < len(text); {
		end := min(start+size, len(text))
		for end < len(text) && end > start && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == start {
			// window smaller than one rune
			end = start + size
			for end < len(text) && !utf8.RuneStart(text[end]) {
				end++
			}
		}
		out = append(out, Window{Offset: start, Text: text[start:end]})
		start = end
	}
	return out
}

// PartName returns the file name of part n (1-based) for the original name.
func PartName(name string, n int) string {
	return fmt.Sprintf("%s.part%d%s", name, n, meta.EnvelopeExt)
}

// Split partitions text into parts and builds their index. name is the
// original document's path; only its base name is recorded.
func Split(text, name string, opts Options) (*envelope.SplitIndex, []*envelope.SplitPart) {
	opts = opts.withDefaults()
	base := filepath.Base(name)
	windows := Windows(text, opts)

	idx := &envelope.SplitIndex{
		TotalFiles:       len(windows),
		OriginalFilename: base,
		TotalSize:        len(text),
		EstimatedTokens:  EstimateTokens(len(text), opts.CharsPerToken),
	}
	parts := make([]*envelope.SplitPart, len(windows))
	for i, w := range windows {
		parts[i] = &envelope.SplitPart{
			TotalFiles: len(windows),
			Part:       i + 1,
			TotalParts: len(windows),
			Offset:     w.Offset,
			Data:       w.Text,
		}
		idx.Parts = append(idx.Parts, PartName(base, i+1))
	}
	return idx, parts
}

// Reassemble concatenates parts in order, checking numbering and offsets
// against the index.
func Reassemble(idx *envelope.SplitIndex, parts []*envelope.SplitPart) (string, error) {
	if len(parts) != len(idx.Parts) || len(parts) != idx.TotalFiles {
		return "", fmt.Errorf("%w: index lists %d parts, got %d", ErrMismatch, idx.TotalFiles, len(parts))
	}
	var b strings.Builder
	b.Grow(idx.TotalSize)
	for i, p := range parts {
		if p.Part != i+1 || p.TotalParts != len(parts) {
			return "", fmt.Errorf("%w: part %d/%d at position %d", ErrMismatch, p.Part, p.TotalParts, i+1)
		}
		if p.Offset != b.Len() {
			return "", fmt.Errorf("%w: part %d offset %d, expected %d", ErrMismatch, p.Part, p.Offset, b.Len())
		}
		b.WriteString(p.Data)
	}
	if b.Len() != idx.TotalSize {
		return "", fmt.Errorf("%w: reassembled %d bytes, index says %d", ErrMismatch, b.Len(), idx.TotalSize)
	}
	return b.String(), nil
}
