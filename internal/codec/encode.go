// Package codec is the UTCP entry point: it picks the envelope format for a
// document, decodes any envelope back to text and verifies the result.
package codec

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rcliao/utcp/internal/dict"
	"github.com/rcliao/utcp/internal/envelope"
	"github.com/rcliao/utcp/internal/meta"
	"github.com/rcliao/utcp/internal/model"
	"github.com/rcliao/utcp/internal/refs"
	"github.com/rcliao/utcp/internal/rules"
	"github.com/rcliao/utcp/internal/split"
)

// DefaultLightThreshold is the size below which documents are wrapped as-is.
const DefaultLightThreshold = 500

// Options configures Encode.
type Options struct {
	MinOccurrences      int
	MinTermLength       int
	PreserveVerbatim    bool
	UseParallelCounting bool
	ParallelThreshold   int

	SplitByTokenBudget bool
	MaxTokensPerFile   int
	CharsPerToken      int

	LightThreshold int
	Now            func() time.Time
	Logger         *slog.Logger
}

// DefaultOptions returns the library defaults.
func DefaultOptions() Options {
	terms := dict.DefaultOptions()
	budget := split.DefaultOptions()
	return Options{
		MinOccurrences:    terms.MinOccurrences,
		MinTermLength:     terms.MinTermLength,
		ParallelThreshold: terms.ParallelThreshold,
		MaxTokensPerFile:  budget.MaxTokensPerFile,
		CharsPerToken:     budget.CharsPerToken,
		LightThreshold:    DefaultLightThreshold,
	}
}

func (o Options) withDefaults() Options {
	if o.LightThreshold <= 0 {
		o.LightThreshold = DefaultLightThreshold
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	o.Logger = orDiscard(o.Logger)
	return o
}

func (o Options) splitOptions() split.Options {
	return split.Options{MaxTokensPerFile: o.MaxTokensPerFile, CharsPerToken: o.CharsPerToken}
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

// Result is the outcome of Encode.
type Result struct {
	// Envelope is the chosen *Light, *Standard or *Original envelope and
	// Text its serialized form.
	Envelope envelope.Envelope
	Text     string
	Meta     model.Metadata

	Ratio       float64
	DictEntries int
	RefCount    int

	// Index and Parts are set when the envelope was split by token budget.
	Index *envelope.SplitIndex
	Parts []*envelope.SplitPart
}

// Format returns the format of the chosen envelope.
func (r *Result) Format() envelope.Format {
	return r.Envelope.Format()
}

// Encode builds the envelope for content read from path.
func Encode(ctx context.Context, content, path string, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	log := opts.Logger.With("path", path)
	m := meta.Generate(path, content, opts.Now())

	res := &Result{Meta: m}
	if len(content) < opts.LightThreshold {
		res.Envelope = &envelope.Light{Size: len(content), Content: content}
		res.Text = res.Envelope.String()
	} else {
		std, text, ok, err := encodeStandard(ctx, content, m, opts)
		if err != nil {
			return nil, err
		}
		ratio := float64(len(content)) / float64(len(text))
		switch {
		case !ok:
			log.Debug("standard candidate does not reproduce input, keeping original")
		case ratio < 1:
			log.Debug("standard candidate larger than input, keeping original", "ratio", ratio)
		default:
			res.Envelope, res.Text = std, text
			res.DictEntries = std.Dicts.Len()
			res.RefCount = len(std.Refs)
		}
		if res.Envelope == nil {
			res.Envelope = &envelope.Original{Meta: m, Content: content}
			res.Text = res.Envelope.String()
		}
	}
	res.Ratio = float64(len(content)) / float64(len(res.Text))

	if opts.SplitByTokenBudget && split.Needed(res.Text, opts.splitOptions()) {
		res.Index, res.Parts = split.Split(res.Text, path, opts.splitOptions())
		log.Debug("split envelope", "parts", len(res.Parts), "tokens", res.Index.EstimatedTokens)
	}
	log.Info("encoded", "format", res.Format(), "size", len(content), "envelope_size", len(res.Text), "ratio", res.Ratio)
	return res, nil
}

// encodeStandard builds the Standard candidate and decodes it again in
// memory; ok is false when that does not give back content exactly, which
// happens for inputs that already contain protocol markers.
func encodeStandard(ctx context.Context, content string, m model.Metadata, opts Options) (*envelope.Standard, string, bool, error) {
	dicts, err := dict.Build(ctx, content, m.Type, dict.Options{
		MinOccurrences:    opts.MinOccurrences,
		MinTermLength:     opts.MinTermLength,
		Parallel:          opts.UseParallelCounting,
		ParallelThreshold: opts.ParallelThreshold,
	})
	if err != nil {
		return nil, "", false, fmt.Errorf("build dictionaries: %w", err)
	}
	found := refs.Extract(content, m.Type)

	enc := rules.Encode(content, dicts, found, rules.Options{
		PreserveVerbatim: opts.PreserveVerbatim,
		Logger:           opts.Logger,
	})
	std := &envelope.Standard{
		Meta:        m,
		Dicts:       dicts,
		Refs:        enc.Applied,
		Content:     enc.Text,
		EOFChecksum: meta.Checksum(enc.Text),
	}
	text := std.String()
	return std, text, reproduces(text, content), nil
}

func reproduces(text, content string) bool {
	env, err := envelope.Parse(text)
	if err != nil {
		return false
	}
	std, ok := env.(*envelope.Standard)
	if !ok {
		return false
	}
	return rules.Decode(std.Content, std.Dicts, std.Refs) == content
}
