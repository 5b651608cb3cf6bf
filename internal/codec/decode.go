package codec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rcliao/utcp/internal/envelope"
	"github.com/rcliao/utcp/internal/meta"
	"github.com/rcliao/utcp/internal/model"
	"github.com/rcliao/utcp/internal/rules"
	"github.com/rcliao/utcp/internal/split"
)

// PartLoader returns the text of a split part file named in an index.
type PartLoader func(ctx context.Context, name string) (string, error)

// DecodeOptions configures Decode.
type DecodeOptions struct {
	// OutputFilename overrides the suggested output name.
	OutputFilename string
	// LoadPart is required to decode a split index.
	LoadPart PartLoader
	Now      func() time.Time
	Logger   *slog.Logger
}

// Decoded is the outcome of Decode.
type Decoded struct {
	Content        string
	Meta           model.Metadata
	Format         envelope.Format
	Verification   Verification
	OutputFilename string
}

// Verified reports whether the content matched its metadata.
func (d *Decoded) Verified() bool {
	return d.Verification.OK()
}

// Decode reconstructs the document held in text. path is the envelope's path
// and only feeds the type of synthesized metadata and the output name.
func Decode(ctx context.Context, text, path string, opts DecodeOptions) (*Decoded, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Logger = orDiscard(opts.Logger)

	env, err := parse(text)
	if err != nil {
		return nil, err
	}
	d, err := decodeEnvelope(ctx, env, path, opts)
	if err != nil {
		return nil, err
	}

	d.OutputFilename = opts.OutputFilename
	if d.OutputFilename == "" {
		d.OutputFilename = meta.SuggestedOutputName(path)
	}
	if !d.Verified() {
		opts.Logger.Warn("verification failed", "path", path, "format", d.Format, "checks", d.Verification.String())
	}
	return d, nil
}

func parse(text string) (envelope.Envelope, error) {
	env, err := envelope.Parse(text)
	switch {
	case err == nil:
		return env, nil
	case errors.Is(err, envelope.ErrMissingMeta):
		return nil, fmt.Errorf("%w: %w", ErrIncompleteMetadata, err)
	}
	return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
}

func decodeEnvelope(ctx context.Context, env envelope.Envelope, path string, opts DecodeOptions) (*Decoded, error) {
	switch e := env.(type) {
	case *envelope.Light:
		m := synthesize(path, e.Content, opts.Now())
		m.Size = e.Size
		return decoded(e.Content, m, e.Format()), nil

	case *envelope.Standard:
		content := rules.Decode(e.Content, e.Dicts, e.Refs)
		d := decoded(content, e.Meta, e.Format())
		d.Verification = Verify(e.Format(), e.Meta, content, e.EOFChecksum, e.Content)
		return d, nil

	case *envelope.Original:
		return decoded(e.Content, e.Meta, e.Format()), nil

	case *envelope.Raw:
		m := synthesize(path, e.Content, opts.Now())
		return decoded(e.Content, m, e.Format()), nil

	case *envelope.SplitIndex:
		return decodeSplit(ctx, e, path, opts)

	case *envelope.SplitPart:
		return nil, fmt.Errorf("%w: part %d of %d, decode its index instead", ErrPartsRequired, e.Part, e.TotalParts)
	}
	return nil, fmt.Errorf("%w: unsupported envelope %T", ErrInvalidFormat, env)
}

func decoded(content string, m model.Metadata, f envelope.Format) *Decoded {
	return &Decoded{
		Content:      content,
		Meta:         m,
		Format:       f,
		Verification: Verify(f, m, content, "", ""),
	}
}

func synthesize(path, content string, now time.Time) model.Metadata {
	m := meta.Generate(path, content, now)
	m.Type = meta.SourceType(path)
	return m
}

func decodeSplit(ctx context.Context, idx *envelope.SplitIndex, path string, opts DecodeOptions) (*Decoded, error) {
	if opts.LoadPart == nil {
		return nil, fmt.Errorf("%w: %d parts listed in index", ErrPartsRequired, len(idx.Parts))
	}
	parts := make([]*envelope.SplitPart, 0, len(idx.Parts))
	for _, name := range idx.Parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := opts.LoadPart(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("load part %s: %w", name, err)
		}
		env, err := parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse part %s: %w", name, err)
		}
		p, ok := env.(*envelope.SplitPart)
		if !ok {
			return nil, fmt.Errorf("%w: %s is a %s envelope", ErrPartMismatch, name, env.Format())
		}
		parts = append(parts, p)
	}

	joined, err := split.Reassemble(idx, parts)
	if err != nil {
		return nil, err
	}
	env, err := parse(joined)
	if err != nil {
		return nil, err
	}
	switch env.(type) {
	case *envelope.SplitIndex, *envelope.SplitPart:
		return nil, fmt.Errorf("%w: nested split envelope", ErrInvalidFormat)
	}
	opts.Logger.Debug("reassembled split envelope", "parts", len(parts), "size", len(joined))
	return decodeEnvelope(ctx, env, path, opts)
}
