package codec

import (
	"context"
	"errors"
	"io/fs"

	"github.com/rcliao/utcp/internal/split"
)

// Decode failures. Encode recovers from its own failure modes locally.
var (
	ErrInvalidFormat      = errors.New("invalid envelope format")
	ErrIncompleteMetadata = errors.New("incomplete metadata")
	ErrPartsRequired      = errors.New("split parts required")
	ErrPartMismatch       = split.ErrMismatch
)

// Classify maps err to a short category for exit messages.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIncompleteMetadata):
		return "incomplete-metadata"
	case errors.Is(err, ErrInvalidFormat):
		return "invalid-format"
	case errors.Is(err, ErrPartsRequired):
		return "parts-required"
	case errors.Is(err, ErrPartMismatch):
		return "part-mismatch"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, fs.ErrNotExist):
		return "not-found"
	}
	return "internal"
}
