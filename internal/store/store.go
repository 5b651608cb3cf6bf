// Package store provides the envelope catalog interface and its SQLite implementation.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/utcp/internal/model"
)

// ErrNotFound is returned when no record matches an id.
var ErrNotFound = errors.New("record not found")

// PutParams holds parameters for recording an encode session.
type PutParams struct {
	Path string
	// Content is the original document; only its content key is stored.
	Content     string
	Format      string
	Meta        model.Metadata
	Ratio       float64
	DictEntries int
	RefCount    int
	// Body is the serialized envelope.
	Body string
}

// ListParams holds parameters for listing records.
type ListParams struct {
	// Path matches records whose path contains it.
	Path   string
	Format string
	Limit  int
}

// Store defines the catalog interface.
type Store interface {
	// Put records an encode session. Returns the created record.
	Put(ctx context.Context, p PutParams) (*model.Record, error)

	// Get returns the record with the given id.
	Get(ctx context.Context, id string) (*model.Record, error)

	// Body returns the decompressed envelope text of a record.
	Body(ctx context.Context, id string) (string, error)

	// List lists records matching the filters, newest first.
	List(ctx context.Context, p ListParams) ([]model.Record, error)

	// FindByContent returns the records encoded from identical content.
	FindByContent(ctx context.Context, content string) ([]model.Record, error)

	// Rm deletes a record.
	Rm(ctx context.Context, id string) error

	// Close closes the store.
	Close() error
}
