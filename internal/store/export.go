package store

import (
	"context"
	"fmt"

	"github.com/rcliao/utcp/internal/model"
)

// Exported is a catalog record together with its envelope text.
type Exported struct {
	model.Record
	Body string `json:"body"`
}

// ExportAll returns every record with its decompressed body, oldest first,
// optionally restricted to one envelope format.
func (s *SQLiteStore) ExportAll(ctx context.Context, format string) ([]Exported, error) {
	query := `SELECT ` + recordColumns + ` FROM envelopes`
	var args []interface{}
	if format != "" {
		query += ` WHERE format = ?`
		args = append(args, format)
	}
	records, err := s.queryRecords(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}

	out := make([]Exported, 0, len(records))
	for _, r := range records {
		body, err := s.Body(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Exported{Record: r, Body: body})
	}
	return out, nil
}

// Import stores exported records under their original ids, re-compressing
// bodies with this store's codec. Records whose id already exists are
// skipped. Returns the number imported.
func (s *SQLiteStore) Import(ctx context.Context, records []Exported) (int, error) {
	imported := 0
	for _, e := range records {
		if e.ID == "" {
			return imported, fmt.Errorf("import: record without id (path %q)", e.Path)
		}
		rec := e.Record
		rec.EnvelopeSize = len(e.Body)
		ok, err := s.insert(ctx, &rec, e.Body, true)
		if err != nil {
			return imported, fmt.Errorf("import %s: %w", e.ID, err)
		}
		if ok {
			imported++
		}
	}
	return imported, nil
}
