package store

import (
	"context"
	"os"
)

// Stats holds catalog statistics.
type Stats struct {
	DBPath        string        `json:"db_path"`
	DBSizeBytes   int64         `json:"db_size_bytes"`
	Envelopes     int           `json:"envelopes"`
	OriginalBytes int64         `json:"original_bytes"`
	EnvelopeBytes int64         `json:"envelope_bytes"`
	Formats       []FormatStats `json:"formats"`
}

// FormatStats holds per-format counts.
type FormatStats struct {
	Format        string  `json:"format"`
	Count         int     `json:"count"`
	OriginalBytes int64   `json:"original_bytes"`
	EnvelopeBytes int64   `json:"envelope_bytes"`
	AvgRatio      float64 `json:"avg_ratio"`
}

// Ratio is the overall original/envelope size ratio, 0 for an empty catalog.
func (st *Stats) Ratio() float64 {
	if st.EnvelopeBytes == 0 {
		return 0
	}
	return float64(st.OriginalBytes) / float64(st.EnvelopeBytes)
}

// Stats returns catalog statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(size), 0), COALESCE(SUM(envelope_size), 0) FROM envelopes`).
		Scan(&st.Envelopes, &st.OriginalBytes, &st.EnvelopeBytes)
	if err != nil {
		return st, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT format, COUNT(*) AS cnt, SUM(size), SUM(envelope_size), AVG(ratio)
		FROM envelopes
		GROUP BY format ORDER BY cnt DESC, format`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var f FormatStats
		if err := rows.Scan(&f.Format, &f.Count, &f.OriginalBytes, &f.EnvelopeBytes, &f.AvgRatio); err != nil {
			return st, err
		}
		st.Formats = append(st.Formats, f)
	}
	return st, rows.Err()
}
