package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/utcp/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db          *sql.DB
	compression Compression

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewSQLiteStore opens or creates a SQLite catalog at the given path.
// Bodies are written with the given compression (zstd when empty).
func NewSQLiteStore(dbPath string, compression Compression) (*SQLiteStore, error) {
	if compression == "" {
		compression = CompressionZstd
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:          db,
		compression: compression,
		entropy:     ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS envelopes (
		id            TEXT PRIMARY KEY,
		path          TEXT NOT NULL,
		format        TEXT NOT NULL,
		content_key   TEXT NOT NULL,
		type          TEXT NOT NULL,
		checksum      TEXT NOT NULL,
		size          INTEGER NOT NULL,
		lines         INTEGER NOT NULL,
		date          TEXT NOT NULL,
		ratio         REAL NOT NULL,
		envelope_size INTEGER NOT NULL,
		dict_entries  INTEGER NOT NULL DEFAULT 0,
		ref_count     INTEGER NOT NULL DEFAULT 0,
		compression   TEXT NOT NULL,
		body          BLOB NOT NULL,
		created_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_envelopes_content ON envelopes(content_key);
	CREATE INDEX IF NOT EXISTS idx_envelopes_path ON envelopes(path);
	CREATE INDEX IF NOT EXISTS idx_envelopes_format ON envelopes(format);
	`
	_, err := s.db.Exec(schema)
	return err
}

const recordColumns = `id, path, format, content_key, type, checksum, size, lines, date,
	ratio, envelope_size, dict_entries, ref_count, compression, created_at`

func (s *SQLiteStore) Put(ctx context.Context, p PutParams) (*model.Record, error) {
	now := time.Now().UTC()
	rec := &model.Record{
		ID:           s.newID(now),
		Path:         p.Path,
		Format:       p.Format,
		ContentKey:   ContentKey(p.Content),
		Meta:         p.Meta,
		Ratio:        p.Ratio,
		EnvelopeSize: len(p.Body),
		DictEntries:  p.DictEntries,
		RefCount:     p.RefCount,
		CreatedAt:    now,
	}
	if _, err := s.insert(ctx, rec, p.Body, false); err != nil {
		return nil, err
	}
	return rec, nil
}

// insert compresses body and writes rec, filling in rec.Compression. With
// skipExisting an id that is already present is left alone and false is
// returned.
func (s *SQLiteStore) insert(ctx context.Context, rec *model.Record, body string, skipExisting bool) (bool, error) {
	data, used, err := compressBody([]byte(body), s.compression)
	if err != nil {
		return false, fmt.Errorf("compress body: %w", err)
	}
	if data == nil {
		data = []byte{}
	}
	rec.Compression = string(used)

	verb := "INSERT"
	if skipExisting {
		verb = "INSERT OR IGNORE"
	}
	res, err := s.db.ExecContext(ctx,
		verb+` INTO envelopes (id, path, format, content_key, type, checksum, size, lines, date,
		                        ratio, envelope_size, dict_entries, ref_count, compression, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Path, rec.Format, rec.ContentKey, rec.Meta.Type, rec.Meta.Checksum,
		rec.Meta.Size, rec.Meta.Lines, rec.Meta.Date, rec.Ratio, rec.EnvelopeSize,
		rec.DictEntries, rec.RefCount, rec.Compression, data, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("insert envelope: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM envelopes WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) Body(ctx context.Context, id string) (string, error) {
	var (
		body        []byte
		compression string
		size        int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT body, compression, envelope_size FROM envelopes WHERE id = ?`, id).
		Scan(&body, &compression, &size)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return "", err
	}
	out, err := decompressBody(body, Compression(compression), size)
	if err != nil {
		return "", fmt.Errorf("read body %s: %w", id, err)
	}
	return string(out), nil
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.Record, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"1 = 1"}
	var args []interface{}
	if p.Path != "" {
		where = append(where, "instr(path, ?) > 0")
		args = append(args, p.Path)
	}
	if p.Format != "" {
		where = append(where, "format = ?")
		args = append(args, p.Format)
	}

	query := fmt.Sprintf(`SELECT %s FROM envelopes WHERE %s ORDER BY id DESC LIMIT ?`,
		recordColumns, strings.Join(where, " AND "))
	args = append(args, limit)

	return s.queryRecords(ctx, query, args...)
}

func (s *SQLiteStore) FindByContent(ctx context.Context, content string) ([]model.Record, error) {
	return s.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM envelopes WHERE content_key = ? ORDER BY id DESC`,
		ContentKey(content))
}

func (s *SQLiteStore) Rm(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM envelopes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) queryRecords(ctx context.Context, query string, args ...interface{}) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (model.Record, error) {
	var r model.Record
	var createdAt string

	err := row.Scan(
		&r.ID, &r.Path, &r.Format, &r.ContentKey, &r.Meta.Type, &r.Meta.Checksum,
		&r.Meta.Size, &r.Meta.Lines, &r.Meta.Date, &r.Ratio, &r.EnvelopeSize,
		&r.DictEntries, &r.RefCount, &r.Compression, &createdAt,
	)
	if err != nil {
		return r, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return r, nil
}
