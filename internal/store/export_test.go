package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src, _ := newTestStore(t, CompressionZstd)

	body := strings.Repeat("<REF:R1>\nrepeated structure\n</REF:R1>\n", 50)
	p := testParams("big.txt", "big", "standard")
	p.Body = body
	first, _ := src.Put(ctx, p)
	second, _ := src.Put(ctx, testParams("small.txt", "small", "light"))

	exported, err := src.ExportAll(ctx, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(exported) != 2 || exported[0].ID != first.ID || exported[1].ID != second.ID {
		t.Fatalf("expected oldest first, got %d records", len(exported))
	}
	if exported[0].Body != body {
		t.Error("exported body does not match")
	}

	onlyLight, _ := src.ExportAll(ctx, "light")
	if len(onlyLight) != 1 || onlyLight[0].ID != second.ID {
		t.Errorf("unexpected filtered export %+v", onlyLight)
	}

	dst, err := NewSQLiteStore(filepath.Join(t.TempDir(), "dst.db"), CompressionLZ4)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer dst.Close()

	n, err := dst.Import(ctx, exported)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 imported, got %d", n)
	}

	got, err := dst.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get imported: %v", err)
	}
	if got.ContentKey != first.ContentKey || got.Compression != string(CompressionLZ4) {
		t.Errorf("unexpected imported record %+v", got)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at %v, want %v", got.CreatedAt, first.CreatedAt)
	}
	if b, _ := dst.Body(ctx, first.ID); b != body {
		t.Error("imported body does not match")
	}

	again, err := dst.Import(ctx, exported)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if again != 0 {
		t.Errorf("expected duplicates to be skipped, imported %d", again)
	}
}

func TestImportRequiresID(t *testing.T) {
	s, _ := newTestStore(t, CompressionNone)
	if _, err := s.Import(context.Background(), []Exported{{Body: "x"}}); err == nil {
		t.Error("expected an error for a record without id")
	}
}
