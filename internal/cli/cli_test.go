package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestDirLoader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "doc.txt.part1.utcp"), []byte("part one"), 0o644); err != nil {
		t.Fatal(err)
	}
	load := dirLoader(dir)

	got, err := load(context.Background(), "doc.txt.part1.utcp")
	if err != nil || got != "part one" {
		t.Fatalf("load = %q, %v", got, err)
	}

	// Directory components in an index entry are ignored.
	got, err = load(context.Background(), "../elsewhere/doc.txt.part1.utcp")
	if err != nil || got != "part one" {
		t.Errorf("load with path = %q, %v", got, err)
	}

	if _, err := load(context.Background(), "missing.utcp"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := load(ctx, "doc.txt.part1.utcp"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEncodeOptions_FlagsOverrideConfig(t *testing.T) {
	cmd, _, err := RootCmd.Find([]string{"encode"})
	if err != nil {
		t.Fatalf("find encode: %v", err)
	}

	opts := encodeOptions(cmd)
	if opts.MinOccurrences != 3 || opts.SplitByTokenBudget {
		t.Fatalf("expected config defaults, got %+v", opts)
	}

	cmd.Flags().Set("min-occurrences", "7")
	cmd.Flags().Set("split", "true")
	cmd.Flags().Set("max-tokens", "500")
	opts = encodeOptions(cmd)
	if opts.MinOccurrences != 7 || !opts.SplitByTokenBudget || opts.MaxTokensPerFile != 500 {
		t.Errorf("flags not applied: %+v", opts)
	}
	if opts.MinTermLength != getConfig().Encode.MinTermLength {
		t.Errorf("unset flag should keep the config value, got %d", opts.MinTermLength)
	}
}
