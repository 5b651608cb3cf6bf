package split

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct{ n, cpt, want int }{
		{0, 4, 0},
		{1, 4, 1},
		{8, 4, 2},
		{9, 4, 3},
		{9, 0, 3},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.n, tt.cpt); got != tt.want {
			t.Errorf("EstimateTokens(%d, %d) = %d, want %d", tt.n, tt.cpt, got, tt.want)
		}
	}
}

func TestNeeded(t *testing.T) {
	opts := Options{MaxTokensPerFile: 10, CharsPerToken: 4}
	if Needed(strings.Repeat("x", 40), opts) {
		t.Error("40 bytes fits in 10 tokens")
	}
	if !Needed(strings.Repeat("x", 41), opts) {
		t.Error("41 bytes exceeds 10 tokens")
	}
}

func TestWindows_CoverText(t *testing.T) {
	text := strings.Repeat("0123456789", 25)
	ws := Windows(text, Options{MaxTokensPerFile: 20, CharsPerToken: 4})
	if len(ws) != 4 {
		t.Fatalf("expected 4 windows, got %d", len(ws))
	}
	var joined strings.Builder
	for _, w := range ws {
		if w.Offset != joined.Len() {
			t.Errorf("window offset %d, want %d", w.Offset, joined.Len())
		}
		joined.WriteString(w.Text)
	}
	if joined.String() != text {
		t.Error("windows do not cover the text")
	}
}

func TestWindows_RuneBoundaries(t *testing.T) {
	text := strings.Repeat("é", 50) // 2 bytes each
	for _, w := range Windows(text, Options{MaxTokensPerFile: 1, CharsPerToken: 3}) {
		if !utf8.ValidString(w.Text) {
			t.Fatalf("window %q splits a rune", w.Text)
		}
	}
}

func TestSplit_ReassembleRoundTrip(t *testing.T) {
	text := strings.Repeat("line of envelope text\n", 30)
	idx, parts := Split(text, "/tmp/docs/big.js", Options{MaxTokensPerFile: 50, CharsPerToken: 4})

	wantParts := []string{"big.js.part1.utcp", "big.js.part2.utcp", "big.js.part3.utcp", "big.js.part4.utcp"}
	if diff := cmp.Diff(wantParts, idx.Parts); diff != "" {
		t.Errorf("part names (-want +got):\n%s", diff)
	}
	if idx.OriginalFilename != "big.js" || idx.TotalSize != len(text) || idx.EstimatedTokens != 165 {
		t.Errorf("unexpected index %+v", idx)
	}

	got, err := Reassemble(idx, parts)
	if err != nil {
		t.Fatalf("reassemble: %v", err)
	}
	if got != text {
		t.Error("reassembled text differs")
	}
}

func TestReassemble_Mismatch(t *testing.T) {
	text := strings.Repeat("abcdefgh", 20)
	opts := Options{MaxTokensPerFile: 10, CharsPerToken: 4}

	idx, parts := Split(text, "a.txt", opts)
	parts[0], parts[1] = parts[1], parts[0]
	if _, err := Reassemble(idx, parts); !errors.Is(err, ErrMismatch) {
		t.Errorf("swapped parts: expected ErrMismatch, got %v", err)
	}

	idx, parts = Split(text, "a.txt", opts)
	if _, err := Reassemble(idx, parts[:2]); !errors.Is(err, ErrMismatch) {
		t.Errorf("missing part: expected ErrMismatch, got %v", err)
	}

	idx, parts = Split(text, "a.txt", opts)
	parts[2].Offset++
	if _, err := Reassemble(idx, parts); !errors.Is(err, ErrMismatch) {
		t.Errorf("bad offset: expected ErrMismatch, got %v", err)
	}
}
