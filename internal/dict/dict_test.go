package dict

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rcliao/utcp/internal/model"
	"github.com/rcliao/utcp/internal/textscan"
)

func build(t *testing.T, content, fileType string, opts Options) model.Dictionaries {
	t.Helper()
	d, err := Build(context.Background(), content, fileType, opts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return d
}

func TestBuild_RanksByLengthTimesCount(t *testing.T) {
	d := build(t, "alpha alpha alpha bravoo bravoo charlie", "", DefaultOptions())
	want := model.Dictionaries{{
		Domain: model.GlobalDomain,
		Entries: []model.Entry{
			{Code: "$G1", Term: "alpha"},
			{Code: "$G2", Term: "bravoo"},
		},
	}}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("dictionaries mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_TiesKeepFirstOccurrence(t *testing.T) {
	d := build(t, "zebra apple zebra apple", "", DefaultOptions())
	g := d.Domain(model.GlobalDomain)
	if g == nil || len(g.Entries) != 2 {
		t.Fatalf("expected 2 global entries, got %+v", d)
	}
	if g.Entries[0].Term != "zebra" || g.Entries[1].Term != "apple" {
		t.Errorf("expected zebra before apple, got %+v", g.Entries)
	}
}

func TestBuild_WordsAndReservedKeywords(t *testing.T) {
	d := build(t, "12345 12345 function function", "", DefaultOptions())
	g := d.Domain(model.GlobalDomain)
	if g == nil {
		t.Fatal("expected a global dictionary")
	}
	want := []model.Entry{
		{Code: "$G1", Term: "function"},
		{Code: "$G2", Term: "12345"},
	}
	if diff := cmp.Diff(want, g.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_MinOccurrences(t *testing.T) {
	opts := DefaultOptions()
	opts.MinOccurrences = 3
	if d := build(t, "alpha alpha bravo", "", opts); len(d) != 0 {
		t.Errorf("expected no dictionaries, got %+v", d)
	}
}

func TestBuild_FunctionBlocks(t *testing.T) {
	fn := "function add(a, b) { return a + b; }"
	d := build(t, strings.Repeat(fn+"\n", 3), "", DefaultOptions())
	g := d.Domain(model.GlobalDomain)
	if g == nil || len(g.Entries) == 0 {
		t.Fatal("expected global entries")
	}
	if g.Entries[0].Term != fn {
		t.Errorf("expected function block first, got %q", g.Entries[0].Term)
	}
}

func TestBuild_MultiLineFunctionsAreNotTerms(t *testing.T) {
	fn := "function add(a, b) {\n  return a + b;\n}"
	d := build(t, strings.Repeat(fn+"\n", 3), "", DefaultOptions())
	for _, e := range d.Domain(model.GlobalDomain).Entries {
		if strings.Contains(e.Term, "\n") {
			t.Errorf("multi-line term %q", e.Term)
		}
	}
}

func TestBuild_DomainDictionary(t *testing.T) {
	d := build(t, "return x; return y; return z; if if if", "js", DefaultOptions())
	code := d.Domain("code")
	if code == nil {
		t.Fatal("expected a code dictionary")
	}
	want := []model.Entry{{Code: "$C1", Term: "return"}}
	if diff := cmp.Diff(want, code.Entries); diff != "" {
		t.Errorf("code entries mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_CodesUnique(t *testing.T) {
	content := strings.Repeat("function render() { return this.state; }\nconst value = compute(value);\n", 4)
	d := build(t, content, "js", DefaultOptions())
	seen := map[string]bool{}
	for _, dict := range d {
		for _, e := range dict.Entries {
			if seen[e.Code] {
				t.Errorf("duplicate code %s", e.Code)
			}
			seen[e.Code] = true
		}
	}
	if len(seen) == 0 {
		t.Error("expected some codes")
	}
}

func TestBuild_ParallelMatchesSequential(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("lorem ipsum dolor sitamet consectetur adipiscing elit ")
		if i%7 == 0 {
			b.WriteString("occasional_marker ")
		}
		b.WriteString("\n")
	}
	content := b.String()

	seq := build(t, content, "md", DefaultOptions())

	opts := DefaultOptions()
	opts.Parallel = true
	opts.ParallelThreshold = 1
	opts.Workers = 5
	par := build(t, content, "md", opts)

	if diff := cmp.Diff(seq, par); diff != "" {
		t.Errorf("parallel build differs (-seq +par):\n%s", diff)
	}
}

func TestChunkBounds(t *testing.T) {
	s := "alpha beta gamma delta epsilon zeta eta theta"
	spans := chunkBounds(s, 4)
	pos := 0
	for _, sp := range spans {
		if sp.Start != pos {
			t.Fatalf("gap at %d", pos)
		}
		if sp.End < len(s) && textscan.IsTokenByte(s[sp.End]) && textscan.IsTokenByte(s[sp.End-1]) {
			t.Errorf("boundary %d splits a token", sp.End)
		}
		pos = sp.End
	}
	if pos != len(s) {
		t.Errorf("spans end at %d, want %d", pos, len(s))
	}
}
