package codec

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/rcliao/utcp/internal/envelope"
	"github.com/rcliao/utcp/internal/meta"
	"github.com/rcliao/utcp/internal/model"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }

func testOptions() Options {
	opts := DefaultOptions()
	opts.Now = fixedNow
	return opts
}

func encode(t *testing.T, content, path string, opts Options) *Result {
	t.Helper()
	res, err := Encode(context.Background(), content, path, opts)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return res
}

func decode(t *testing.T, text, path string, opts DecodeOptions) *Decoded {
	t.Helper()
	d, err := Decode(context.Background(), text, path, opts)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return d
}

// roundTrip encodes content, decodes the envelope and requires an exact,
// verified reconstruction.
func roundTrip(t *testing.T, content, path string, opts Options) (*Result, *Decoded) {
	t.Helper()
	res := encode(t, content, path, opts)
	d := decode(t, res.Text, path+meta.EnvelopeExt, DecodeOptions{Now: fixedNow})
	if d.Content != content {
		t.Fatalf("round trip mismatch for %s envelope\nenvelope:\n%s\ngot:\n%q", res.Format(), res.Text, d.Content)
	}
	if !d.Verified() {
		t.Errorf("expected verified decode, got %s", d.Verification)
	}
	return res, d
}

const simpleJS = "function test() {\n  return \"Hello World\";\n}"

func verboseJS() string {
	line := "  const subscriptionRenewalAmount = calculateSubscriptionRenewalAmount(customerAccountIdentifier);\n"
	return "function renewAll() {\n" + strings.Repeat(line, 40) + "}\n"
}

func TestEncode_Light(t *testing.T) {
	res, d := roundTrip(t, simpleJS, "simple.js", testOptions())
	if res.Format() != envelope.FormatLight {
		t.Fatalf("expected light, got %s", res.Format())
	}
	if d.Meta.Type != "js" || d.Meta.Size != len(simpleJS) {
		t.Errorf("unexpected metadata %+v", d.Meta)
	}
	if d.OutputFilename != "simple.js" {
		t.Errorf("output name %q", d.OutputFilename)
	}
}

func TestEncode_OriginalFallback(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&b, "w%03d ", i)
	}
	res, d := roundTrip(t, b.String(), "unique.txt", testOptions())
	if res.Format() != envelope.FormatOriginal {
		t.Fatalf("expected original, got %s", res.Format())
	}
	if d.Meta.Checksum != meta.Checksum(b.String()) {
		t.Errorf("checksum %s", d.Meta.Checksum)
	}
}

func TestEncode_StandardRatio(t *testing.T) {
	content := strings.Repeat(strings.Repeat("ab", 40)+"\n", 100)
	res, _ := roundTrip(t, content, "pattern.txt", testOptions())
	if res.Format() != envelope.FormatStandard {
		t.Fatalf("expected standard, got %s", res.Format())
	}
	if res.Ratio <= 1 {
		t.Errorf("expected ratio > 1, got %f", res.Ratio)
	}
	if res.DictEntries == 0 {
		t.Error("expected dictionary entries")
	}
}

func TestEncode_StandardCode(t *testing.T) {
	res, _ := roundTrip(t, verboseJS(), "renew.js", testOptions())
	if res.Format() != envelope.FormatStandard {
		t.Fatalf("expected standard, got %s", res.Format())
	}
	std := res.Envelope.(*envelope.Standard)
	if std.Dicts.Domain(model.GlobalDomain) == nil {
		t.Error("expected a global dictionary")
	}
	if !strings.Contains(std.Content, ">> ") {
		t.Errorf("expected indentation shorthand in %q", std.Content)
	}

	seen := map[string]bool{}
	for _, d := range std.Dicts {
		for _, e := range d.Entries {
			if seen[e.Code] {
				t.Errorf("duplicate code %s", e.Code)
			}
			seen[e.Code] = true
		}
	}
}

func TestEncode_ParallelMatchesSequential(t *testing.T) {
	seq := encode(t, verboseJS(), "renew.js", testOptions())

	opts := testOptions()
	opts.UseParallelCounting = true
	opts.ParallelThreshold = 1
	par := encode(t, verboseJS(), "renew.js", opts)

	if seq.Text != par.Text {
		t.Error("parallel counting changed the envelope")
	}
}

func TestEncode_PreserveVerbatim(t *testing.T) {
	section := "Subscription renewal documentation describes customerAccountIdentifier handling.\n\n" +
		"```js\ncalculateSubscriptionRenewalAmount(customerAccountIdentifier);\n```\n\n"
	content := strings.Repeat(section, 30)
	opts := testOptions()
	opts.PreserveVerbatim = true

	res, _ := roundTrip(t, content, "guide.md", opts)
	if res.Format() != envelope.FormatStandard {
		t.Fatalf("expected standard, got %s", res.Format())
	}
	std := res.Envelope.(*envelope.Standard)
	if got := strings.Count(std.Content, "<VERB>```js"); got != 30 {
		t.Errorf("expected 30 verbatim blocks, got %d", got)
	}
	if strings.Count(std.Content, "<VERB>") != strings.Count(std.Content, "</VERB>") {
		t.Error("unbalanced verbatim tags")
	}
}

func TestEncode_NestedIndentation(t *testing.T) {
	block := "function renewSubscriptions() {\n" +
		"  if (subscriptionRenewalEnabled) {\n" +
		"    while (customerAccountIdentifier) {\n" +
		"      calculateSubscriptionRenewalAmount(customerAccountIdentifier);\n" +
		"    }\n" +
		"  }\n" +
		"}\n"
	content := strings.Repeat(block, 30)

	res, _ := roundTrip(t, content, "renew.js", testOptions())
	if res.Format() != envelope.FormatStandard {
		t.Fatalf("expected standard, got %s", res.Format())
	}
	std := res.Envelope.(*envelope.Standard)

	lines := strings.Split(std.Content, "\n")
	nested := false
	for i := 0; i+2 < len(lines); i++ {
		if strings.HasPrefix(lines[i], ">> ") && strings.HasPrefix(lines[i+1], ">> ") && strings.HasPrefix(lines[i+2], ">> ") {
			nested = true
			break
		}
	}
	if !nested {
		t.Errorf("expected three consecutive indent-in lines, content:\n%s", std.Content)
	}
	if !strings.Contains(std.Content, "\n<< }\n<< }\n") {
		t.Error("expected indent-out lines closing the nested blocks")
	}
	if strings.Contains(std.Content, "      ") {
		t.Error("six-space indentation should be written as shorthand")
	}
}

func TestEncode_SelfCheckRejectsMarkers(t *testing.T) {
	content := strings.Repeat("extraordinarily verbose $G1 vocabulary\n", 50)
	opts := testOptions().withDefaults()
	m := meta.Generate("markers.txt", content, fixedNow())

	_, _, ok, err := encodeStandard(context.Background(), content, m, opts)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("candidate with a literal $G1 should fail the self-check")
	}

	res, _ := roundTrip(t, content, "markers.txt", testOptions())
	if res.Format() != envelope.FormatOriginal {
		t.Errorf("expected original fallback, got %s", res.Format())
	}
}

func TestEncode_SplitRoundTrip(t *testing.T) {
	content := strings.Repeat(strings.Repeat("ab", 40)+"\n", 100)
	opts := testOptions()
	opts.SplitByTokenBudget = true
	opts.MaxTokensPerFile = 100

	res := encode(t, content, "pattern.txt", opts)
	if res.Index == nil || len(res.Parts) < 2 {
		t.Fatalf("expected split output, got %+v", res.Index)
	}

	files := map[string]string{}
	for i, p := range res.Parts {
		files[res.Index.Parts[i]] = p.String()
	}
	load := func(_ context.Context, name string) (string, error) {
		text, ok := files[name]
		if !ok {
			return "", fs.ErrNotExist
		}
		return text, nil
	}

	d := decode(t, res.Index.String(), "pattern.txt.utcp", DecodeOptions{LoadPart: load, Now: fixedNow})
	if d.Content != content || !d.Verified() {
		t.Errorf("split round trip failed (verified=%v)", d.Verified())
	}
	if d.OutputFilename != "pattern.txt" {
		t.Errorf("output name %q", d.OutputFilename)
	}
}

func TestEncode_NoSplitUnderBudget(t *testing.T) {
	opts := testOptions()
	opts.SplitByTokenBudget = true
	if res := encode(t, simpleJS, "simple.js", opts); res.Index != nil {
		t.Error("small envelope should not be split")
	}
}

func TestDecode_Passthrough(t *testing.T) {
	text := "plain notes\nnothing encoded here\n"
	d := decode(t, text, "notes.txt", DecodeOptions{Now: fixedNow})
	if d.Format != envelope.FormatRaw || d.Content != text || !d.Verified() {
		t.Errorf("unexpected passthrough result %+v", d)
	}
	if d.Meta.Size != len(text) || d.Meta.Lines != 3 || d.Meta.Type != "txt" {
		t.Errorf("unexpected synthesized metadata %+v", d.Meta)
	}
	if d.OutputFilename != "notes.txt.decompressed" {
		t.Errorf("output name %q", d.OutputFilename)
	}
}

func TestDecode_OutputOverride(t *testing.T) {
	d := decode(t, "x", "a.utcp", DecodeOptions{OutputFilename: "out.txt"})
	if d.OutputFilename != "out.txt" {
		t.Errorf("output name %q", d.OutputFilename)
	}
}

func TestDecode_VerificationMismatch(t *testing.T) {
	std := &envelope.Standard{
		Meta:        model.Metadata{Type: "txt", Checksum: "deadbeef", Size: 5, Lines: 1, Date: "2024-03-01T12:30:00.000Z"},
		Content:     "hello",
		EOFChecksum: meta.Checksum("hello"),
	}
	d := decode(t, std.String(), "hello.txt.utcp", DecodeOptions{})
	if d.Verified() {
		t.Fatal("expected verification failure")
	}
	want := Verification{Checksum: false, Size: true, Lines: true, EOF: true}
	if d.Verification != want {
		t.Errorf("verification %+v, want %+v", d.Verification, want)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		opts     DecodeOptions
		want     error
		category string
	}{
		{
			name:     "missing metadata",
			text:     "<UTCP-v1>\n<CONTENT>\nx\n</CONTENT>\n</UTCP-v1>",
			want:     ErrIncompleteMetadata,
			category: "incomplete-metadata",
		},
		{
			name:     "unterminated dictionary",
			text:     "<UTCP-v1>\n<DICT:global>\n$G1=x\n",
			want:     ErrInvalidFormat,
			category: "invalid-format",
		},
		{
			name:     "lone part",
			text:     (&envelope.SplitPart{TotalFiles: 2, Part: 1, TotalParts: 2, Data: "x"}).String(),
			want:     ErrPartsRequired,
			category: "parts-required",
		},
		{
			name:     "index without loader",
			text:     (&envelope.SplitIndex{TotalFiles: 1, TotalSize: 1, EstimatedTokens: 1, Parts: []string{"a.part1.utcp"}}).String(),
			want:     ErrPartsRequired,
			category: "parts-required",
		},
		{
			name: "index pointing at a non-part",
			text: (&envelope.SplitIndex{TotalFiles: 1, TotalSize: 1, EstimatedTokens: 1, Parts: []string{"a.part1.utcp"}}).String(),
			opts: DecodeOptions{LoadPart: func(context.Context, string) (string, error) {
				return (&envelope.Light{Size: 1, Content: "x"}).String(), nil
			}},
			want:     ErrPartMismatch,
			category: "part-mismatch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(context.Background(), tt.text, "a.utcp", tt.opts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if got := Classify(err); got != tt.category {
				t.Errorf("Classify = %q, want %q", got, tt.category)
			}
		})
	}
}

func TestClassify_Other(t *testing.T) {
	if Classify(nil) != "" {
		t.Error("nil error should have no category")
	}
	if got := Classify(fmt.Errorf("read: %w", fs.ErrNotExist)); got != "not-found" {
		t.Errorf("got %q", got)
	}
	if got := Classify(errors.New("boom")); got != "internal" {
		t.Errorf("got %q", got)
	}
}

func TestEncode_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Encode(ctx, simpleJS, "simple.js", testOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDecode_CRLFConvertedEnvelope(t *testing.T) {
	content := strings.Repeat(strings.Repeat("ab", 40)+"\n", 100)
	res := encode(t, content, "pattern.txt", testOptions())
	if res.Format() != envelope.FormatStandard {
		t.Fatalf("expected standard, got %s", res.Format())
	}

	converted := strings.ReplaceAll(res.Text, "\n", "\r\n")
	d, err := Decode(context.Background(), converted, "pattern.txt.utcp", DecodeOptions{Now: fixedNow})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Format != envelope.FormatStandard {
		t.Errorf("format %s", d.Format)
	}
	if d.Meta != res.Meta {
		t.Errorf("metadata %+v, want %+v", d.Meta, res.Meta)
	}
	if got := strings.ReplaceAll(d.Content, "\r\n", "\n"); got != content {
		t.Errorf("content does not match after normalizing line endings:\n%q", d.Content)
	}
	if d.Verified() {
		t.Error("CRLF content should fail its checksum")
	}
}
