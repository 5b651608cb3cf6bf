package codec

import (
	"strings"

	"github.com/rcliao/utcp/internal/envelope"
	"github.com/rcliao/utcp/internal/meta"
	"github.com/rcliao/utcp/internal/model"
)

// Verification holds the result of each metadata check.
type Verification struct {
	Checksum bool `json:"checksum"`
	Size     bool `json:"size"`
	Lines    bool `json:"lines"`
	// EOF is the footer checksum over the processed content (Standard only).
	EOF bool `json:"eof"`
}

// OK reports whether every check passed.
func (v Verification) OK() bool {
	return v.Checksum && v.Size && v.Lines && v.EOF
}

func (v Verification) String() string {
	var failed []string
	for _, c := range []struct {
		name string
		ok   bool
	}{{"checksum", v.Checksum}, {"size", v.Size}, {"lines", v.Lines}, {"eof", v.EOF}} {
		if !c.ok {
			failed = append(failed, c.name)
		}
	}
	if len(failed) == 0 {
		return "ok"
	}
	return "failed: " + strings.Join(failed, ",")
}

// Verify recomputes checksum, size and line count over content and compares
// them with m. Every format is checked strictly. For Standard envelopes a
// non-empty eofChecksum is also checked against the processed content.
// Raw passthrough always verifies.
func Verify(format envelope.Format, m model.Metadata, content, eofChecksum, processed string) Verification {
	if format == envelope.FormatRaw {
		return Verification{true, true, true, true}
	}
	v := Verification{
		Checksum: meta.Checksum(content) == m.Checksum,
		Size:     len(content) == m.Size,
		Lines:    meta.CountLines(content) == m.Lines,
		EOF:      true,
	}
	if format == envelope.FormatStandard && eofChecksum != "" {
		v.EOF = meta.Checksum(processed) == eofChecksum
	}
	return v
}
