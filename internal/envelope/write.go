package envelope

import (
	"fmt"
	"strings"

	"github.com/rcliao/utcp/internal/model"
)

const standardDescription = `UTCP v1 compressed text. To restore the original:
1. Take the text between <CONTENT> and </CONTENT>.
2. Replace each $REF:<id> marker with the body of the matching <REF:<id>> block.
3. A line starting with ">> " is indented one level deeper (two spaces per level); "<< " one level shallower.
4. Drop <VERB> and </VERB> tags and keep what they enclose.
5. Replace each code listed in the <DICT:...> blocks with its term, longest codes first ($G12 before $G1).`

const originalDescription = `Uncompressed UTCP file. The original text is the body of the <CONTENT> block; nothing needs decoding.`

func writeMeta(b *strings.Builder, m model.Metadata) {
	fmt.Fprintf(b, "<META:type=\"%s\">\n", m.Type)
	fmt.Fprintf(b, "<META:checksum=\"%s\">\n", m.Checksum)
	fmt.Fprintf(b, "<META:size=\"%d\">\n", m.Size)
	fmt.Fprintf(b, "<META:lines=\"%d\">\n", m.Lines)
	fmt.Fprintf(b, "<META:date=\"%s\">\n", m.Date)
}

func (e *Light) String() string {
	return fmt.Sprintf("%s\n<META:size=\"%d\">\n%s\n</UTCP-v1-light>", markLight, e.Size, e.Content)
}

func (e *Standard) String() string {
	var b strings.Builder
	b.Grow(len(e.Content) + 1024)

	b.WriteString(markStandard + "\n")
	b.WriteString("<FORMAT-DESCRIPTION>\n" + standardDescription + "\n</FORMAT-DESCRIPTION>\n\n")
	writeMeta(&b, e.Meta)
	b.WriteString("\n")

	for _, d := range e.Dicts {
		if len(d.Entries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "<DICT:%s>\n", d.Domain)
		for _, en := range d.Entries {
			b.WriteString(en.Code + "=" + en.Term + "\n")
		}
		fmt.Fprintf(&b, "</DICT:%s>\n\n", d.Domain)
	}
	for _, r := range e.Refs {
		fmt.Fprintf(&b, "<REF:%s>\n%s\n</REF:%s>\n\n", r.ID, r.Structure, r.ID)
	}

	b.WriteString("<CONTENT>\n" + e.Content + "\n</CONTENT>\n\n")
	fmt.Fprintf(&b, "<EOF:checksum=\"%s\">\n", e.EOFChecksum)
	b.WriteString("</UTCP-v1>")
	return b.String()
}

func (e *Original) String() string {
	var b strings.Builder
	b.Grow(len(e.Content) + 512)
	b.WriteString(markOriginal + "\n")
	b.WriteString("<FORMAT-DESCRIPTION>\n" + originalDescription + "\n</FORMAT-DESCRIPTION>\n")
	writeMeta(&b, e.Meta)
	b.WriteString("<CONTENT>\n" + e.Content + "\n</CONTENT>\n")
	b.WriteString("</UTCP-v1-original>")
	return b.String()
}

func (e *SplitIndex) String() string {
	var b strings.Builder
	b.WriteString(markSplitIndex + "\n")
	fmt.Fprintf(&b, "<TOTAL-FILES>%d</TOTAL-FILES>\n", e.TotalFiles)
	fmt.Fprintf(&b, "<ORIGINAL-FILENAME>%s</ORIGINAL-FILENAME>\n", e.OriginalFilename)
	fmt.Fprintf(&b, "<TOTAL-SIZE>%d</TOTAL-SIZE>\n", e.TotalSize)
	fmt.Fprintf(&b, "<ESTIMATED-TOKENS>%d</ESTIMATED-TOKENS>\n", e.EstimatedTokens)
	b.WriteString("<PARTS>\n" + strings.Join(e.Parts, "\n") + "\n</PARTS>\n")
	b.WriteString("</UTCP-SPLIT-INDEX>")
	return b.String()
}

func (e *SplitPart) String() string {
	var b strings.Builder
	b.Grow(len(e.Data) + 128)
	b.WriteString(markSplitPart + "\n")
	fmt.Fprintf(&b, "<TOTAL-FILES>%d</TOTAL-FILES>\n", e.TotalFiles)
	fmt.Fprintf(&b, "<PART>%d</PART>\n", e.Part)
	fmt.Fprintf(&b, "<TOTAL-PARTS>%d</TOTAL-PARTS>\n", e.TotalParts)
	fmt.Fprintf(&b, "<OFFSET>%d</OFFSET>\n", e.Offset)
	b.WriteString(e.Data)
	return b.String()
}

func (e *Raw) String() string { return e.Content }
