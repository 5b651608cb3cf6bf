package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rcliao/utcp/internal/codec"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// field renders one "label value" line of a text summary.
func field(label string, value any) string {
	return labelStyle.Render(label) + " " + valueStyle.Render(fmt.Sprint(value))
}

func bytesOf(n int) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

func ratioOf(r float64) string {
	return fmt.Sprintf("%.2fx", r)
}

func checksLine(v codec.Verification) string {
	var parts []string
	for _, c := range []struct {
		name string
		ok   bool
	}{{"checksum", v.Checksum}, {"size", v.Size}, {"lines", v.Lines}, {"eof", v.EOF}} {
		if c.ok {
			parts = append(parts, okStyle.Render("✓")+" "+c.name)
		} else {
			parts = append(parts, failStyle.Render("✗")+" "+c.name)
		}
	}
	return strings.Join(parts, "  ")
}

func status(ok bool, yes, no string) string {
	if ok {
		return okStyle.Render(yes)
	}
	return failStyle.Render(no)
}
