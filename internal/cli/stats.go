package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), getDBPath())
	if err != nil {
		exitErr("stats", err)
	}

	if jsonOutput() {
		printJSON(stats)
		return
	}
	fmt.Println(headStyle.Render("Catalog " + stats.DBPath))
	fmt.Println(field("db size", humanize.Bytes(uint64(stats.DBSizeBytes))))
	fmt.Println(field("sessions", humanize.Comma(int64(stats.Envelopes))))
	fmt.Println(field("original", humanize.Bytes(uint64(stats.OriginalBytes))))
	fmt.Println(field("envelopes", humanize.Bytes(uint64(stats.EnvelopeBytes))))
	fmt.Println(field("ratio", ratioOf(stats.Ratio())))
	for _, f := range stats.Formats {
		fmt.Println(field(f.Format, fmt.Sprintf("%d sessions, avg %s", f.Count, ratioOf(f.AvgRatio))))
	}
}
