package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/utcp/internal/diff"
)

func init() {
	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Decode an envelope and check it against its metadata or the original",
		Long: "Decode an envelope in memory and report the metadata checks. With --original,\n" +
			"also compare against the original file and print a unified diff on mismatch.\n" +
			"Exits non-zero when any check fails.",
		Args: cobra.ExactArgs(1),
		Run:  runVerify,
	}

	cmd.Flags().String("original", "", "Original document to compare against")
	cmd.Flags().Int("context", diff.DefaultContext, "Diff context lines")

	RootCmd.AddCommand(cmd)
}

type verifySummary struct {
	decodeSummary
	Original string `json:"original,omitempty"`
	Matches  *bool  `json:"matches_original,omitempty"`
	Diff     string `json:"diff,omitempty"`
}

func runVerify(cmd *cobra.Command, args []string) {
	path := args[0]
	original, _ := cmd.Flags().GetString("original")
	context, _ := cmd.Flags().GetInt("context")

	d, err := decodeFile(cmd.Context(), path, "")
	if err != nil {
		exitErr("decode", err)
	}

	sum := verifySummary{
		decodeSummary: decodeSummary{
			Path:         path,
			Format:       string(d.Format),
			Size:         len(d.Content),
			Verified:     d.Verified(),
			Verification: d.Verification,
		},
		Original: original,
	}
	ok := d.Verified()

	if original != "" {
		want, err := os.ReadFile(original)
		if err != nil {
			exitErr("read original", err)
		}
		matches := string(want) == d.Content
		sum.Matches = &matches
		ok = ok && matches
		if !matches {
			sum.Diff = diff.Unified(original, path+" (decoded)", string(want), d.Content, context)
		}
	}

	if jsonOutput() {
		printJSON(sum)
	} else {
		fmt.Println(headStyle.Render("Verify " + path))
		fmt.Println(field("format", sum.Format))
		fmt.Println(field("metadata", status(sum.Verified, "ok", "FAILED")))
		fmt.Println(labelStyle.Render("") + " " + checksLine(sum.Verification))
		if sum.Matches != nil {
			fmt.Println(field("original", status(*sum.Matches, "identical", "DIFFERS")))
		}
		if sum.Diff != "" {
			fmt.Println()
			fmt.Print(sum.Diff)
		}
	}

	if !ok {
		os.Exit(1)
	}
}
