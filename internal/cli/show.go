package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/utcp/internal/codec"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded encode session",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}

	cmd.Flags().Bool("body", false, "Print the stored envelope")
	cmd.Flags().Bool("decode", false, "Decode the stored envelope and print the document")

	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	id := args[0]
	showBody, _ := cmd.Flags().GetBool("body")
	decode, _ := cmd.Flags().GetBool("decode")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	rec, err := s.Get(cmd.Context(), id)
	if err != nil {
		exitErr("show", err)
	}

	if showBody || decode {
		body, err := s.Body(cmd.Context(), id)
		if err != nil {
			exitErr("read body", err)
		}
		if showBody {
			fmt.Print(body)
			return
		}
		d, err := codec.Decode(cmd.Context(), body, rec.Path, codec.DecodeOptions{Logger: newLogger()})
		if err != nil {
			exitErr("decode", err)
		}
		fmt.Print(d.Content)
		return
	}

	if jsonOutput() {
		printJSON(rec)
		return
	}
	fmt.Println(headStyle.Render(rec.ID))
	fmt.Println(field("path", rec.Path))
	fmt.Println(field("format", rec.Format))
	fmt.Println(field("type", rec.Meta.Type))
	fmt.Println(field("checksum", rec.Meta.Checksum))
	fmt.Println(field("original", fmt.Sprintf("%s, %d lines", bytesOf(rec.Meta.Size), rec.Meta.Lines)))
	fmt.Println(field("envelope", fmt.Sprintf("%s (%s stored)", bytesOf(rec.EnvelopeSize), rec.Compression)))
	fmt.Println(field("ratio", ratioOf(rec.Ratio)))
	fmt.Println(field("dictionary", fmt.Sprintf("%d entries, %d refs", rec.DictEntries, rec.RefCount)))
	fmt.Println(field("encoded", rec.Meta.Date))
}
