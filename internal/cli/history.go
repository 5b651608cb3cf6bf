package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/utcp/internal/model"
	"github.com/rcliao/utcp/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded encode sessions",
		Run:   runHistory,
	}

	cmd.Flags().StringP("path", "p", "", "Filter by path substring")
	cmd.Flags().String("envelope", "", "Filter by envelope format (light, standard, original)")
	cmd.Flags().String("content-of", "", "Only sessions that encoded the same content as this file")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("ids-only", false, "Only output record ids")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	path, _ := cmd.Flags().GetString("path")
	format, _ := cmd.Flags().GetString("envelope")
	contentOf, _ := cmd.Flags().GetString("content-of")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var records []model.Record
	if contentOf != "" {
		data, err := os.ReadFile(contentOf)
		if err != nil {
			exitErr("read file", err)
		}
		records, err = s.FindByContent(cmd.Context(), string(data))
		if err != nil {
			exitErr("history", err)
		}
	} else {
		records, err = s.List(cmd.Context(), store.ListParams{
			Path:   path,
			Format: format,
			Limit:  limit,
		})
		if err != nil {
			exitErr("history", err)
		}
	}

	if idsOnly {
		for _, r := range records {
			fmt.Println(r.ID)
		}
		return
	}
	if jsonOutput() {
		if records == nil {
			records = []model.Record{}
		}
		printJSON(records)
		return
	}
	if len(records) == 0 {
		fmt.Println(dimStyle.Render("no recorded sessions"))
		return
	}
	for _, r := range records {
		fmt.Printf("%s  %-8s  %8s -> %-8s  %7s  %s\n",
			dimStyle.Render(r.ID),
			r.Format,
			bytesOf(r.Meta.Size),
			bytesOf(r.EnvelopeSize),
			ratioOf(r.Ratio),
			r.Path,
		)
	}
}
