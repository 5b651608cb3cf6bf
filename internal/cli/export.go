package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog as JSON",
		Long:  "Export every recorded session, envelope body included, as a JSON array. Filter with --envelope.",
		Run:   runExport,
	}

	cmd.Flags().String("envelope", "", "Filter by envelope format")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	format, _ := cmd.Flags().GetString("envelope")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	records, err := s.ExportAll(cmd.Context(), format)
	if err != nil {
		exitErr("export", err)
	}
	printJSON(records)
}
