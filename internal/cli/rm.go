package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete recorded encode sessions",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRm,
	}

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	for _, id := range args {
		if err := s.Rm(cmd.Context(), id); err != nil {
			exitErr("rm", err)
		}
		if jsonOutput() {
			fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"id":%q}`+"\n", id)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "removed "+id)
		}
	}
}
