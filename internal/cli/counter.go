package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCounterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Inspect the reads-since-last-backup counter",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the counter and the backup threshold",
		Args:  cobra.NoArgs,
		RunE:  runCounterShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset the counter to zero",
		Args:  cobra.NoArgs,
		RunE:  runCounterReset,
	})
	return cmd
}

func runCounterShow(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		reads, err := s.repo.Reads()
		if err != nil {
			return sysError("read counter: %w", err)
		}
		threshold := s.flows.Threshold()
		if flags.jsonMode {
			return printJSON(cmd, map[string]int{"reads": reads, "threshold": threshold})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d reads since last backup\n", reads, threshold)
		return nil
	})
}

func runCounterReset(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		if err := s.repo.ResetReads(); err != nil {
			return sysError("reset counter: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "counter reset")
		return nil
	})
}
