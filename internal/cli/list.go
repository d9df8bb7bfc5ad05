package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List counted codes, newest first",
		Long: `List prints the counted codes, most recent read first.

--search keeps only codes containing the text, ignoring case.

Example:
  inventario list
  inventario list --search 7891
  inventario list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, search)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only codes containing this text")
	return cmd
}

// recordJSON is the --json shape of a record.
type recordJSON struct {
	Code      string `json:"code"`
	Quantity  int    `json:"quantity"`
	Timestamp string `json:"timestamp"`
}

func runList(cmd *cobra.Command, search string) error {
	return withSession(func(s *session) error {
		if res := s.flows.Load(); !res.OK {
			if res.NeedsFolder {
				return userError("%s; run \"inventario folder set <dir>\"", res.Message)
			}
			return resultError(res.Result)
		}

		codec := s.store.Codec()
		records := s.repo.List(search)
		if flags.jsonMode {
			out := make([]recordJSON, 0, len(records))
			for _, r := range records {
				out = append(out, recordJSON{
					Code:      r.Code,
					Quantity:  r.Quantity,
					Timestamp: codec.FormatTimestamp(r.Timestamp),
				})
			}
			return printJSON(cmd, out)
		}

		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no items")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tQTY\tREAD")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Code, r.Quantity, codec.FormatDisplay(r.Timestamp))
		}
		return tw.Flush()
	})
}
