package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/inventario/internal/workflow"
)

func newScanCmd() *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "scan <code> <quantity>",
		Short: "Record a scanned code with its counted quantity",
		Long: `Scan records a new code with the current time. If the code was already
counted, nothing changes and the existing quantity is shown; rerun with
--overwrite to replace it.

Every new code counts toward the next automatic backup.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, overwrite)
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace the quantity of an already counted code")
	return cmd
}

// scanJSON is the --json shape of a scan.
type scanJSON struct {
	resultJSON
	Code             string `json:"code"`
	Quantity         int    `json:"quantity"`
	Created          bool   `json:"created"`
	Duplicate        bool   `json:"duplicate"`
	ExistingQuantity int    `json:"existing_quantity,omitempty"`
	Backup           string `json:"backup,omitempty"`
}

func runScan(cmd *cobra.Command, args []string, overwrite bool) error {
	code := args[0]
	qty, err := parseQuantity(args[1])
	if err != nil {
		return err
	}
	return withSession(func(s *session) error {
		if overwrite {
			res := s.flows.Overwrite(code, qty)
			return report(cmd, res, scanJSON{resultJSON: toResultJSON(res), Code: code, Quantity: qty},
				fmt.Sprintf("%s set to %d", code, qty))
		}

		res := s.flows.ConfirmRead(code, qty)
		out := scanJSON{
			resultJSON:       toResultJSON(res.Result),
			Code:             code,
			Quantity:         qty,
			Created:          res.Created,
			Duplicate:        res.Duplicate,
			ExistingQuantity: res.ExistingQuantity,
			Backup:           res.BackupName,
		}
		return report(cmd, res.Result, out, scanText(code, qty, res))
	})
}

func scanText(code string, qty int, res workflow.ConfirmResult) string {
	switch {
	case res.Duplicate:
		return fmt.Sprintf("%s already counted with quantity %d; rerun with --overwrite to replace it", code, res.ExistingQuantity)
	case res.BackupCreated:
		return fmt.Sprintf("%s x%d saved; backup %s created", code, qty, res.BackupName)
	default:
		return fmt.Sprintf("%s x%d saved", code, qty)
	}
}
