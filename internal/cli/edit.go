package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <code> <quantity>",
		Short: "Change the quantity of a counted code",
		Long:  "Edit replaces the quantity of a counted code. The original read time is kept.",
		Args:  cobra.ExactArgs(2),
		RunE:  runEdit,
	}
}

func runEdit(cmd *cobra.Command, args []string) error {
	code := args[0]
	qty, err := parseQuantity(args[1])
	if err != nil {
		return err
	}
	return withSession(func(s *session) error {
		res := s.flows.EditQuantity(code, qty)
		return report(cmd, res, toResultJSON(res), fmt.Sprintf("%s set to %d", code, qty))
	})
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <code>",
		Short: "Remove a counted code",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	code := args[0]
	return withSession(func(s *session) error {
		res := s.flows.Delete(code)
		return report(cmd, res, toResultJSON(res), fmt.Sprintf("%s deleted", code))
	})
}
