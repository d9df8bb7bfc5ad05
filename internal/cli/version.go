package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/inventario/pkg/inventario"
)

const modulePath = "github.com/mesh-intelligence/inventario"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the inventario version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "inventario v%s\nmodule: %s\n", inventario.Version, modulePath)
			return nil
		},
	}
}
