package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/inventario/internal/paths"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize inventario configuration and prefs",
		Long:  "Create the configuration directory with a default config.yaml, then create the prefs database.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		configDir, err := paths.ResolveConfigDir(flags.configDir)
		if err != nil {
			return sysError("resolve config dir: %w", err)
		}
		if flags.jsonMode {
			return printJSON(cmd, map[string]string{
				"config_dir": configDir,
				"prefs":      s.prefs.Path(),
			})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "inventario initialized successfully")
		fmt.Fprintf(out, "config: %s\nprefs:  %s\n", configDir, s.prefs.Path())
		return nil
	})
}
