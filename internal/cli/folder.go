package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/inventario/internal/paths"
	"github.com/mesh-intelligence/inventario/pkg/types"
)

func newFolderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Choose and inspect the folder holding inventario.csv",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <dir>",
		Short: "Grant access to a folder and make it the active one",
		Args:  cobra.ExactArgs(1),
		RunE:  runFolderSet,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the active folder",
		Args:  cobra.NoArgs,
		RunE:  runFolderShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check that the active folder is still readable and writable",
		Args:  cobra.NoArgs,
		RunE:  runFolderCheck,
	})
	return cmd
}

func runFolderSet(cmd *cobra.Command, args []string) error {
	h, err := paths.FolderHandle(args[0])
	if err != nil {
		return userError("folder %q: %w", args[0], err)
	}
	return withSession(func(s *session) error {
		if err := s.repo.SetFolder(h); err != nil {
			if errors.Is(err, types.ErrPermission) {
				return userError("%w", err)
			}
			return sysError("save folder: %w", err)
		}
		res := s.flows.Load()
		if flags.jsonMode {
			return printJSON(cmd, map[string]any{
				"folder":  h.String(),
				"records": res.Records,
				"result":  toResultJSON(res.Result),
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "folder set to %s (%d records)\n", h, res.Records)
		return resultError(res.Result)
	})
}

func runFolderShow(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		h, ok := s.repo.Folder()
		if flags.jsonMode {
			return printJSON(cmd, map[string]any{"folder": h.String(), "set": ok})
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no folder selected")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), h)
		return nil
	})
}

func runFolderCheck(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		h, _ := s.repo.Folder()
		ok := s.repo.HasPermission()
		if flags.jsonMode {
			if err := printJSON(cmd, map[string]any{"folder": h.String(), "accessible": ok}); err != nil {
				return err
			}
		} else if ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is accessible\n", h)
		}
		if !ok {
			return userError("no accessible folder selected; run \"inventario folder set <dir>\"")
		}
		return nil
	})
}
