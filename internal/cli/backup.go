package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/inventario/internal/logging"
	"github.com/mesh-intelligence/inventario/internal/scheduler"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create and inspect inventory backups",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Copy inventario.csv to a timestamped backup now",
		Args:  cobra.NoArgs,
		RunE:  runBackupCreate,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List backups in the active folder, oldest first",
		Args:  cobra.NoArgs,
		RunE:  runBackupList,
	})

	var spec string
	schedule := &cobra.Command{
		Use:   "schedule",
		Short: "Take backups on a cron schedule until interrupted",
		Long: `Schedule runs in the foreground and takes a backup on each tick of a
standard five-field cron expression or a descriptor such as "@hourly" or
"@every 30m". The schedule defaults to backup_schedule from config.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupSchedule(cmd, spec)
		},
	}
	schedule.Flags().StringVar(&spec, "cron", "", "cron schedule (default: backup_schedule from config)")
	cmd.AddCommand(schedule)
	return cmd
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		res := s.flows.Backup()
		out := struct {
			resultJSON
			Backup string `json:"backup,omitempty"`
		}{toResultJSON(res.Result), res.Name}
		return report(cmd, res.Result, out, fmt.Sprintf("backup %s created", res.Name))
	})
}

func runBackupList(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		if !s.repo.HasPermission() {
			return userError("no accessible folder selected; run \"inventario folder set <dir>\"")
		}
		names, err := s.store.Backups()
		if err != nil {
			return sysError("list backups: %w", err)
		}
		if flags.jsonMode {
			if names == nil {
				names = []string{}
			}
			return printJSON(cmd, names)
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no backups")
			return nil
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	})
}

func runBackupSchedule(cmd *cobra.Command, spec string) error {
	return withSession(func(s *session) error {
		if spec == "" {
			spec = s.cfg.BackupSchedule
		}
		if spec == "" {
			return userError("no schedule given; pass --cron or set backup_schedule")
		}
		sched, err := scheduler.New(spec, s.flows, logging.Named(s.log, "scheduler"))
		if err != nil {
			return userError("%w", err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := sched.Start(); err != nil {
			return sysError("%w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "taking backups on %q; press Ctrl+C to stop\n", spec)
		<-ctx.Done()
		sched.Stop()
		fmt.Fprintf(cmd.OutOrStdout(), "scheduler stopped after %d runs\n", sched.Runs())
		return nil
	})
}
