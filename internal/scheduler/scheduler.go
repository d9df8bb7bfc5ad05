// Package scheduler takes inventory backups on a cron schedule, in addition
// to the backups triggered by the read counter.
package scheduler

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/inventario/internal/workflow"
	"github.com/mesh-intelligence/inventario/pkg/types"
)

// Backupper takes one backup. *workflow.Workflows satisfies it.
type Backupper interface {
	Backup() workflow.BackupResult
}

// Scheduler runs Backupper.Backup on a standard five-field cron schedule or
// a descriptor such as "@hourly" or "@every 30m".
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	target Backupper
	log    *zap.Logger

	// mu serializes scheduled runs with each other; the repository is
	// single-writer.
	mu   sync.Mutex
	runs int
}

// New validates spec and returns a stopped Scheduler.
func New(spec string, target Backupper, log *zap.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("%w %q: %w", types.ErrScheduleInvalid, spec, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(),
		spec:   spec,
		target: target,
		log:    log,
	}, nil
}

// Start registers the backup job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.Run() }); err != nil {
		return fmt.Errorf("scheduling backup: %w", err)
	}
	s.log.Info("starting backup scheduler", zap.String("schedule", s.spec))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("backup scheduler stopped", zap.Int("runs", s.Runs()))
}

// Run takes one backup now. A missing inventory file is not treated as a
// failure; there is simply nothing to copy yet.
func (s *Scheduler) Run() workflow.BackupResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs++
	res := s.target.Backup()
	switch {
	case res.OK:
		s.log.Info("scheduled backup created", zap.String("backup", res.Name))
	case res.Empty:
		s.log.Info("scheduled backup skipped", zap.String("reason", res.Message))
	default:
		s.log.Error("scheduled backup failed", zap.Stringer("reason", res.Reason), zap.String("message", res.Message))
	}
	return res
}

// Runs returns how many backups have been attempted.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}
