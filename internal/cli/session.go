package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/inventario/internal/folder"
	"github.com/mesh-intelligence/inventario/internal/inventory"
	"github.com/mesh-intelligence/inventario/internal/logging"
	"github.com/mesh-intelligence/inventario/internal/paths"
	"github.com/mesh-intelligence/inventario/internal/sqlite"
	"github.com/mesh-intelligence/inventario/internal/store"
	"github.com/mesh-intelligence/inventario/internal/workflow"
	"github.com/mesh-intelligence/inventario/pkg/types"
)

// newFs returns the filesystem the store works on.
var newFs = afero.NewOsFs

// session is everything one command invocation needs, wired together.
type session struct {
	cfg   types.Config
	log   *zap.Logger
	prefs *sqlite.Prefs
	store *store.Store
	repo  *inventory.Repository
	flows *workflow.Workflows
}

// openSession loads the config, opens the prefs database, and builds the
// store, repository, and workflows on top of it. The caller must Close it.
func openSession() (*session, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, sysError("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		if errors.Is(err, types.ErrThresholdInvalid) || errors.Is(err, types.ErrLogFormatUnknown) {
			return nil, userError("%w", err)
		}
		return nil, sysError("%w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, userError("logger: %w", err)
	}
	prefsPath, err := paths.ResolvePrefsPath(flags.prefsPath, cfg.PrefsPath)
	if err != nil {
		return nil, sysError("resolve prefs path: %w", err)
	}
	prefs, err := sqlite.Open(prefsPath)
	if err != nil {
		return nil, sysError("open prefs: %w", err)
	}

	access := folder.NewAccess(newFs(), prefs)
	st := store.New(access, prefs, store.WithLogger(logging.Named(log, "store")))
	repo := inventory.New(st, prefs, logging.Named(log, "inventory"))
	flows := workflow.New(repo,
		workflow.WithBackupThreshold(cfg.BackupThreshold),
		workflow.WithLogger(logging.Named(log, "workflow")),
	)
	log.Debug("session opened",
		zap.String("config_dir", configDir),
		zap.String("prefs", prefsPath),
		zap.String("session", repo.Session()),
	)

	return &session{
		cfg:   cfg,
		log:   log,
		prefs: prefs,
		store: st,
		repo:  repo,
		flows: flows,
	}, nil
}

// Close flushes the logger and closes the prefs database.
func (s *session) Close() error {
	_ = s.log.Sync()
	if err := s.prefs.Close(); err != nil {
		return fmt.Errorf("close prefs: %w", err)
	}
	return nil
}

// withSession opens a session, runs fn, and closes the session.
func withSession(fn func(s *session) error) (err error) {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = sysError("%w", cerr)
		}
	}()
	return fn(s)
}
