// This file implements timestamped backup copies of the primary file.
package store

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/inventario/pkg/types"
)

// Backup file naming: inventario_bkp_<yyyyMMdd_HHmmss>[_N].csv.
const (
	BackupPrefix      = "inventario_bkp_"
	BackupExt         = ".csv"
	BackupStampLayout = "20060102_150405"

	// maxBackupSuffix bounds the search for a free name within one second.
	maxBackupSuffix = 1000
)

// CreateBackup copies the primary file to a new backup file and returns its
// name. When a backup with the same second-resolution stamp already exists a
// numeric suffix is appended. Fails with types.ErrNoPrimaryFile when nothing
// has been written yet.
func (s *Store) CreateBackup() (string, error) {
	f, err := s.resolve()
	if err != nil {
		s.log.Error("folder unavailable for backup", zap.Error(err))
		return "", err
	}
	fs := f.Fs()

	primary := f.Path(PrimaryFileName)
	data, err := afero.ReadFile(fs, primary)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Warn("no inventory file to back up", zap.String("path", primary))
		return "", types.ErrNoPrimaryFile
	}
	if err != nil {
		s.log.Error("reading inventory for backup failed", zap.String("path", primary), zap.Error(err))
		return "", fmt.Errorf("%w: reading %s: %w", types.ErrIO, primary, err)
	}

	stamp := s.now().Format(BackupStampLayout)
	for n := 0; n < maxBackupSuffix; n++ {
		name := backupName(stamp, n)
		err := writeExclusive(fs, f.Path(name), data)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			s.log.Error("writing backup failed", zap.String("backup", name), zap.Error(err))
			return "", fmt.Errorf("%w: %w", types.ErrIO, err)
		}
		s.log.Info("backup created", zap.String("backup", name), zap.Int("bytes", len(data)))
		return name, nil
	}
	return "", fmt.Errorf("%w: no free backup name for stamp %s", types.ErrIO, stamp)
}

// Backups lists backup file names in the chosen folder, oldest first.
func (s *Store) Backups() ([]string, error) {
	f, err := s.resolve()
	if err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(f.Fs(), f.Dir())
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %w", types.ErrIO, f.Dir(), err)
	}

	var names []string
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasPrefix(name, BackupPrefix) || !strings.HasSuffix(name, BackupExt) {
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		si, ni := backupOrder(names[i])
		sj, nj := backupOrder(names[j])
		if si != sj {
			return si < sj
		}
		if ni != nj {
			return ni < nj
		}
		return names[i] < names[j]
	})
	return names, nil
}

// backupOrder splits a backup name into its stamp and collision suffix.
// Names without a numeric suffix sort as suffix 0.
func backupOrder(name string) (stamp string, n int) {
	rest := strings.TrimSuffix(strings.TrimPrefix(name, BackupPrefix), BackupExt)
	if len(rest) < len(BackupStampLayout) {
		return rest, 0
	}
	stamp, suffix := rest[:len(BackupStampLayout)], rest[len(BackupStampLayout):]
	if suffix == "" {
		return stamp, 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(suffix, "_"))
	if err != nil {
		return rest, 0
	}
	return stamp, n
}

func backupName(stamp string, n int) string {
	if n == 0 {
		return BackupPrefix + stamp + BackupExt
	}
	return BackupPrefix + stamp + "_" + strconv.Itoa(n) + BackupExt
}

// writeExclusive creates path, failing with os.ErrExist if it is already
// there, and writes data to it. A partially written file is removed.
func writeExclusive(fs afero.Fs, path string, data []byte) error {
	out, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		fs.Remove(path)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		fs.Remove(path)
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		fs.Remove(path)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
