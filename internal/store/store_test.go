package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/inventario/internal/csvcodec"
	"github.com/mesh-intelligence/inventario/internal/folder"
	"github.com/mesh-intelligence/inventario/internal/sqlite"
	"github.com/mesh-intelligence/inventario/pkg/types"
)

var (
	testClock   = time.Date(2025, 3, 1, 10, 30, 15, 0, time.UTC)
	errInjected = errors.New("injected fault")
)

// faultFs wraps a filesystem and fails selected operations on temp files.
type faultFs struct {
	afero.Fs
	failRename bool
	failWrite  bool
}

func (f *faultFs) Rename(oldname, newname string) error {
	if f.failRename {
		return errInjected
	}
	return f.Fs.Rename(oldname, newname)
}

func (f *faultFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil || !f.failWrite || !strings.HasSuffix(name, ".tmp") {
		return file, err
	}
	return &faultFile{File: file}, nil
}

type faultFile struct {
	afero.File
}

func (f *faultFile) Write(p []byte) (int, error) {
	return 0, errInjected
}

func newPrefs(t *testing.T) *sqlite.Prefs {
	t.Helper()
	prefs, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { prefs.Close() })
	return prefs
}

func newUnconfiguredStore(t *testing.T, fs afero.Fs) *Store {
	t.Helper()
	prefs := newPrefs(t)
	return New(folder.NewAccess(fs, prefs), prefs,
		WithClock(func() time.Time { return testClock }),
		WithCodec(csvcodec.New(csvcodec.WithLocation(time.UTC))),
	)
}

func newTestStore(t *testing.T, fs afero.Fs) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s := newUnconfiguredStore(t, fs)
	require.NoError(t, s.SetFolder(types.FolderHandle(dir)))
	return s, dir
}

func sampleRecords() []types.Record {
	return []types.Record{
		{Code: "A1", Quantity: 5, Timestamp: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		{Code: "B,2", Quantity: 2, Timestamp: time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC)},
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestReadAllWithoutFolderIsEmpty(t *testing.T) {
	s := newUnconfiguredStore(t, afero.NewOsFs())

	records, err := s.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.False(t, s.HasPermission())
}

func TestReadAllMissingFileIsEmpty(t *testing.T) {
	s, _ := newTestStore(t, afero.NewOsFs())

	records, err := s.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestWriteAllThenReadAll(t *testing.T) {
	s, dir := newTestStore(t, afero.NewOsFs())

	require.NoError(t, s.WriteAll(sampleRecords()))

	data, err := os.ReadFile(filepath.Join(dir, PrimaryFileName))
	require.NoError(t, err)
	assert.Equal(t,
		"codigo,quantidade,data_hora_iso\nA1,5,2025-03-01T09:00:00Z\n\"B,2\",2,2025-03-01T09:05:00Z\n",
		string(data))

	records, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A1", records[0].Code)
	assert.Equal(t, "B,2", records[1].Code)
	assert.Equal(t, []string{PrimaryFileName}, listDir(t, dir), "no temp files left behind")
}

func TestWriteAllReplacesExistingFile(t *testing.T) {
	s, dir := newTestStore(t, afero.NewOsFs())
	require.NoError(t, s.WriteAll(sampleRecords()))

	require.NoError(t, s.WriteAll(sampleRecords()[:1]))

	records, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{PrimaryFileName}, listDir(t, dir))
}

func TestWriteAllFailureLeavesPreviousFile(t *testing.T) {
	tests := []struct {
		name string
		fs   *faultFs
	}{
		{"rename fails", &faultFs{Fs: afero.NewOsFs(), failRename: true}},
		{"write fails", &faultFs{Fs: afero.NewOsFs(), failWrite: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, dir := newTestStore(t, tt.fs)
			path := filepath.Join(dir, PrimaryFileName)

			tt.fs.failRename, tt.fs.failWrite = false, false
			require.NoError(t, s.WriteAll(sampleRecords()))
			before, err := os.ReadFile(path)
			require.NoError(t, err)

			tt.fs.failRename = tt.name == "rename fails"
			tt.fs.failWrite = tt.name == "write fails"
			err = s.WriteAll(append(sampleRecords(), types.Record{Code: "C3", Quantity: 1, Timestamp: testClock}))
			assert.ErrorIs(t, err, types.ErrIO)
			assert.ErrorIs(t, err, errInjected)

			after, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Equal(t, []string{PrimaryFileName}, listDir(t, dir), "temp file must be removed")
		})
	}
}

func TestWriteAllWithoutFolder(t *testing.T) {
	s := newUnconfiguredStore(t, afero.NewOsFs())

	err := s.WriteAll(sampleRecords())
	assert.ErrorIs(t, err, types.ErrPermission)
}

func TestWriteAllReadOnlyFolder(t *testing.T) {
	s, dir := newTestStore(t, afero.NewReadOnlyFs(afero.NewOsFs()))

	err := s.WriteAll(sampleRecords())
	assert.ErrorIs(t, err, types.ErrPermission)
	assert.False(t, s.HasPermission())
	assert.Empty(t, listDir(t, dir))
}

func TestHasPermission(t *testing.T) {
	s, dir := newTestStore(t, afero.NewOsFs())
	assert.True(t, s.HasPermission())

	require.NoError(t, os.RemoveAll(dir))
	assert.False(t, s.HasPermission())

	records, err := s.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSetFolderPersistsAcrossStores(t *testing.T) {
	dir := t.TempDir()
	prefs := newPrefs(t)
	fs := afero.NewOsFs()

	first := New(folder.NewAccess(fs, prefs), prefs)
	require.NoError(t, first.SetFolder(types.FolderHandle(dir)))

	second := New(folder.NewAccess(fs, prefs), prefs)
	h, ok := second.Folder()
	assert.True(t, ok)
	assert.Equal(t, types.FolderHandle(dir), h)
	assert.True(t, second.HasPermission())
}

func TestSetFolderRejectsMissingDirectory(t *testing.T) {
	s := newUnconfiguredStore(t, afero.NewOsFs())

	err := s.SetFolder(types.FolderHandle(filepath.Join(t.TempDir(), "missing")))
	assert.ErrorIs(t, err, types.ErrPermission)
	_, ok := s.Folder()
	assert.False(t, ok, "handle must not be persisted without a grant")
}

func TestCreateBackupWithoutPrimaryFile(t *testing.T) {
	s, _ := newTestStore(t, afero.NewOsFs())

	_, err := s.CreateBackup()
	assert.ErrorIs(t, err, types.ErrNoPrimaryFile)
}

func TestCreateBackupCopiesPrimary(t *testing.T) {
	s, dir := newTestStore(t, afero.NewOsFs())
	require.NoError(t, s.WriteAll(sampleRecords()))

	name, err := s.CreateBackup()
	require.NoError(t, err)
	assert.Equal(t, "inventario_bkp_20250301_103015.csv", name)

	primary, err := os.ReadFile(filepath.Join(dir, PrimaryFileName))
	require.NoError(t, err)
	backup, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, primary, backup)
}

func TestCreateBackupSameSecondGetsSuffix(t *testing.T) {
	s, _ := newTestStore(t, afero.NewOsFs())
	require.NoError(t, s.WriteAll(sampleRecords()))

	var names []string
	for i := 0; i < 3; i++ {
		name, err := s.CreateBackup()
		require.NoError(t, err)
		names = append(names, name)
	}

	assert.Equal(t, []string{
		"inventario_bkp_20250301_103015.csv",
		"inventario_bkp_20250301_103015_1.csv",
		"inventario_bkp_20250301_103015_2.csv",
	}, names)

	listed, err := s.Backups()
	require.NoError(t, err)
	assert.Equal(t, names, listed)
}

func TestBackupsOrderedByStampThenSuffix(t *testing.T) {
	s, dir := newTestStore(t, afero.NewOsFs())
	for _, name := range []string{
		"inventario_bkp_20250301_103015_10.csv",
		"inventario_bkp_20250301_103015_2.csv",
		"inventario_bkp_20250301_103015.csv",
		"inventario_bkp_20250228_235959_1.csv",
		"inventario_bkp_20250301_103016.csv",
		"notes.csv",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(csvcodec.Header+"\n"), 0o644))
	}

	listed, err := s.Backups()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"inventario_bkp_20250228_235959_1.csv",
		"inventario_bkp_20250301_103015.csv",
		"inventario_bkp_20250301_103015_2.csv",
		"inventario_bkp_20250301_103015_10.csv",
		"inventario_bkp_20250301_103016.csv",
	}, listed)
}

func TestWriteAllNewFileMode(t *testing.T) {
	s, dir := newTestStore(t, afero.NewOsFs())
	require.NoError(t, s.WriteAll(sampleRecords()))

	info, err := os.Stat(filepath.Join(dir, PrimaryFileName))
	require.NoError(t, err)
	assert.Equal(t, fileMode, info.Mode().Perm())
}

func TestWriteAllKeepsExistingMode(t *testing.T) {
	s, dir := newTestStore(t, afero.NewOsFs())
	path := filepath.Join(dir, PrimaryFileName)
	require.NoError(t, os.WriteFile(path, []byte(csvcodec.Header+"\n"), 0o600))
	require.NoError(t, os.Chmod(path, 0o640))

	require.NoError(t, s.WriteAll(sampleRecords()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestBackupsWithoutFolder(t *testing.T) {
	s := newUnconfiguredStore(t, afero.NewOsFs())

	_, err := s.Backups()
	assert.ErrorIs(t, err, types.ErrPermission)
}
