// Package paths resolves the configuration directory, the prefs database
// location, and folder handles given on the command line.
package paths

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/mesh-intelligence/inventario/pkg/types"
)

// appDirName is the directory created under the platform config and data
// roots.
const appDirName = "inventario"

// PrefsFileName is the prefs database file inside the data directory.
const PrefsFileName = "prefs.db"

// EnvConfigDir overrides the configuration directory. The prefs path has no
// variable here; viper maps INVENTARIO_PREFS_PATH onto the prefs_path key.
const EnvConfigDir = "INVENTARIO_CONFIG_DIR"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/inventario (fallback ~/.config/inventario)
// macOS:   ~/Library/Application Support/inventario
// Windows: %APPDATA%/inventario
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appDirName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDirName), nil
	}
}

// DefaultDataDir returns the platform-specific default data directory, which
// holds the prefs database.
//
// Linux:   $XDG_DATA_HOME/inventario (fallback ~/.local/share/inventario)
// macOS:   ~/Library/Application Support/inventario
// Windows: %APPDATA%/inventario
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", appDirName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDirName), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > INVENTARIO_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolvePrefsPath returns the prefs database path following the precedence
// chain: flag > configured prefs_path > DefaultDataDir()/prefs.db.
func ResolvePrefsPath(flag, configured string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configured != "" {
		return filepath.Abs(configured)
	}
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, PrefsFileName), nil
}

// FolderHandle turns a user-supplied directory into the absolute, cleaned
// handle that is persisted and granted.
func FolderHandle(dir string) (types.FolderHandle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return types.FolderHandle(abs), nil
}
