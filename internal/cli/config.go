// Config loading for the inventario CLI. Values come from config.yaml in the
// config directory, overridden by INVENTARIO_* environment variables, which
// may themselves be supplied through a .env file.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/inventario/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envFileName    = ".env"
	envPrefix      = "INVENTARIO"

	cfgKeyPrefsPath       = "prefs_path"
	cfgKeyBackupThreshold = "backup_threshold"
	cfgKeyBackupSchedule  = "backup_schedule"
	cfgKeyLogLevel        = "log_level"
	cfgKeyLogFormat       = "log_format"
)

const configHeader = "# inventario configuration\n" +
	"# Every key can be overridden with an INVENTARIO_<KEY> environment variable.\n\n"

// configFile holds the structure written to config.yaml.
type configFile struct {
	PrefsPath       string `yaml:"prefs_path,omitempty"`
	BackupThreshold int    `yaml:"backup_threshold"`
	BackupSchedule  string `yaml:"backup_schedule,omitempty"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
}

func defaultConfigFile() configFile {
	return configFile{
		BackupThreshold: types.DefaultBackupThreshold,
		LogLevel:        types.DefaultLogLevel,
		LogFormat:       types.DefaultLogFormat,
	}
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run, and loads .env files
// from configDir and the working directory before reading the environment.
func loadConfig(configDir string) (types.Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return types.Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt)); err != nil {
		return types.Config{}, fmt.Errorf("ensure default config: %w", err)
	}
	if err := loadEnvFiles(filepath.Join(configDir, envFileName), envFileName); err != nil {
		return types.Config{}, err
	}

	def := defaultConfigFile()
	v := viper.New()
	v.SetDefault(cfgKeyPrefsPath, "")
	v.SetDefault(cfgKeyBackupThreshold, def.BackupThreshold)
	v.SetDefault(cfgKeyBackupSchedule, "")
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyLogFormat, def.LogFormat)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := types.Config{
		PrefsPath:       v.GetString(cfgKeyPrefsPath),
		BackupThreshold: v.GetInt(cfgKeyBackupThreshold),
		BackupSchedule:  v.GetString(cfgKeyBackupSchedule),
		LogLevel:        v.GetString(cfgKeyLogLevel),
		LogFormat:       v.GetString(cfgKeyLogFormat),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config in %s: %w", configDir, err)
	}
	return cfg, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile()
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}

// loadEnvFiles loads each .env file that exists. Variables already present
// in the environment are not overridden.
func loadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
