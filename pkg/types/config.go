package types

// Config holds the tunables that shape a session.
type Config struct {
	PrefsPath       string `json:"prefs_path" yaml:"prefs_path"`
	BackupThreshold int    `json:"backup_threshold" yaml:"backup_threshold"`
	BackupSchedule  string `json:"backup_schedule" yaml:"backup_schedule"`
	LogLevel        string `json:"log_level" yaml:"log_level"`
	LogFormat       string `json:"log_format" yaml:"log_format"`
}

// Defaults.
const (
	DefaultBackupThreshold = 5
	DefaultLogLevel        = "info"
	DefaultLogFormat       = LogFormatConsole
)

// Supported log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

var knownLogFormats = map[string]bool{
	LogFormatConsole: true,
	LogFormatJSON:    true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure. An empty LogFormat is accepted and means
// DefaultLogFormat.
func (c Config) Validate() error {
	if c.BackupThreshold <= 0 {
		return ErrThresholdInvalid
	}
	if c.LogFormat != "" && !knownLogFormats[c.LogFormat] {
		return ErrLogFormatUnknown
	}
	return nil
}
