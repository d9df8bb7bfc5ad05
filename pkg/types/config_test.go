package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "zero threshold returns ErrThresholdInvalid",
			config:  Config{BackupThreshold: 0},
			wantErr: ErrThresholdInvalid,
		},
		{
			name:    "negative threshold returns ErrThresholdInvalid",
			config:  Config{BackupThreshold: -3},
			wantErr: ErrThresholdInvalid,
		},
		{
			name:    "unknown log format returns ErrLogFormatUnknown",
			config:  Config{BackupThreshold: 5, LogFormat: "xml"},
			wantErr: ErrLogFormatUnknown,
		},
		{
			name:    "defaults are valid",
			config:  Config{BackupThreshold: DefaultBackupThreshold, LogFormat: DefaultLogFormat},
			wantErr: nil,
		},
		{
			name:    "empty log format is valid",
			config:  Config{BackupThreshold: 1},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
