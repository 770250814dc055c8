package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name: "valid oauth config",
			config: Config{
				ClientID:      "test-client",
				ClientSecret:  "test-secret",
				RefreshToken:  "test-token",
				BatchSize:     100,
				RetryAttempts: 3,
				RetryDelay:    time.Second,
			},
		},
		{
			name: "valid service account config",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				TimeZone:           "Asia/Jakarta",
				BatchSize:          100,
			},
		},
		{
			name: "partial oauth credentials",
			config: Config{
				ClientID:     "test-client",
				RefreshToken: "test-token",
				BatchSize:    100,
			},
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "multiple auth methods",
			config: Config{
				ClientID:           "test-client",
				ClientSecret:       "test-secret",
				RefreshToken:       "test-token",
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
			},
			wantErr: true,
			errMsg:  "multiple authentication methods configured",
		},
		{
			name: "invalid batch size",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
			},
			wantErr: true,
			errMsg:  "batch size must be positive",
		},
		{
			name: "negative retry delay",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryDelay:         -1 * time.Second,
			},
			wantErr: true,
			errMsg:  "retry delay cannot be negative",
		},
		{
			name: "unknown time zone",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				TimeZone:           "Mars/Olympus",
			},
			wantErr: true,
			errMsg:  "invalid time zone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultSpreadsheetName, cfg.SpreadsheetName)
	assert.Equal(t, "Asia/Jakarta", cfg.TimeZone)
	assert.ErrorIs(t, cfg.Validate(), ErrNoAuth)

	cfg.ServiceAccountPath = "/tmp/key.json"
	assert.NoError(t, cfg.Validate())
}
