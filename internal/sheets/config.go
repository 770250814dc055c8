// Package sheets exports a user's scan history to a Google Sheets report.
package sheets

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// Default report settings.
const (
	DefaultSpreadsheetName = "Binwise Scan Report"
	DefaultTimeZone        = "Asia/Jakarta"
)

// ErrNoAuth is returned when neither OAuth2 nor a service account is set up.
var ErrNoAuth = errors.New("no authentication method configured")

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  DefaultSpreadsheetName,
		EnableFormatting: true,
		TimeZone:         DefaultTimeZone,
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// HasOAuth reports whether a complete set of OAuth2 credentials is present.
func (c *Config) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasServiceAccount := c.ServiceAccountPath != ""

	if !c.HasOAuth() && !hasServiceAccount {
		return ErrNoAuth
	}
	if c.HasOAuth() && hasServiceAccount {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			return fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
		}
	}

	return nil
}
