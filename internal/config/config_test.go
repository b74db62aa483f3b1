package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("SHIM_TEST_SECRET", "s3cret")

	yamlContent := `
app:
  name: shim
auth:
  jwt_secret: "${SHIM_TEST_SECRET}"
database:
  path: "data/shim.db"
booking:
  max_booking_days: 90
notifications:
  enabled: true
  webhook_url: "https://hooks.example.com/shim"
  poll_interval: 5s
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "data/shim.db", cfg.Database.Path)
	assert.Equal(t, 90, cfg.Booking.MaxBookingDays)
	assert.Equal(t, 5*time.Second, cfg.Notifications.PollInterval)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "shim", cfg.Auth.Issuer)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid sqlite",
			cfg: Config{
				Auth:     AuthConfig{JWTSecret: "secret"},
				Database: DatabaseConfig{Driver: "sqlite3", Path: "shim.db"},
			},
		},
		{
			name: "valid mysql",
			cfg: Config{
				Auth:     AuthConfig{JWTSecret: "secret"},
				Database: DatabaseConfig{Driver: "mysql", DSN: "shim:shim@tcp(localhost:3306)/shim"},
			},
		},
		{
			name: "missing secret",
			cfg: Config{
				Database: DatabaseConfig{Driver: "sqlite3", Path: "shim.db"},
			},
			wantErr: true,
		},
		{
			name: "placeholder secret",
			cfg: Config{
				Auth:     AuthConfig{JWTSecret: "CHANGE_ME"},
				Database: DatabaseConfig{Driver: "sqlite3", Path: "shim.db"},
			},
			wantErr: true,
		},
		{
			name: "mysql without dsn",
			cfg: Config{
				Auth:     AuthConfig{JWTSecret: "secret"},
				Database: DatabaseConfig{Driver: "mysql"},
			},
			wantErr: true,
		},
		{
			name: "unknown driver",
			cfg: Config{
				Auth:     AuthConfig{JWTSecret: "secret"},
				Database: DatabaseConfig{Driver: "postgres", DSN: "x"},
			},
			wantErr: true,
		},
		{
			name: "bad webhook scheme",
			cfg: Config{
				Auth:          AuthConfig{JWTSecret: "secret"},
				Database:      DatabaseConfig{Driver: "sqlite3", Path: "shim.db"},
				Notifications: NotificationConfig{Enabled: true, WebhookURL: "ftp://example.com"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Database: DatabaseConfig{Driver: " SQLite "}, Monitoring: MonitoringConfig{PrometheusEnabled: true}}
	cfg.applyDefaults()

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Database.BusyTimeout)
	assert.Equal(t, 9090, cfg.Monitoring.PrometheusPort)
	assert.Equal(t, 365, cfg.Booking.MaxBookingDays)
	assert.Equal(t, 10, cfg.Booking.QuotaRequests)
	assert.Equal(t, 3600, cfg.Booking.QuotaWindow)
	assert.Equal(t, 500, cfg.Booking.ListLimit)
	assert.Equal(t, 20, cfg.Notifications.BatchSize)
}
