package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, "07:00", cfg.Clinic.OpensAt)
	assert.Equal(t, 1, cfg.Clinic.HorizonYears)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "clinic.events", cfg.Redis.Channel)
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
storage:
  data_dir: /var/lib/clinic
clinic:
  opens_at: "08:30"
  closes_at: "18:00"
log:
  level: debug
`)
	t.Setenv("CLINIC_PORT", "9100")
	t.Setenv("CLINIC_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/var/lib/clinic", cfg.Storage.DataDir)

	opens, closes, err := cfg.Clinic.Hours()
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour+30*time.Minute, opens)
	assert.Equal(t, 18*time.Hour, closes)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{"unknown driver", "storage:\n  driver: mongo\n", nil},
		{"postgres without url", "", map[string]string{"CLINIC_STORAGE_DRIVER": "postgres"}},
		{"bad clock", "clinic:\n  opens_at: seven\n", nil},
		{"inverted hours", "clinic:\n  opens_at: \"20:00\"\n  closes_at: \"08:00\"\n", nil},
		{"zero horizon", "clinic:\n  horizon_years: 0\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
