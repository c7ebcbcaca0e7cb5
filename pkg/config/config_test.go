package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Contains(t, cfg.Database.DSN, "diligence_tracker.db")
	assert.False(t, cfg.Sheets.Enabled)
}

func TestLoadPostgres(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "diligence")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Contains(t, cfg.Database.DSN, "host=db.internal")
	assert.Contains(t, cfg.Database.DSN, "dbname=diligence")
	assert.Empty(t, cfg.Database.Path)
}

func TestLoadSheetsFromEnv(t *testing.T) {
	t.Setenv("SHEETS_ENABLED", "true")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/etc/creds.json")
	t.Setenv("SHEETS_ADMIN_EMAIL", "admin@x.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Sheets.Enabled)
	assert.Equal(t, "/etc/creds.json", cfg.Sheets.CredentialsFile)
	assert.Equal(t, "admin@x.com", cfg.Sheets.AdminEmail)
}

func TestConfigFileOverridesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: \"9001\"\n  env: production\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("SERVER_PORT", "8000")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9001", cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	// Fields the file leaves out keep their env-derived values
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestConfigFileMissing(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
