package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsFollowDBFolder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HUI_DB_FOLDER", dir)
	t.Setenv("HUI_BACKUP_FOLDER", "")
	t.Setenv("HUI_KEY_FILE", "")

	assert.Equal(t, filepath.Join(dir, "hospital.db"), GetDBPath())
	assert.Equal(t, filepath.Join(dir, "backups"), GetBackupFolderPath())
	assert.Equal(t, filepath.Join(dir, ".key"), GetKeyPath())
}

func TestGetMaxBackups(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{name: "unset", value: "", want: DefaultMaxBackups},
		{name: "valid", value: "9", want: 9},
		{name: "not a number", value: "many", want: DefaultMaxBackups},
		{name: "zero", value: "0", want: DefaultMaxBackups},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HUI_MAX_BACKUPS", tt.value)
			assert.Equal(t, tt.want, GetMaxBackups())
		})
	}
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("HUI_DEBUG", "")
	t.Setenv("HUI_LOG_LEVEL", "")
	assert.Equal(t, Info, GetLogLevel())

	t.Setenv("HUI_LOG_LEVEL", "warn")
	assert.Equal(t, Warn, GetLogLevel())

	t.Setenv("HUI_DEBUG", "true")
	assert.Equal(t, Debug, GetLogLevel())
}

func TestGetSeedPassword(t *testing.T) {
	t.Setenv("HUI_SEED_DOCTOR_PASSWORD", "")
	assert.Equal(t, "doctor123", GetSeedPassword("doctor", "doctor123"))

	t.Setenv("HUI_SEED_DOCTOR_PASSWORD", "s3cret")
	assert.Equal(t, "s3cret", GetSeedPassword("doctor", "doctor123"))
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("HUI_TEST_ENV_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("HUI_TEST_ENV_VALUE") })

	require.NoError(t, LoadEnvFile(envFile))
	assert.Equal(t, "from-file", os.Getenv("HUI_TEST_ENV_VALUE"))

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestStorageConfigValidate(t *testing.T) {
	c := &StorageConfig{DBPath: "data/hospital.db", BackupDir: "data/backups", KeyPath: "data/.key", MaxBackups: 5}
	assert.NoError(t, c.ValidateConfig())

	c.MaxBackups = 0
	assert.Error(t, c.ValidateConfig())

	c.MaxBackups = 5
	c.BackupDir = "data"
	assert.Error(t, c.ValidateConfig())
}
