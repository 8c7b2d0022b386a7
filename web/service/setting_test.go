package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingDefaults(t *testing.T) {
	setup(t)
	service := SettingService{}

	all, err := service.GetAllSetting()
	require.NoError(t, err)
	assert.Equal(t, 8080, all.WebPort)
	assert.Equal(t, "/", all.WebBasePath)
	assert.True(t, all.BackupOnStart)
	assert.Empty(t, all.BackupCron, "no scheduled work unless configured")
	assert.Empty(t, all.RetentionCron)
	assert.Equal(t, DefaultRetentionDays, all.RetentionDays)

	port, err := service.GetPort()
	require.NoError(t, err)
	assert.Equal(t, 8080, port)
}

func TestSecretIsPersisted(t *testing.T) {
	setup(t)
	service := SettingService{}

	first, err := service.GetSecret()
	require.NoError(t, err)
	assert.Len(t, first, 32)
	second, err := service.GetSecret()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUpdateSetting(t *testing.T) {
	setup(t)
	service := SettingService{}

	require.NoError(t, service.UpdateSetting("backupCron", "@daily"))
	spec, err := service.GetBackupCron()
	require.NoError(t, err)
	assert.Equal(t, "@daily", spec)

	require.NoError(t, service.UpdateSetting("webPort", "9090"))
	port, err := service.GetPort()
	require.NoError(t, err)
	assert.Equal(t, 9090, port)

	tests := []struct {
		key   string
		value string
	}{
		{"webPort", "70000"},
		{"webPort", "abc"},
		{"retentionDays", "0"},
		{"backupCron", "every tuesday"},
		{"backupOnStart", "maybe"},
		{"secret", "x"},
		{"unknown", "x"},
	}
	for _, tt := range tests {
		assert.Error(t, service.UpdateSetting(tt.key, tt.value), "%s=%s", tt.key, tt.value)
	}

	port, err = service.GetPort()
	require.NoError(t, err)
	assert.Equal(t, 9090, port)
}
