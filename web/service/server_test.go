package service

import (
	"os"
	"testing"

	"github.com/hospital-ui/hospital-ui/database"
	"github.com/hospital-ui/hospital-ui/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDBStatus(t *testing.T) {
	setup(t)
	backupService := BackupService{}
	service := NewServerService(backupService)

	_, err := backupService.Backup()
	require.NoError(t, err)

	status := service.GetDBStatus()
	assert.True(t, status.Available, status.Error)
	assert.Positive(t, status.Size)
	assert.NotEmpty(t, status.SizeText)
	assert.Equal(t, database.LatestSchemaVersion(), status.SchemaVersion)
	assert.Equal(t, status.LatestVersion, status.SchemaVersion)
	assert.Equal(t, 1, status.Backups)
	assert.NotEmpty(t, status.LastBackup)
	assert.Positive(t, status.Disk.Total)
}

func TestGetDBStatusMissingFile(t *testing.T) {
	setup(t)
	service := NewServerService(BackupService{})
	require.NoError(t, database.CloseDB())
	require.NoError(t, os.Remove(service.backupService.dbPath()))

	status := service.GetDBStatus()
	assert.False(t, status.Available)
	assert.NotEmpty(t, status.Error)
}

func TestServerGetLogs(t *testing.T) {
	service := ServerService{}
	logger.Warning("disk almost full")

	lines := service.GetLogs("10", "warning")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "disk almost full")
	assert.LessOrEqual(t, len(service.GetLogs("bogus", "")), 100)
}
