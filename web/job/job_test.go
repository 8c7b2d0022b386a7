package job

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hospital-ui/hospital-ui/config"
	"github.com/hospital-ui/hospital-ui/database"
	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/util/crypto"
	"github.com/hospital-ui/hospital-ui/web/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	crypto.PasswordCost = bcrypt.MinCost
}

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HUI_DB_FOLDER", dir)
	t.Setenv("HUI_BACKUP_FOLDER", filepath.Join(dir, "backups"))
	t.Setenv("HUI_KEY_FILE", filepath.Join(dir, ".key"))
	require.NoError(t, database.InitDB(config.GetDBPath()))
	t.Cleanup(func() { database.CloseDB() })
	return dir
}

func lastAudit(t *testing.T) model.LogEntry {
	t.Helper()
	var entry model.LogEntry
	require.NoError(t, database.GetDB().Order("id DESC").First(&entry).Error)
	return entry
}

func TestRetentionJobUsesConfiguredDays(t *testing.T) {
	setup(t)
	db := database.GetDB()
	now := time.Now()
	for _, age := range []int{0, 10, 45, 200} {
		p := &model.Patient{Name: "P", Contact: "0300-1234567", Diagnosis: "Flu",
			CreatedAt: model.NewTimestamp(now.AddDate(0, 0, -age))}
		require.NoError(t, db.Create(p).Error)
	}

	settingService := service.SettingService{}
	require.NoError(t, settingService.UpdateSetting("retentionDays", "30"))

	NewRetentionJob().Run()

	var remaining int64
	require.NoError(t, db.Model(&model.Patient{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)

	entry := lastAudit(t)
	assert.Equal(t, "system", entry.Username)
	assert.Equal(t, "data_retention_cleanup", entry.Action)
	assert.Equal(t, "30 days", entry.Details)
}

func TestBackupJobWritesSnapshot(t *testing.T) {
	dir := setup(t)

	NewBackupJob().Run()

	entries, err := os.ReadDir(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^hospital_db_\d{8}_\d{6}\.db$`, entries[0].Name())

	entry := lastAudit(t)
	assert.Equal(t, "create_backup", entry.Action)
	assert.Equal(t, "Backup file: "+entries[0].Name(), entry.Details)
}
