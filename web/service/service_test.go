package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hospital-ui/hospital-ui/config"
	"github.com/hospital-ui/hospital-ui/database"
	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/util/crypto"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	crypto.PasswordCost = bcrypt.MinCost
}

// setup points the data folder at a fresh temp dir and opens the database in it.
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

func insertPatient(t *testing.T, name, contact, diagnosis string, createdAt time.Time) *model.Patient {
	t.Helper()
	p := &model.Patient{Name: name, Contact: contact, Diagnosis: diagnosis, CreatedAt: model.NewTimestamp(createdAt)}
	require.NoError(t, database.GetDB().Create(p).Error)
	return p
}

func insertLog(t *testing.T, action string, createdAt time.Time) {
	t.Helper()
	entry := &model.LogEntry{Username: "admin", Role: "admin", Action: action, CreatedAt: model.NewTimestamp(createdAt)}
	require.NoError(t, database.GetDB().Create(entry).Error)
}

func countRows(t *testing.T, value any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, database.GetDB().Model(value).Count(&n).Error)
	return n
}
