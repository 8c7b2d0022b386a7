package service

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hospital-ui/hospital-ui/database"
	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/util/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndQuery(t *testing.T) {
	setup(t)
	service := AuditLogService{}

	service.Record("admin", "admin", "login_success", "")
	service.Record("doctor", "doctor", "view_patients", "3 rows")

	logs, err := service.Query(10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "view_patients", logs[0].Action, "newest first")
	assert.Equal(t, "3 rows", logs[0].Details)
	assert.Equal(t, "login_success", logs[1].Action)
	assert.False(t, logs[0].CreatedAt.IsZero())
}

func TestQueryLimit(t *testing.T) {
	setup(t)
	service := AuditLogService{}
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 120; i++ {
		insertLog(t, "action", base.Add(time.Duration(i)*time.Second))
	}

	tests := []struct {
		limit    int
		expected int
	}{
		{limit: 5, expected: 5},
		{limit: 0, expected: 100},
		{limit: -1, expected: 100},
		{limit: 1001, expected: 100},
		{limit: 1000, expected: 120},
	}
	for _, tt := range tests {
		logs, err := service.Query(tt.limit)
		require.NoError(t, err)
		assert.Len(t, logs, tt.expected, "limit %d", tt.limit)
	}
}

func TestRecordNeverFails(t *testing.T) {
	setup(t)
	service := AuditLogService{}
	require.NoError(t, database.CloseDB())

	assert.NotPanics(t, func() { service.Record("admin", "admin", "backup", "") })
}

func TestRecordSwallowsStoreErrors(t *testing.T) {
	setup(t)
	service := AuditLogService{}
	require.NoError(t, database.GetDB().Exec("DROP TABLE logs").Error)

	assert.NotPanics(t, func() { service.Record("admin", "admin", "backup", "") })
}

func TestExport(t *testing.T) {
	dir := setup(t)
	service := AuditLogService{}
	path := filepath.Join(dir, "logs.csv")

	err := service.Export(path)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoFileExists(t, path)

	insertLog(t, "first", time.Now().Add(-time.Minute))
	require.NoError(t, database.GetDB().Create(&model.LogEntry{
		Username: "reception", Role: "receptionist", Action: "add_patient",
		Details: `name "with" quotes, and comma`, CreatedAt: model.Now(),
	}).Error)

	require.NoError(t, service.Export(path))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"ID", "Username", "Role", "Action", "Details", "Timestamp"}, records[0])
	assert.Equal(t, "add_patient", records[1][3])
	assert.Equal(t, `name "with" quotes, and comma`, records[1][4])
	assert.Equal(t, "first", records[2][3])
}

func TestWriteCSVEmpty(t *testing.T) {
	setup(t)
	var buf bytes.Buffer
	err := (&AuditLogService{}).WriteCSV(&buf)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Zero(t, buf.Len())
}

func TestActivityByDay(t *testing.T) {
	setup(t)
	now := time.Now().UTC()
	insertLog(t, "a", now)
	insertLog(t, "b", now)
	insertLog(t, "c", now.AddDate(0, 0, -2))
	insertLog(t, "old", now.AddDate(0, 0, -45))

	counts, err := (&AuditLogService{}).ActivityByDay(30)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, DayCount{Day: now.AddDate(0, 0, -2).Format("2006-01-02"), Count: 1}, counts[0])
	assert.Equal(t, DayCount{Day: now.Format("2006-01-02"), Count: 2}, counts[1])
}
