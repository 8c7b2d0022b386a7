package service

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/hospital-ui/hospital-ui/database"
	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/util/common"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

var auditCSVHeader = []string{"ID", "Username", "Role", "Action", "Details", "Timestamp"}

// AuditLogService handles audit logging
type AuditLogService struct{}

// Record appends an audit entry. It never fails the caller: a write error is
// logged and dropped.
func (s *AuditLogService) Record(username, role, action, details string) {
	db := database.GetDB()
	if db == nil {
		logger.Warningf("audit log unavailable: user=%s, action=%s", username, action)
		return
	}
	entry := model.LogEntry{
		Username:  username,
		Role:      role,
		Action:    action,
		Details:   details,
		CreatedAt: model.Now(),
	}
	if err := db.Create(&entry).Error; err != nil {
		logger.Warningf("Failed to create audit log: user=%s, action=%s, error=%v", username, action, err)
	}
}

// Query returns the newest entries first. A limit outside (0, 1000] means 100.
func (s *AuditLogService) Query(limit int) ([]model.LogEntry, error) {
	if limit <= 0 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}
	db := database.GetDB()
	var logs []model.LogEntry
	err := db.Model(&model.LogEntry{}).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	return logs, nil
}

func (s *AuditLogService) all() ([]model.LogEntry, error) {
	db := database.GetDB()
	var logs []model.LogEntry
	if err := db.Model(&model.LogEntry{}).Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	if len(logs) == 0 {
		return nil, common.ErrNotFound
	}
	return logs, nil
}

// WriteCSV writes every entry, newest first. With no entries it returns
// ErrNotFound and writes nothing.
func (s *AuditLogService) WriteCSV(w io.Writer) error {
	logs, err := s.all()
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(auditCSVHeader); err != nil {
		return common.Wrap(common.ErrIOFailure, err)
	}
	for _, l := range logs {
		record := []string{strconv.Itoa(l.Id), l.Username, l.Role, l.Action, l.Details, l.CreatedAt.String()}
		if err := cw.Write(record); err != nil {
			return common.Wrap(common.ErrIOFailure, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return common.Wrap(common.ErrIOFailure, err)
	}
	return nil
}

// Export writes the CSV to path. No file is created when there are no entries.
func (s *AuditLogService) Export(path string) (err error) {
	count, err := s.CountLogs()
	if err != nil {
		return err
	}
	if count == 0 {
		return common.ErrNotFound
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return common.Wrap(common.ErrIOFailure, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = common.Wrap(common.ErrIOFailure, cerr)
		}
	}()
	return s.WriteCSV(f)
}

func (s *AuditLogService) CountLogs() (int64, error) {
	var count int64
	err := database.GetDB().Model(&model.LogEntry{}).Count(&count).Error
	if err != nil {
		return 0, common.Wrap(common.ErrStoreUnavailable, err)
	}
	return count, nil
}

// DayCount is the number of audit entries on one UTC day.
type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// ActivityByDay counts entries per day over the last days days, oldest first.
// Days without activity are omitted.
func (s *AuditLogService) ActivityByDay(days int) ([]DayCount, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := model.NewTimestamp(time.Now().AddDate(0, 0, -days))
	var counts []DayCount
	err := database.GetDB().Model(&model.LogEntry{}).
		Select("substr(created_at, 1, 10) AS day, COUNT(*) AS count").
		Where("created_at >= ?", cutoff).
		Group("day").
		Order("day").
		Scan(&counts).Error
	if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	return counts, nil
}
