package service

import (
	"errors"
	"time"

	"github.com/hospital-ui/hospital-ui/database"
	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/util/common"
)

// DefaultRetentionDays is used when no retention period is given.
const DefaultRetentionDays = 90

type CleanupResult struct {
	LogsDeleted     int64 `json:"logsDeleted"`
	PatientsDeleted int64 `json:"patientsDeleted"`
}

type RetentionService struct {
	Now func() time.Time
}

// Cleanup deletes audit entries and patients created strictly before
// now - retentionDays. The two deletes commit separately: if the second one
// fails, the first stays applied.
func (s *RetentionService) Cleanup(retentionDays int) (*CleanupResult, error) {
	if retentionDays <= 0 {
		return nil, errors.New("retention days must be greater than 0")
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	cutoff := model.NewTimestamp(now().AddDate(0, 0, -retentionDays))

	db := database.GetDB()
	result := &CleanupResult{}

	logs := db.Where("created_at < ?", cutoff).Delete(&model.LogEntry{})
	if logs.Error != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, logs.Error)
	}
	result.LogsDeleted = logs.RowsAffected

	patients := db.Where("created_at < ?", cutoff).Delete(&model.Patient{})
	if patients.Error != nil {
		return result, common.Wrap(common.ErrStoreUnavailable, patients.Error)
	}
	result.PatientsDeleted = patients.RowsAffected

	logger.Infof("retention cleanup (%d days, cutoff %s): %d logs, %d patients deleted",
		retentionDays, cutoff, result.LogsDeleted, result.PatientsDeleted)
	return result, nil
}
