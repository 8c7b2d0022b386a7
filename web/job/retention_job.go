// Package job holds the scheduled maintenance tasks run by the web server's
// cron.
package job

import (
	"fmt"

	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/web/service"
)

// systemUser is the audit identity of scheduled tasks.
const systemUser = "system"

// RetentionJob deletes audit entries and patients older than the configured
// retention period.
type RetentionJob struct {
	retentionService service.RetentionService
	settingService   service.SettingService
	auditService     service.AuditLogService
}

func NewRetentionJob() *RetentionJob {
	return &RetentionJob{}
}

// Run is called by cron.
func (j *RetentionJob) Run() {
	logger.Debug("retention job started")

	retentionDays, err := j.settingService.GetRetentionDays()
	if err != nil || retentionDays <= 0 {
		retentionDays = service.DefaultRetentionDays
	}

	result, err := j.retentionService.Cleanup(retentionDays)
	if err != nil {
		logger.Warning("retention cleanup failed:", err)
		j.auditService.Record(systemUser, "", "data_retention_error", err.Error())
		return
	}
	logger.Infof("retention cleanup removed %d log entries and %d patients (retention: %d days)",
		result.LogsDeleted, result.PatientsDeleted, retentionDays)
	j.auditService.Record(systemUser, "", "data_retention_cleanup", fmt.Sprintf("%d days", retentionDays))
}
