package job

import (
	"path/filepath"

	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/web/service"
)

// BackupJob snapshots the database and rotates old snapshots.
type BackupJob struct {
	backupService service.BackupService
	auditService  service.AuditLogService
}

func NewBackupJob() *BackupJob {
	return &BackupJob{}
}

func (j *BackupJob) Run() {
	path, err := j.backupService.Backup()
	if err != nil {
		logger.Warning("scheduled backup failed:", err)
		j.auditService.Record(systemUser, "", "backup_failed", err.Error())
		return
	}
	if path == "" {
		return
	}
	j.auditService.Record(systemUser, "", "create_backup", "Backup file: "+filepath.Base(path))
}
