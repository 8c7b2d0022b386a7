package service

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hospital-ui/hospital-ui/database"
	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/util/common"

	"github.com/shirou/gopsutil/v4/disk"
)

// DBStatus describes the health of the database file and its volume.
type DBStatus struct {
	Path          string `json:"path"`
	Available     bool   `json:"available"`
	Error         string `json:"error,omitempty"`
	Size          int64  `json:"size"`
	SizeText      string `json:"sizeText"`
	SchemaVersion int    `json:"schemaVersion"`
	LatestVersion int    `json:"latestVersion"`
	Backups       int    `json:"backups"`
	LastBackup    string `json:"lastBackup,omitempty"`
	Disk          struct {
		Current uint64 `json:"current"`
		Total   uint64 `json:"total"`
	} `json:"disk"`
	T time.Time `json:"t"`
}

// ServerService reports on the store and serves the process log buffer.
type ServerService struct {
	backupService BackupService
}

func NewServerService(b BackupService) ServerService {
	return ServerService{backupService: b}
}

func (s *ServerService) GetDBStatus() *DBStatus {
	path := s.backupService.dbPath()
	status := &DBStatus{
		Path:          path,
		LatestVersion: database.LatestSchemaVersion(),
		T:             time.Now(),
	}

	if err := database.CheckAvailability(path); err != nil {
		status.Error = err.Error()
	} else {
		status.Available = true
	}

	if info, err := os.Stat(path); err == nil {
		status.Size = info.Size()
		status.SizeText = common.FormatBytes(info.Size())
	}

	if database.GetDB() != nil {
		if v, err := database.SchemaVersion(); err == nil {
			status.SchemaVersion = v
		} else {
			logger.Warning("read schema version failed:", err)
		}
	}

	if backups, err := s.backupService.ListBackups(); err == nil {
		status.Backups = len(backups)
		if len(backups) > 0 {
			status.LastBackup = backups[0].Name
		}
	} else {
		logger.Warning("list backups failed:", err)
	}

	if usage, err := disk.Usage(filepath.Dir(path)); err == nil {
		status.Disk.Current = usage.Used
		status.Disk.Total = usage.Total
	} else {
		logger.Warning("get disk usage failed:", err)
	}

	return status
}

func (s *ServerService) GetLogs(count string, level string) []string {
	c, err := strconv.Atoi(count)
	if err != nil || c < 1 || c > 10000 {
		c = 100
	}
	if level == "" {
		level = "info"
	}
	return logger.GetLogs(c, level)
}
