package controller

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/web/middleware"
	"github.com/hospital-ui/hospital-ui/web/service"

	"github.com/gin-gonic/gin"
)

// AdminController exposes the data-protection operations: anonymization,
// database health, backups and the retention sweep.
type AdminController struct {
	privacyService   service.PrivacyService
	backupService    service.BackupService
	retentionService service.RetentionService
	serverService    service.ServerService
	settingService   service.SettingService
}

func NewAdminController(g *gin.RouterGroup) *AdminController {
	a := &AdminController{}
	a.serverService = service.NewServerService(a.backupService)
	a.initRouter(g)
	return a
}

func (a *AdminController) initRouter(g *gin.RouterGroup) {
	g.POST("/anonymize", a.anonymizeAll)
	g.POST("/anonymize/:id", a.anonymizePatient)

	g.GET("/db/status", a.dbStatus)
	g.POST("/backup", a.backup)
	g.GET("/backups", a.listBackups)
	g.POST("/restore", a.restore)
	g.POST("/cleanup", a.cleanup)

	g.GET("/serverLogs", a.serverLogs)
}

func (a *AdminController) anonymizeAll(c *gin.Context) {
	result, err := a.privacyService.AnonymizeAll()
	if err != nil {
		middleware.Audit(c, "anonymize_all_patients_failed", err.Error())
		jsonMsg(c, I18nWeb(c, "admin.anonymizeError"), err)
		return
	}
	middleware.Audit(c, "anonymize_all_patients",
		fmt.Sprintf("%d processed, %d failed", result.Processed, result.Failed))
	msg := I18nWeb(c, "admin.anonymized",
		"Processed=="+strconv.Itoa(result.Processed), "Failed=="+strconv.Itoa(result.Failed))
	jsonMsgObj(c, msg, result, nil)
}

func (a *AdminController) anonymizePatient(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		jsonMsg(c, I18nWeb(c, "invalidForm"), err)
		return
	}
	if _, err := a.privacyService.AnonymizePatient(id); err != nil {
		middleware.Audit(c, "anonymize_patient_failed", err.Error())
		jsonMsg(c, I18nWeb(c, "admin.anonymizeError"), err)
		return
	}
	middleware.Audit(c, "anonymize_patient", "Patient ID: "+strconv.Itoa(id))
	jsonMsg(c, I18nWeb(c, "success"), nil)
}

func (a *AdminController) dbStatus(c *gin.Context) {
	status := a.serverService.GetDBStatus()
	if !status.Available {
		middleware.Audit(c, "check_database_status_failed", status.Error)
		jsonMsgObj(c, I18nWeb(c, "admin.dbFailed"), status, nil)
		return
	}
	middleware.Audit(c, "check_database_status", "available")
	jsonMsgObj(c, I18nWeb(c, "admin.dbOk"), status, nil)
}

func (a *AdminController) backup(c *gin.Context) {
	path, err := a.backupService.Backup()
	if err != nil {
		middleware.Audit(c, "backup_failed", err.Error())
		jsonMsg(c, I18nWeb(c, "admin.backupError"), err)
		return
	}
	if path == "" {
		jsonMsg(c, I18nWeb(c, "admin.backupSkipped"), nil)
		return
	}
	name := filepath.Base(path)
	middleware.Audit(c, "create_backup", "Backup file: "+name)
	jsonMsgObj(c, I18nWeb(c, "admin.backupCreated", "Name=="+name), gin.H{"name": name}, nil)
}

func (a *AdminController) listBackups(c *gin.Context) {
	backups, err := a.backupService.ListBackups()
	jsonObj(c, backups, err)
}

func (a *AdminController) restore(c *gin.Context) {
	name := c.PostForm("name")
	path, err := a.backupService.ResolveBackup(name)
	if err == nil {
		err = a.backupService.Restore(path)
	}
	if err != nil {
		middleware.Audit(c, "restore_backup_error", err.Error())
		jsonMsg(c, I18nWeb(c, "admin.restoreError"), err)
		return
	}
	logger.Warningf("database restored from %s", name)
	middleware.Audit(c, "restore_backup", "Backup file: "+name)
	jsonMsg(c, I18nWeb(c, "admin.restored", "Name=="+name), nil)
}

// cleanup runs the retention sweep. Without a days field the configured
// retention period applies.
func (a *AdminController) cleanup(c *gin.Context) {
	days, err := a.settingService.GetRetentionDays()
	if err != nil {
		days = service.DefaultRetentionDays
	}
	if v := c.PostForm("days"); v != "" {
		days, err = strconv.Atoi(v)
		if err != nil || days <= 0 {
			if err == nil {
				err = errors.New("days must be greater than 0")
			}
			jsonMsg(c, I18nWeb(c, "invalidForm"), err)
			return
		}
	}

	result, err := a.retentionService.Cleanup(days)
	if err != nil {
		middleware.Audit(c, "data_retention_error", err.Error())
		jsonMsg(c, I18nWeb(c, "admin.cleanupError"), err)
		return
	}
	middleware.Audit(c, "data_retention_cleanup", fmt.Sprintf("%d days", days))
	msg := I18nWeb(c, "admin.cleanup",
		"Logs=="+strconv.FormatInt(result.LogsDeleted, 10),
		"Patients=="+strconv.FormatInt(result.PatientsDeleted, 10),
		"Days=="+strconv.Itoa(days))
	jsonMsgObj(c, msg, result, nil)
}

func (a *AdminController) serverLogs(c *gin.Context) {
	logs := a.serverService.GetLogs(c.DefaultQuery("count", "100"), c.Query("level"))
	jsonObj(c, logs, nil)
}
