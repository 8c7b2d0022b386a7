package controller

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/hospital-ui/hospital-ui/util/common"
	"github.com/hospital-ui/hospital-ui/web/middleware"
	"github.com/hospital-ui/hospital-ui/web/service"

	"github.com/gin-gonic/gin"
)

// AuditController lets admins read and download the audit trail.
type AuditController struct {
	auditService service.AuditLogService
}

func NewAuditController(g *gin.RouterGroup) *AuditController {
	a := &AuditController{}
	a.initRouter(g)
	return a
}

func (a *AuditController) initRouter(g *gin.RouterGroup) {
	g.GET("/logs", a.getLogs)
	g.GET("/logs/export", a.exportLogs)
}

func (a *AuditController) getLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := a.auditService.Query(limit)
	if err != nil {
		middleware.Audit(c, "logs_view_error", err.Error())
		jsonMsg(c, I18nWeb(c, "admin.logsError"), err)
		return
	}
	jsonObj(c, logs, nil)
}

func (a *AuditController) exportLogs(c *gin.Context) {
	var buf bytes.Buffer
	err := a.auditService.WriteCSV(&buf)
	if errors.Is(err, common.ErrNotFound) {
		pureJsonMsg(c, http.StatusOK, false, I18nWeb(c, "admin.noLogs"))
		return
	}
	if err != nil {
		middleware.Audit(c, "logs_export_error", err.Error())
		jsonMsg(c, I18nWeb(c, "admin.logsError"), err)
		return
	}
	middleware.Audit(c, "export_logs", "")
	filename := "audit_logs_" + time.Now().Format("20060102_150405") + ".csv"
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
