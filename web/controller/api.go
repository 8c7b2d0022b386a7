package controller

import (
	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/web/middleware"

	"github.com/gin-gonic/gin"
)

// APIController mounts the JSON API under /panel/api. Every route needs a
// session and an accepted privacy notice.
type APIController struct {
	BaseController

	patientController *PatientController
	adminController   *AdminController
	auditController   *AuditController
	settingController *SettingController
}

func NewAPIController(g *gin.RouterGroup) *APIController {
	a := &APIController{}
	a.initRouter(g)
	return a
}

func (a *APIController) initRouter(g *gin.RouterGroup) {
	api := g.Group("/panel/api")
	api.Use(a.checkLogin, middleware.ConsentRequired())

	a.patientController = NewPatientController(api)

	admin := api.Group("/admin")
	admin.Use(middleware.RoleRequired(model.RoleAdmin))
	a.adminController = NewAdminController(admin)
	a.auditController = NewAuditController(admin)
	a.settingController = NewSettingController(admin.Group("/settings"))
}
