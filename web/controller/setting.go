package controller

import (
	"github.com/hospital-ui/hospital-ui/web/entity"
	"github.com/hospital-ui/hospital-ui/web/middleware"
	"github.com/hospital-ui/hospital-ui/web/service"

	"github.com/gin-gonic/gin"
)

// SettingController reads and writes the panel settings. Schedule changes
// take effect on the next start.
type SettingController struct {
	settingService service.SettingService
}

func NewSettingController(g *gin.RouterGroup) *SettingController {
	a := &SettingController{}
	a.initRouter(g)
	return a
}

func (a *SettingController) initRouter(g *gin.RouterGroup) {
	g.POST("/all", a.getAllSetting)
	g.POST("/update", a.updateSetting)
}

func (a *SettingController) getAllSetting(c *gin.Context) {
	allSetting, err := a.settingService.GetAllSetting()
	if err != nil {
		jsonMsg(c, I18nWeb(c, "fail"), err)
		return
	}
	jsonObj(c, allSetting, nil)
}

func (a *SettingController) updateSetting(c *gin.Context) {
	allSetting := &entity.AllSetting{}
	if err := c.ShouldBind(allSetting); err != nil {
		jsonMsg(c, I18nWeb(c, "invalidForm"), err)
		return
	}
	if err := a.settingService.UpdateAllSetting(allSetting); err != nil {
		jsonMsg(c, I18nWeb(c, "fail"), err)
		return
	}
	middleware.Audit(c, "update_settings", "")
	jsonMsg(c, I18nWeb(c, "admin.settingsUpdated"), nil)
}
