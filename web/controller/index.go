package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hospital-ui/hospital-ui/config"
	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/util/common"
	"github.com/hospital-ui/hospital-ui/web/middleware"
	"github.com/hospital-ui/hospital-ui/web/service"
	"github.com/hospital-ui/hospital-ui/web/session"

	"github.com/gin-gonic/gin"
)

// LoginForm represents the login request structure.
type LoginForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// IndexController handles login, logout and privacy consent.
type IndexController struct {
	BaseController

	settingService service.SettingService
	userService    service.UserService
}

func NewIndexController(g *gin.RouterGroup) *IndexController {
	a := &IndexController{}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/logout", a.logout)

	g.POST("/login", middleware.RateLimitMiddleware(middleware.DefaultRateLimitConfig()), a.login)
	g.POST("/consent", a.checkLogin, a.consent)
}

func (a *IndexController) index(c *gin.Context) {
	obj := gin.H{
		"name":    config.GetName(),
		"version": config.GetVersion(),
	}
	if user := session.GetLoginUser(c); user != nil {
		obj["user"] = gin.H{
			"username":    user.Username,
			"role":        user.Role,
			"gdprConsent": user.GdprConsent,
		}
	}
	jsonObj(c, obj, nil)
}

func (a *IndexController) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusOK, false, I18nWeb(c, "invalidForm"))
		return
	}
	username := strings.TrimSpace(form.Username)
	password := strings.TrimSpace(form.Password)
	if username == "" || password == "" {
		pureJsonMsg(c, http.StatusOK, false, I18nWeb(c, "login.empty"))
		return
	}

	user, err := a.userService.CheckUser(username, password)
	if errors.Is(err, common.ErrBadCredential) || errors.Is(err, common.ErrNotFound) {
		logger.Warningf("wrong username: \"%s\", IP: \"%s\"", username, getRemoteIp(c))
		middleware.AuditAs(c, username, "", "login_failed", "IP: "+getRemoteIp(c))
		pureJsonMsg(c, http.StatusOK, false, I18nWeb(c, "login.invalid"))
		return
	}
	if err != nil {
		jsonMsg(c, I18nWeb(c, "fail"), err)
		return
	}

	logger.Infof("%s logged in successfully, Ip Address: %s", username, getRemoteIp(c))
	middleware.AuditAs(c, user.Username, string(user.Role), "login_success", "IP: "+getRemoteIp(c))

	sessionMaxAge, err := a.settingService.GetSessionMaxAge()
	if err != nil {
		logger.Warning("Unable to get session's max age from DB")
	}
	if sessionMaxAge > 0 {
		if err := session.SetMaxAge(c, sessionMaxAge*60); err != nil {
			logger.Warning("Unable to save session's max age")
		}
	}
	if err := session.SetLoginUser(c, user); err != nil {
		logger.Warning("Unable to save session: ", err)
		jsonMsg(c, I18nWeb(c, "fail"), err)
		return
	}

	jsonMsgObj(c, I18nWeb(c, "login.success", "Username=="+user.Username), gin.H{
		"username":    user.Username,
		"role":        user.Role,
		"gdprConsent": user.GdprConsent,
	}, nil)
}

func (a *IndexController) logout(c *gin.Context) {
	user := session.GetLoginUser(c)
	if user != nil {
		logger.Infof("%s logged out successfully", user.Username)
		middleware.AuditAs(c, user.Username, string(user.Role), "logout", "")
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("Unable to clear session on logout:", err)
	}
	jsonMsg(c, I18nWeb(c, "login.logout"), nil)
}

func (a *IndexController) consent(c *gin.Context) {
	user := session.GetLoginUser(c)
	if err := a.userService.SetConsent(user.Id); err != nil {
		jsonMsg(c, I18nWeb(c, "fail"), err)
		return
	}
	if err := session.SetConsent(c); err != nil {
		jsonMsg(c, I18nWeb(c, "fail"), err)
		return
	}
	middleware.Audit(c, "gdpr_consent", "privacy notice accepted")
	jsonMsg(c, I18nWeb(c, "consent.accepted"), nil)
}
