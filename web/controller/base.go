// Package controller holds the HTTP handlers of the records panel.
package controller

import (
	"net/http"

	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/web/locale"
	"github.com/hospital-ui/hospital-ui/web/session"

	"github.com/gin-gonic/gin"
)

// BaseController provides the login check shared by all controllers.
type BaseController struct{}

func (a *BaseController) checkLogin(c *gin.Context) {
	if !session.IsLogin(c) {
		pureJsonMsg(c, http.StatusUnauthorized, false, I18nWeb(c, "login.loginAgain"))
		c.Abort()
		return
	}
	c.Next()
}

// I18nWeb localizes a web message for the request. Without a localizer in
// the context the key itself is returned.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	anyfunc, funcExists := c.Get("I18n")
	if !funcExists {
		logger.Warning("I18n function not exists in gin context!")
		return name
	}
	i18nFunc, ok := anyfunc.(locale.I18nFunc)
	if !ok {
		return name
	}
	return i18nFunc(locale.Web, name, params...)
}
