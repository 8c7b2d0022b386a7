package middleware

import (
	"net/http"

	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/web/entity"
	"github.com/hospital-ui/hospital-ui/web/locale"
	"github.com/hospital-ui/hospital-ui/web/session"

	"github.com/gin-gonic/gin"
)

// RoleRequired lets the request through only for a logged-in user holding
// one of roles.
func RoleRequired(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		user := session.GetLoginUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.Msg{Msg: localized(c, "login.loginAgain", "login required")})
			return
		}
		if !allowed[user.Role] {
			Audit(c, "access_denied", c.Request.Method+" "+c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, entity.Msg{Msg: localized(c, "accessDenied", "access denied")})
			return
		}
		c.Next()
	}
}

// ConsentRequired blocks users who have not accepted the privacy notice.
func ConsentRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := session.GetLoginUser(c)
		if user == nil || !user.GdprConsent {
			c.AbortWithStatusJSON(http.StatusForbidden, entity.Msg{Msg: localized(c, "consent.required", "privacy notice must be accepted")})
			return
		}
		c.Next()
	}
}

// localized uses the request localizer when LocalizerMiddleware ran before.
func localized(c *gin.Context, key string, fallback string) string {
	if v, ok := c.Get("I18n"); ok {
		if f, ok := v.(locale.I18nFunc); ok {
			return f(locale.Web, key)
		}
	}
	return fallback
}
