package middleware

import (
	"github.com/hospital-ui/hospital-ui/web/service"
	"github.com/hospital-ui/hospital-ui/web/session"

	"github.com/gin-gonic/gin"
)

const auditKey = "audit"

type auditEntry struct {
	username string
	role     string
	action   string
	details  string
}

// Audit asks AuditMiddleware to record action for the logged-in user once
// the handler returns. A later call replaces an earlier one.
func Audit(c *gin.Context, action string, details string) {
	c.Set(auditKey, auditEntry{action: action, details: details})
}

// AuditAs is Audit for requests without a session user, such as a failed
// login or a logout that has already cleared the session.
func AuditAs(c *gin.Context, username string, role string, action string, details string) {
	c.Set(auditKey, auditEntry{username: username, role: role, action: action, details: details})
}

// AuditMiddleware writes the entry a handler registered with Audit or
// AuditAs. Requests that register nothing are not logged.
func AuditMiddleware(auditService service.AuditLogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		v, ok := c.Get(auditKey)
		if !ok {
			return
		}
		entry := v.(auditEntry)
		if entry.username == "" {
			user := session.GetLoginUser(c)
			if user == nil {
				return
			}
			entry.username = user.Username
			entry.role = string(user.Role)
		}
		auditService.Record(entry.username, entry.role, entry.action, entry.details)
	}
}
