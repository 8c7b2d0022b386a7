// Package session keeps the authenticated user in the signed session cookie.
package session

import (
	"encoding/gob"

	"github.com/hospital-ui/hospital-ui/database/model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	loginUser  = "LOGIN_USER"
	CookieName = "hospital-ui"
)

// SessionUser is the identity stored in the cookie. The password hash never
// leaves the database.
type SessionUser struct {
	Id          int
	Username    string
	Role        model.Role
	GdprConsent bool
}

func init() {
	gob.Register(SessionUser{})
}

func SetLoginUser(c *gin.Context, user *model.User) error {
	s := sessions.Default(c)
	s.Set(loginUser, SessionUser{
		Id:          user.Id,
		Username:    user.Username,
		Role:        user.Role,
		GdprConsent: user.GdprConsent,
	})
	return s.Save()
}

// SetConsent marks the logged-in user as having accepted the privacy notice.
func SetConsent(c *gin.Context) error {
	user := GetLoginUser(c)
	if user == nil {
		return nil
	}
	user.GdprConsent = true
	s := sessions.Default(c)
	s.Set(loginUser, *user)
	return s.Save()
}

func SetMaxAge(c *gin.Context, maxAge int) error {
	s := sessions.Default(c)
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	})
	return s.Save()
}

func GetLoginUser(c *gin.Context) *SessionUser {
	s := sessions.Default(c)
	if obj := s.Get(loginUser); obj != nil {
		if user, ok := obj.(SessionUser); ok {
			return &user
		}
	}
	return nil
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUser(c) != nil
}

func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:   "/",
		MaxAge: -1,
	})
	if err := s.Save(); err != nil {
		return err
	}
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
	return nil
}
