package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hospital-ui/hospital-ui/config"
	"github.com/hospital-ui/hospital-ui/database"
	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/util/crypto"
	"github.com/hospital-ui/hospital-ui/web/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	crypto.PasswordCost = bcrypt.MinCost
}

type response struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Obj     json.RawMessage `json:"obj"`
}

// client replays cookies between requests like a browser would.
type client struct {
	t       *testing.T
	engine  *gin.Engine
	lang    string
	cookies map[string]*http.Cookie
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HUI_DB_FOLDER", dir)
	t.Setenv("HUI_BACKUP_FOLDER", filepath.Join(dir, "backups"))
	t.Setenv("HUI_KEY_FILE", filepath.Join(dir, ".key"))
	require.NoError(t, database.InitDB(config.GetDBPath()))
	t.Cleanup(func() { database.CloseDB() })

	engine, err := NewServer().initRouter()
	require.NoError(t, err)
	return engine
}

func newClient(t *testing.T, engine *gin.Engine) *client {
	return &client{t: t, engine: engine, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if c.lang != "" {
		req.Header.Set("Accept-Language", c.lang)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.engine.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) json(method, path string, form url.Values) (int, response) {
	c.t.Helper()
	rec := c.do(method, path, form)
	var r response
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &r), rec.Body.String())
	return rec.Code, r
}

func (c *client) login(username, password string) response {
	c.t.Helper()
	_, r := c.json(http.MethodPost, "/login", url.Values{"username": {username}, "password": {password}})
	return r
}

func (c *client) loginWithConsent(username, password string) {
	c.t.Helper()
	require.True(c.t, c.login(username, password).Success)
	_, r := c.json(http.MethodPost, "/consent", url.Values{})
	require.True(c.t, r.Success, r.Msg)
}

func auditActions(t *testing.T) []string {
	t.Helper()
	var actions []string
	require.NoError(t, database.GetDB().Model(&model.LogEntry{}).Order("id").Pluck("action", &actions).Error)
	return actions
}

func TestLogin(t *testing.T) {
	engine := newEngine(t)
	c := newClient(t, engine)

	r := c.login("  ", "admin123")
	assert.False(t, r.Success)
	assert.Equal(t, "Please enter both username and password.", r.Msg)

	r = c.login("admin", "wrong")
	assert.False(t, r.Success)
	assert.Equal(t, "Invalid username or password.", r.Msg)

	r = c.login(" admin ", "admin123")
	require.True(t, r.Success)
	assert.Equal(t, "Welcome, admin!", r.Msg)
	var user struct {
		Username    string `json:"username"`
		Role        string `json:"role"`
		GdprConsent bool   `json:"gdprConsent"`
	}
	require.NoError(t, json.Unmarshal(r.Obj, &user))
	assert.Equal(t, "admin", user.Username)
	assert.Equal(t, "admin", user.Role)
	assert.False(t, user.GdprConsent)

	_, r = c.json(http.MethodGet, "/logout", nil)
	assert.True(t, r.Success)

	assert.Equal(t, []string{"login_failed", "login_success", "logout"}, auditActions(t))
}

func TestLoginLocalized(t *testing.T) {
	engine := newEngine(t)
	c := newClient(t, engine)
	c.lang = "de-DE,de;q=0.9"

	r := c.login("admin", "wrong")
	assert.False(t, r.Success)
	assert.Equal(t, "Benutzername oder Passwort ist falsch.", r.Msg)
}

func TestLoginIsRateLimited(t *testing.T) {
	engine := newEngine(t)
	c := newClient(t, engine)

	for i := 0; i < 5; i++ {
		c.login("admin", "wrong")
	}
	rec := c.do(http.MethodPost, "/login", url.Values{"username": {"admin"}, "password": {"admin123"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAPIRequiresLoginAndConsent(t *testing.T) {
	engine := newEngine(t)
	c := newClient(t, engine)

	code, _ := c.json(http.MethodGet, "/panel/api/patients", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	require.True(t, c.login("doctor", "doctor123").Success)
	code, r := c.json(http.MethodGet, "/panel/api/patients", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Please accept the privacy notice to continue.", r.Msg)

	_, r = c.json(http.MethodPost, "/consent", url.Values{})
	require.True(t, r.Success)
	code, r = c.json(http.MethodGet, "/panel/api/patients", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, r.Success)

	_, r = c.json(http.MethodGet, "/panel/api/dashboard", nil)
	require.True(t, r.Success, r.Msg)
	var stats service.DashboardStats
	require.NoError(t, json.Unmarshal(r.Obj, &stats))
	assert.Zero(t, stats.TotalPatients)
	assert.Nil(t, stats.Activity)
	assert.Contains(t, auditActions(t), "view_doctor_dashboard")

	consented, err := (&service.UserService{}).GetUserByUsername("doctor")
	require.NoError(t, err)
	assert.True(t, consented.GdprConsent)
}

func TestPatientViewsByRole(t *testing.T) {
	engine := newEngine(t)

	reception := newClient(t, engine)
	reception.loginWithConsent("reception", "reception123")
	_, r := reception.json(http.MethodPost, "/panel/api/patients/add",
		url.Values{"name": {"Jane Doe"}, "contact": {"0300-1234567"}, "diagnosis": {"Flu"}})
	require.True(t, r.Success, r.Msg)

	_, r = reception.json(http.MethodPost, "/panel/api/patients/add",
		url.Values{"name": {""}, "contact": {"0300"}, "diagnosis": {"Flu"}})
	assert.False(t, r.Success)

	var views []service.PatientView
	_, r = reception.json(http.MethodGet, "/panel/api/patients", nil)
	require.NoError(t, json.Unmarshal(r.Obj, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Jane Doe", views[0].Name)
	assert.Equal(t, "XXX-XXX-4567", views[0].Contact)
	assert.Empty(t, views[0].AnonymizedName)

	doctor := newClient(t, engine)
	doctor.loginWithConsent("doctor", "doctor123")
	_, r = doctor.json(http.MethodGet, "/panel/api/patients", nil)
	var doctorViews []service.PatientView
	require.NoError(t, json.Unmarshal(r.Obj, &doctorViews))
	require.Len(t, doctorViews, 1)
	assert.Empty(t, doctorViews[0].Name)
	assert.Empty(t, doctorViews[0].Contact)
	assert.Equal(t, "PAT_0001", doctorViews[0].AnonymizedName)
	assert.Equal(t, "XXX-XXX-4567", doctorViews[0].AnonymizedContact)

	code, _ := doctor.json(http.MethodPost, "/panel/api/patients/add",
		url.Values{"name": {"John"}, "contact": {"0300-7654321"}, "diagnosis": {"Cold"}})
	assert.Equal(t, http.StatusForbidden, code)

	admin := newClient(t, engine)
	admin.loginWithConsent("admin", "admin123")
	_, r = admin.json(http.MethodGet, "/panel/api/patients", nil)
	var adminViews []service.PatientView
	require.NoError(t, json.Unmarshal(r.Obj, &adminViews))
	require.Len(t, adminViews, 1)
	assert.Equal(t, "Jane Doe", adminViews[0].Name)
	assert.Equal(t, "0300-1234567", adminViews[0].Contact)

	rec := admin.do(http.MethodGet, "/panel/api/patients/export", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "Jane Doe")

	assert.Contains(t, auditActions(t), "add_patient")
	assert.Contains(t, auditActions(t), "add_patient_error")
}

func TestAdminRoutesRejectOtherRoles(t *testing.T) {
	engine := newEngine(t)
	c := newClient(t, engine)
	c.loginWithConsent("reception", "reception123")

	for _, path := range []string{"/panel/api/admin/backup", "/panel/api/admin/anonymize", "/panel/api/admin/cleanup"} {
		code, r := c.json(http.MethodPost, path, url.Values{})
		assert.Equal(t, http.StatusForbidden, code, path)
		assert.False(t, r.Success)
	}
	assert.Contains(t, auditActions(t), "access_denied")
}

func TestAdminBackupAndRestore(t *testing.T) {
	engine := newEngine(t)
	c := newClient(t, engine)
	c.loginWithConsent("admin", "admin123")

	_, r := c.json(http.MethodPost, "/panel/api/admin/backup", url.Values{})
	require.True(t, r.Success, r.Msg)
	var created struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(r.Obj, &created))
	assert.Regexp(t, `^hospital_db_\d{8}_\d{6}\.db$`, created.Name)

	_, r = c.json(http.MethodPost, "/panel/api/patients/add",
		url.Values{"name": {"Late Entry"}, "contact": {"0300-0000000"}, "diagnosis": {"Flu"}})
	require.True(t, r.Success, r.Msg)

	_, r = c.json(http.MethodPost, "/panel/api/admin/restore", url.Values{"name": {"../hospital.db"}})
	assert.False(t, r.Success)

	_, r = c.json(http.MethodPost, "/panel/api/admin/restore", url.Values{"name": {created.Name}})
	require.True(t, r.Success, r.Msg)

	var count int64
	require.NoError(t, database.GetDB().Model(&model.Patient{}).Count(&count).Error)
	assert.Zero(t, count)

	_, r = c.json(http.MethodGet, "/panel/api/admin/db/status", nil)
	assert.True(t, r.Success)
	var status service.DBStatus
	require.NoError(t, json.Unmarshal(r.Obj, &status))
	assert.True(t, status.Available)
	assert.Equal(t, 1, status.Backups)
}

func TestAdminCleanupAndLogs(t *testing.T) {
	engine := newEngine(t)
	c := newClient(t, engine)
	c.loginWithConsent("admin", "admin123")

	_, r := c.json(http.MethodPost, "/panel/api/admin/cleanup", url.Values{"days": {"0"}})
	assert.False(t, r.Success)

	_, r = c.json(http.MethodPost, "/panel/api/admin/cleanup", url.Values{"days": {"30"}})
	require.True(t, r.Success, r.Msg)

	_, r = c.json(http.MethodGet, "/panel/api/admin/logs?limit=10", nil)
	require.True(t, r.Success)
	var logs []model.LogEntry
	require.NoError(t, json.Unmarshal(r.Obj, &logs))
	require.NotEmpty(t, logs)
	assert.Equal(t, "data_retention_cleanup", logs[0].Action)
	assert.Equal(t, "30 days", logs[0].Details)

	rec := c.do(http.MethodGet, "/panel/api/admin/logs/export", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "ID,Username,Role,Action,Details,Timestamp"))
}
