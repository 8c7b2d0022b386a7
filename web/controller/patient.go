package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/web/middleware"
	"github.com/hospital-ui/hospital-ui/web/service"
	"github.com/hospital-ui/hospital-ui/web/session"

	"github.com/gin-gonic/gin"
)

// PatientForm is the body of the add and update routes.
type PatientForm struct {
	Name      string `json:"name" form:"name"`
	Contact   string `json:"contact" form:"contact"`
	Diagnosis string `json:"diagnosis" form:"diagnosis"`
}

// PatientController serves the dashboard and the patient register. What a
// user sees of a patient depends on their role.
type PatientController struct {
	patientService   service.PatientService
	dashboardService service.DashboardService
}

func NewPatientController(g *gin.RouterGroup) *PatientController {
	patientService := service.NewPatientService(service.PrivacyService{})
	a := &PatientController{
		patientService:   patientService,
		dashboardService: service.NewDashboardService(patientService),
	}
	a.initRouter(g)
	return a
}

func (a *PatientController) initRouter(g *gin.RouterGroup) {
	g.GET("/dashboard", a.dashboard)
	g.GET("/patients", a.getPatients)

	editors := middleware.RoleRequired(model.RoleAdmin, model.RoleReceptionist)
	g.POST("/patients/add", editors, a.addPatient)
	g.POST("/patients/update/:id", editors, a.updatePatient)
	g.GET("/patients/export", middleware.RoleRequired(model.RoleAdmin), a.exportPatients)
}

func (a *PatientController) dashboard(c *gin.Context) {
	user := session.GetLoginUser(c)
	stats, err := a.dashboardService.GetStats(user.Role)
	if err != nil {
		middleware.Audit(c, "dashboard_error", err.Error())
		jsonMsg(c, I18nWeb(c, "fail"), err)
		return
	}
	middleware.Audit(c, fmt.Sprintf("view_%s_dashboard", user.Role), "")
	jsonObj(c, stats, nil)
}

func (a *PatientController) getPatients(c *gin.Context) {
	user := session.GetLoginUser(c)
	patients, err := a.patientService.GetPatients(user.Role)
	if err != nil {
		middleware.Audit(c, "patient_list_error", err.Error())
		jsonMsg(c, I18nWeb(c, "patients.listError"), err)
		return
	}
	middleware.Audit(c, "view_patients", strconv.Itoa(len(patients))+" records")
	jsonObj(c, patients, nil)
}

func (a *PatientController) addPatient(c *gin.Context) {
	form := &PatientForm{}
	if err := c.ShouldBind(form); err != nil {
		jsonMsg(c, I18nWeb(c, "invalidForm"), err)
		return
	}
	patient, err := a.patientService.AddPatient(form.Name, form.Contact, form.Diagnosis)
	if err != nil {
		middleware.Audit(c, "add_patient_error", err.Error())
		jsonMsg(c, I18nWeb(c, "fail"), err)
		return
	}
	middleware.Audit(c, "add_patient", "Patient ID: "+strconv.Itoa(patient.Id))
	jsonMsgObj(c, I18nWeb(c, "patients.added"), gin.H{"id": patient.Id}, nil)
}

func (a *PatientController) updatePatient(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		jsonMsg(c, I18nWeb(c, "invalidForm"), err)
		return
	}
	form := &PatientForm{}
	if err := c.ShouldBind(form); err != nil {
		jsonMsg(c, I18nWeb(c, "invalidForm"), err)
		return
	}
	patient, err := a.patientService.UpdatePatient(id, form.Name, form.Contact, form.Diagnosis)
	if err != nil {
		middleware.Audit(c, "update_patient_error", err.Error())
		jsonMsg(c, I18nWeb(c, "fail"), err)
		return
	}
	middleware.Audit(c, "update_patient", "Patient ID: "+strconv.Itoa(patient.Id))
	jsonMsgObj(c, I18nWeb(c, "patients.updated"), gin.H{"id": patient.Id}, nil)
}

// exportPatients buffers the CSV so a failure can still be reported as JSON.
func (a *PatientController) exportPatients(c *gin.Context) {
	var buf bytes.Buffer
	if err := a.patientService.WritePatientsCSV(&buf); err != nil {
		middleware.Audit(c, "export_patients_error", err.Error())
		jsonMsg(c, I18nWeb(c, "patients.exportError"), err)
		return
	}
	middleware.Audit(c, "export_patients", "")
	filename := "patients_" + time.Now().Format("20060102_150405") + ".csv"
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
