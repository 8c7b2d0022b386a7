package service

import (
	"testing"
	"time"

	"github.com/hospital-ui/hospital-ui/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	setup(t)
	patientService := NewPatientService(PrivacyService{})
	service := NewDashboardService(patientService)

	base := time.Now().Add(-time.Hour)
	for i, d := range []string{"Flu", "Flu", "Cold", "Flu", "Asthma", "Cold", "Flu"} {
		insertPatient(t, "Patient", "0300-123456"+string(rune('0'+i)), d, base.Add(time.Duration(i)*time.Minute))
	}
	insertLog(t, "login_success", time.Now())

	stats, err := service.GetStats(model.RoleDoctor)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stats.TotalPatients)
	assert.Equal(t, []DiagnosisCount{{"Flu", 4}, {"Cold", 2}, {"Asthma", 1}}, stats.Diagnoses)
	require.Len(t, stats.RecentPatients, 5)
	assert.Equal(t, 7, stats.RecentPatients[0].Id, "newest first")
	assert.Empty(t, stats.RecentPatients[0].Name, "doctors do not see names")
	assert.Equal(t, "PAT_0007", stats.RecentPatients[0].AnonymizedName)
	assert.Nil(t, stats.Activity)

	stats, err = service.GetStats(model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "Patient", stats.RecentPatients[0].Name)
	require.Len(t, stats.Activity, 1)
	assert.Equal(t, int64(1), stats.Activity[0].Count)
}
