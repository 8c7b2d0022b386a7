package service

import (
	"github.com/hospital-ui/hospital-ui/database"
	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/util/common"
)

const (
	recentPatientCount = 5
	activityDays       = 30
)

type DiagnosisCount struct {
	Diagnosis string `json:"diagnosis"`
	Count     int64  `json:"count"`
}

type DashboardStats struct {
	TotalPatients  int64            `json:"totalPatients"`
	Diagnoses      []DiagnosisCount `json:"diagnoses"`
	RecentPatients []PatientView    `json:"recentPatients"`
	Activity       []DayCount       `json:"activity,omitempty"`
}

type DashboardService struct {
	patientService PatientService
	auditService   AuditLogService
}

func NewDashboardService(p PatientService) DashboardService {
	return DashboardService{patientService: p}
}

// GetStats summarises the patient table for role. Recent patients are shaped
// like GetPatients; only admins get the activity series.
func (s *DashboardService) GetStats(role model.Role) (*DashboardStats, error) {
	db := database.GetDB()
	stats := &DashboardStats{}

	total, err := s.patientService.CountPatients()
	if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	stats.TotalPatients = total

	err = db.Model(&model.Patient{}).
		Select("diagnosis, COUNT(*) AS count").
		Group("diagnosis").
		Order("count DESC, diagnosis").
		Scan(&stats.Diagnoses).Error
	if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}

	var recent []*model.Patient
	err = db.Model(&model.Patient{}).
		Order("created_at DESC, id DESC").
		Limit(recentPatientCount).
		Find(&recent).Error
	if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	stats.RecentPatients = make([]PatientView, 0, len(recent))
	for _, p := range recent {
		stats.RecentPatients = append(stats.RecentPatients, s.patientService.view(p, role))
	}

	if role == model.RoleAdmin {
		stats.Activity, err = s.auditService.ActivityByDay(activityDays)
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}
