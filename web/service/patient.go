package service

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/hospital-ui/hospital-ui/database"
	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/util/common"
	"github.com/hospital-ui/hospital-ui/util/privacy"

	"gorm.io/gorm"
)

// PatientView is a patient row as a given role is allowed to see it. Fields a
// role may not see are left empty and omitted from JSON.
type PatientView struct {
	Id                int             `json:"id"`
	Name              string          `json:"name,omitempty"`
	Contact           string          `json:"contact,omitempty"`
	Diagnosis         string          `json:"diagnosis"`
	AnonymizedName    string          `json:"anonymizedName,omitempty"`
	AnonymizedContact string          `json:"anonymizedContact,omitempty"`
	CreatedAt         model.Timestamp `json:"createdAt"`
}

type PatientService struct {
	privacyService PrivacyService
}

func NewPatientService(p PrivacyService) PatientService {
	return PatientService{privacyService: p}
}

func (s *PatientService) GetPatient(id int) (*model.Patient, error) {
	db := database.GetDB()
	p := &model.Patient{}
	err := db.Model(model.Patient{}).Where("id = ?", id).First(p).Error
	if database.IsNotFound(err) {
		return nil, common.Wrap(common.ErrNotFound, err)
	} else if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	return p, nil
}

func checkPatientInput(name, contact string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name can not be empty")
	}
	if strings.TrimSpace(contact) == "" {
		return errors.New("contact can not be empty")
	}
	return nil
}

// AddPatient inserts a patient and fills its derived columns in the same
// transaction, since the anonymized name depends on the assigned id.
func (s *PatientService) AddPatient(name, contact, diagnosis string) (p *model.Patient, err error) {
	if err := checkPatientInput(name, contact); err != nil {
		return nil, err
	}
	p = &model.Patient{
		Name:      strings.TrimSpace(name),
		Contact:   strings.TrimSpace(contact),
		Diagnosis: strings.TrimSpace(diagnosis),
		CreatedAt: model.Now(),
	}

	db := database.GetDB()
	tx := db.Begin()
	defer func() {
		finishTx(tx, &err)
		if err != nil {
			p = nil
		}
	}()

	if err = tx.Create(p).Error; err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	if err = s.privacyService.Protect(p); err != nil {
		return nil, err
	}
	if err = tx.Save(p).Error; err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	return p, nil
}

// finishTx commits tx when *err is nil and rolls it back otherwise. A failed
// commit is reported through err.
func finishTx(tx *gorm.DB, err *error) {
	if *err != nil {
		tx.Rollback()
		return
	}
	if cerr := tx.Commit().Error; cerr != nil {
		*err = common.Wrap(common.ErrStoreUnavailable, cerr)
	}
}

func (s *PatientService) UpdatePatient(id int, name, contact, diagnosis string) (*model.Patient, error) {
	if err := checkPatientInput(name, contact); err != nil {
		return nil, err
	}
	p, err := s.GetPatient(id)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(name)
	p.Contact = strings.TrimSpace(contact)
	p.Diagnosis = strings.TrimSpace(diagnosis)
	if err := s.privacyService.Protect(p); err != nil {
		return nil, err
	}
	db := database.GetDB()
	if err := db.Save(p).Error; err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	return p, nil
}

func (s *PatientService) getAll() ([]*model.Patient, error) {
	db := database.GetDB()
	var patients []*model.Patient
	err := db.Model(model.Patient{}).Order("id").Find(&patients).Error
	if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	return patients, nil
}

// GetPatients returns every patient shaped for role. Admins get names and
// contacts decrypted from the protected columns, falling back to the
// plaintext when a row has none or it does not decrypt.
func (s *PatientService) GetPatients(role model.Role) ([]PatientView, error) {
	patients, err := s.getAll()
	if err != nil {
		return nil, err
	}
	views := make([]PatientView, 0, len(patients))
	for _, p := range patients {
		views = append(views, s.view(p, role))
	}
	return views, nil
}

func (s *PatientService) view(p *model.Patient, role model.Role) PatientView {
	v := PatientView{
		Id:        p.Id,
		Diagnosis: p.Diagnosis,
		CreatedAt: p.CreatedAt,
	}
	switch role {
	case model.RoleAdmin:
		v.Name = s.reveal(p.Id, p.EncryptedName, p.Name)
		v.Contact = s.reveal(p.Id, p.EncryptedContact, p.Contact)
		v.AnonymizedName = deref(p.AnonymizedName)
		v.AnonymizedContact = deref(p.AnonymizedContact)
	case model.RoleDoctor:
		v.AnonymizedName = deref(p.AnonymizedName)
		if v.AnonymizedName == "" {
			v.AnonymizedName, _ = privacy.AnonymizeName(p.Name, p.Id)
		}
		v.AnonymizedContact = deref(p.AnonymizedContact)
		if v.AnonymizedContact == "" {
			v.AnonymizedContact = privacy.MaskContact(p.Contact)
		}
	default:
		v.Name = p.Name
		v.Contact = privacy.MaskContact(p.Contact)
	}
	return v
}

func (s *PatientService) reveal(id int, token *string, plaintext string) string {
	if token == nil || *token == "" {
		return plaintext
	}
	value, err := s.privacyService.Decrypt(*token)
	if err != nil {
		logger.Warningf("decrypt patient %d: %v", id, err)
		return plaintext
	}
	return value
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CountPatients returns the number of stored patients.
func (s *PatientService) CountPatients() (int64, error) {
	var count int64
	err := database.GetDB().Model(model.Patient{}).Count(&count).Error
	return count, err
}

var patientCSVHeader = []string{
	"ID", "Name", "Contact", "Diagnosis",
	"Anonymized Name", "Anonymized Contact",
	"Encrypted Name", "Encrypted Contact", "Created At",
}

// WritePatientsCSV writes every patient with all columns.
func (s *PatientService) WritePatientsCSV(w io.Writer) error {
	patients, err := s.getAll()
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(patientCSVHeader); err != nil {
		return common.Wrap(common.ErrIOFailure, err)
	}
	for _, p := range patients {
		record := []string{
			strconv.Itoa(p.Id), p.Name, p.Contact, p.Diagnosis,
			deref(p.AnonymizedName), deref(p.AnonymizedContact),
			deref(p.EncryptedName), deref(p.EncryptedContact),
			p.CreatedAt.String(),
		}
		if err := cw.Write(record); err != nil {
			return common.Wrap(common.ErrIOFailure, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return common.Wrap(common.ErrIOFailure, err)
	}
	return nil
}
