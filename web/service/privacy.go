package service

import (
	"sync"

	"github.com/hospital-ui/hospital-ui/config"
	"github.com/hospital-ui/hospital-ui/database"
	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/util/common"
	"github.com/hospital-ui/hospital-ui/util/crypto"
	"github.com/hospital-ui/hospital-ui/util/privacy"
)

var (
	cipherMu    sync.Mutex
	cipherCache = map[string]*crypto.FieldCipher{}
)

// fieldCipher returns the cipher for the key at keyPath, creating the key
// file on first use. The cipher is cached for the process lifetime.
func fieldCipher(keyPath string) (*crypto.FieldCipher, error) {
	cipherMu.Lock()
	defer cipherMu.Unlock()
	if c, ok := cipherCache[keyPath]; ok {
		return c, nil
	}
	key, err := crypto.LoadOrCreateKey(keyPath)
	if err != nil {
		return nil, err
	}
	c, err := crypto.NewFieldCipher(key)
	if err != nil {
		return nil, err
	}
	cipherCache[keyPath] = c
	return c, nil
}

// AnonymizeResult reports a batch anonymization pass.
type AnonymizeResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// PrivacyService derives the protected columns of patient rows.
type PrivacyService struct {
	// KeyPath overrides config.GetKeyPath.
	KeyPath string
}

func (s *PrivacyService) keyPath() string {
	if s.KeyPath != "" {
		return s.KeyPath
	}
	return config.GetKeyPath()
}

func (s *PrivacyService) Encrypt(plaintext string) (string, error) {
	c, err := fieldCipher(s.keyPath())
	if err != nil {
		return "", err
	}
	return c.Encrypt(plaintext)
}

func (s *PrivacyService) Decrypt(token string) (string, error) {
	c, err := fieldCipher(s.keyPath())
	if err != nil {
		return "", err
	}
	return c.Decrypt(token)
}

// Protect fills the anonymized and encrypted columns of p from its
// plaintext fields. p.Id must already be assigned.
func (s *PrivacyService) Protect(p *model.Patient) error {
	p.AnonymizedName = model.StringPtr(privacy.AnonymizeName(p.Name, p.Id))
	p.AnonymizedContact = model.StringPtr(privacy.AnonymizeContact(p.Contact))

	p.EncryptedName = nil
	if p.Name != "" {
		token, err := s.Encrypt(p.Name)
		if err != nil {
			return err
		}
		p.EncryptedName = &token
	}
	p.EncryptedContact = nil
	if p.Contact != "" {
		token, err := s.Encrypt(p.Contact)
		if err != nil {
			return err
		}
		p.EncryptedContact = &token
	}
	return nil
}

func (s *PrivacyService) saveDerived(p *model.Patient) error {
	db := database.GetDB()
	return db.Model(model.Patient{}).
		Where("id = ?", p.Id).
		Updates(map[string]any{
			"anonymized_name":    p.AnonymizedName,
			"anonymized_contact": p.AnonymizedContact,
			"encrypted_name":     p.EncryptedName,
			"encrypted_contact":  p.EncryptedContact,
		}).Error
}

// AnonymizeAll recomputes the derived columns of every patient. A row that
// fails is logged and counted; the pass carries on with the next one.
func (s *PrivacyService) AnonymizeAll() (*AnonymizeResult, error) {
	db := database.GetDB()
	var patients []*model.Patient
	if err := db.Model(model.Patient{}).Order("id").Find(&patients).Error; err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}

	result := &AnonymizeResult{}
	for _, p := range patients {
		if err := s.Protect(p); err != nil {
			logger.Warningf("anonymize patient %d: %v", p.Id, err)
			result.Failed++
			continue
		}
		if err := s.saveDerived(p); err != nil {
			logger.Warningf("save anonymized patient %d: %v", p.Id, err)
			result.Failed++
			continue
		}
		result.Processed++
	}
	logger.Infof("anonymization pass: %d processed, %d failed", result.Processed, result.Failed)
	return result, nil
}

func (s *PrivacyService) AnonymizePatient(id int) (*model.Patient, error) {
	db := database.GetDB()
	p := &model.Patient{}
	err := db.Model(model.Patient{}).Where("id = ?", id).First(p).Error
	if database.IsNotFound(err) {
		return nil, common.Wrap(common.ErrNotFound, err)
	} else if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	if err := s.Protect(p); err != nil {
		return nil, err
	}
	if err := s.saveDerived(p); err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	return p, nil
}
