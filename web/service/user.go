package service

import (
	"errors"

	"github.com/hospital-ui/hospital-ui/database"
	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/util/common"
	"github.com/hospital-ui/hospital-ui/util/crypto"
)

type UserService struct{}

func (s *UserService) GetUserByUsername(username string) (*model.User, error) {
	db := database.GetDB()
	user := &model.User{}
	err := db.Model(model.User{}).
		Where("username = ?", username).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, common.Wrap(common.ErrNotFound, err)
	} else if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	return user, nil
}

func (s *UserService) GetUser(id int) (*model.User, error) {
	db := database.GetDB()
	user := &model.User{}
	err := db.Model(model.User{}).Where("id = ?", id).First(user).Error
	if database.IsNotFound(err) {
		return nil, common.Wrap(common.ErrNotFound, err)
	} else if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	return user, nil
}

// CheckUser verifies a username/password pair. A legacy digest that verifies
// is replaced by a bcrypt hash before returning; if that write fails the login
// still succeeds and the old hash stays in place until the next attempt.
func (s *UserService) CheckUser(username string, password string) (*model.User, error) {
	user, err := s.GetUserByUsername(username)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			logger.Warning("check user err:", err)
		}
		return nil, err
	}

	if !crypto.CheckPasswordHash(user.PasswordHash, password) {
		return nil, common.ErrBadCredential
	}

	if crypto.NeedsUpgrade(user.PasswordHash) {
		if err := s.upgradePasswordHash(user, password); err != nil {
			logger.Warningf("upgrade password hash for %s failed: %v", username, err)
		} else {
			logger.Infof("password hash for %s upgraded to bcrypt", username)
		}
	}
	return user, nil
}

func (s *UserService) upgradePasswordHash(user *model.User, password string) error {
	hashed, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return err
	}
	db := database.GetDB()
	err = db.Model(model.User{}).
		Where("id = ? AND password_hash = ?", user.Id, user.PasswordHash).
		Update("password_hash", hashed).
		Error
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	return nil
}

func (s *UserService) UpdatePassword(username string, password string) error {
	if password == "" {
		return errors.New("password can not be empty")
	}
	user, err := s.GetUserByUsername(username)
	if err != nil {
		return err
	}
	hashed, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return err
	}
	db := database.GetDB()
	return db.Model(model.User{}).
		Where("id = ?", user.Id).
		Update("password_hash", hashed).
		Error
}

// SetConsent records that the user accepted the privacy notice.
func (s *UserService) SetConsent(id int) error {
	db := database.GetDB()
	result := db.Model(model.User{}).Where("id = ?", id).Update("gdpr_consent", true)
	if result.Error != nil {
		return common.Wrap(common.ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}
