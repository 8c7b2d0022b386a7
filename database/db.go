package database

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hospital-ui/hospital-ui/config"
	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/util/common"
	"github.com/hospital-ui/hospital-ui/util/crypto"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	db     *gorm.DB
	dbPath string
)

// RequiredTables must exist for the store to be considered available.
var RequiredTables = []string{"users", "patients", "logs"}

type seedUser struct {
	username string
	password string
	role     model.Role
}

var defaultUsers = []seedUser{
	{"admin", "admin123", model.RoleAdmin},
	{"doctor", "doctor123", model.RoleDoctor},
	{"reception", "reception123", model.RoleReceptionist},
}

func initUsers() error {
	empty, err := isTableEmpty("users")
	if err != nil {
		logger.Warning("Error checking if users table is empty:", err)
		return err
	}
	if !empty {
		logger.Debug("users already exist; skipping default user creation")
		return nil
	}
	users := make([]model.User, 0, len(defaultUsers))
	for _, u := range defaultUsers {
		hash, err := crypto.HashPasswordAsBcrypt(config.GetSeedPassword(string(u.role), u.password))
		if err != nil {
			return err
		}
		users = append(users, model.User{Username: u.username, PasswordHash: hash, Role: u.role})
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}
	logger.Info("default users created")
	return nil
}

func isTableEmpty(tableName string) (bool, error) {
	var count int64
	err := db.Table(tableName).Count(&count).Error
	return count == 0, err
}

// InitDB opens (creating if needed) the SQLite file at path, applies pending
// migrations and seeds the default accounts into an empty users table.
func InitDB(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), fs.ModePerm); err != nil {
		return common.Wrap(common.ErrStoreUnavailable, err)
	}

	var gormLogger gormlogger.Interface
	if config.IsDebug() {
		gormLogger = gormlogger.Default
	} else {
		gormLogger = gormlogger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	}

	// Rollback journal rather than WAL: committed data always lives in the main
	// file, so a plain file copy is a complete snapshot.
	dsn := path + "?_journal_mode=DELETE&_busy_timeout=5000&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), c)
	if err != nil {
		return common.Wrap(common.ErrStoreUnavailable, err)
	}
	db = conn
	dbPath = path

	if err := migrate(db); err != nil {
		return common.Wrap(common.ErrStoreUnavailable, err)
	}
	if err := initUsers(); err != nil {
		return common.Wrap(common.ErrStoreUnavailable, err)
	}
	return nil
}

func CloseDB() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	db = nil
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return db
}

// GetDBPath returns the file the current handle was opened on.
func GetDBPath() string {
	return dbPath
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func IsSQLiteDB(file io.ReaderAt) (bool, error) {
	signature := []byte("SQLite format 3\x00")
	buf := make([]byte, len(signature))
	_, err := file.ReadAt(buf, 0)
	if err != nil {
		return false, err
	}
	return bytes.Equal(buf, signature), nil
}

// IsSQLiteFile is IsSQLiteDB for a path.
func IsSQLiteFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	ok, err := IsSQLiteDB(f)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	return ok, err
}

// CheckAvailability verifies that the database file at path exists, is
// readable, is an SQLite file and holds every RequiredTables entry. It opens
// its own short-lived connection and never migrates.
func CheckAvailability(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return common.Wrap(common.ErrStoreUnavailable, err)
	}
	if info.IsDir() {
		return common.Wrap(common.ErrStoreUnavailable, fmt.Errorf("%s is a directory", path))
	}
	ok, err := IsSQLiteFile(path)
	if err != nil {
		return common.Wrap(common.ErrStoreUnavailable, err)
	}
	if !ok {
		return common.Wrap(common.ErrStoreUnavailable, fmt.Errorf("%s is not an SQLite database", path))
	}

	conn, err := gorm.Open(sqlite.Open("file:"+path+"?mode=ro&_busy_timeout=5000"), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return common.Wrap(common.ErrStoreUnavailable, err)
	}
	if sqlDB, err := conn.DB(); err == nil {
		defer sqlDB.Close()
	}

	var tables []string
	if err := conn.Raw("SELECT name FROM sqlite_master WHERE type = 'table'").Scan(&tables).Error; err != nil {
		return common.Wrap(common.ErrStoreUnavailable, err)
	}
	present := make(map[string]bool, len(tables))
	for _, t := range tables {
		present[t] = true
	}
	var missing []string
	for _, t := range RequiredTables {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return common.Wrap(common.ErrStoreUnavailable, fmt.Errorf("missing tables: %v", missing))
	}
	return nil
}
