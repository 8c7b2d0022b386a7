package database

import (
	"fmt"

	"github.com/hospital-ui/hospital-ui/database/model"
	"github.com/hospital-ui/hospital-ui/logger"

	"gorm.io/gorm"
)

// migration is one ordered schema step. Up must be idempotent: it runs
// against databases created by any earlier release, including ones that
// already have the change but no schema_migrations row.
type migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

var migrations = []migration{
	{1, "create_users", execSQL(`
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL CHECK(role IN ('admin','doctor','receptionist')),
    gdpr_consent INTEGER DEFAULT 0
);`)},
	{2, "users_add_gdpr_consent", addColumn("users", "gdpr_consent", "INTEGER DEFAULT 0")},
	{3, "create_patients", execSQL(`
CREATE TABLE IF NOT EXISTS patients (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT,
    contact TEXT,
    diagnosis TEXT,
    anonymized_name TEXT,
    anonymized_contact TEXT,
    encrypted_name TEXT,
    encrypted_contact TEXT,
    created_at TEXT
);`)},
	{4, "patients_add_encrypted_name", addColumn("patients", "encrypted_name", "TEXT")},
	{5, "patients_add_encrypted_contact", addColumn("patients", "encrypted_contact", "TEXT")},
	{6, "create_logs", execSQL(`
CREATE TABLE IF NOT EXISTS logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT,
    role TEXT,
    action TEXT,
    details TEXT,
    created_at TEXT
);`)},
	{7, "create_settings", execSQL(`
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    key TEXT,
    value TEXT
);`)},
	{8, "index_created_at", execSQL(
		`CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_patients_created_at ON patients(created_at);`,
	)},
}

func execSQL(statements ...string) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		for _, stmt := range statements {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	}
}

func addColumn(table, column, definition string) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		if tx.Migrator().HasColumn(table, column) {
			return nil
		}
		return tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", table, column, definition)).Error
	}
}

// migrate applies every step newer than the recorded schema version, each in
// its own transaction together with its schema_migrations row.
func migrate(db *gorm.DB) error {
	if err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TEXT
);`).Error; err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	var current int
	if err := db.Model(&model.SchemaMigration{}).Select("COALESCE(MAX(version), 0)").Scan(&current).Error; err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&model.SchemaMigration{
				Version:   m.Version,
				Name:      m.Name,
				AppliedAt: model.Now(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %03d %s: %w", m.Version, m.Name, err)
		}
		logger.Infof("applied migration %03d %s", m.Version, m.Name)
	}
	return nil
}

// SchemaVersion returns the highest applied migration.
func SchemaVersion() (int, error) {
	var v int
	err := db.Model(&model.SchemaMigration{}).Select("COALESCE(MAX(version), 0)").Scan(&v).Error
	return v, err
}

// LatestSchemaVersion returns the version the binary migrates to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].Version
}
