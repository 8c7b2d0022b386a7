// Package config exposes process configuration read from the environment
// (optionally seeded from a .env file) and the embedded name and version.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

// DefaultMaxBackups is the number of database snapshots kept after rotation.
const DefaultMaxBackups = 5

// LoadEnvFile loads variables from the given .env files (or ./.env) into the
// process environment. Variables already set are not overridden. A missing
// file is not an error.
func LoadEnvFile(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("HUI_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("HUI_DEBUG") == "true"
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("HUI_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "data"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return filepath.Join(GetDBFolderPath(), "hospital.db")
}

func GetBackupFolderPath() string {
	backupFolderPath := os.Getenv("HUI_BACKUP_FOLDER")
	if backupFolderPath == "" {
		backupFolderPath = filepath.Join(GetDBFolderPath(), "backups")
	}
	return backupFolderPath
}

// GetKeyPath returns the location of the field encryption key. The key sits
// unencrypted next to the data it protects; deployments should keep it out
// of backups and version control.
func GetKeyPath() string {
	keyPath := os.Getenv("HUI_KEY_FILE")
	if keyPath == "" {
		keyPath = filepath.Join(GetDBFolderPath(), ".key")
	}
	return keyPath
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("HUI_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = filepath.Join(GetDBFolderPath(), "logs")
	}
	return logFolderPath
}

func GetMaxBackups() int {
	n, err := strconv.Atoi(os.Getenv("HUI_MAX_BACKUPS"))
	if err != nil || n <= 0 {
		return DefaultMaxBackups
	}
	return n
}

// GetSeedPassword returns the first-boot password for the seeded account of
// the given role, falling back to fallback when HUI_SEED_<ROLE>_PASSWORD is
// unset.
func GetSeedPassword(role string, fallback string) string {
	v := os.Getenv("HUI_SEED_" + strings.ToUpper(role) + "_PASSWORD")
	if v == "" {
		return fallback
	}
	return v
}
