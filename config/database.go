package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// StorageConfig describes where the store, its snapshots and the field
// encryption key live on disk.
type StorageConfig struct {
	DBPath     string `json:"dbPath"`
	BackupDir  string `json:"backupDir"`
	KeyPath    string `json:"keyPath"`
	MaxBackups int    `json:"maxBackups"`
}

// GetStorageConfig returns the storage layout resolved from the environment.
func GetStorageConfig() *StorageConfig {
	return &StorageConfig{
		DBPath:     GetDBPath(),
		BackupDir:  GetBackupFolderPath(),
		KeyPath:    GetKeyPath(),
		MaxBackups: GetMaxBackups(),
	}
}

// ValidateConfig validates the storage configuration
func (c *StorageConfig) ValidateConfig() error {
	if c.DBPath == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.BackupDir == "" {
		return fmt.Errorf("backup directory cannot be empty")
	}
	if c.KeyPath == "" {
		return fmt.Errorf("key path cannot be empty")
	}
	if c.MaxBackups <= 0 {
		return fmt.Errorf("max backups must be greater than 0, got %d", c.MaxBackups)
	}
	if filepath.Clean(c.BackupDir) == filepath.Clean(filepath.Dir(c.DBPath)) {
		return fmt.Errorf("backup directory must differ from the database folder")
	}
	return nil
}

// EnsureDirectoryExists creates the database and backup folders.
func (c *StorageConfig) EnsureDirectoryExists() error {
	if err := os.MkdirAll(filepath.Dir(c.DBPath), 0o755); err != nil {
		return err
	}
	return os.MkdirAll(c.BackupDir, 0o755)
}
