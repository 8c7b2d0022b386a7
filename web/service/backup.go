package service

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/hospital-ui/hospital-ui/config"
	"github.com/hospital-ui/hospital-ui/database"
	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/util/common"
)

const (
	backupPrefix     = "hospital_db_"
	backupSuffix     = ".db"
	backupTimeLayout = "20060102_150405"
)

var backupNameRe = regexp.MustCompile(`^hospital_db_\d{8}_\d{6}\.db$`)

// BackupInfo describes one snapshot in the backups directory.
type BackupInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// BackupService takes and restores whole-file snapshots of the database.
// Zero fields fall back to the config package.
type BackupService struct {
	DBPath     string
	BackupDir  string
	MaxBackups int
	Now        func() time.Time
}

func (s *BackupService) dbPath() string {
	if s.DBPath != "" {
		return s.DBPath
	}
	return config.GetDBPath()
}

func (s *BackupService) backupDir() string {
	if s.BackupDir != "" {
		return s.BackupDir
	}
	return config.GetBackupFolderPath()
}

func (s *BackupService) maxBackups() int {
	if s.MaxBackups > 0 {
		return s.MaxBackups
	}
	return config.GetMaxBackups()
}

func (s *BackupService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// BackupFileName returns the snapshot name for t.
func BackupFileName(t time.Time) string {
	return backupPrefix + t.Format(backupTimeLayout) + backupSuffix
}

// Backup copies the live database into the backups directory and prunes
// the oldest snapshots beyond the retention count. It returns "" and no error
// when there is no database file yet.
func (s *BackupService) Backup() (string, error) {
	src := s.dbPath()
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		logger.Info("no database file yet, skipping backup")
		return "", nil
	} else if err != nil {
		return "", common.Wrap(common.ErrIOFailure, err)
	}

	dir := s.backupDir()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", common.Wrap(common.ErrIOFailure, err)
	}

	dst, err := nextBackupPath(dir, s.now())
	if err != nil {
		return "", common.Wrap(common.ErrIOFailure, err)
	}
	if err := copyFile(src, dst); err != nil {
		return "", common.Wrap(common.ErrIOFailure, err)
	}
	logger.Infof("database backed up to %s", dst)

	s.rotate()
	return dst, nil
}

// nextBackupPath names the snapshot after t, stepping forward one second
// past names already taken so an earlier snapshot is never overwritten.
func nextBackupPath(dir string, t time.Time) (string, error) {
	for i := 0; i < 60; i++ {
		path := filepath.Join(dir, BackupFileName(t.Add(time.Duration(i)*time.Second)))
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free backup name after %s", BackupFileName(t))
}

// rotate deletes all but the newest maxBackups snapshots. Failures are
// logged; the backup that triggered the rotation already succeeded.
func (s *BackupService) rotate() {
	names, err := s.backupNames()
	if err != nil {
		logger.Warning("list backups for rotation:", err)
		return
	}
	keep := s.maxBackups()
	if len(names) <= keep {
		return
	}
	for _, name := range names[:len(names)-keep] {
		path := filepath.Join(s.backupDir(), name)
		if err := os.Remove(path); err != nil {
			logger.Warningf("remove old backup %s: %v", path, err)
			continue
		}
		logger.Infof("removed old backup %s", name)
	}
}

// backupNames lists snapshot file names in ascending (= chronological) order.
func (s *BackupService) backupNames() ([]string, error) {
	entries, err := os.ReadDir(s.backupDir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && backupNameRe.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListBackups returns the snapshots newest first.
func (s *BackupService) ListBackups() ([]BackupInfo, error) {
	names, err := s.backupNames()
	if err != nil {
		return nil, common.Wrap(common.ErrIOFailure, err)
	}
	backups := make([]BackupInfo, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		info, err := os.Stat(filepath.Join(s.backupDir(), names[i]))
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{Name: names[i], Size: info.Size(), ModTime: info.ModTime()})
	}
	return backups, nil
}

// ResolveBackup maps a bare snapshot name to its path in the backups
// directory. Anything that is not a snapshot name is rejected.
func (s *BackupService) ResolveBackup(name string) (string, error) {
	if !backupNameRe.MatchString(name) {
		return "", common.Wrap(common.ErrNotFound, fmt.Errorf("invalid backup name %q", name))
	}
	path := filepath.Join(s.backupDir(), name)
	if _, err := os.Stat(path); err != nil {
		return "", common.Wrap(common.ErrNotFound, err)
	}
	return path, nil
}

// Restore overwrites the live database with the snapshot at path and reopens
// it. Everything written since that snapshot is lost. The connection is closed
// while the files are swapped and database.GetDB returns nil until it is
// reopened, so callers must not run it alongside other database work; the
// panel has a single writer and gin's recovery handler absorbs a request that
// races it.
func (s *BackupService) Restore(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return common.Wrap(common.ErrNotFound, err)
	} else if err != nil {
		return common.Wrap(common.ErrIOFailure, err)
	}
	if info.IsDir() {
		return common.Wrap(common.ErrIOFailure, fmt.Errorf("%s is a directory", path))
	}
	ok, err := database.IsSQLiteFile(path)
	if err != nil {
		return common.Wrap(common.ErrIOFailure, err)
	}
	if !ok {
		return common.Wrap(common.ErrIOFailure, fmt.Errorf("%s is not an SQLite database", path))
	}

	dst := s.dbPath()
	tempPath := dst + ".temp"
	if err := copyFile(path, tempPath); err != nil {
		os.Remove(tempPath)
		return common.Wrap(common.ErrIOFailure, err)
	}

	reopen := database.GetDB() != nil
	if errClose := database.CloseDB(); errClose != nil {
		logger.Warningf("close database before restore: %v", errClose)
	}

	fallbackPath := dst + ".backup"
	os.Remove(fallbackPath)
	hadLive := true
	if err := os.Rename(dst, fallbackPath); errors.Is(err, fs.ErrNotExist) {
		hadLive = false
	} else if err != nil {
		os.Remove(tempPath)
		s.reopen(reopen, dst)
		return common.Wrap(common.ErrIOFailure, err)
	}

	if err := os.Rename(tempPath, dst); err != nil {
		if hadLive {
			if errRename := os.Rename(fallbackPath, dst); errRename != nil {
				logger.Errorf("restore fallback database: %v", errRename)
			}
		}
		os.Remove(tempPath)
		s.reopen(reopen, dst)
		return common.Wrap(common.ErrIOFailure, err)
	}

	if reopen {
		if err := database.InitDB(dst); err != nil {
			database.CloseDB()
			if hadLive {
				if errRename := os.Rename(fallbackPath, dst); errRename != nil {
					logger.Errorf("restore fallback database: %v", errRename)
				}
				s.reopen(true, dst)
			}
			return err
		}
	}
	if hadLive {
		if err := os.Remove(fallbackPath); err != nil {
			logger.Warningf("remove fallback database: %v", err)
		}
	}
	logger.Infof("database restored from %s", path)
	return nil
}

func (s *BackupService) reopen(reopen bool, path string) {
	if !reopen {
		return
	}
	if err := database.InitDB(path); err != nil {
		logger.Errorf("reopen database %s: %v", path, err)
	}
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
