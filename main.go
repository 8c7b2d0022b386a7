package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hospital-ui/hospital-ui/config"
	"github.com/hospital-ui/hospital-ui/database"
	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/util/common"
	"github.com/hospital-ui/hospital-ui/web"
	"github.com/hospital-ui/hospital-ui/web/service"

	"github.com/spf13/cobra"
)

// cliUser is the audit identity of maintenance commands.
const cliUser = "cli"

// initApp loads .env, starts logging, prepares the storage folders and opens
// the database.
func initApp() error {
	if err := config.LoadEnvFile(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	level, err := logger.LevelFromConfig(config.GetLogLevel())
	if err != nil {
		return err
	}
	logger.InitLogger(level)

	storage := config.GetStorageConfig()
	if err := storage.ValidateConfig(); err != nil {
		return err
	}
	if err := storage.EnsureDirectoryExists(); err != nil {
		return err
	}
	return database.InitDB(storage.DBPath)
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	if err := initApp(); err != nil {
		log.Fatal(err)
	}
	defer logger.CloseLogger()

	server := web.NewServer()
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, os.Interrupt)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("Received SIGHUP signal. Restarting web server...")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			logger.Info("Shutting down web server...")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			if err := database.CloseDB(); err != nil {
				logger.Warning("close database err:", err)
			}
			return
		}
	}
}

func migrateDb() error {
	if err := initApp(); err != nil {
		return err
	}
	version, err := database.SchemaVersion()
	if err != nil {
		return err
	}
	fmt.Printf("database schema at version %d of %d\n", version, database.LatestSchemaVersion())
	return nil
}

func backupDb() error {
	if err := initApp(); err != nil {
		return err
	}
	backupService := service.BackupService{}
	auditService := service.AuditLogService{}
	path, err := backupService.Backup()
	if err != nil {
		auditService.Record(cliUser, "", "backup_failed", err.Error())
		return err
	}
	if path == "" {
		fmt.Println("no database file to back up")
		return nil
	}
	auditService.Record(cliUser, "", "create_backup", "Backup file: "+filepath.Base(path))
	fmt.Println("backup written to", path)
	return nil
}

func listBackups() error {
	if err := initApp(); err != nil {
		return err
	}
	backupService := service.BackupService{}
	backups, err := backupService.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Println("no backups")
		return nil
	}
	for _, b := range backups {
		fmt.Printf("%s\t%s\t%s\n", b.Name, common.FormatBytes(b.Size), b.ModTime.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// restoreDb accepts a snapshot name from the backups folder or a file path.
func restoreDb(target string) error {
	if err := initApp(); err != nil {
		return err
	}
	backupService := service.BackupService{}
	auditService := service.AuditLogService{}
	path := target
	if !strings.ContainsRune(target, os.PathSeparator) {
		if resolved, err := backupService.ResolveBackup(target); err == nil {
			path = resolved
		}
	}
	if err := backupService.Restore(path); err != nil {
		auditService.Record(cliUser, "", "restore_backup_error", err.Error())
		return err
	}
	auditService.Record(cliUser, "", "restore_backup", "Backup file: "+filepath.Base(path))
	fmt.Println("database restored from", path)
	return nil
}

func cleanupData(days int) error {
	if err := initApp(); err != nil {
		return err
	}
	if days == 0 {
		settingService := service.SettingService{}
		configured, err := settingService.GetRetentionDays()
		if err != nil {
			return err
		}
		days = configured
	}
	retentionService := service.RetentionService{}
	auditService := service.AuditLogService{}
	result, err := retentionService.Cleanup(days)
	if err != nil {
		auditService.Record(cliUser, "", "data_retention_error", err.Error())
		return err
	}
	auditService.Record(cliUser, "", "data_retention_cleanup", fmt.Sprintf("%d days", days))
	fmt.Printf("deleted %d log entries and %d patients older than %d days\n",
		result.LogsDeleted, result.PatientsDeleted, days)
	return nil
}

func anonymizePatients() error {
	if err := initApp(); err != nil {
		return err
	}
	privacyService := service.PrivacyService{}
	auditService := service.AuditLogService{}
	result, err := privacyService.AnonymizeAll()
	if err != nil {
		auditService.Record(cliUser, "", "anonymize_all_patients_failed", err.Error())
		return err
	}
	auditService.Record(cliUser, "", "anonymize_all_patients",
		fmt.Sprintf("%d processed, %d failed", result.Processed, result.Failed))
	fmt.Printf("anonymized %d patients, %d failed\n", result.Processed, result.Failed)
	return nil
}

func exportLogs(path string) error {
	if err := initApp(); err != nil {
		return err
	}
	auditService := service.AuditLogService{}
	err := auditService.Export(path)
	if errors.Is(err, common.ErrNotFound) {
		fmt.Println("no audit entries to export")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println("audit log written to", path)
	return nil
}

func resetSetting() error {
	if err := initApp(); err != nil {
		return err
	}
	settingService := service.SettingService{}
	if err := settingService.ResetSettings(); err != nil {
		return fmt.Errorf("reset setting failed: %w", err)
	}
	fmt.Println("reset setting success")
	return nil
}

func showSetting() error {
	if err := initApp(); err != nil {
		return err
	}
	settingService := service.SettingService{}
	allSetting, err := settingService.GetAllSetting()
	if err != nil {
		return err
	}
	fmt.Println("current panel settings as follows:")
	fmt.Printf("%+v\n", *allSetting)
	fmt.Println("database:", config.GetDBPath())
	fmt.Println("backups:", config.GetBackupFolderPath())
	return nil
}

func updateSetting(port int, pairs []string) error {
	if err := initApp(); err != nil {
		return err
	}
	settingService := service.SettingService{}
	if port > 0 {
		if err := settingService.SetPort(port); err != nil {
			return fmt.Errorf("set port failed: %w", err)
		}
		fmt.Printf("set port %v success\n", port)
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("setting %q is not key=value", pair)
		}
		if err := settingService.UpdateSetting(key, value); err != nil {
			return err
		}
		fmt.Printf("set %s success\n", key)
	}
	return nil
}

func setPassword(username, password string) error {
	if err := initApp(); err != nil {
		return err
	}
	userService := service.UserService{}
	if err := userService.UpdatePassword(username, password); err != nil {
		return fmt.Errorf("set password failed: %w", err)
	}
	fmt.Println("set password success")
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           config.GetName(),
		Short:         "Hospital records panel with privacy tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrateDb()
		},
	}

	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the database into the backups folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return backupDb()
		},
	}

	backupsCmd := &cobra.Command{
		Use:   "backups",
		Short: "List database snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listBackups()
		},
	}

	restoreCmd := &cobra.Command{
		Use:   "restore <backup name | path>",
		Short: "Replace the database with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return restoreDb(args[0])
		},
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete patients and audit entries past the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			return cleanupData(days)
		},
	}
	cleanupCmd.Flags().Int("days", 0, "retention period in days (default: retentionDays setting)")

	anonymizeCmd := &cobra.Command{
		Use:   "anonymize",
		Short: "Recompute anonymized and encrypted patient columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return anonymizePatients()
		},
	}

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit log tools",
	}
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the audit log as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			return exportLogs(out)
		},
	}
	exportCmd.Flags().String("out", "audit_logs.csv", "output file")
	auditCmd.AddCommand(exportCmd)

	settingCmd := &cobra.Command{
		Use:   "setting",
		Short: "Show or change settings",
	}
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset all settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return resetSetting()
		},
	}
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSetting()
		},
	}
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetInt("port")
			pairs, _ := cmd.Flags().GetStringArray("set")
			return updateSetting(port, pairs)
		},
	}
	updateCmd.Flags().Int("port", 0, "set panel port")
	updateCmd.Flags().StringArray("set", nil, "set a setting as key=value (repeatable)")
	settingCmd.AddCommand(resetCmd, showCmd, updateCmd)

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage panel users",
	}
	passwdCmd := &cobra.Command{
		Use:   "passwd",
		Short: "Set a user's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			return setPassword(username, password)
		},
	}
	passwdCmd.Flags().String("username", "", "user to change")
	passwdCmd.Flags().String("password", "", "new password")
	_ = passwdCmd.MarkFlagRequired("username")
	_ = passwdCmd.MarkFlagRequired("password")
	userCmd.AddCommand(passwdCmd)

	rootCmd.AddCommand(runCmd, migrateCmd, backupCmd, backupsCmd, restoreCmd, cleanupCmd,
		anonymizeCmd, auditCmd, settingCmd, userCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
