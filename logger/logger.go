// Package logger provides leveled logging for the hospital panel: a console
// backend, a file backend and an in-memory buffer the admin page can read.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hospital-ui/hospital-ui/config"
	"github.com/op/go-logging"
)

const (
	moduleName       = "hospital-ui"
	maxLogBufferSize = 10240
	logFileName      = "hospital-ui.log"
	timeFormat       = "2006/01/02 15:04:05"
)

type bufferedEntry struct {
	time  string
	level logging.Level
	log   string
}

var (
	mu        sync.Mutex
	logger    *logging.Logger
	logFile   *os.File
	logBuffer []bufferedEntry
)

// LevelFromConfig maps the configured level name onto a go-logging level.
func LevelFromConfig(level config.LogLevel) (logging.Level, error) {
	switch level {
	case config.Debug:
		return logging.DEBUG, nil
	case config.Info:
		return logging.INFO, nil
	case config.Notice:
		return logging.NOTICE, nil
	case config.Warn:
		return logging.WARNING, nil
	case config.Error:
		return logging.ERROR, nil
	}
	return logging.INFO, fmt.Errorf("unknown log level: %s", level)
}

// InitLogger installs a stderr backend at the given level and a file backend
// at DEBUG level. If the log folder cannot be created only stderr is used.
func InitLogger(level logging.Level) {
	mu.Lock()
	defer mu.Unlock()

	backends := []logging.Backend{leveled(consoleBackend(), level)}
	if fileBackend := openFileBackend(); fileBackend != nil {
		backends = append(backends, leveled(fileBackend, logging.DEBUG))
	}

	l := logging.MustGetLogger(moduleName)
	l.SetBackend(logging.MultiLogger(backends...))
	logger = l
}

func leveled(b logging.Backend, level logging.Level) logging.LeveledBackend {
	lb := logging.AddModuleLevel(b)
	lb.SetLevel(level, moduleName)
	return lb
}

func consoleBackend() logging.Backend {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	return logging.NewBackendFormatter(backend, newFormatter(true))
}

func openFileBackend() logging.Backend {
	logDir := config.GetLogFolder()
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log folder %s: %v\n", logDir, err)
		return nil
	}
	logPath := filepath.Join(logDir, logFileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o660)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", logPath, err)
		return nil
	}
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file
	return logging.NewBackendFormatter(logging.NewLogBackend(file, "", 0), newFormatter(true))
}

func newFormatter(withTime bool) logging.Formatter {
	format := `%{level} - %{message}`
	if withTime {
		format = `%{time:` + timeFormat + `} %{level} - %{message}`
	}
	return logging.MustStringFormatter(format)
}

// current returns the active logger, installing a stderr-only INFO logger
// when InitLogger has not run yet (CLI one-shots, tests).
func current() *logging.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		l := logging.MustGetLogger(moduleName)
		l.SetBackend(leveled(consoleBackend(), logging.INFO))
		logger = l
	}
	return logger
}

// CloseLogger closes the log file. Call it during shutdown.
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func Debug(args ...any) {
	current().Debug(args...)
	addToBuffer(logging.DEBUG, fmt.Sprint(args...))
}

func Debugf(format string, args ...any) {
	current().Debugf(format, args...)
	addToBuffer(logging.DEBUG, fmt.Sprintf(format, args...))
}

func Info(args ...any) {
	current().Info(args...)
	addToBuffer(logging.INFO, fmt.Sprint(args...))
}

func Infof(format string, args ...any) {
	current().Infof(format, args...)
	addToBuffer(logging.INFO, fmt.Sprintf(format, args...))
}

func Notice(args ...any) {
	current().Notice(args...)
	addToBuffer(logging.NOTICE, fmt.Sprint(args...))
}

func Noticef(format string, args ...any) {
	current().Noticef(format, args...)
	addToBuffer(logging.NOTICE, fmt.Sprintf(format, args...))
}

func Warning(args ...any) {
	current().Warning(args...)
	addToBuffer(logging.WARNING, fmt.Sprint(args...))
}

func Warningf(format string, args ...any) {
	current().Warningf(format, args...)
	addToBuffer(logging.WARNING, fmt.Sprintf(format, args...))
}

func Error(args ...any) {
	current().Error(args...)
	addToBuffer(logging.ERROR, fmt.Sprint(args...))
}

func Errorf(format string, args ...any) {
	current().Errorf(format, args...)
	addToBuffer(logging.ERROR, fmt.Sprintf(format, args...))
}

func addToBuffer(level logging.Level, msg string) {
	mu.Lock()
	defer mu.Unlock()
	if len(logBuffer) >= maxLogBufferSize {
		logBuffer = logBuffer[1:]
	}
	logBuffer = append(logBuffer, bufferedEntry{
		time:  time.Now().Format(timeFormat),
		level: level,
		log:   msg,
	})
}

// GetLogs returns up to c buffered entries, newest first, whose level is at
// least as severe as level.
func GetLogs(c int, level string) []string {
	logLevel, err := logging.LogLevel(level)
	if err != nil {
		logLevel = logging.INFO
	}

	mu.Lock()
	defer mu.Unlock()
	output := make([]string, 0, c)
	for i := len(logBuffer) - 1; i >= 0 && len(output) < c; i-- {
		if logBuffer[i].level <= logLevel {
			output = append(output, fmt.Sprintf("%s %s - %s", logBuffer[i].time, logBuffer[i].level, logBuffer[i].log))
		}
	}
	return output
}
