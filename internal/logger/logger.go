// Package logger owns the process-wide slog logger: its severity, its format and where
// records go, either stdout or a rotated log file.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pgvanniekerk/ezpool/cfg"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu           sync.RWMutex
	programLevel = new(slog.LevelVar)
	defaultLog   = slog.New(createHandler(os.Stdout, programLevel, string(cfg.TextLogFormat)))
	fileWriter   *lumberjack.Logger
)

// Init points the default logger at the configured destination with the configured
// severity and format. An empty file path logs to stdout.
func Init(c cfg.LoggingConfig) error {
	var w io.Writer = os.Stdout
	var lj *lumberjack.Logger
	if c.FilePath != "" {
		// Fail early when the file can't be opened; lumberjack opens lazily.
		f, err := os.OpenFile(c.FilePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("error while opening log file: %w", err)
		}
		_ = f.Close()

		lj = &lumberjack.Logger{
			Filename:   c.FilePath,
			MaxSize:    int(c.LogRotate.MaxFileSizeMb),
			MaxBackups: int(c.LogRotate.BackupFileCount),
			Compress:   c.LogRotate.Compress,
		}
		w = lj
	}

	format := string(c.Format)
	if format == "" {
		format = string(cfg.TextLogFormat)
	}
	severity := strings.ToUpper(string(c.Severity))
	if severity == "" {
		severity = string(cfg.InfoLogSeverity)
	}

	mu.Lock()
	defer mu.Unlock()
	closeFileLocked()
	fileWriter = lj
	setLoggingLevel(severity, programLevel)
	defaultLog = slog.New(createHandler(w, programLevel, format))
	return nil
}

// SetOutput redirects the default logger to w at the given severity. Used by tests.
func SetOutput(w io.Writer, format cfg.LogFormat, severity cfg.LogSeverity) {
	mu.Lock()
	defer mu.Unlock()
	closeFileLocked()
	setLoggingLevel(string(severity), programLevel)
	defaultLog = slog.New(createHandler(w, programLevel, string(format)))
}

// Default returns the process-wide logger.
func Default() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLog
}

// Close closes the log file when necessary.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeFileLocked()
}

func closeFileLocked() {
	if fileWriter != nil {
		_ = fileWriter.Close()
		fileWriter = nil
	}
}

func logf(level slog.Level, format string, v ...any) {
	Default().Log(context.Background(), level, fmt.Sprintf(format, v...))
}

// Tracef prints the message with TRACE severity in the specified format.
func Tracef(format string, v ...any) {
	logf(LevelTrace, format, v...)
}

// Debugf prints the message with DEBUG severity in the specified format.
func Debugf(format string, v ...any) {
	logf(slog.LevelDebug, format, v...)
}

// Infof prints the message with INFO severity in the specified format.
func Infof(format string, v ...any) {
	logf(slog.LevelInfo, format, v...)
}

// Warnf prints the message with WARNING severity in the specified format.
func Warnf(format string, v ...any) {
	logf(slog.LevelWarn, format, v...)
}

// Errorf prints the message with ERROR severity in the specified format.
func Errorf(format string, v ...any) {
	logf(slog.LevelError, format, v...)
}
