package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"

	"github.com/hylla/workboard/internal/config"
)

// devLogDir is the workspace-relative directory for dev-mode log files.
const devLogDir = ".workboard/log"

// logSink is one destination of the runtime logger.
type logSink struct {
	*charmLog.Logger
	console bool
}

// runtimeLogger fans log events to a styled console sink and an optional dev-file sink.
// It satisfies app.Logger, so the store, board and TUI log through it.
type runtimeLogger struct {
	sinks     []logSink
	muted     bool
	closeFile func() error
	devLog    string
}

// newRuntimeLogger builds the console sink and, in dev mode with dev_file on, a logfmt file sink.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	level := charmLog.InfoLevel
	if name := strings.TrimSpace(cfg.Level); name != "" {
		parsed, err := charmLog.ParseLevel(name)
		if err != nil {
			return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}

	logger := &runtimeLogger{
		sinks: []logSink{{Logger: newSinkLogger(stderr, appName, level, charmLog.TextFormatter), console: true}},
	}
	if !devMode || !cfg.DevFile {
		return logger, nil
	}

	path, file, err := openDevLogFile(appName, now().UTC())
	if err != nil {
		return nil, err
	}
	logger.sinks = append(logger.sinks, logSink{Logger: newSinkLogger(file, appName, level, charmLog.LogfmtFormatter)})
	logger.closeFile = file.Close
	logger.devLog = path
	return logger, nil
}

func newSinkLogger(w io.Writer, appName string, level charmLog.Level, formatter charmLog.Formatter) *charmLog.Logger {
	return charmLog.NewWithOptions(w, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       formatter,
	})
}

// openDevLogFile opens today's append-only dev log file.
func openDevLogFile(appName string, now time.Time) (string, *os.File, error) {
	path, err := devLogFilePath(appName, now)
	if err != nil {
		return "", nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", nil, fmt.Errorf("create dev log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("open dev log file: %w", err)
	}
	return path, file, nil
}

// DevLogPath returns the active dev log file path, or "" without a file sink.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the file sink. It is safe to call more than once.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	closeFile := l.closeFile
	l.closeFile = nil
	return closeFile()
}

// SetConsoleEnabled mutes or restores the console sink; file output is unaffected.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l != nil {
		l.muted = !enabled
	}
}

func (l *runtimeLogger) Debug(msg any, keyvals ...any) {
	for _, sink := range l.active() {
		sink.Debug(msg, keyvals...)
	}
}

func (l *runtimeLogger) Info(msg any, keyvals ...any) {
	for _, sink := range l.active() {
		sink.Info(msg, keyvals...)
	}
}

func (l *runtimeLogger) Warn(msg any, keyvals ...any) {
	for _, sink := range l.active() {
		sink.Warn(msg, keyvals...)
	}
}

func (l *runtimeLogger) Error(msg any, keyvals ...any) {
	for _, sink := range l.active() {
		sink.Error(msg, keyvals...)
	}
}

// active returns the sinks currently accepting output.
func (l *runtimeLogger) active() []logSink {
	if l == nil {
		return nil
	}
	if !l.muted {
		return l.sinks
	}
	out := make([]logSink, 0, len(l.sinks))
	for _, sink := range l.sinks {
		if !sink.console {
			out = append(out, sink)
		}
	}
	return out
}

// devLogFilePath resolves a workspace-local dev log file path for the current run day.
func devLogFilePath(appName string, now time.Time) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working dir: %w", err)
	}
	baseDir := filepath.Join(workspaceRootFrom(cwd), devLogDir)
	fileName := fmt.Sprintf("%s-%s.log", sanitizeLogFileStem(appName), now.Format("20060102"))
	return filepath.Join(filepath.Clean(baseDir), fileName), nil
}

// workspaceRootFrom returns the nearest ancestor holding go.mod or .git, or start itself.
func workspaceRootFrom(start string) string {
	start = filepath.Clean(strings.TrimSpace(start))
	if start == "" {
		return "."
	}
	dir := start
	for {
		if hasWorkspaceMarker(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

func hasWorkspaceMarker(dir string) bool {
	for _, marker := range []string{"go.mod", ".git"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// sanitizeLogFileStem normalizes app names into safe file-name segments.
func sanitizeLogFileStem(appName string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	stem := strings.Trim(replacer.Replace(strings.TrimSpace(appName)), "-")
	if stem == "" {
		return "workboard"
	}
	return stem
}
