package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color" // Import the fatih/color package for colored console output
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Colorized printers for the different log levels.
// Each one writes to color.Output, which is os.Stdout unless a test swaps it.
var (
	infoColor    = color.New(color.FgGreen)
	warnColor    = color.New(color.FgHiMagenta)
	errorColor   = color.New(color.FgRed)
	debugColor   = color.New(color.FgCyan)
	sectionColor = color.New(color.FgHiBlue, color.Bold)
	stepColor    = color.New(color.FgHiCyan)
)

var (
	mu           sync.Mutex
	debugEnabled bool
	fileLog      *zap.SugaredLogger
	logFile      *os.File
)

// Info logs informational messages in green color.
// Green is used for successful steps so they are easy to spot in a long run.
func Info(format string, a ...any) {
	emit(infoColor, zapcore.InfoLevel, format, a...)
}

// Warn logs warning messages in bright magenta color.
// Warnings mark a failed item that did not stop the run.
func Warn(format string, a ...any) {
	emit(warnColor, zapcore.WarnLevel, format, a...)
}

// Error logs error messages in red color.
func Error(format string, a ...any) {
	emit(errorColor, zapcore.ErrorLevel, format, a...)
}

// Debug logs debug messages in cyan color if enabled, otherwise it is a no-op.
// The run log file, when configured, receives debug events regardless of the console setting.
func Debug(format string, a ...any) {
	mu.Lock()
	enabled := debugEnabled
	mu.Unlock()
	if enabled {
		debugColor.Printf(format, a...)
	}
	record(zapcore.DebugLevel, format, a...)
}

// Section prints a stage header such as "[*] Installing apt packages...".
func Section(format string, a ...any) {
	emit(sectionColor, zapcore.InfoLevel, format, a...)
}

// Step prints a per-item progress line such as "  -> installing nmap...".
func Step(format string, a ...any) {
	emit(stepColor, zapcore.InfoLevel, format, a...)
}

func emit(c *color.Color, level zapcore.Level, format string, a ...any) {
	c.Printf(format, a...)
	record(level, format, a...)
}

func record(level zapcore.Level, format string, a ...any) {
	mu.Lock()
	l := fileLog
	mu.Unlock()
	if l == nil {
		return
	}
	msg := strings.TrimSpace(fmt.Sprintf(format, a...))
	if msg == "" {
		return
	}
	switch level {
	case zapcore.DebugLevel:
		l.Debug(msg)
	case zapcore.WarnLevel:
		l.Warn(msg)
	case zapcore.ErrorLevel:
		l.Error(msg)
	default:
		l.Info(msg)
	}
}

// Init initializes the logger package.
// Parameters:
// - enableDebug: turn cyan debug messages on or off on the console.
// - path: optional file that receives every event as a JSON line; empty disables it.
func Init(enableDebug bool, path string) error {
	mu.Lock()
	defer mu.Unlock()

	debugEnabled = enableDebug
	closeLocked()

	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(f), zapcore.DebugLevel)

	logFile = f
	fileLog = zap.New(core).Sugar()
	return nil
}

// Close flushes and closes the run log file if one is open.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
}

func closeLocked() {
	if fileLog != nil {
		_ = fileLog.Sync()
		fileLog = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}
