package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func levelToString(level LogLevel) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a LogLevel, defaulting to INFO.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DEBUG
	case "info", "":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger defines a minimal, printf-style logging contract.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

var (
	coreInstance *core
	coreOnce     sync.Once
)

// core owns the shared debug log file. Component loggers all write through it.
type core struct {
	mu     sync.Mutex
	file   *os.File
	logger *log.Logger
	level  LogLevel
}

func getCore() *core {
	coreOnce.Do(func() {
		coreInstance = newCore(ParseLevel(os.Getenv("DEEPCLI_LOG_LEVEL")))
	})
	return coreInstance
}

func newCore(level LogLevel) *core {
	c := &core{level: level}

	home, err := os.UserHomeDir()
	if err != nil {
		return c
	}

	logPath := filepath.Join(home, "deepcli-debug.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return c
	}

	c.file = file
	c.logger = log.New(file, "", 0) // formatted below
	return c
}

// SetLevel sets the minimum log level for all component loggers.
func SetLevel(level LogLevel) {
	c := getCore()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = level
}

var apiKeyPattern = regexp.MustCompile(`sk-[A-Za-z0-9]{8,}`)

// sanitizeLogLine masks API keys so they never land in the debug log.
func sanitizeLogLine(line string) string {
	return apiKeyPattern.ReplaceAllString(line, "sk-***")
}

func (c *core) log(component string, level LogLevel, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if level < c.level || c.logger == nil {
		return
	}

	if component == "" {
		component = "DEEPCLI"
	}

	// Format: 2025-09-30 12:34:56 [INFO] [component] - Message
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] [%s] - %s", timestamp, levelToString(level), component, message)

	c.logger.Print(sanitizeLogLine(line))
}

type componentLogger struct {
	core      *core
	component string
}

// NewComponentLogger creates a logger scoped to a specific component.
func NewComponentLogger(component string) Logger {
	return &componentLogger{core: getCore(), component: component}
}

func (l *componentLogger) Debug(format string, args ...any) {
	l.core.log(l.component, DEBUG, format, args...)
}

func (l *componentLogger) Info(format string, args ...any) {
	l.core.log(l.component, INFO, format, args...)
}

func (l *componentLogger) Warn(format string, args ...any) {
	l.core.log(l.component, WARN, format, args...)
}

func (l *componentLogger) Error(format string, args ...any) {
	l.core.log(l.component, ERROR, format, args...)
}
