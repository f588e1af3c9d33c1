// Package logger provides the bot's leveled logger.
// Every line goes to the console with colors, to logs/combined.log, and errors
// additionally to logs/error.log and the error webhook.
package logger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PancyStudios/PancyModGo/pkg/webhook"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelCritical LogLevel = iota
	LevelError
	LevelWarn
	LevelSuccess
	LevelInfo
	LevelDebug
	LevelSystem
)

type levelStyle struct {
	name    string
	ansi    string
	embed   int
	logrus  logrus.Level
	webhook bool // whether the logs webhook receives this level
}

// Success and System have no logrus equivalent and ride on Info; the original
// level travels in the entry fields.
var styles = [...]levelStyle{
	LevelCritical: {"CRITICAL", "\033[1;31m", 0xFF0000, logrus.ErrorLevel, true},
	LevelError:    {"ERROR", "\033[31m", 0xFF0000, logrus.ErrorLevel, true},
	LevelWarn:     {"WARN", "\033[33m", 0xFFFF00, logrus.WarnLevel, true},
	LevelSuccess:  {"SUCCESS", "\033[32m", 0x00FF00, logrus.InfoLevel, true},
	LevelInfo:     {"INFO", "\033[36m", 0x0000FF, logrus.InfoLevel, true},
	LevelDebug:    {"DEBUG", "\033[35m", 0x800080, logrus.DebugLevel, false},
	LevelSystem:   {"SYSTEM", "\033[34m", 0x808080, logrus.InfoLevel, true},
}

func (l LogLevel) style() levelStyle {
	if l < 0 || int(l) >= len(styles) {
		return levelStyle{"UNKNOWN", colorReset, 0xFFFFFF, logrus.InfoLevel, false}
	}
	return styles[l]
}

// String returns the string representation of the log level
func (l LogLevel) String() string { return l.style().name }

// Color returns the ANSI color code for the log level
func (l LogLevel) Color() string { return l.style().ansi }

// DiscordColor returns the Discord embed color for the log level
func (l LogLevel) DiscordColor() int { return l.style().embed }

const (
	colorReset = "\033[0m"

	fieldLevel  = "level_name"
	fieldPrefix = "prefix"

	// webhookBacklog bounds the lines waiting for delivery; beyond it lines are
	// dropped from the webhook only.
	webhookBacklog = 256
)

// lineFormatter renders "[ts] [LEVEL] [prefix]: message"
type lineFormatter struct {
	colors bool
}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	level, _ := e.Data[fieldLevel].(LogLevel)
	prefix, _ := e.Data[fieldPrefix].(string)

	name := level.String()
	if f.colors {
		name = level.Color() + name + colorReset
	}
	return fmt.Appendf(nil, "[%s] [%s] [%s]: %s\n", e.Time.Format("2006-01-02 15:04:05"), name, prefix, e.Message), nil
}

// fileHook writes plain lines to a file for a subset of logrus levels
type fileHook struct {
	w      io.Writer
	levels []logrus.Level
	fmt    logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level { return h.levels }

func (h *fileHook) Fire(e *logrus.Entry) error {
	line, err := h.fmt.Format(e)
	if err != nil {
		return err
	}
	_, err = h.w.Write(line)
	return err
}

type webhookLine struct {
	url     string
	level   LogLevel
	message string
	prefix  string
	at      time.Time
}

// Logger is the main logging structure
type Logger struct {
	logrus          *logrus.Logger
	errorWebhookURL string
	logsWebhookURL  string
	files           []*os.File
	httpClient      *http.Client
	mu              sync.Mutex

	webhooks  chan webhookLine
	done      chan struct{}
	closed    bool
	closeOnce sync.Once
}

var (
	logger *Logger
	once   sync.Once
)

// Init initializes the global logger instance
func Init(errorWebhook, logsWebhook string) *Logger {
	once.Do(func() {
		logger = NewLogger(errorWebhook, logsWebhook)
	})
	return logger
}

// Get returns the global logger instance
func Get() *Logger {
	once.Do(func() {
		logger = NewLogger("", "")
	})
	return logger
}

// NewLogger creates a Logger that writes to the console and to ./logs
func NewLogger(errorWebhook, logsWebhook string) *Logger {
	l := newLogger(os.Stdout, errorWebhook, logsWebhook)

	logsDir := filepath.Join(".", "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Printf("Error creating logs directory: %v\n", err)
		return l
	}

	l.addFile(filepath.Join(logsDir, "combined.log"), logrus.AllLevels)
	l.addFile(filepath.Join(logsDir, "error.log"), []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel})
	return l
}

func (l *Logger) addFile(path string, levels []logrus.Level) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", path, err)
		return
	}
	l.files = append(l.files, f)
	l.logrus.AddHook(&fileHook{w: f, levels: levels, fmt: &lineFormatter{}})
}

// NewWriterLogger creates a Logger that only writes plain lines to w.
// Used by tests and by tools that must not touch ./logs.
func NewWriterLogger(w io.Writer) *Logger {
	l := newLogger(w, "", "")
	l.logrus.SetFormatter(&lineFormatter{})
	return l
}

func newLogger(out io.Writer, errorWebhook, logsWebhook string) *Logger {
	lr := logrus.New()
	lr.SetOutput(out)
	lr.SetFormatter(&lineFormatter{colors: true})
	lr.SetLevel(logrus.DebugLevel)

	l := &Logger{
		logrus:          lr,
		errorWebhookURL: errorWebhook,
		logsWebhookURL:  logsWebhook,
		httpClient:      &http.Client{Timeout: 5 * time.Second},
		webhooks:        make(chan webhookLine, webhookBacklog),
		done:            make(chan struct{}),
	}
	if errorWebhook != "" || logsWebhook != "" {
		go l.deliver()
	} else {
		close(l.done)
	}
	return l
}

func (l *Logger) log(level LogLevel, message string, prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logrus.WithFields(logrus.Fields{
		fieldLevel:  level,
		fieldPrefix: prefix,
	}).Log(level.style().logrus, message)

	url := l.webhookFor(level)
	if url == "" || l.closed {
		return
	}
	select {
	case l.webhooks <- webhookLine{url: url, level: level, message: message, prefix: prefix, at: time.Now()}:
	default:
	}
}

// webhookFor picks the webhook a level is delivered to, "" for none
func (l *Logger) webhookFor(level LogLevel) string {
	if level <= LevelError {
		return l.errorWebhookURL
	}
	if !level.style().webhook {
		return ""
	}
	return l.logsWebhookURL
}

// deliver posts queued lines one at a time until Close
func (l *Logger) deliver() {
	defer close(l.done)
	for line := range l.webhooks {
		l.post(line)
	}
}

// post sends one line as a Discord embed
func (l *Logger) post(line webhookLine) {
	embed := webhook.Embed(fmt.Sprintf("[%s] %s", line.level, line.prefix), "```"+line.message+"```", line.level.DiscordColor())
	embed.Timestamp = line.at.Format(time.RFC3339)
	_ = webhook.Post(context.Background(), l.httpClient, line.url, embed)
}

// Close flushes pending webhook lines and closes the log files
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.webhooks)
		l.mu.Unlock()
		<-l.done
		for _, f := range l.files {
			f.Close()
		}
	})
}

// Critical logs a critical message
func (l *Logger) Critical(message string, prefix string) { l.log(LevelCritical, message, prefix) }

// Error logs an error message
func (l *Logger) Error(message string, prefix string) { l.log(LevelError, message, prefix) }

// Warn logs a warning message
func (l *Logger) Warn(message string, prefix string) { l.log(LevelWarn, message, prefix) }

// Success logs a success message
func (l *Logger) Success(message string, prefix string) { l.log(LevelSuccess, message, prefix) }

// Info logs an info message
func (l *Logger) Info(message string, prefix string) { l.log(LevelInfo, message, prefix) }

// Debug logs a debug message
func (l *Logger) Debug(message string, prefix string) { l.log(LevelDebug, message, prefix) }

// System logs a system message
func (l *Logger) System(message string, prefix string) { l.log(LevelSystem, message, prefix) }

// Package level helpers log through the global logger.

func Critical(message string, prefix string) { Get().Critical(message, prefix) }
func Error(message string, prefix string)    { Get().Error(message, prefix) }
func Warn(message string, prefix string)     { Get().Warn(message, prefix) }
func Success(message string, prefix string)  { Get().Success(message, prefix) }
func Info(message string, prefix string)     { Get().Info(message, prefix) }
func Debug(message string, prefix string)    { Get().Debug(message, prefix) }
func System(message string, prefix string)   { Get().System(message, prefix) }
