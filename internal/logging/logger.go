// Package logging provides structured logging with file and console output.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogEntry is one retained log line, served to debugging clients.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Component string `json:"component"`
	Message   string `json:"message"`
}

// Logger wraps zerolog with optional file output and a bounded history.
type Logger struct {
	zlog    zerolog.Logger
	file    *os.File
	logPath string

	mu      sync.RWMutex
	history []LogEntry
	maxHist int
}

// Config holds logger configuration
type Config struct {
	Dir        string `mapstructure:"dir"`         // log file directory; empty disables the file
	Level      string `mapstructure:"level"`       // zerolog level name
	MaxHistory int    `mapstructure:"max_history"` // entries kept in memory
	Console    bool   `mapstructure:"console"`

	// Output replaces stdout for the console writer. Tests set it.
	Output io.Writer `mapstructure:"-"`
}

// DefaultConfig logs to the console and ~/.cortexrig/logs at info.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Dir:        filepath.Join(home, ".cortexrig", "logs"),
		Level:      "info",
		MaxHistory: 500,
		Console:    true,
	}
}

// New creates a Logger writing to the console and, if cfg.Dir is set, to a
// dated file in that directory.
func New(cfg Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 500
	}

	l := &Logger{maxHist: cfg.MaxHistory}
	writers := []io.Writer{historyWriter{l}}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		l.logPath = filepath.Join(cfg.Dir, fmt.Sprintf("cortexrig_%s.log", time.Now().Format("2006-01-02")))
		l.file, err = os.OpenFile(l.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, l.file)
	}

	if cfg.Console {
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"})
	}

	l.zlog = zerolog.New(io.MultiWriter(writers...)).Level(level).With().
		Timestamp().
		Str("app", "cortexrig").
		Logger()

	return l, nil
}

// historyWriter keeps a copy of every emitted event in the history ring.
// It reads the encoded line, so a component field added anywhere in the
// logger chain is captured.
type historyWriter struct {
	l *Logger
}

func (w historyWriter) Write(p []byte) (int, error) {
	var fields map[string]any
	if err := json.Unmarshal(p, &fields); err != nil {
		return len(p), nil
	}
	str := func(key string) string {
		s, _ := fields[key].(string)
		return s
	}
	w.l.record(LogEntry{
		Timestamp: time.Now().Format("15:04:05.000"),
		Level:     str(zerolog.LevelFieldName),
		Component: str("component"),
		Message:   str(zerolog.MessageFieldName),
	})
	return len(p), nil
}

func (l *Logger) record(e LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = append(l.history, e)
	if len(l.history) > l.maxHist {
		l.history = l.history[len(l.history)-l.maxHist:]
	}
}

// History returns up to limit of the most recent entries, oldest first.
func (l *Logger) History(limit int) []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 || limit > len(l.history) {
		limit = len(l.history)
	}
	out := make([]LogEntry, limit)
	copy(out, l.history[len(l.history)-limit:])
	return out
}

func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Component returns a zerolog.Logger with the component field set.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.zlog.With().Str("component", name).Logger()
}

// Zerolog returns the base logger. Packages tag their own component.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}
