package plugin

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/snowduck/snowduck/core"
)

var _ core.Logger = (*Logger)(nil)

// Logger writes leveled lines to a file. Stdout carries the rpc stream, so
// the fallback sink is stderr.
type Logger struct {
	mu     sync.Mutex
	logger *log.Logger
	file   *os.File
	debug  bool
}

// NewLogger opens (or creates) the log file at path. An empty path logs to
// stderr.
func NewLogger(path string, debug bool) (*Logger, error) {
	l := &Logger{
		logger: log.New(os.Stderr, "", log.Ldate|log.Ltime),
		debug:  debug,
	}
	if path == "" {
		return l, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
	if err != nil {
		return nil, fmt.Errorf("os.OpenFile: %w", err)
	}

	l.file = file
	l.logger.SetOutput(file)
	return l, nil
}

// NewWriterLogger logs to w.
func NewWriterLogger(w io.Writer, debug bool) *Logger {
	return &Logger{
		logger: log.New(w, "", 0),
		debug:  debug,
	}
}

func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.Close()
		l.file = nil
		l.logger.SetOutput(os.Stderr)
	}
}

func (l *Logger) log(level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logger.Printf("[%s]: %s", level, message)
}

func (l *Logger) Debugf(format string, args ...any) {
	if !l.debug {
		return
	}
	l.log("debug", fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...any) {
	l.log("info", fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.log("warn", fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.log("error", fmt.Sprintf(format, args...))
}
