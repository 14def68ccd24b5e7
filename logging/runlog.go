package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"listing_combiner/models"
)

// RunLog buffers the human-readable lines of one combine run and appends them to the
// run log file as a single timestamped block.
type RunLog struct {
	mu    sync.Mutex
	lines []models.LogLine
}

func NewRunLog() *RunLog {
	return &RunLog{}
}

// Add records an informational line.
func (l *RunLog) Add(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.append(models.LogLevelInfo, msg)
	log.Debug().Msg(msg)
}

// Warn records a recoverable condition and reports it on the operator log.
func (l *RunLog) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.append(models.LogLevelWarn, msg)
	log.Warn().Msg(msg)
}

// Error records the condition that ended the run.
func (l *RunLog) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.append(models.LogLevelError, msg)
	log.Error().Msg(msg)
}

func (l *RunLog) append(level models.LogLevel, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, models.LogLine{Level: level, Message: msg})
}

// Lines returns a copy of the buffered lines in insertion order.
func (l *RunLog) Lines() []models.LogLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.LogLine, len(l.lines))
	copy(out, l.lines)
	return out
}

// Messages returns the buffered messages without levels.
func (l *RunLog) Messages() []string {
	lines := l.Lines()
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line.Message
	}
	return out
}

// Block renders the entry exactly as Flush writes it.
func (l *RunLog) Block(now time.Time) string {
	return "[" + now.UTC().Format("2006-01-02T15:04:05.000Z") + "]\n" +
		strings.Join(l.Messages(), "\n") + "\n\n"
}

// Flush appends the block to path, creating the file and its directory when missing.
// Earlier blocks are never rewritten.
func (l *RunLog) Flush(path string, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create run log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(l.Block(now)); err != nil {
		return fmt.Errorf("append run log: %w", err)
	}
	return nil
}
