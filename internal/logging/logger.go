package logging

import (
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Level represents the severity of a log line
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

var levelStyles = map[Level]lipgloss.Style{
	LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	LevelWarn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
}

var defaultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))

// Entry is a formatted log line handed to subscribers
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
	Line    string
}

// Logger writes timestamped lines to a console and appends them to a log file.
// File errors never propagate: the monitor keeps running with a broken log.
type Logger struct {
	mu       sync.Mutex
	console  io.Writer
	errOut   io.Writer
	filePath string
	now      func() time.Time
	warned   bool
	hooks    []func(Entry)
}

// New creates a logger writing to console and appending to filePath.
// An empty filePath disables the file sink.
func New(console io.Writer, filePath string) *Logger {
	if console == nil {
		console = io.Discard
	}
	return &Logger{
		console:  console,
		errOut:   os.Stderr,
		filePath: filePath,
		now:      time.Now,
	}
}

// Subscribe registers fn to receive every entry after it is written
func (l *Logger) Subscribe(fn func(Entry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, fn)
}

// FilePath returns the append-only log file path
func (l *Logger) FilePath() string {
	return l.filePath
}

func (l *Logger) Info(format string, args ...any)    { l.Log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)    { l.Log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any)   { l.Log(LevelError, format, args...) }
func (l *Logger) Success(format string, args ...any) { l.Log(LevelSuccess, format, args...) }

// Log formats a line, prints it colorized and appends it to the log file
func (l *Logger) Log(level Level, format string, args ...any) {
	if l == nil {
		return
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	l.mu.Lock()
	ts := l.now().UTC()
	line := fmt.Sprintf("[%s] %s", ts.Format("2006-01-02T15:04:05.000Z07:00"), msg)

	style, ok := levelStyles[level]
	if !ok {
		style = defaultStyle
	}
	fmt.Fprintln(l.console, style.Render(line))

	if err := l.appendLine(line); err != nil && !l.warned {
		l.warned = true
		fmt.Fprintf(l.errOut, "vpnwatch: cannot write log file: %v\n", err)
	}

	hooks := slices.Clone(l.hooks)
	l.mu.Unlock()

	entry := Entry{Time: ts, Level: level, Message: msg, Line: line}
	for _, fn := range hooks {
		fn(entry)
	}
}

func (l *Logger) appendLine(line string) error {
	if l.filePath == "" {
		return nil
	}

	f, err := os.OpenFile(l.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return err
	}
	return nil
}
