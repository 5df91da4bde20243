package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

var (
	mu          sync.Mutex
	minLevel    = levelInfo
	disableLogs = false
	timestamps  = false
	stdout      io.Writer = os.Stdout
	stderr      io.Writer = os.Stderr
	logPrefixes = map[int]string{
		levelDebug: "\033[37m[DBG]\033[0m", // White
		levelInfo:  "\033[36m[INF]\033[0m", // Cyan
		levelWarn:  "\033[33m[WRN]\033[0m", // Yellow
		levelError: "\033[31m[ERR]\033[0m", // Red
	}
	levelNames = map[string]int{
		"debug":   levelDebug,
		"info":    levelInfo,
		"warn":    levelWarn,
		"warning": levelWarn,
		"error":   levelError,
	}
)

// SetVerbose enables or disables debug output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	if v {
		minLevel = levelDebug
	} else if minLevel == levelDebug {
		minLevel = levelInfo
	}
}

// IsVerbose returns true if debug output is enabled.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return minLevel == levelDebug
}

// SetLevel sets the minimum level by name (debug, info, warn, error).
func SetLevel(name string) error {
	level, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return fmt.Errorf("unknown log level %q", name)
	}
	mu.Lock()
	minLevel = level
	mu.Unlock()
	return nil
}

// SetTimestamps prefixes every line with an RFC3339 timestamp. Useful when
// output is not captured by journald.
func SetTimestamps(v bool) {
	mu.Lock()
	timestamps = v
	mu.Unlock()
}

// SetOutput redirects info/debug/warn output to out and errors to errOut.
// Passing nil restores the process streams.
func SetOutput(out, errOut io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	stdout, stderr = out, errOut
}

// DisableLogs disables all logging.
func DisableLogs() {
	mu.Lock()
	disableLogs = true
	mu.Unlock()
}

// Debugf logs a debug message if verbose is true.
func Debugf(format string, args ...interface{}) {
	logMessage(levelDebug, format, args...)
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	logMessage(levelInfo, format, args...)
}

// Warnf logs a warning message.
func Warnf(format string, args ...interface{}) {
	logMessage(levelWarn, format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	logMessage(levelError, format, args...)
}

// Fatalf logs an error message and exits the program.
func Fatalf(format string, args ...interface{}) {
	logMessage(levelError, format, args...)
	os.Exit(1)
}

func logMessage(level int, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if disableLogs || level < minLevel {
		return
	}

	var sb strings.Builder
	if timestamps {
		sb.WriteString(time.Now().Format(time.RFC3339))
		sb.WriteByte(' ')
	}
	sb.WriteString(logPrefixes[level])
	sb.WriteByte(' ')
	sb.WriteString(fmt.Sprintf(format, args...))
	sb.WriteByte('\n')

	if level == levelError {
		_, _ = io.WriteString(stderr, sb.String())
	} else {
		_, _ = io.WriteString(stdout, sb.String())
	}
}
