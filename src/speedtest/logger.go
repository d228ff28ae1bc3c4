package speedtest

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// LogLevel orders diagnostic severity; messages below the active level are
// dropped.
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelTags = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return "INFO"
	}
	return levelTags[l]
}

// parseLevel accepts the level names offered on the command line, plus the
// common "warning" spelling.
func parseLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

var minLevel atomic.Int32

// sink writes to stderr; stdout is reserved for the image payload.
var sink = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)

func init() {
	minLevel.Store(int32(LevelInfo))
}

// SetLogLevel sets the global level by name. Unknown names leave the current
// level in place.
func SetLogLevel(name string) {
	if l, ok := parseLevel(name); ok {
		minLevel.Store(int32(l))
	}
}

// GetLogLevel returns the active level, for callers that gate work more
// expensive than the log call itself.
func GetLogLevel() LogLevel { return LogLevel(minLevel.Load()) }

func logf(l LogLevel, format string, args ...interface{}) {
	if GetLogLevel() > l {
		return
	}
	msg := format
	if len(args) > 0 {
		// Pre-formatted messages arrive without args; formatting those
		// anyway would mangle literal % characters.
		msg = fmt.Sprintf(format, args...)
	}
	sink.Printf("[%s] %s", l, msg)
}

func Debugf(format string, a ...interface{}) { logf(LevelDebug, format, a...) }
func Infof(format string, a ...interface{})  { logf(LevelInfo, format, a...) }
func Warnf(format string, a ...interface{})  { logf(LevelWarn, format, a...) }
func Errorf(format string, a ...interface{}) { logf(LevelError, format, a...) }

// TimeTrack logs the time elapsed since start at debug level. Use with defer
// at the top of a phase.
func TimeTrack(start time.Time, label string) {
	Debugf("%s took %s", label, time.Since(start))
}
