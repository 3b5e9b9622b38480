// Package logging provides the console and file loggers shared by every
// primesha command.
package logging

import (
	"bytes"
	"io/ioutil"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level names accepted by Init.
const (
	PanicLevel = "panic"
	FatalLevel = "fatal"
	ErrorLevel = "error"
	WarnLevel  = "warn"
	InfoLevel  = "info"
	DebugLevel = "debug"
	TraceLevel = "trace"
)

// Levels passed to CPrint and VPrint.
const (
	PANIC uint32 = iota
	FATAL
	ERROR
	WARN
	INFO
	DEBUG
	TRACE
)

// DefaultFilename is the base name of log files.
const DefaultFilename = "primesha"

// LogFormat holds structured fields of one entry.
type LogFormat = map[string]interface{}

type Logger struct {
	*logrus.Logger
}

func NewLogger() *Logger {
	return &Logger{Logger: logrus.New()}
}

var (
	mu   sync.RWMutex
	clog *Logger // console and file
	vlog *Logger // file only
)

var levelByName = map[string]logrus.Level{
	PanicLevel: logrus.PanicLevel,
	FatalLevel: logrus.FatalLevel,
	ErrorLevel: logrus.ErrorLevel,
	WarnLevel:  logrus.WarnLevel,
	InfoLevel:  logrus.InfoLevel,
	DebugLevel: logrus.DebugLevel,
	TraceLevel: logrus.TraceLevel,
}

var levelByCode = [...]logrus.Level{
	PANIC: logrus.PanicLevel,
	FATAL: logrus.FatalLevel,
	ERROR: logrus.ErrorLevel,
	WARN:  logrus.WarnLevel,
	INFO:  logrus.InfoLevel,
	DEBUG: logrus.DebugLevel,
	TRACE: logrus.TraceLevel,
}

// ValidLevel reports whether name is a known level.
func ValidLevel(name string) bool {
	_, ok := levelByName[name]
	return ok
}

func convertLevel(name string) logrus.Level {
	if level, ok := levelByName[name]; ok {
		return level
	}
	return logrus.InfoLevel
}

func newLogger(hook logrus.Hook, level logrus.Level) *Logger {
	l := NewLogger()
	LoadFunctionHooker(l)
	if hook != nil {
		l.Hooks.Add(hook)
	}
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	l.Level = level
	return l
}

// Init sets up the loggers. Entries go to rotated files under path; unless
// disableCPrint is set, CPrint entries are echoed to stderr as well.
func Init(path, filename, level string, age uint32, disableCPrint bool) error {
	hook, err := NewFileRotateHooker(path, filename, age, nil)
	if err != nil {
		return err
	}

	lvl := convertLevel(level)
	file := newLogger(hook, lvl)
	file.Out = ioutil.Discard

	console := file
	if !disableCPrint {
		console = newLogger(hook, lvl)
		console.Out = os.Stderr
	}

	mu.Lock()
	vlog, clog = file, console
	mu.Unlock()

	VPrint(DEBUG, "logger configured", LogFormat{"path": path, "level": level})
	return nil
}

func loggers() (*Logger, *Logger) {
	mu.RLock()
	c, v := clog, vlog
	mu.RUnlock()
	if c != nil {
		return c, v
	}
	if err := Init(os.TempDir(), DefaultFilename+"-tmp", InfoLevel, 1, false); err != nil {
		mu.Lock()
		if clog == nil {
			clog = newLogger(nil, logrus.InfoLevel)
			clog.Out = os.Stderr
			vlog = clog
		}
		mu.Unlock()
	}
	mu.RLock()
	defer mu.RUnlock()
	return clog, vlog
}

// GetGID returns the id of the calling goroutine.
func GetGID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	b = b[:bytes.IndexByte(b, ' ')]
	n, _ := strconv.ParseUint(string(b), 10, 64)
	return n
}

func output(l *Logger, level uint32, msg string, formats []LogFormat) {
	lvl := logrus.ErrorLevel
	if int(level) < len(levelByCode) {
		lvl = levelByCode[level]
	}
	entry := l.WithFields(mergeLogFormats(formats...))
	switch lvl {
	case logrus.PanicLevel:
		entry.Panic(msg)
	case logrus.FatalLevel:
		entry.Fatal(msg)
	default:
		entry.Log(lvl, msg)
	}
}

// CPrint logs to the console and the log file.
func CPrint(level uint32, msg string, formats ...LogFormat) {
	c, _ := loggers()
	output(c, level, msg, formats)
}

// VPrint logs to the log file only.
func VPrint(level uint32, msg string, formats ...LogFormat) {
	_, v := loggers()
	output(v, level, msg, formats)
}

// mergeLogFormats merges formats, later keys overwriting earlier ones.
func mergeLogFormats(formats ...LogFormat) LogFormat {
	format := LogFormat{}
	for _, data := range formats {
		for k, v := range data {
			format[k] = v
		}
	}
	format["tid"] = GetGID()
	return format
}
