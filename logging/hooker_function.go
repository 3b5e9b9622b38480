package logging

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// callerDepth skips logrus and this package to reach the logging call site.
const callerDepth = 7

type functionHooker struct{}

func shortFuncName(pc uintptr) (name, file string, line int) {
	f := runtime.FuncForPC(pc)
	if f == nil {
		return "unknown", "unknown", 0
	}
	name = f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	file, line = f.FileLine(pc)
	return name, filepath.Base(file), line
}

func (h *functionHooker) fire(entry *logrus.Entry) {
	pc, _, _, ok := runtime.Caller(callerDepth)
	if !ok {
		return
	}
	name, file, line := shortFuncName(pc)
	entry.Data["func"] = name
	entry.Data["file"] = file
	entry.Data["line"] = line
}

// fires records a short call chain, used for errors and worse.
func (h *functionHooker) fires(entry *logrus.Entry) {
	for i := callerDepth; i < callerDepth+3; i++ {
		pc, _, _, ok := runtime.Caller(i)
		if !ok {
			break
		}
		name, file, line := shortFuncName(pc)
		entry.Data["f"+strconv.Itoa(i)] = fmt.Sprintf("{%s,%s,%d}", file, name, line)
	}
}

func (h *functionHooker) Fire(entry *logrus.Entry) error {
	if entry.Level <= logrus.ErrorLevel {
		h.fires(entry)
	} else {
		h.fire(entry)
	}
	return nil
}

func (h *functionHooker) Levels() []logrus.Level {
	return logrus.AllLevels
}

// LoadFunctionHooker adds caller information to every entry of logger.
func LoadFunctionHooker(logger *Logger) {
	logger.Hooks.Add(&functionHooker{})
}
