package logging

import (
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat/go-file-rotatelogs"
	"github.com/pkg/errors"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

// NewFileRotateHooker writes every level to dir/filename-YYYYMMDD-N.log,
// rotated daily, with dir/filename.log linking to the current file.
// age is the max age of rotated files in days, 0 keeps them forever.
func NewFileRotateHooker(dir, filename string, age uint32, formatter logrus.Formatter) (logrus.Hook, error) {
	if len(dir) == 0 {
		return nil, errors.New("empty log directory")
	}
	if !filepath.IsAbs(dir) {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve log directory %s", dir)
		}
		dir = abs
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrapf(err, "create log directory %s", dir)
	}

	options := []rotatelogs.Option{
		rotatelogs.WithLinkName(filepath.Join(dir, filename+".log")),
		rotatelogs.WithRotationTime(24 * time.Hour),
	}
	if age > 0 {
		options = append(options, rotatelogs.WithMaxAge(time.Duration(age)*24*time.Hour))
	}
	writer, err := rotatelogs.New(filepath.Join(dir, filename+"-%Y%m%d-%d.log"), options...)
	if err != nil {
		return nil, errors.Wrap(err, "create rotate logs")
	}

	writers := lfshook.WriterMap{}
	for _, level := range logrus.AllLevels {
		writers[level] = writer
	}
	return lfshook.NewHook(writers, formatter), nil
}
