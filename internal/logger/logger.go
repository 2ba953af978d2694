package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// New builds a logrus logger writing to out with the given level and format ("text" or "json").
func New(out io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return log, nil
}

// GormLevel maps a logrus level onto the GORM logger level.
func GormLevel(lvl logrus.Level) gormlogger.LogLevel {
	switch {
	case lvl >= logrus.DebugLevel:
		return gormlogger.Info
	case lvl >= logrus.WarnLevel:
		return gormlogger.Warn
	case lvl >= logrus.ErrorLevel:
		return gormlogger.Error
	default:
		return gormlogger.Silent
	}
}
