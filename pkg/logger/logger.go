package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
}

// Get returns the shared application logger
func Get() *logrus.Logger {
	return log
}

// Configure applies LOG_LEVEL (debug, info, warn, error). Unknown values keep the current level.
func Configure() {
	lvl := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if lvl == "" {
		return
	}
	parsed, err := logrus.ParseLevel(lvl)
	if err != nil {
		log.Warnf("invalid LOG_LEVEL %q, keeping %s", lvl, log.GetLevel())
		return
	}
	log.SetLevel(parsed)
}

// LogError writes err with the module/function it came from and optional payload data
func LogError(moduleName string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	log.WithFields(fields).Error(err.Error())
}
