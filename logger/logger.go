package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	once    sync.Once
	project *logrus.Logger
)

// GetProjectLogger returns the shared logger. Its level comes from LOG_LEVEL
// and defaults to info.
func GetProjectLogger() *logrus.Logger {
	once.Do(func() {
		project = logrus.New()
		project.SetOutput(os.Stderr)
		project.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		project.SetLevel(levelFromEnv(os.Getenv("LOG_LEVEL")))
	})
	return project
}

func levelFromEnv(value string) logrus.Level {
	if value == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(value)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
