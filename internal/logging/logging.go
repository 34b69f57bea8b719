// Package logging configures the standard logrus logger for the CLI.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup sets the level and formatter of the standard logger and returns an
// entry for the named component. Output goes to stderr.
func Setup(level string, json bool) (*logrus.Entry, error) {
	return SetupWriter(os.Stderr, level, json)
}

// SetupWriter is Setup writing to w.
func SetupWriter(w io.Writer, level string, json bool) (*logrus.Entry, error) {
	lvl := logrus.InfoLevel
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}

	logger := logrus.StandardLogger()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	if json {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logrus.NewEntry(logger).WithField("component", "cli"), nil
}
