// Package obs contains observability utilities such as logging and tracing.
package obs

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the global structured logger used by the service.
var Logger = newLogger(os.Stdout, logrus.InfoLevel)

// InitLogger replaces Logger with a JSON logger at the given level.
// Unknown levels fall back to info.
func InitLogger(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger = newLogger(os.Stdout, lvl)
}

// SetOutput redirects the global logger, mostly for tests.
func SetOutput(w io.Writer) { Logger.SetOutput(w) }

func newLogger(w io.Writer, lvl logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.Level = lvl
	l.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	l.Out = w
	return l
}
