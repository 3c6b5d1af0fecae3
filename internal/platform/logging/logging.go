package logging

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds logger configuration.
type Config struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // "json" or "text"
}

// Setup configures the process-wide logrus logger and returns it.
func Setup(cfg Config) *logrus.Logger {
	return configure(logrus.StandardLogger(), cfg, os.Stdout)
}

func configure(l *logrus.Logger, cfg Config, out io.Writer) *logrus.Logger {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetOutput(out)

	if cfg.Format == "text" {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
		return l
	}

	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	return l
}
