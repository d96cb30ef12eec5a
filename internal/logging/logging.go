// Package logging sets up the logrus logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Separator is logged between major sections of a session
const Separator = "------------------------------------------------------------"

// Options configures the logger
type Options struct {
	// File receives the log. It is truncated on every start. Empty means
	// no file.
	File string
	// Level is a logrus level name; empty means debug
	Level string
	// Console additionally mirrors entries to this writer
	Console io.Writer
}

// Setup builds the logger. The returned close func releases the log file.
func Setup(opts Options) (*logrus.Logger, func() error, error) {
	level := logrus.DebugLevel
	if opts.Level != "" {
		l, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = l
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		DisableColors:   true,
	})

	closeFn := func() error { return nil }

	var writers []io.Writer
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		writers = append(writers, f)
		closeFn = f.Close
	}
	if opts.Console != nil {
		writers = append(writers, opts.Console)
	}

	switch len(writers) {
	case 0:
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(writers[0])
	default:
		log.SetOutput(io.MultiWriter(writers...))
	}

	return log, closeFn, nil
}

// SplitLine logs a visual separator
func SplitLine(log logrus.FieldLogger) {
	log.Info(Separator)
}

