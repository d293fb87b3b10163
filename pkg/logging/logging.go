// Package logging holds the process-wide logrus logger and hands out
// per-component entries.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var root = newRoot()

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Setup configures level ("trace".."panic") and format ("text" or "json").
func Setup(level, format string) error {
	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return errors.Wrap(err, "bad log level")
		}
		root.SetLevel(lvl)
	}
	switch strings.ToLower(format) {
	case "", "text":
		root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		root.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errors.Errorf("unknown log format %q", format)
	}
	return nil
}

// SetOutput redirects all logging, mostly so tests can silence it.
func SetOutput(w io.Writer) {
	root.SetOutput(w)
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return root.WithField("component", component)
}

func Root() *logrus.Logger {
	return root
}
