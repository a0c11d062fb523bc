// Package logging builds the logrus logger shared by the commands.
package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Options selects the logger's level, output format and base fields.
type Options struct {
	Level   string // logrus level name, default info
	Format  string // "json" (default) or "text"
	Service string
	Env     string
	Output  io.Writer // defaults to stdout
}

// New returns an entry carrying the service and env fields. An unknown level
// falls back to info and is reported once through the returned logger.
func New(opts Options) *log.Entry {
	logger := log.New()

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)

	switch strings.ToLower(opts.Format) {
	case "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		logger.SetFormatter(&log.JSONFormatter{})
	}

	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	entry := log.NewEntry(logger)
	if opts.Service != "" {
		entry = entry.WithField("service", opts.Service)
	}
	if opts.Env != "" {
		entry = entry.WithField("env", opts.Env)
	}
	if err != nil && opts.Level != "" {
		entry.WithField("level_value", opts.Level).Warn("unknown log level, using info")
	}
	return entry
}
