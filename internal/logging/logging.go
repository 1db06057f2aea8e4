// Package logging builds the structured loggers used by the planner.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"

	internalstrings "github.com/amonks/taskplanner/internal/strings"
	"github.com/charmbracelet/log"
)

// Options configures a logger.
type Options struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Format is one of text, json, logfmt. Defaults to text.
	Format string
	// Prefix is prepended to every line.
	Prefix string
	// Output defaults to stderr.
	Output io.Writer
}

// New returns a logger configured from opts.
func New(opts Options) (*log.Logger, error) {
	level := log.InfoLevel
	if !internalstrings.IsBlank(opts.Level) {
		parsed, err := log.ParseLevel(internalstrings.NormalizeLowerTrimSpace(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	formatter, err := parseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	return log.NewWithOptions(output, log.Options{
		Level:           level,
		Prefix:          opts.Prefix,
		Formatter:       formatter,
		ReportTimestamp: true,
	}), nil
}

func parseFormat(format string) (log.Formatter, error) {
	switch internalstrings.NormalizeLowerTrimSpace(format) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("unknown log format %q", format)
	}
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// OrDiscard returns logger, or a discarding logger when logger is nil.
func OrDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}

// StandardLog adapts logger for APIs that take a standard library logger,
// such as http.Server.ErrorLog. Lines are logged at error level.
func StandardLog(logger *log.Logger) *stdlog.Logger {
	return OrDiscard(logger).StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel})
}
