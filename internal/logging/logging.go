// Package logging holds the process-wide structured logger. Logs go to the
// standard error so that the analysis output on the standard output stays
// machine readable.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// Logger is the logger used by every package of this module.
var Logger = log.Logger{
	Handler: text.New(os.Stderr),
	Level:   log.InfoLevel,
}

// Setup configures Logger from the level and format names found in the config
// file. An empty level or format keeps the current setting.
func Setup(level, format string) error {
	return setup(os.Stderr, level, format)
}

func setup(w io.Writer, level, format string) error {
	if level != "" {
		lvl, err := log.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		Logger.Level = lvl
	}

	switch strings.ToLower(format) {
	case "":
	case "text":
		Logger.Handler = text.New(w)
	case "json":
		Logger.Handler = json.New(w)
	case "cli":
		Logger.Handler = cli.New(w)
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}
