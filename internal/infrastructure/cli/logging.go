package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// newLogger builds the run logger once at entry. Logs go to w so that the
// report on stdout stays machine readable.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, NewCLIError(fmt.Sprintf("invalid log level %q", level), "Use one of debug, info, warn, error", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, NewCLIError(fmt.Sprintf("invalid log format %q", format), "Use text or json", nil)
	}
}
