package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

const consoleTimeFormat = "15:04:05.000000"

// NewConsoleHandler creates a human-readable handler for development use.
// Colors are only emitted when output is a terminal.
func NewConsoleHandler(output io.Writer, level slog.Leveler) Handler {
	return tint.NewHandler(output, &tint.Options{
		AddSource:  true,
		Level:      level,
		TimeFormat: consoleTimeFormat,
		NoColor:    !isTerminal(output),
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// levelFor resolves the minimum level for the named logger. Filter entries match
// on dotted name prefixes ("repo" covers "repo.sqlite.store"); the longest
// matching entry wins and fallback applies when none matches.
func levelFor(pkgLevels map[string]Level, name string, fallback Level) Level {
	parts := strings.Split(name, ".")

	for i := len(parts); i > 0; i-- {
		if level, ok := pkgLevels[strings.Join(parts[:i], ".")]; ok {
			return level
		}
	}

	return fallback
}
