package logging

import (
	"io"
	"os"

	"golang.org/x/term"
)

// SupportsColor reports whether ANSI colors should be written to w: w must
// be a terminal, NO_COLOR (https://no-color.org) must be unset and TERM must
// not be "dumb". Burns are often run from cron, where none of this holds.
func SupportsColor(w io.Writer) bool {
	return colorAllowed() && isTerminal(w)
}

func colorAllowed() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
