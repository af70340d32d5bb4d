package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// IsTTY reports whether w is a terminal file descriptor.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor reports whether the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// StylesFor picks DefaultStyles or PlainStyles for w, honoring both TTY
// detection and NO_COLOR.
func StylesFor(w io.Writer) Styles {
	if !IsTTY(w) || DetectNoColor() {
		return PlainStyles()
	}
	return DefaultStyles()
}
