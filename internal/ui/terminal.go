package ui

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// forceDisable is set from --no-color or the no-color config key.
var forceDisable bool

// DisableColor turns off styled output for the current process.
func DisableColor() {
	forceDisable = true
}

// ShouldUseColor decides whether styled output is appropriate.
// Precedence: explicit disable, then NO_COLOR, then CLICOLOR_FORCE,
// then CLICOLOR=0, then stdout-is-a-TTY with a capable terminal.
func ShouldUseColor() bool {
	if forceDisable {
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	if force := os.Getenv("CLICOLOR_FORCE"); force != "" && force != "0" {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}
