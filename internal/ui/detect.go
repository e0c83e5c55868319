package ui

import (
	"os"

	"golang.org/x/term"
)

// Mode represents the interaction mode for pginit.
type Mode int

const (
	// ModeNonInteractive is used for container init, CI/CD pipelines, and
	// piped input.
	ModeNonInteractive Mode = iota
	// ModeInteractive is used when a human is at the terminal.
	ModeInteractive
)

// DetectMode determines whether pginit may prompt the operator.
//
// Returns ModeNonInteractive if:
//   - stdin is not a terminal (piped input, container init, CI/CD)
//   - PGINIT_NON_INTERACTIVE=1 is set
//   - CI=true is set (common CI/CD convention)
//
// Returns ModeInteractive otherwise.
func DetectMode() Mode {
	if os.Getenv("PGINIT_NON_INTERACTIVE") == "1" {
		return ModeNonInteractive
	}
	if os.Getenv("CI") != "" {
		return ModeNonInteractive
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ModeNonInteractive
	}

	return ModeInteractive
}

// IsInteractive is a convenience function that returns true if running in
// interactive mode.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}
