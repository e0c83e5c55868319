package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/drinkbar/pginit/internal/cli"
	"github.com/drinkbar/pginit/pkg/pginit"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(pginit.ExitPanic)
		}
	}()

	if os.Getenv("PGINIT_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(pginit.ExitCodeForError(err))
	}
}
