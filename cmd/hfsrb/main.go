package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/hfsrb/hfsrb/internal/cli"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(hfsrb.ExitPanic)
		}
	}()

	if os.Getenv("HFSRB_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(hfsrb.ExitCodeForError(err))
	}
}
