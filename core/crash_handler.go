package core

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"sync/atomic"
)

var (
	crashCleanup atomic.Pointer[func()]
	exitFunc     = os.Exit
)

// SetCrashCleanup registers a function run before a crash report is printed
// Viewers use it to restore the terminal; nil clears the hook
func SetCrashCleanup(fn func()) {
	if fn == nil {
		crashCleanup.Store(nil)
		return
	}
	crashCleanup.Store(&fn)
}

// HandleCrash is the unified panic handler that runs cleanup, logs and prints the stack trace
func HandleCrash(r any) {
	if r == nil {
		return
	}

	if fn := crashCleanup.Load(); fn != nil {
		(*fn)()
	}

	stack := debug.Stack()
	log.Printf("CRASH: %v\n%s", r, stack)

	os.Stdout.Sync()
	fmt.Fprintf(os.Stderr, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", stack)
	os.Stderr.Sync()

	exitFunc(1)
}

// Go runs a function in a new goroutine with panic recovery.
// Use this instead of the 'go' keyword so a crash restores the terminal before exiting.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
