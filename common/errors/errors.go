package errors

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/mcdexio/yield-battle-vault/common/logging"
)

var logger logging.Logger

// Initialize sets the logger used by Catch.
func Initialize(l logging.Logger) {
	logger = l
}

// Catch logs a recovered panic with its call stack at critical level, which terminates the
// process. Catch should be called with defer.
func Catch() {
	if recovered := recover(); recovered != nil {
		report(logger, true, recovered)
	}
}

// CatchWithLogger is a panic handler expected to be deferred. The process keeps running.
func CatchWithLogger(l logging.Logger) {
	if recovered := recover(); recovered != nil {
		report(l, false, recovered)
	}
}

// CatchError is deferred by functions which should turn a panic into an error result.
func CatchError(l logging.Logger, pErr *error) {
	if recovered := recover(); recovered != nil {
		report(l, false, recovered)
		if err, ok := recovered.(error); ok {
			*pErr = fmt.Errorf("recovered from panic: %w", err)
		} else {
			*pErr = fmt.Errorf("recovered from panic: %v", recovered)
		}
	}
}

func report(l logging.Logger, fatal bool, recovered interface{}) {
	stack := debug.Stack()
	switch {
	case l == nil:
		fmt.Fprintf(os.Stderr, "\x1b[31m%v\n[Stack Trace]\n%s\x1b[m", recovered, stack)
		if fatal {
			os.Exit(1)
		}
	case fatal:
		l.Critical("%v\n%s", recovered, stack)
	default:
		l.Error("%v\n[Stack Trace]\n%s", recovered, stack)
	}
}
