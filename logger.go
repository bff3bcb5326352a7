package vocsensor

import (
	"io"
	"log"
)

// Logger is the subset of *log.Logger that components report progress and
// recoverable problems to. Nothing in this module writes to the global
// logger; callers hand one of these in at construction.
type Logger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

// NopLogger discards everything written to it.
var NopLogger Logger = log.New(io.Discard, "", 0)

// OrNop returns l, or NopLogger if l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger
	}

	return l
}
