package log

import (
	"sync"
)

// The process default is set once by the CLI after flag parsing;
// library code reads it through DefaultLogger so a logger never needs
// to be threaded through explicitly.
var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
)

// SetDefaultLogger installs the process-wide default logger.
func SetDefaultLogger(logger *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// DefaultLogger returns the process-wide default, lazily initializing
// it when nothing was installed yet (tests and library callers that
// never go through the CLI).
func DefaultLogger() *Logger {
	defaultMu.RLock()
	logger := defaultLogger
	defaultMu.RUnlock()
	if logger != nil {
		return logger
	}

	logger = Default()
	SetDefaultLogger(logger)
	return logger
}
