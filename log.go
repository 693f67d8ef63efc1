// log.go - minimal leveled diagnostics
//
// (c) Sudhi Herle 2018
//
// License GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package cascadephf

import (
	"fmt"
	"log"
	"os"
)

// Logger is a small leveled sink for build-time diagnostics: duplicate-key
// warnings and fast-mode buffer overflow. Callers that don't care can leave
// the package default in place; it writes to stderr via the standard log
// package.
type Logger interface {
	Warnf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type stdLogger struct {
	debug bool
	l     *log.Logger
}

func (s *stdLogger) Warnf(format string, args ...interface{}) {
	s.l.Output(2, "WARN "+fmt.Sprintf(format, args...))
}

func (s *stdLogger) Debugf(format string, args ...interface{}) {
	if !s.debug {
		return
	}
	s.l.Output(2, "DEBUG "+fmt.Sprintf(format, args...))
}

// defaultLogger is process-wide; SetLogger lets callers redirect or
// silence it.
var defaultLogger Logger = &stdLogger{l: log.New(os.Stderr, "cascadephf: ", log.LstdFlags)}

// SetLogger replaces the package-wide diagnostics sink.
func SetLogger(l Logger) {
	if l == nil {
		return
	}
	defaultLogger = l
}
