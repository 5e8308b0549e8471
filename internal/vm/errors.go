package vm

import (
	"fmt"
	"strings"
)

// stackFrame is one line of a runtime error's trace: the callable's display
// name and the source line active in it when the error was raised, formatted
// formatted as "[line N] in <name>()" or "[line N] in script".
type stackFrame struct {
	name   string
	line   int
	script bool
}

// RuntimeError is returned by Interpret when execution fails after
// compiling successfully. Its Error() string is the message followed by
// the call stack, innermost frame first, matching kristofer/smog's
// RuntimeError shape (pkg/vm/errors.go) adapted to lumen's frame names.
type RuntimeError struct {
	Message string
	Trace   []stackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.Trace {
		b.WriteByte('\n')
		if f.script {
			b.WriteString(fmt.Sprintf("[line %d] in script", f.line))
		} else {
			b.WriteString(fmt.Sprintf("[line %d] in %s()", f.line, f.name))
		}
	}
	return b.String()
}

func newRuntimeError(message string, trace []stackFrame) *RuntimeError {
	return &RuntimeError{Message: message, Trace: trace}
}
