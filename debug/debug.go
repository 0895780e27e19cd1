package debug

import (
	"fmt"
	"runtime"
	"strings"
)

// Assert panics if condition is false. It is used to guard internal
// preconditions; an assertion failure indicates a lifetime or ownership bug,
// never a data problem, so it is deliberately not recoverable. Under the
// debug build tag the panic message carries the caller's stack.
func Assert(condition bool, format string, args ...any) {
	if !condition {
		msg := fmt.Sprintf("precondition violation: "+format, args...)
		if Debug {
			msg += "\n" + Stack()
		}
		panic(msg)
	}
}

// Stack returns a compact stack trace of the caller, for inclusion in
// precondition-violation reports.
func Stack() string {
	var sbb strings.Builder
	WriteStack(&sbb)
	return sbb.String()
}

// WriteStack writes a compact stack trace to sbb.
func WriteStack(sbb *strings.Builder) {
	// derived from: https://golang.org/pkg/runtime/#example_Frames
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	if n == 0 {
		return
	}
	pc = pc[:n]
	frames := runtime.CallersFrames(pc)
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "runtime/") {
			break
		}
		function := frame.Function
		if i := strings.LastIndex(function, "/"); i != -1 {
			function = function[i+1:]
		}
		sbb.WriteString(function)
		sbb.WriteString("\n\t")
		sbb.WriteString(frame.File)
		sbb.WriteString(fmt.Sprintf(":%d\n", frame.Line))
		if !more {
			break
		}
	}
}
