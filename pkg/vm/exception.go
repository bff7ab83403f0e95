package vm

import (
	"fmt"
	"io"

	"github.com/ymtdzzz/jjvm/pkg/heap"
)

// JavaException is a thrown Java exception/error propagating through the
// interpreter. ClassName is cached alongside the heap Ref so exception
// table matching doesn't need to deref the Throwable just to read its
// class.
type JavaException struct {
	ClassName string
	Object    heap.Ref
	Message   string
	// StackTrace accumulates one frame per uncaught propagation, innermost
	// first, the way java.lang.Throwable.printStackTrace walks its call
	// chain. Populated lazily: a frame that catches the exception never
	// appends to it.
	StackTrace []StackTraceElement
}

// StackTraceElement names one frame a JavaException passed through
// uncaught, resolved to a source line via the owning method's
// LineNumberTable when one is present.
type StackTraceElement struct {
	ClassName  string
	MethodName string
	Line       int // -1 when no LineNumberTable entry covers the PC
}

func (e *JavaException) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.ClassName, e.Message)
	}
	return e.ClassName
}

// PrintStackTrace writes e in the conventional
// "ClassName: message\n\tat Class.method(line N)" form java.lang.Throwable
// uses, to w.
func (e *JavaException) PrintStackTrace(w io.Writer) {
	fmt.Fprintln(w, e.Error())
	for _, f := range e.StackTrace {
		if f.Line >= 0 {
			fmt.Fprintf(w, "\tat %s.%s(line %d)\n", f.ClassName, f.MethodName, f.Line)
		} else {
			fmt.Fprintf(w, "\tat %s.%s\n", f.ClassName, f.MethodName)
		}
	}
}

// InterpreterBug reports a failure internal to the interpreter — a
// malformed frame, an unreachable opcode path, a resolution failure the
// verifier should have already rejected. It is never visible to the
// running Java program and is distinct from JavaException, which models
// exceptions the interpreted bytecode itself can catch.
type InterpreterBug struct {
	Reason string
}

func (e *InterpreterBug) Error() string { return "interpreter bug: " + e.Reason }

func bug(format string, args ...interface{}) error {
	return &InterpreterBug{Reason: fmt.Sprintf(format, args...)}
}
