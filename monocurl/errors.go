package monocurl

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInterrupted is returned when the context is canceled or the
	// configured Interrupter reports a newer request.
	ErrInterrupted = errors.New("execution interrupted")
	// ErrHeapLimit is wrapped by runtime errors raised when the estimated
	// heap usage exceeds Config.HeapLimitBytes.
	ErrHeapLimit = errors.New("heap limit exceeded")
	// ErrRecursionLimit is wrapped by runtime errors raised when the call
	// depth or the stack capacity is exhausted.
	ErrRecursionLimit = errors.New("recursion limit exceeded")
	// ErrEngineFailed is returned when an engine in the error state is used
	// without calling Reset first.
	ErrEngineFailed = errors.New("engine is in the error state; call Reset")
)

// CompileError reports a syntax or semantic error found while compiling a
// slide. Compilation stops at the first one.
type CompileError struct {
	Pos     Position
	Message string
	Source  string
}

func (e *CompileError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "compile error at %d:%d: %s", e.Pos.Line+1, e.Pos.Column, e.Message)
	if frame := formatCodeFrame(e.Source, e.Pos); frame != "" {
		b.WriteString("\n")
		b.WriteString(frame)
	}
	return b.String()
}

// StackFrame names one active call when a runtime error was raised.
type StackFrame struct {
	Function string
	Pos      Position
}

// RuntimeError reports a failure during execution. Line is the 0-based
// outline line active when the error occurred.
type RuntimeError struct {
	Message   string
	Line      int
	CodeFrame string
	Frames    []StackFrame
	cause     error
}

const (
	runtimeErrorFrameHead = 8
	runtimeErrorFrameTail = 8
)

func (re *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(re.Message)
	if re.CodeFrame != "" {
		b.WriteString("\n")
		b.WriteString(re.CodeFrame)
	}
	renderFrame := func(frame StackFrame) {
		fmt.Fprintf(&b, "\n  at %s (line %d)", frame.Function, frame.Pos.Line+1)
	}

	if len(re.Frames) <= runtimeErrorFrameHead+runtimeErrorFrameTail {
		for _, frame := range re.Frames {
			renderFrame(frame)
		}
		return b.String()
	}

	for _, frame := range re.Frames[:runtimeErrorFrameHead] {
		renderFrame(frame)
	}
	omitted := len(re.Frames) - (runtimeErrorFrameHead + runtimeErrorFrameTail)
	fmt.Fprintf(&b, "\n  ... %d frames omitted ...", omitted)
	for _, frame := range re.Frames[len(re.Frames)-runtimeErrorFrameTail:] {
		renderFrame(frame)
	}
	return b.String()
}

func (re *RuntimeError) Unwrap() error {
	return re.cause
}

// ErrorKind separates compile failures from execution failures in slide
// reports.
type ErrorKind int

const (
	ErrorSyntax ErrorKind = iota
	ErrorRuntime
)

func (k ErrorKind) String() string {
	if k == ErrorSyntax {
		return "syntax"
	}
	return "runtime"
}

// SlideError is the error recorded on a slide after compiling or running it.
type SlideError struct {
	Kind    ErrorKind
	Slide   int
	Line    int
	Message string
	Err     error
}

func (e *SlideError) Error() string {
	return fmt.Sprintf("slide %d: %s error at line %d: %s", e.Slide, e.Kind, e.Line+1, e.Message)
}

func (e *SlideError) Unwrap() error {
	return e.Err
}

func newSlideError(slide int, err error) *SlideError {
	var ce *CompileError
	if errors.As(err, &ce) {
		return &SlideError{Kind: ErrorSyntax, Slide: slide, Line: ce.Pos.Line, Message: ce.Message, Err: err}
	}
	var oe *OutlineError
	if errors.As(err, &oe) {
		return &SlideError{Kind: ErrorSyntax, Slide: slide, Line: oe.Line, Message: oe.Message, Err: err}
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return &SlideError{Kind: ErrorRuntime, Slide: slide, Line: re.Line, Message: re.Message, Err: err}
	}
	return &SlideError{Kind: ErrorRuntime, Slide: slide, Message: err.Error(), Err: err}
}
