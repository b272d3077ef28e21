package monocurl

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

type callFrame struct {
	Function string
	Pos      Position
}

// Execution holds the value stack shared by every slide. Slot indices
// below rootSize belong to the persistent root frame.
type Execution struct {
	engine   *Engine
	ctx      context.Context
	stack    []Value
	slotGen  []uint32
	fp       int
	sp       int
	rootSize int
	captures []Value

	callStack []callFrame
	steps     int
	pos       Position
	src       string

	returning bool
	retval    Value

	heapBytes int
	animTime  float64
	slide     int
	program   *program
}

func newExecution(engine *Engine) *Execution {
	capacity := engine.config.StackCapacity
	return &Execution{
		engine:  engine,
		ctx:     context.Background(),
		stack:   make([]Value, capacity),
		slotGen: make([]uint32, capacity),
	}
}

// ensureRoot grows the persistent root frame to size slots.
func (exec *Execution) ensureRoot(size int) {
	if size > exec.rootSize {
		exec.rootSize = size
	}
	if exec.sp < exec.rootSize {
		exec.sp = exec.rootSize
	}
}

func (exec *Execution) resetTransient() {
	exec.clearSlots(exec.rootSize, exec.sp)
	exec.fp = 0
	exec.sp = exec.rootSize
	exec.captures = nil
	exec.callStack = exec.callStack[:0]
	exec.returning = false
	exec.retval = Value{}
}

func (exec *Execution) clearSlots(from, to int) {
	for i := from; i < to; i++ {
		exec.stack[i] = Value{}
		exec.slotGen[i]++
	}
}

func (exec *Execution) stackLvalue(index int, flavor LvalueFlavor) *Lvalue {
	return &Lvalue{flavor: flavor, slot: &exec.stack[index], stackIndex: index, gen: exec.slotGen[index]}
}

func (exec *Execution) runProgram(ctx context.Context, prog *program) (Value, error) {
	exec.ctx = ctx
	exec.program = prog
	exec.steps = 0
	defer func() { exec.program = nil }()

	if prog.frameSize > len(exec.stack) {
		return Value{}, exec.limitError(ErrRecursionLimit, "stack capacity exceeded")
	}
	exec.ensureRoot(prog.rootSize)
	exec.fp = 0
	if prog.frameSize > exec.sp {
		exec.sp = prog.frameSize
	}
	exec.captures = nil
	result, err := exec.evalBlock(prog.root)
	exec.clearSlots(exec.rootSize, exec.sp)
	exec.sp = exec.rootSize
	if err != nil {
		return Value{}, err
	}
	if err := exec.checkInterrupt(); err != nil {
		return Value{}, err
	}
	return result, nil
}

// step is called once per evaluated statement and expression call. Every
// InterruptInterval steps it checks for cancellation and heap growth.
func (exec *Execution) step() error {
	exec.steps++
	if exec.steps%exec.engine.config.InterruptInterval != 0 {
		return nil
	}
	if err := exec.checkInterrupt(); err != nil {
		return err
	}
	return exec.checkHeap()
}

func (exec *Execution) checkInterrupt() error {
	if exec.ctx != nil {
		select {
		case <-exec.ctx.Done():
			return ErrInterrupted
		default:
		}
	}
	if in := exec.engine.config.Interrupter; in != nil && in.Requested() {
		return ErrInterrupted
	}
	return nil
}

func (exec *Execution) checkHeap() error {
	used := exec.estimateHeap()
	exec.heapBytes = used
	if used > exec.engine.config.HeapLimitBytes {
		return exec.limitError(ErrHeapLimit, fmt.Sprintf("heap limit exceeded (%d bytes)", exec.engine.config.HeapLimitBytes))
	}
	return nil
}

func (exec *Execution) errorf(format string, args ...any) error {
	return exec.newRuntimeError(fmt.Sprintf(format, args...), nil)
}

func (exec *Execution) limitError(cause error, message string) error {
	return exec.newRuntimeError(message, cause)
}

func (exec *Execution) newRuntimeError(message string, cause error) error {
	frames := make([]StackFrame, 0, len(exec.callStack)+1)
	if len(exec.callStack) > 0 {
		current := exec.callStack[len(exec.callStack)-1]
		frames = append(frames, StackFrame{Function: current.Function, Pos: exec.pos})
		for i := len(exec.callStack) - 1; i >= 0; i-- {
			frames = append(frames, StackFrame(exec.callStack[i]))
		}
	} else {
		frames = append(frames, StackFrame{Function: "<slide>", Pos: exec.pos})
	}
	return &RuntimeError{
		Message:   message,
		Line:      exec.pos.Line,
		CodeFrame: formatCodeFrame(exec.src, exec.pos),
		Frames:    frames,
		cause:     cause,
	}
}

// wrapError converts plain errors from natives into runtime errors at the
// current position. Interrupts pass through untouched.
func (exec *Execution) wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInterrupted) {
		return err
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return err
	}
	return exec.newRuntimeError(err.Error(), err)
}

func (exec *Execution) pushFrame(name string, size int) (int, error) {
	if len(exec.callStack) >= exec.engine.config.RecursionLimit {
		return 0, exec.limitError(ErrRecursionLimit, fmt.Sprintf("recursion depth exceeded (limit %d)", exec.engine.config.RecursionLimit))
	}
	base := exec.sp
	if base+size > len(exec.stack) {
		return 0, exec.limitError(ErrRecursionLimit, fmt.Sprintf("stack capacity exceeded (%d slots)", len(exec.stack)))
	}
	exec.callStack = append(exec.callStack, callFrame{Function: name, Pos: exec.pos})
	exec.sp = base + size
	return base, nil
}

func (exec *Execution) popFrame(base int) {
	exec.clearSlots(base, exec.sp)
	exec.sp = base
	exec.callStack = exec.callStack[:len(exec.callStack)-1]
}

func callFunctionValue(exec *Execution, fn Value, args []Value) (Value, error) {
	return exec.invoke(fn, args)
}

// invoke calls a function value with already evaluated arguments. Value
// parameters must be owned copies; reference parameters are lvalues.
func (exec *Execution) invoke(fnVal Value, args []Value) (Value, error) {
	fn := fnVal.Function()
	if fn.native != nil {
		if len(fn.captures) > 0 {
			args = append(slices.Clone(fn.captures), args...)
		}
		return exec.invokeNative(fn.native, args)
	}

	t := fn.tmpl
	if len(args) != t.width {
		return Value{}, exec.errorf("%s expects %d arguments, got %d", t.name, t.width, len(args))
	}
	savedFP, savedCaptures, savedPos, savedSrc := exec.fp, exec.captures, exec.pos, exec.src
	base, err := exec.pushFrame(t.name, t.frameSize)
	if err != nil {
		return Value{}, err
	}
	exec.fp = base
	exec.captures = fn.captures
	exec.stack[base] = fnVal
	for i, arg := range args {
		if err := exec.assign(exec.stackLvalue(base+1+i, LvalueParameter), arg); err != nil {
			exec.popFrame(base)
			exec.fp, exec.captures = savedFP, savedCaptures
			return Value{}, err
		}
	}

	var result Value
	if t.expr != nil {
		result, err = t.expr.eval(exec)
	} else {
		_, err = exec.evalBlock(t.body)
		if err == nil && exec.returning {
			result = exec.retval
		}
		exec.returning, exec.retval = false, Value{}
	}
	if err == nil {
		result, err = exec.prune(result)
	}
	exec.popFrame(base)
	exec.fp, exec.captures = savedFP, savedCaptures
	if err != nil {
		return Value{}, err
	}
	exec.pos, exec.src = savedPos, savedSrc
	return result, nil
}

func (exec *Execution) invokeNative(native *Native, args []Value) (Value, error) {
	if native.arity >= 0 && len(args) != native.arity {
		return Value{}, exec.errorf("%s expects %d arguments, got %d", native.Name, native.arity, len(args))
	}
	if err := exec.step(); err != nil {
		return Value{}, err
	}
	result, err := native.Fn(exec, args)
	if err != nil {
		return Value{}, exec.wrapError(err)
	}
	if result.kind == KindUninitialized {
		return Value{}, exec.errorf("%s produced no value", native.Name)
	}
	return result, nil
}
