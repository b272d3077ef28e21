package monocurl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls execution bounds and host hooks.
type Config struct {
	// StackCapacity is the number of value slots in the execution stack.
	StackCapacity int
	// RecursionLimit caps the depth of nested script function calls.
	RecursionLimit int
	// HeapLimitBytes caps the estimated size of live values.
	HeapLimitBytes int
	// InterruptInterval is the number of steps between interrupt checks.
	InterruptInterval int
	// FrameRate sets the animation tick; each tick advances 1/FrameRate
	// seconds.
	FrameRate float64
	// MaxAnimationFrames bounds a single play statement.
	MaxAnimationFrames int
	// Interrupter is polled for pending requests and released between
	// animation frames.
	Interrupter Interrupter
	// FrameHook receives every animation frame as it is produced.
	FrameHook func(Frame) error
	// Output receives text written by print.
	Output io.Writer
	// Logger receives debug records about compilation and execution.
	Logger *slog.Logger
}

// State is the phase the engine is currently in.
type State int

const (
	StateIdle State = iota
	StateCompiling
	StateInitialization
	StateAnimation
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCompiling:
		return "compiling"
	case StateInitialization:
		return "initialization"
	case StateAnimation:
		return "animation"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Engine compiles and runs slides against one persistent root frame.
type Engine struct {
	config  Config
	log     *slog.Logger
	symbols *symbolTable
	exec    *Execution
	state   State
	nextID  uint64

	// preludeMark is the symbol table state right after the prelude.
	preludeMark symbolMark
}

// NewEngine constructs an Engine with defaults and installs the prelude.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.StackCapacity <= 0 {
		cfg.StackCapacity = 1 << 14
	}
	if cfg.RecursionLimit <= 0 {
		cfg.RecursionLimit = 256
	}
	if cfg.HeapLimitBytes <= 0 {
		cfg.HeapLimitBytes = 64 << 20
	}
	if cfg.InterruptInterval <= 0 {
		cfg.InterruptInterval = 48
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 30
	}
	if cfg.MaxAnimationFrames <= 0 {
		cfg.MaxAnimationFrames = 100000
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.StackCapacity < 64 {
		return nil, fmt.Errorf("stack capacity %d is too small", cfg.StackCapacity)
	}

	engine := &Engine{
		config:  cfg,
		log:     cfg.Logger,
		symbols: newSymbolTable(),
	}
	engine.exec = newExecution(engine)
	if err := engine.installPrelude(); err != nil {
		return nil, err
	}
	return engine, nil
}

func MustNewEngine(cfg Config) *Engine {
	engine, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return engine
}

func (e *Engine) State() State {
	return e.state
}

// Reset clears the error state. Values in the root frame are kept.
func (e *Engine) Reset() {
	e.exec.resetTransient()
	e.state = StateIdle
}

func (e *Engine) fail(err error) error {
	e.state = StateError
	return err
}

func (e *Engine) templateID() uint64 {
	e.nextID++
	return e.nextID
}

// RegisterNative declares a native function in the root scope. params uses
// parameter list syntax such as "target&, value"; an empty string declares
// a positional function with the given arity (-1 for variadic).
func (e *Engine) RegisterNative(name, params string, arity int, fn NativeFunc) error {
	var sig *signature
	if params != "" {
		parsed, err := parseSignature(params)
		if err != nil {
			return fmt.Errorf("native %s: %w", name, err)
		}
		sig = parsed
		arity = sig.width()
	}
	native := &Native{Name: name, Fn: fn, sig: sig, arity: arity}
	s, err := e.symbols.declare(name, symConst|symFunction, sig)
	if err != nil {
		return fmt.Errorf("native %s: %w", name, err)
	}
	s.native = native
	e.exec.ensureRoot(e.symbols.fn.frameSize)
	e.exec.stack[s.slot] = newFunctionValue(&Function{native: native})
	return nil
}

// DefineConstant declares a root constant holding v.
func (e *Engine) DefineConstant(name string, v Value) error {
	return e.defineRoot(name, symConst, v)
}

// DefineVariable declares a mutable root variable holding v.
func (e *Engine) DefineVariable(name string, v Value) error {
	return e.defineRoot(name, 0, v)
}

func (e *Engine) defineRoot(name string, flags symbolFlags, v Value) error {
	s, err := e.symbols.declare(name, flags, nil)
	if err != nil {
		return err
	}
	e.exec.ensureRoot(e.symbols.fn.frameSize)
	e.exec.stack[s.slot] = v
	return nil
}

// Global returns the root value currently visible under name.
func (e *Engine) Global(name string) (Value, bool) {
	s := e.symbols.lookup(name)
	if s == nil || s.level != 0 {
		return Value{}, false
	}
	return e.exec.stack[s.slot], true
}

// Binding is a visible root variable.
type Binding struct {
	Name  string
	Value Value
	Const bool
}

// Globals lists visible root bindings declared after the prelude, sorted by
// name.
func (e *Engine) Globals() []Binding {
	var out []Binding
	for _, name := range e.symbols.visibleNames() {
		s := e.symbols.lookup(name)
		if s.level != 0 || s.native != nil || s.prelude {
			continue
		}
		out = append(out, Binding{Name: name, Value: e.exec.stack[s.slot], Const: s.is(symConst)})
	}
	return out
}

// Complete lists the visible names that start with prefix.
func (e *Engine) Complete(prefix string) []string {
	var out []string
	for _, name := range e.symbols.visibleNames() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

// Exec compiles doc as a new unit in the root scope and runs it. On a
// compile error the root scope is left unchanged.
func (e *Engine) Exec(ctx context.Context, doc *Group) (Value, error) {
	prog, err := e.compile(doc)
	if err != nil {
		return Value{}, err
	}
	return e.run(ctx, prog)
}

// ExecString parses src as an outline and executes it.
func (e *Engine) ExecString(ctx context.Context, src string) (Value, error) {
	doc, err := ParseOutline(src)
	if err != nil {
		return Value{}, err
	}
	return e.Exec(ctx, doc)
}

func (e *Engine) compile(doc *Group) (*program, error) {
	if e.state == StateError {
		return nil, ErrEngineFailed
	}
	e.state = StateCompiling
	mark := e.symbols.mark()
	c := newCompiler(e)
	prog, err := c.compileSlide(doc)
	e.state = StateIdle
	if err != nil {
		e.symbols.rollback(mark)
		e.log.Debug("compile failed", "error", err)
		return nil, err
	}
	prog.mark, prog.end = mark, e.symbols.mark()
	e.log.Debug("compiled slide", "statements", len(prog.root.stmts), "frame", prog.frameSize)
	return prog, nil
}

func (e *Engine) currentView() frameView {
	return newCompiler(e).currentView()
}

func (e *Engine) run(ctx context.Context, prog *program) (Value, error) {
	if e.state == StateError {
		return Value{}, ErrEngineFailed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	e.state = StateInitialization
	result, err := e.exec.runProgram(ctx, prog)
	if err != nil {
		return Value{}, e.fail(err)
	}
	e.state = StateIdle
	return result, nil
}
