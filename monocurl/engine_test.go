package monocurl

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func execSource(t *testing.T, engine *Engine, source string) Value {
	t.Helper()
	result, err := engine.ExecString(context.Background(), source)
	if err != nil {
		t.Fatalf("exec error: %v", err)
	}
	return result
}

func evalSource(t *testing.T, source string) Value {
	t.Helper()
	return execSource(t, MustNewEngine(Config{}), source)
}

func execFailure(t *testing.T, source string) error {
	t.Helper()
	_, err := MustNewEngine(Config{}).ExecString(context.Background(), source)
	if err == nil {
		t.Fatalf("expected error for %q", source)
	}
	return err
}

func expectDouble(t *testing.T, v Value, want float64) {
	t.Helper()
	if v.Kind() != KindDouble || v.Double() != want {
		t.Fatalf("expected %v, got %v (%s)", want, v, v.Kind())
	}
}

func TestNestedLoopScenario(t *testing.T) {
	source := "var y = 0\nfor x in 1:<100\n\ty=y+x\n\tfor j in 1:<x\n\t\tvar q = y\n\t\tq=q-y\n\t\ty+=q\ny"
	expectDouble(t, evalSource(t, source), 4950)
}

func TestLoopAccumulates(t *testing.T) {
	source := "var total = 0\nfor i in 0 :< 100\n\ttotal += i\ntotal"
	expectDouble(t, evalSource(t, source), 4950)
}

func TestWhileAndIfChains(t *testing.T) {
	source := strings.Join([]string{
		"var n = 0",
		"var kind = 0",
		"while n < 7",
		"\tn += 1",
		"if n < 5",
		"\tkind = 1",
		"else if n == 7",
		"\tkind = 2",
		"else",
		"\tkind = 3",
		"kind",
	}, "\n")
	expectDouble(t, evalSource(t, source), 2)
}

func TestElseWithoutIfFails(t *testing.T) {
	err := execFailure(t, "else\n\t1")
	var ce *CompileError
	if !errors.As(err, &ce) || !strings.Contains(ce.Message, "else without a matching if") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRootStatePersistsAcrossUnits(t *testing.T) {
	engine := MustNewEngine(Config{})
	execSource(t, engine, "var count = 2\nlet base = 10")
	expectDouble(t, execSource(t, engine, "count += base\ncount"), 12)

	v, ok := engine.Global("count")
	if !ok {
		t.Fatalf("expected count to be visible")
	}
	expectDouble(t, v, 12)

	names := []string{}
	for _, b := range engine.Globals() {
		names = append(names, b.Name)
	}
	if strings.Join(names, ",") != "base,count" {
		t.Fatalf("unexpected globals: %v", names)
	}
}

func TestCompileErrorRollsBackSymbols(t *testing.T) {
	engine := MustNewEngine(Config{})
	if _, err := engine.ExecString(context.Background(), "var fresh = 1\nmissing + 1"); err == nil {
		t.Fatalf("expected compile error")
	}
	if _, ok := engine.Global("fresh"); ok {
		t.Fatalf("fresh should have been rolled back")
	}
	if engine.State() != StateIdle {
		t.Fatalf("compile errors should not fail the engine, state %s", engine.State())
	}
}

func TestUnknownIdentifierSuggestsName(t *testing.T) {
	err := execFailure(t, "let total = 1\ntotl + 1")
	if !strings.Contains(err.Error(), "did you mean total") {
		t.Fatalf("expected suggestion, got %v", err)
	}
}

func TestRuntimeErrorRequiresReset(t *testing.T) {
	engine := MustNewEngine(Config{})
	_, err := engine.ExecString(context.Background(), "var v = {1, 2}\nv[5]")
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected RuntimeError, got %v", err)
	}
	if re.Line != 1 {
		t.Fatalf("expected error on line 1, got %d", re.Line)
	}
	if !strings.Contains(re.Message, "out of range") {
		t.Fatalf("unexpected message: %s", re.Message)
	}
	if engine.State() != StateError {
		t.Fatalf("expected error state, got %s", engine.State())
	}
	if _, err := engine.ExecString(context.Background(), "1"); !errors.Is(err, ErrEngineFailed) {
		t.Fatalf("expected ErrEngineFailed, got %v", err)
	}
	engine.Reset()
	expectDouble(t, execSource(t, engine, "v[1]"), 2)
}

func TestRecursionLimitExceeded(t *testing.T) {
	engine := MustNewEngine(Config{RecursionLimit: 8})
	_, err := engine.ExecString(context.Background(), "func down(n) = down(n + 1)\ndown(0)")
	if !errors.Is(err, ErrRecursionLimit) {
		t.Fatalf("expected recursion limit, got %v", err)
	}
	if !strings.Contains(err.Error(), "recursion depth exceeded (limit 8)") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecursionWithinBound(t *testing.T) {
	source := strings.Join([]string{
		"func fact(n) =",
		"\tif n <= 1",
		"\t\treturn 1",
		"\treturn n * fact(n - 1)",
		"fact(10)",
	}, "\n")
	expectDouble(t, evalSource(t, source), 3628800)
}

func TestContextCancellationInterrupts(t *testing.T) {
	engine := MustNewEngine(Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := engine.ExecString(ctx, "var n = 0\nwhile 1\n\tn += 1")
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected interrupt, got %v", err)
	}
	if engine.State() != StateError {
		t.Fatalf("expected error state after interrupt, got %s", engine.State())
	}
}

func TestHeapLimitExceeded(t *testing.T) {
	engine := MustNewEngine(Config{HeapLimitBytes: 4096})
	_, err := engine.ExecString(context.Background(), "var v = {}\nfor i in 0 :< 100000\n\tv += {i, i}")
	if !errors.Is(err, ErrHeapLimit) {
		t.Fatalf("expected heap limit, got %v", err)
	}
}

func TestPrintWritesToOutput(t *testing.T) {
	var out strings.Builder
	engine := MustNewEngine(Config{Output: &out})
	execSource(t, engine, "print(\"sum\", 1 + 2)")
	if out.String() != "sum 3\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRegisterNativeArity(t *testing.T) {
	engine := MustNewEngine(Config{})
	err := engine.RegisterNative("twice", "", 1, func(exec *Execution, args []Value) (Value, error) {
		return NewDouble(args[0].Double() * 2), nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	expectDouble(t, execSource(t, engine, "twice(21)"), 42)

	_, err = engine.ExecString(context.Background(), "twice(1, 2)")
	var ce *CompileError
	if !errors.As(err, &ce) || !strings.Contains(ce.Message, "expects 1 arguments, got 2") {
		t.Fatalf("expected arity compile error, got %v", err)
	}
}

func TestNativeWithoutResultFails(t *testing.T) {
	engine := MustNewEngine(Config{})
	err := engine.RegisterNative("nothing", "", 0, func(exec *Execution, args []Value) (Value, error) {
		return Value{}, nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := engine.ExecString(context.Background(), "nothing()"); err == nil || !strings.Contains(err.Error(), "produced no value") {
		t.Fatalf("expected failure, got %v", err)
	}
}

func TestStackCapacityValidation(t *testing.T) {
	if _, err := NewEngine(Config{StackCapacity: 8}); err == nil {
		t.Fatalf("expected error for tiny stack")
	}
}

func TestCompleteListsVisibleNames(t *testing.T) {
	engine := MustNewEngine(Config{})
	execSource(t, engine, "var mean_value = 1")
	got := engine.Complete("mea")
	if len(got) != 2 || got[0] != "mean" || got[1] != "mean_value" {
		t.Fatalf("unexpected completions %v", got)
	}
}

func TestDivisionByZeroFails(t *testing.T) {
	sources := []string{
		"1 / 0",
		"let z = 0\n5 / z",
		"{1, 2} / 0",
		"{1, 2} / {1, 0}",
		"4 / {2, 0}",
		"{{1}, {2}} / {{1}, {0}}",
	}
	for _, source := range sources {
		err := execFailure(t, source)
		var re *RuntimeError
		if !errors.As(err, &re) || !strings.Contains(re.Message, "division by zero") {
			t.Fatalf("%q: expected division by zero, got %v", source, err)
		}
	}
	expectDouble(t, evalSource(t, "0 / 5"), 0)
}

func TestReferenceToElementSurvivesGrowth(t *testing.T) {
	source := strings.Join([]string{
		"func grow(v&, el&) =",
		"\tv += 2",
		"\tv += 3",
		"\tv += 4",
		"\tel = 9",
		"\treturn 0",
		"var a = {1}",
		"grow:",
		"\tv: a",
		"\tel: a[0]",
		"a",
	}, "\n")
	if got := evalSource(t, source).String(); got != "{9, 2, 3, 4}" {
		t.Fatalf("expected write through element reference, got %s", got)
	}
}
