package monocurl

import (
	"strings"
	"testing"
)

func countingEngine(t *testing.T) (*Engine, *int) {
	t.Helper()
	engine := MustNewEngine(Config{})
	calls := 0
	err := engine.RegisterNative("tick", "", 1, func(exec *Execution, args []Value) (Value, error) {
		calls++
		return args[0], nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return engine, &calls
}

func TestFunctorRecomputesOnlyOnContentChange(t *testing.T) {
	engine, calls := countingEngine(t)
	execSource(t, engine, "func f(x) = tick(x) * 2\nvar r = f:\n\tx: 3")
	expectDouble(t, execSource(t, engine, "r + 0"), 6)
	if *calls != 1 {
		t.Fatalf("expected 1 call after construction, got %d", *calls)
	}

	expectDouble(t, execSource(t, engine, "r + 0"), 6)
	if *calls != 1 {
		t.Fatalf("expected cached result, got %d calls", *calls)
	}

	expectDouble(t, execSource(t, engine, "r.x = 5\nr + 0"), 10)
	if *calls != 2 {
		t.Fatalf("expected recompute after write, got %d calls", *calls)
	}

	expectDouble(t, execSource(t, engine, "r.x = 5\nr + 0"), 10)
	if *calls != 2 {
		t.Fatalf("expected no recompute for unchanged value, got %d calls", *calls)
	}

	expectDouble(t, execSource(t, engine, "r.x"), 5)
}

func TestFunctorCopiesAreIndependent(t *testing.T) {
	engine, calls := countingEngine(t)
	source := strings.Join([]string{
		"func f(x) = tick(x) + 1",
		"var a = f:",
		"\tx: 1",
		"var b = a",
		"b.x = 10",
		"a + 0",
	}, "\n")
	expectDouble(t, execSource(t, engine, source), 2)
	expectDouble(t, execSource(t, engine, "b + 0"), 11)
	if *calls != 2 {
		t.Fatalf("expected 2 calls, got %d", *calls)
	}
}

func TestFunctorModeGroups(t *testing.T) {
	engine := MustNewEngine(Config{})
	source := strings.Join([]string{
		"func pick(base, [style: solid(c), dashed(w, g)]) =",
		"\tif style == \"solid\"",
		"\t\treturn base + c",
		"\treturn base + w * g",
		"var r = pick:",
		"\tbase: 1",
		"\t[style: dashed]",
		"\t\tw: 2",
		"\t\tg: 3",
		"r + 0",
	}, "\n")
	expectDouble(t, execSource(t, engine, source), 7)
	expectDouble(t, execSource(t, engine, "r.style == \"dashed\""), 1)
	expectDouble(t, execSource(t, engine, "r.w = 4\nr + 0"), 13)

	_, err := engine.ExecString(t.Context(), "r.style = \"solid\"")
	if err == nil {
		t.Fatalf("expected mode name to be read-only")
	}
}

func TestFunctorFunctionArgument(t *testing.T) {
	source := strings.Join([]string{
		"func apply(f(x), v) = f(v)",
		"var r = apply:",
		"\tf: x * 2",
		"\tv: 5",
		"r + 0",
	}, "\n")
	expectDouble(t, evalSource(t, source), 10)

	err := execFailure(t, source+"\nr.v")
	if !strings.Contains(err.Error(), "attributes of apply are not accessible") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestFunctorReferenceArgument(t *testing.T) {
	source := strings.Join([]string{
		"func swap(y&) =",
		"\ty = {y[1], y[0]}",
		"\treturn 0",
		"var v = {1, 2}",
		"swap:",
		"\ty: v",
		"v[0]",
	}, "\n")
	expectDouble(t, evalSource(t, source), 2)
}

func TestFunctorCompileErrors(t *testing.T) {
	tests := []struct {
		source string
		msg    string
	}{
		{"func f(x) = x\nf:\n\ty: 1", "missing argument x for f"},
		{"func f(x) = x\nf:\n\tx: 1\n\tx: 2", "x"},
		{"func f(x&) = 0\nf(1)", "must be called with labeled arguments"},
		{"func f(x) = x\nf:", "expected an indented argument block for f"},
		{"let g = 1\ng:\n\tx: 1", "g has no named parameters"},
		{"func f(x&) = 0\nf:\n\tx: 1", "cannot assign to this expression"},
	}
	for _, tt := range tests {
		err := execFailure(t, tt.source)
		if !strings.Contains(err.Error(), tt.msg) {
			t.Fatalf("%q: expected %q in %v", tt.source, tt.msg, err)
		}
	}
}

func TestFunctorFailedRecomputeStaysDirty(t *testing.T) {
	engine := MustNewEngine(Config{})
	expectDouble(t, execSource(t, engine, "func f(x) = {1, 2}[x]\nvar r = f:\n\tx: 0\nr + 0"), 1)

	for i := 0; i < 2; i++ {
		_, err := engine.ExecString(t.Context(), "r.x = 5\nr + 0")
		if err == nil || !strings.Contains(err.Error(), "out of range") {
			t.Fatalf("attempt %d: expected out of range error, got %v", i, err)
		}
		engine.Reset()
	}
	_, err := engine.ExecString(t.Context(), "r + 0")
	if err == nil {
		t.Fatalf("expected stale result to be recomputed")
	}
	engine.Reset()

	expectDouble(t, execSource(t, engine, "r.x = 1\nr + 0"), 2)
}
