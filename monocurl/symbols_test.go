package monocurl

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestClosureSeesConstBinding(t *testing.T) {
	source := strings.Join([]string{
		"let scale = 5",
		"func times(x) = x * scale",
		"func outer(a) =",
		"\tfunc inner(b) = a + b + scale",
		"\treturn inner(1)",
		"times(2) + outer(10)",
	}, "\n")
	expectDouble(t, evalSource(t, source), 26)
}

func TestCaptureOfMutableVariableFails(t *testing.T) {
	_, err := MustNewEngine(Config{}).ExecString(context.Background(), "var count = 1\nfunc f() = count + 1")
	var ce *CompileError
	if !errors.As(err, &ce) || !strings.Contains(ce.Message, "cannot capture mutable variable count") {
		t.Fatalf("expected capture error, got %v", err)
	}
}

func TestCapturesAreCopiedAtDeclaration(t *testing.T) {
	source := strings.Join([]string{
		"var fns = {}",
		"for i in 0 :< 3",
		"\tfunc f() = i * 10",
		"\tfns += f",
		"fns[0]() + fns[2]()",
	}, "\n")
	expectDouble(t, evalSource(t, source), 20)
}

func TestShadowingInNestedBlocks(t *testing.T) {
	source := strings.Join([]string{
		"var x = 1",
		"var seen = 0",
		"if 1",
		"\tlet x = 100",
		"\tseen = x",
		"x + seen",
	}, "\n")
	expectDouble(t, evalSource(t, source), 101)
}

func TestRedeclarationInSameScope(t *testing.T) {
	engine := MustNewEngine(Config{})
	expectDouble(t, execSource(t, engine, "let a = 1\nlet a = a + 1\na"), 2)

	_, err := engine.ExecString(context.Background(), "var b = 1\nlet b = 2")
	if err == nil || !strings.Contains(err.Error(), "already declared in this scope with a different kind") {
		t.Fatalf("expected redeclaration error, got %v", err)
	}
}

func TestSymbolTableRollback(t *testing.T) {
	st := newSymbolTable()
	if _, err := st.declare("a", symConst, nil); err != nil {
		t.Fatalf("declare: %v", err)
	}
	mark := st.mark()
	if _, err := st.declare("b", 0, nil); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if _, err := st.declare("a", symConst, nil); err != nil {
		t.Fatalf("redeclare: %v", err)
	}
	st.rollback(mark)
	if st.lookup("b") != nil {
		t.Fatalf("b should be gone")
	}
	if s := st.lookup("a"); s == nil || s.slot != 0 {
		t.Fatalf("expected original a, got %+v", s)
	}
	if st.fn.nextSlot != 1 {
		t.Fatalf("expected next slot 1, got %d", st.fn.nextSlot)
	}
}

func TestBlockSlotsAreReused(t *testing.T) {
	st := newSymbolTable()
	st.beginBlock()
	st.declare("x", 0, nil)
	st.declare("y", 0, nil)
	base, count := st.endBlock()
	if base != 0 || count != 2 {
		t.Fatalf("unexpected block range %d+%d", base, count)
	}
	st.beginBlock()
	s, _ := st.declare("z", 0, nil)
	st.endBlock()
	if s.slot != 0 || st.fn.frameSize != 2 {
		t.Fatalf("expected reuse of slot 0 with frame size 2, got slot %d size %d", s.slot, st.fn.frameSize)
	}
}

func TestCaptureChainsThroughEnclosingFunctions(t *testing.T) {
	st := newSymbolTable()
	outer, _ := st.declare("k", symConst, nil)
	st.beginFunction()
	st.beginFunction()
	idx := st.capture(st.fn, outer)
	if idx != 0 || len(st.fn.captures) != 1 || st.fn.captures[0].local {
		t.Fatalf("inner capture should come from the enclosing closure: %+v", st.fn.captures)
	}
	middle := st.fn.parent
	if len(middle.captures) != 1 || !middle.captures[0].local || middle.captures[0].index != outer.slot {
		t.Fatalf("middle capture should read the root slot: %+v", middle.captures)
	}
}

func TestSuggestFindsClosestName(t *testing.T) {
	st := newSymbolTable()
	for _, name := range []string{"radius", "center", "color"} {
		st.declare(name, 0, nil)
	}
	if got := st.suggest("radus"); got != "radius" {
		t.Fatalf("expected radius, got %q", got)
	}
	if got := st.suggest("zzz"); got != "" {
		t.Fatalf("expected no suggestion, got %q", got)
	}
}

func TestPreludeNamesCanBeShadowed(t *testing.T) {
	tests := []struct {
		source string
		want   float64
	}{
		{"let scale = 5\nscale", 5},
		{"let sum = 1\nsum + 1", 2},
		{"var min = 3\nmin = min * 2\nmin", 6},
		{"func len(x) = 42\nlen({1})", 42},
		{"let PI = 3\nPI", 3},
		{"let mean = 4\nmean", 4},
	}
	for _, tt := range tests {
		expectDouble(t, evalSource(t, tt.source), tt.want)
	}
}

func TestShadowedNativeIsRestoredOnRollback(t *testing.T) {
	engine := MustNewEngine(Config{})
	if _, err := engine.ExecString(context.Background(), "let len = 1\nmissing"); err == nil {
		t.Fatalf("expected compile error")
	}
	expectDouble(t, execSource(t, engine, "len({1, 2, 3})"), 3)
}
