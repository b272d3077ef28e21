package monocurl

import (
	"strings"
	"testing"
)

func TestBuiltinNatives(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"abs(-2)", "2"},
		{"abs({-1, 2})", "{1, 2}"},
		{"floor(2.7) + ceil(2.1) + round(2.5)", "8"},
		{"sqrt(16)", "4"},
		{"sign(-3)", "-1"},
		{"min(3, 1, 2)", "1"},
		{"max({3, 7, 2})", "7"},
		{"mod(-1, 3)", "2"},
		{"mod(5, -3)", "-1"},
		{"clamp(5, 0, 2)", "2"},
		{"round(deg(PI))", "180"},
		{"atan2(0, 1)", "0"},
		{"sum({1, 2, 3})", "6"},
		{"mean({1, 2, 3, 6})", "3"},
		{"variance({1, 3})", "1"},
		{"stdev({2, 4, 4, 4, 5, 5, 7, 9})", "2"},
		{"median({5, 1, 3})", "3"},
		{"median({4, 1, 3, 2})", "2.5"},
		{"len(\"abc\")", "3"},
		{"len({1: 2})", "1"},
		{"append({1}, 2)", "{1, 2}"},
		{"pop({1, 2})", "{1}"},
		{"reverse({1, 2, 3})", "{3, 2, 1}"},
		{"sort({3, 1, 2})", "{1, 2, 3}"},
		{"sort({\"b\", 1, \"a\"})", "{1, \"a\", \"b\"}"},
		{"range(3)", "{0, 1, 2}"},
		{"range(1, 2, 0.5)", "{1, 1.5}"},
		{"range(3, 0, -1)", "{3, 2, 1}"},
		{"range(2, 1)", "{}"},
		{"zip({1, 2, 3}, {4, 5})", "{{1, 4}, {2, 5}}"},
		{"keys({\"a\": 1, \"b\": 2})", "{\"a\", \"b\"}"},
		{"values({\"a\": 1, \"b\": 2})", "{1, 2}"},
		{"has({1, 2}, 2)", "1"},
		{"has({\"a\": 1}, \"b\")", "0"},
		{"remove({1, 2, 3}, 1)", "{1, 3}"},
		{"remove({\"a\": 1, \"b\": 2}, \"a\")", "{\"b\": 2}"},
		{"slice({1, 2, 3, 4}, 1, -1)", "{2, 3}"},
		{"concat({1}, {2, 3}, {})", "{1, 2, 3}"},
		{"dot({1, 2, 3}, {4, 5, 6})", "32"},
		{"cross({1, 0, 0}, {0, 1, 0})", "{0, 0, 1}"},
		{"norm({3, 4})", "5"},
		{"normalize({0, 2})", "{0, 1}"},
		{"mix(0, 10, 0.25)", "2.5"},
		{"mix({0, 0}, {2, 4}, 0.5)", "{1, 2}"},
		{"mesh_points(translate(polygon({{0, 0, 0}, {1, 0, 0}}), {1, 1, 0}))", "{{1, 1, 0}, {2, 1, 0}}"},
		{"mesh_points(scale(polygon({{1, 1, 1}, {2, 0, 0}}), 2))", "{{2, 2, 2}, {4, 0, 0}}"},
		{"mesh_tag(polygon({{0, 0, 0}, {1, 0, 0}}, 3))", "{3}"},
		{"str(12)", "\"12\""},
		{"str({1, 'a'})", "\"{1, a}\""},
	}
	for _, tt := range tests {
		got := evalSource(t, tt.source)
		if got.String() != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.source, tt.want, got)
		}
	}
}

func TestBuiltinNativeErrors(t *testing.T) {
	tests := []struct {
		source string
		msg    string
	}{
		{"sqrt(-1)", "sqrt"},
		{"mod(1, 0)", "mod by zero"},
		{"clamp(1, 3, 2)", "clamp bounds are inverted"},
		{"mean({})", "mean"},
		{"pop({})", "pop from an empty vector"},
		{"range(1, 2, 0)", "range step must not be zero"},
		{"range(100000000)", "exceeds the heap limit"},
		{"slice({1, 2}, 2, 1)", "slice bounds are inverted"},
		{"cross({1, 0}, {0, 1})", "cross expects 3 component vectors"},
		{"normalize({0, 0})", "normalize of a zero vector"},
		{"polygon({{0, 0, 0}})", "polygon needs at least 2 points"},
		{"len(3)", "len expects a vector or map, got double"},
		{"abs(\"x\")", "abs"},
		{"dot({1}, {1, 2})", "dot expects vectors of equal length"},
	}
	for _, tt := range tests {
		err := execFailure(t, tt.source)
		if !strings.Contains(err.Error(), tt.msg) {
			t.Fatalf("%s: expected %q in %v", tt.source, tt.msg, err)
		}
	}
}

func TestBuiltinsDoNotMutateArguments(t *testing.T) {
	source := strings.Join([]string{
		"var m = {\"a\": 1, \"b\": 2}",
		"var v = {3, 1, 2}",
		"let r = remove(m, \"a\")",
		"let s = sort(v)",
		"let p = pop(v)",
		"len(m) * 100 + v[0] * 10 + len(v)",
	}, "\n")
	expectDouble(t, evalSource(t, source), 233)
}

func TestPreludeValues(t *testing.T) {
	engine := MustNewEngine(Config{})
	expectDouble(t, execSource(t, engine, "TAU / PI"), 2)
	if got := execSource(t, engine, "camera.origin").String(); got != "{0, 0, -4}" {
		t.Fatalf("unexpected camera origin %s", got)
	}
	if got := execSource(t, engine, "background").String(); got != "{0, 0, 0, 1}" {
		t.Fatalf("unexpected background %s", got)
	}
	if globals := engine.Globals(); len(globals) != 0 {
		t.Fatalf("expected prelude to stay out of Globals, got %v", globals)
	}
	if _, err := engine.ExecString(t.Context(), "PI = 3"); err == nil {
		t.Fatalf("expected prelude constant to be read-only")
	}
}
