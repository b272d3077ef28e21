package monocurl

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		source string
		want   float64
	}{
		{"1 - 2 * 3 == -5", 1},
		{"(1 - 2) * 3 == -3", 1},
		{"4 * -2 ** -3 * 4 + 4 - 3", 4*-math.Pow(2, -3)*4 + 4 - 3},
		{"2 ** 3 ** 2", 512},
		{"-2 ** 2", -4},
		{"10 - 4 - 3", 3},
		{"12 / 4 / 3", 1},
		{"1 + 2 < 4 && 3 > 2", 1},
		{"0 || 2 == 2", 1},
		{"!0 + 1", 2},
		{"3 in {1, 2, 3}", 1},
		{"len(1 :< 4)", 3},
		{"1 < 2 == 1", 1},
	}
	for _, tt := range tests {
		got := evalSource(t, tt.source)
		if got.Kind() != KindDouble || got.Double() != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.source, tt.want, got)
		}
	}
}

func TestLiteralForms(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"{}", "{}"},
		{"{:}", "{:}"},
		{"{1, {2, 3}}", "{1, {2, 3}}"},
		{"{1: 2, 3: 4}", "{1: 2, 3: 4}"},
		{"\"hi\"", "\"hi\""},
		{"'c'", "c"},
	}
	for _, tt := range tests {
		if got := evalSource(t, tt.source).String(); got != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.source, tt.want, got)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		source string
		msg    string
	}{
		{"{1, 2: 3}", "ambiguous literal"},
		{"1 +", "unexpected end of line"},
		{"(1", "expected ')'"},
		{"let = 2", "expected identifier"},
		{"let if = 2", "if is a reserved word"},
		{"let a = 1\na = 2", "cannot assign to constant a"},
		{"return 1", "return outside of a function"},
		{"func f(a, a) = a", "duplicate parameter a"},
		{"let a = 1 2", "unexpected \"2\""},
		{"1\n\t2", "unexpected indented block"},
		{"while 1", "expected an indented block"},
		{"x: 1", "outside of an argument block"},
		{"1 /* open", "unterminated comment"},
		{"func f(a&) = a\nf(1)", "must be called with labeled arguments"},
	}
	for _, tt := range tests {
		_, err := MustNewEngine(Config{}).ExecString(context.Background(), tt.source)
		var ce *CompileError
		if !errors.As(err, &ce) {
			t.Fatalf("%q: expected CompileError, got %v", tt.source, err)
		}
		if !strings.Contains(ce.Message, tt.msg) {
			t.Fatalf("%q: expected %q in %q", tt.source, tt.msg, ce.Message)
		}
	}
}

func TestCompileErrorReportsPosition(t *testing.T) {
	_, err := MustNewEngine(Config{}).ExecString(context.Background(), "let a = 1\nlet b = a + ?")
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if ce.Pos.Line != 1 || ce.Pos.Column != 13 {
		t.Fatalf("unexpected position %+v", ce.Pos)
	}
}

func TestParseSignature(t *testing.T) {
	sig, err := parseSignature("a, b&, f(x, y), [style: solid(color), dashed(width, gap)]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := sig.String(); got != "(a, b&, f(x, y), [style: solid(color), dashed(width, gap)])" {
		t.Fatalf("unexpected signature %s", got)
	}
	if sig.width() != 7 {
		t.Fatalf("expected width 7, got %d", sig.width())
	}
	if !sig.needsFunctor() {
		t.Fatalf("expected labeled-call signature")
	}
	if _, err := parseSignature("a, [m: x(a)]"); err == nil {
		t.Fatalf("expected duplicate parameter error")
	}
}
