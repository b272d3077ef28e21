package monocurl

import (
	"errors"
	"testing"
)

func TestParseOutlineStructure(t *testing.T) {
	text := "let a = 1\n\ncircle:\n\tradius: 2\n\t[fill: solid]\n\t\tcolor: {1, 0, 0}\nplay wait(1)"
	doc, err := ParseOutline(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Children) != 3 {
		t.Fatalf("expected 3 top-level nodes, got %d", len(doc.Children))
	}

	call, ok := doc.Children[1].(*Entry)
	if !ok || call.Value != "circle:" || call.Line != 2 {
		t.Fatalf("unexpected call entry %+v", doc.Children[1])
	}
	if call.Body == nil || len(call.Body.Children) != 2 {
		t.Fatalf("expected argument block, got %+v", call.Body)
	}
	radius := call.Body.Children[0].(*Entry)
	if radius.Title != "radius" || radius.Value != "2" {
		t.Fatalf("unexpected titled entry %+v", radius)
	}
	group, ok := call.Body.Children[1].(*Group)
	if !ok || group.Tag != "fill" || group.Mode != "solid" || len(group.Children) != 1 {
		t.Fatalf("unexpected mode group %+v", call.Body.Children[1])
	}
	if last := doc.Children[2].(*Entry); last.Line != 6 {
		t.Fatalf("expected blank lines to count, got line %d", last.Line)
	}
}

func TestParseOutlineIndentationErrors(t *testing.T) {
	tests := []struct {
		text string
		line int
		msg  string
	}{
		{"a\n\t\tb", 1, "illegal indentation"},
		{"a\n  b", 1, "illegal indentation: use tabs"},
		{"\tb", 0, "illegal indentation"},
	}
	for _, tt := range tests {
		_, err := ParseOutline(tt.text)
		var oe *OutlineError
		if !errors.As(err, &oe) {
			t.Fatalf("%q: expected OutlineError, got %v", tt.text, err)
		}
		if oe.Line != tt.line || oe.Message != tt.msg {
			t.Fatalf("%q: unexpected error %+v", tt.text, oe)
		}
	}
}

func TestFormatOutlineRoundTrip(t *testing.T) {
	text := "func f(x) =\n\treturn x\nf:\n\tx: 1\n\t[mode: a]\n\t\tv: 2\n"
	doc, err := ParseOutline(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := FormatOutline(doc); got != text {
		t.Fatalf("round trip mismatch:\n%q\n%q", got, text)
	}
}
