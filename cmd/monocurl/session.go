package main

import (
	"bytes"
	"context"
	"strings"

	"github.com/monocurl/monocurl-sub000/monocurl"
)

var blockKeywords = []string{"if ", "else", "for ", "while ", "func "}

// session evaluates REPL input against one engine. Lines that open a block
// are buffered until an empty line ends the block.
type session struct {
	engine  *monocurl.Engine
	output  *bytes.Buffer
	pending []string
}

func newSession() *session {
	s := &session{output: new(bytes.Buffer)}
	s.reset()
	return s
}

func (s *session) reset() {
	s.output.Reset()
	s.pending = nil
	s.engine = monocurl.MustNewEngine(monocurl.Config{Output: s.output})
}

func (s *session) continuing() bool {
	return len(s.pending) > 0
}

// submit feeds one line. done is false while a block is still open.
func (s *session) submit(line string) (output string, isErr bool, done bool) {
	if s.continuing() {
		if strings.TrimSpace(line) == "" {
			source := strings.Join(s.pending, "\n")
			s.pending = nil
			output, isErr = s.evaluate(source)
			return output, isErr, true
		}
		s.pending = append(s.pending, indentContinuation(line))
		return "", false, false
	}

	input := strings.TrimSpace(line)
	if opensBlock(input) {
		s.pending = []string{input}
		return "", false, false
	}
	output, isErr = s.evaluate(input)
	return output, isErr, true
}

func opensBlock(input string) bool {
	if strings.HasSuffix(input, ":") || strings.HasSuffix(input, "=") {
		return true
	}
	for _, kw := range blockKeywords {
		if strings.HasPrefix(input, kw) && !strings.Contains(input, " = ") {
			return true
		}
	}
	return false
}

// indentContinuation converts leading pairs of spaces to tabs and indents
// unindented lines one level under the block header.
func indentContinuation(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	prefix := line[:len(line)-len(trimmed)]
	depth := strings.Count(prefix, "\t") + strings.Count(prefix, " ")/2
	if depth == 0 {
		depth = 1
	}
	return strings.Repeat("\t", depth) + trimmed
}

func (s *session) evaluate(source string) (string, bool) {
	s.output.Reset()
	result, err := s.engine.ExecString(context.Background(), source)
	printed := strings.TrimRight(s.output.String(), "\n")
	if err != nil {
		if s.engine.State() == monocurl.StateError {
			s.engine.Reset()
		}
		if printed != "" {
			return printed + "\n" + err.Error(), true
		}
		return err.Error(), true
	}
	if result.IsUninitialized() {
		if printed != "" {
			return printed, false
		}
		return "ok", false
	}
	if printed != "" {
		return printed + "\n" + result.String(), false
	}
	return result.String(), false
}

func (s *session) globals() []monocurl.Binding {
	return s.engine.Globals()
}

func (s *session) complete(prefix string) []string {
	if prefix == "" {
		return nil
	}
	var out []string
	for _, kw := range []string{"let", "var", "tree", "func", "for", "while", "if", "else", "play", "return", "sticky", "in"} {
		if strings.HasPrefix(kw, prefix) {
			out = append(out, kw)
		}
	}
	return append(out, s.engine.Complete(prefix)...)
}
