package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testDeck = `title: demo
config:
  frame_rate: 4
slides:
  - |
    var a = 1
    tree shape = polygon({{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
  - |
    a = a + 1
    print("a is", a)
    play wait(0.5)
`

func TestRunCLIHelp(t *testing.T) {
	if err := runCLI([]string{"monocurl", "help"}); err != nil {
		t.Fatalf("runCLI help failed: %v", err)
	}
}

func TestRunCLIInvalidCommand(t *testing.T) {
	err := runCLI([]string{"monocurl", "unknown"})
	if err == nil {
		t.Fatalf("expected invalid command error")
	}
	if !strings.Contains(err.Error(), "invalid command") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunCLIWithoutCommand(t *testing.T) {
	err := runCLI([]string{"monocurl"})
	if err == nil {
		t.Fatalf("expected invalid command error")
	}
	if !strings.Contains(err.Error(), "invalid command") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunCommandRunsEverySlide(t *testing.T) {
	path := writeFile(t, "talk.yaml", testDeck)

	out, err := captureStdout(t, func() error {
		return runCommand([]string{path})
	})
	if err != nil {
		t.Fatalf("runCommand failed: %v", err)
	}
	want := "slide 0: 1 mesh(es) at t=0.00s\na is 2\nslide 1: 1 mesh(es) at t=0.50s\n"
	if out != want {
		t.Fatalf("unexpected stdout: %q", out)
	}
}

func TestRunCommandStopsAtSlide(t *testing.T) {
	path := writeFile(t, "talk.yaml", testDeck)

	out, err := captureStdout(t, func() error {
		return runCommand([]string{"-slide", "0", path})
	})
	if err != nil {
		t.Fatalf("runCommand failed: %v", err)
	}
	if strings.Contains(out, "slide 1") {
		t.Fatalf("expected only slide 0, got %q", out)
	}

	err = runCommand([]string{"-slide", "5", path})
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestRunCommandPlainOutline(t *testing.T) {
	path := writeFile(t, "single.mcl", "let x = 3\nprint(x * 2)\n")

	out, err := captureStdout(t, func() error {
		return runCommand([]string{path})
	})
	if err != nil {
		t.Fatalf("runCommand failed: %v", err)
	}
	if !strings.HasPrefix(out, "6\nslide 0:") {
		t.Fatalf("unexpected stdout: %q", out)
	}
}

func TestRunCommandReportsCompileError(t *testing.T) {
	path := writeFile(t, "broken.mcl", "let x = y\n")
	err := runCommand([]string{path})
	if err == nil || !strings.Contains(err.Error(), "unknown identifier y") {
		t.Fatalf("expected compile error, got %v", err)
	}
}

func TestRunCommandRequiresDeckPath(t *testing.T) {
	err := runCommand(nil)
	if err == nil {
		t.Fatalf("expected deck path error")
	}
	if !strings.Contains(err.Error(), "deck path required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckCommandNoIssues(t *testing.T) {
	path := writeFile(t, "talk.yaml", testDeck)

	out, err := captureStdout(t, func() error {
		return checkCommand([]string{path})
	})
	if err != nil {
		t.Fatalf("checkCommand failed: %v", err)
	}
	if !strings.Contains(out, "No issues found") {
		t.Fatalf("unexpected check output: %q", out)
	}
}

func TestCheckCommandReportsSlideAndLine(t *testing.T) {
	deck := "slides:\n  - var a = 1\n  - |\n    a = 2\n    a = b\n"
	path := writeFile(t, "bad.yaml", deck)

	out, err := captureStdout(t, func() error {
		return checkCommand([]string{path})
	})
	if err == nil || !strings.Contains(err.Error(), "check found 1 issue(s)") {
		t.Fatalf("unexpected check error: %v", err)
	}
	if !strings.Contains(out, ":1:2: unknown identifier b") {
		t.Fatalf("expected slide 1 line 2 report, got %q", out)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	runErr := fn()
	_ = w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	if _, copyErr := io.Copy(&buf, r); copyErr != nil {
		t.Fatalf("read stdout: %v", copyErr)
	}
	_ = r.Close()
	return buf.String(), runErr
}
