package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/monocurl/monocurl-sub000/monocurl"
)

func newTestPlayer(t *testing.T, slides ...string) playerModel {
	t.Helper()
	deck := &monocurl.Deck{Title: "talk", Slides: slides}
	m, err := newPlayerModel(t.Context(), deck)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	return m
}

// step feeds msg to the model and runs the returned command once.
func step(t *testing.T, m playerModel, msg tea.Msg) (playerModel, tea.Msg) {
	t.Helper()
	model, cmd := m.Update(msg)
	pm, ok := model.(playerModel)
	if !ok {
		t.Fatalf("unexpected model type %T", model)
	}
	if cmd == nil {
		return pm, nil
	}
	return pm, cmd()
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPlayerRunsFirstSlideOnInit(t *testing.T) {
	m := newTestPlayer(t, "var a = 1", "a = 2")

	msg := m.Init()()
	if _, ok := msg.(replayMsg); !ok {
		t.Fatalf("expected replayMsg from Init, got %T", msg)
	}
	m, done := step(t, m, msg)
	if !m.playing {
		t.Fatalf("expected player to be playing")
	}
	result, ok := done.(slideDoneMsg)
	if !ok || result.err != nil {
		t.Fatalf("unexpected run result %#v", done)
	}
	m, _ = step(t, m, result)
	if m.playing || m.frame.Slide != 0 {
		t.Fatalf("expected stopped on slide 0, got playing=%v slide=%d", m.playing, m.frame.Slide)
	}
}

func TestPlayerNavigatesSlides(t *testing.T) {
	m := newTestPlayer(t, "var a = 1", "a = 2")
	m, done := step(t, m, replayMsg{})
	m, _ = step(t, m, done)

	m, done = step(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.slide != 1 {
		t.Fatalf("expected slide 1, got %d", m.slide)
	}
	m, _ = step(t, m, done)
	if m.frame.Slide != 1 || m.err != nil {
		t.Fatalf("unexpected frame after next: slide=%d err=%v", m.frame.Slide, m.err)
	}

	m, done = step(t, m, runeKey("n"))
	if done != nil || m.slide != 1 {
		t.Fatalf("next past the last slide should do nothing")
	}

	m, done = step(t, m, runeKey("p"))
	if done != nil {
		t.Fatalf("expected cached frame for previous slide, got %T", done)
	}
	if m.slide != 0 || m.frame.Slide != 0 || m.playing {
		t.Fatalf("unexpected state after previous: slide=%d frame=%d", m.slide, m.frame.Slide)
	}
}

func TestPlayerIgnoresStaleRuns(t *testing.T) {
	m := newTestPlayer(t, "var a = 1")
	m, done := step(t, m, replayMsg{})
	stale := done.(slideDoneMsg)
	m, _ = step(t, m, replayMsg{})

	m, _ = step(t, m, stale)
	if !m.playing {
		t.Fatalf("stale run result should not stop the current run")
	}
}

func TestPlayerShowsRuntimeErrors(t *testing.T) {
	m := newTestPlayer(t, "var v = {1}\nv[3]")
	m, done := step(t, m, replayMsg{})
	m, _ = step(t, m, done)
	if m.err == nil || !strings.Contains(m.err.Error(), "out of range") {
		t.Fatalf("expected runtime error, got %v", m.err)
	}
	m.width = 80
	if view := m.View(); !strings.Contains(view, "out of range") {
		t.Fatalf("expected error in view, got %q", view)
	}
}

func TestPlayerQuit(t *testing.T) {
	m := newTestPlayer(t, "var a = 1")
	model, cmd := m.Update(runeKey("q"))
	if !model.(playerModel).quitting {
		t.Fatalf("quitting flag not set")
	}
	if cmd == nil {
		t.Fatalf("expected tea.Quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected QuitMsg")
	}
}

func TestRenderFramePanelListsMeshes(t *testing.T) {
	m := newTestPlayer(t, "tree shape = polygon({{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})")
	m, done := step(t, m, replayMsg{})
	m, _ = step(t, m, done)
	if len(m.frame.Meshes) != 1 {
		t.Fatalf("expected one mesh, got %d", len(m.frame.Meshes))
	}
	if panel := renderFramePanel(monocurl.Frame{}); !strings.Contains(panel, "no meshes shown") {
		t.Fatalf("expected empty panel placeholder, got %q", panel)
	}
}
