package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/monocurl/monocurl-sub000/monocurl"
)

func newTestWatcher(t *testing.T, slides ...string) (*deckWatcher, *bytes.Buffer) {
	t.Helper()
	deck := &monocurl.Deck{Slides: slides}
	data, err := deck.Encode()
	if err != nil {
		t.Fatalf("encode deck: %v", err)
	}
	path := writeFile(t, "watched.yaml", string(data))
	var out bytes.Buffer
	w, err := newDeckWatcher(path, &out, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	return w, &out
}

func watchedValue(t *testing.T, w *deckWatcher, slide int, name string) float64 {
	t.Helper()
	if _, err := w.tl.Run(context.Background(), slide); err != nil {
		t.Fatalf("run slide %d: %v", slide, err)
	}
	v, ok := w.tl.Engine().Global(name)
	if !ok || v.Kind() != monocurl.KindDouble {
		t.Fatalf("global %s missing after slide %d", name, slide)
	}
	return v.Double()
}

func TestDeckWatcherAppliesOnlyChangedSlides(t *testing.T) {
	w, _ := newTestWatcher(t, "var a = 1", "a = a + 1")
	if w.tl.Len() != 2 {
		t.Fatalf("expected 2 slides, got %d", w.tl.Len())
	}
	if got := watchedValue(t, w, 1, "a"); got != 2 {
		t.Fatalf("expected a = 2, got %v", got)
	}

	first, err := w.apply(&monocurl.Deck{Slides: []string{"var a = 1", "a = a + 5"}})
	if err != nil {
		t.Fatalf("apply edit: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected first change at slide 1, got %d", first)
	}
	if _, ok := w.tl.Cached(0); !ok {
		t.Fatalf("unchanged slide lost its cache")
	}
	if got := watchedValue(t, w, 1, "a"); got != 6 {
		t.Fatalf("expected a = 6, got %v", got)
	}

	first, err = w.apply(&monocurl.Deck{Slides: []string{"var a = 1", "a = a + 5"}})
	if err != nil || first != -1 {
		t.Fatalf("expected no change, got %d %v", first, err)
	}
}

func TestDeckWatcherAppendsAndRemovesSlides(t *testing.T) {
	w, _ := newTestWatcher(t, "var a = 1", "a = a + 1")

	first, err := w.apply(&monocurl.Deck{Slides: []string{"var a = 1", "a = a + 1", "a = a * 3"}})
	if err != nil {
		t.Fatalf("apply append: %v", err)
	}
	if first != 2 || w.tl.Len() != 3 {
		t.Fatalf("expected append at 2 with 3 slides, got %d and %d", first, w.tl.Len())
	}
	if got := watchedValue(t, w, 2, "a"); got != 6 {
		t.Fatalf("expected a = 6, got %v", got)
	}

	first, err = w.apply(&monocurl.Deck{Slides: []string{"var a = 1"}})
	if err != nil {
		t.Fatalf("apply removal: %v", err)
	}
	if first != 1 || w.tl.Len() != 1 {
		t.Fatalf("expected removal reported at 1 with 1 slide, got %d and %d", first, w.tl.Len())
	}
}

func TestDeckWatcherReportsCompileErrors(t *testing.T) {
	w, out := newTestWatcher(t, "var a = 1", "a = missing")
	if out.Len() == 0 {
		t.Fatalf("expected initial compile error to be printed")
	}

	_, err := w.apply(&monocurl.Deck{Slides: []string{"var a = 1", "a = 2"}})
	if err != nil {
		t.Fatalf("apply fix: %v", err)
	}
	if got := watchedValue(t, w, 1, "a"); got != 2 {
		t.Fatalf("expected a = 2, got %v", got)
	}
}
