package monocurl

import (
	"context"
	"testing"
)

func outline(t *testing.T, text string) *Group {
	t.Helper()
	doc, err := ParseOutline(text)
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	return doc
}

func newTestTimeline(t *testing.T, slides ...string) *Timeline {
	t.Helper()
	tl, err := NewTimeline(Config{FrameRate: 4})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	docs := make([]*Group, len(slides))
	for i, s := range slides {
		docs[i] = outline(t, s)
	}
	if err := tl.Load(docs); err != nil {
		t.Fatalf("load: %v", err)
	}
	return tl
}

func globalDouble(t *testing.T, tl *Timeline, name string) float64 {
	t.Helper()
	v, ok := tl.Engine().Global(name)
	if !ok {
		t.Fatalf("global %s not visible", name)
	}
	if v.Kind() != KindDouble {
		t.Fatalf("global %s is %s", name, v.Kind())
	}
	return v.Double()
}

var counterSlides = []string{
	"var a = 1\ntree shape = polygon({{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})",
	"a = a + 1",
	"a = a * 10",
}

func TestTimelineRunsAcrossSlides(t *testing.T) {
	tl := newTestTimeline(t, counterSlides...)
	frame, err := tl.Run(context.Background(), 2)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := globalDouble(t, tl, "a"); got != 20 {
		t.Fatalf("expected 20, got %v", got)
	}
	if frame.Slide != 2 || len(frame.Meshes) != 1 {
		t.Fatalf("unexpected frame %+v", frame)
	}
	for i := 0; i < 3; i++ {
		if _, ok := tl.Cached(i); !ok {
			t.Fatalf("expected slide %d to be cached", i)
		}
	}
}

func TestTimelineEditKeepsEarlierCaches(t *testing.T) {
	tl := newTestTimeline(t, counterSlides...)
	if _, err := tl.Run(context.Background(), 2); err != nil {
		t.Fatalf("run: %v", err)
	}
	first := tl.caches[1]

	if err := tl.Edit(2, outline(t, "a = a * 15")); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if _, ok := tl.Cached(2); ok {
		t.Fatalf("expected edited slide cache to be dropped")
	}
	if _, err := tl.Run(context.Background(), 2); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := globalDouble(t, tl, "a"); got != 30 {
		t.Fatalf("expected 30, got %v", got)
	}
	if tl.caches[1] != first {
		t.Fatalf("expected cache of untouched slide to be reused")
	}
}

func TestTimelineJumpIndices(t *testing.T) {
	tl := newTestTimeline(t, counterSlides...)
	if _, err := tl.Run(context.Background(), 2); err != nil {
		t.Fatalf("run: %v", err)
	}
	symbols := tl.Engine().symbols
	shape, a, pi := symbols.lookup("shape"), symbols.lookup("a"), symbols.lookup("PI")
	last := tl.caches[3]
	if last.jump[shape.slot] != 1 {
		t.Fatalf("expected shape to jump to position 1, got %d", last.jump[shape.slot])
	}
	if last.jump[a.slot] != 3 {
		t.Fatalf("expected a to be fresh at position 3, got %d", last.jump[a.slot])
	}
	if last.jump[pi.slot] != 0 {
		t.Fatalf("expected prelude constant to jump to position 0, got %d", last.jump[pi.slot])
	}
	if last.fresh != 1 {
		t.Fatalf("expected a single fresh slot, got %d", last.fresh)
	}
}

func TestTimelineRunRestoresFromCache(t *testing.T) {
	tl := newTestTimeline(t, counterSlides...)
	if _, err := tl.Run(context.Background(), 2); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := tl.Run(context.Background(), 1); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := globalDouble(t, tl, "a"); got != 2 {
		t.Fatalf("expected 2 after rerunning slide 1, got %v", got)
	}
	if _, err := tl.Run(context.Background(), 0); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := globalDouble(t, tl, "a"); got != 1 {
		t.Fatalf("expected 1 after rerunning slide 0, got %v", got)
	}
}

func TestTimelineRecompileIsIdempotent(t *testing.T) {
	tl := newTestTimeline(t, counterSlides...)
	for round := 0; round < 3; round++ {
		if err := tl.Edit(1, outline(t, counterSlides[1])); err != nil {
			t.Fatalf("round %d edit: %v", round, err)
		}
		if _, err := tl.Run(context.Background(), 2); err != nil {
			t.Fatalf("round %d run: %v", round, err)
		}
		if got := globalDouble(t, tl, "a"); got != 20 {
			t.Fatalf("round %d: expected 20, got %v", round, got)
		}
	}
}

func TestTimelineCompileErrorStopsLaterSlides(t *testing.T) {
	tl := newTestTimeline(t, counterSlides...)
	err := tl.Edit(1, outline(t, "a = b"))
	if err == nil {
		t.Fatalf("expected compile error")
	}
	if s := tl.Slide(1); s.Compiled() || s.Err == nil || s.Err.Slide != 1 {
		t.Fatalf("unexpected slide state %+v", s)
	}
	if tl.Slide(2).Compiled() {
		t.Fatalf("expected later slide to stay uncompiled")
	}
	if _, err := tl.Run(context.Background(), 2); err == nil {
		t.Fatalf("expected run to report the compile error")
	}
	if _, err := tl.Run(context.Background(), 0); err != nil {
		t.Fatalf("expected earlier slide to run: %v", err)
	}

	if err := tl.Edit(1, outline(t, "a = a + 1")); err != nil {
		t.Fatalf("repair: %v", err)
	}
	if _, err := tl.Run(context.Background(), 2); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := globalDouble(t, tl, "a"); got != 20 {
		t.Fatalf("expected 20, got %v", got)
	}
}

func TestTimelineInsertAndRemove(t *testing.T) {
	tl := newTestTimeline(t, counterSlides...)
	if err := tl.Insert(1, outline(t, "a = a + 100")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if tl.Len() != 4 {
		t.Fatalf("expected 4 slides, got %d", tl.Len())
	}
	if _, err := tl.Run(context.Background(), 3); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := globalDouble(t, tl, "a"); got != 1020 {
		t.Fatalf("expected 1020, got %v", got)
	}

	if err := tl.Remove(1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := tl.Run(context.Background(), 2); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := globalDouble(t, tl, "a"); got != 20 {
		t.Fatalf("expected 20, got %v", got)
	}
	if err := tl.Remove(5); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestTimelineSymbolsDoNotLeakBetweenLoads(t *testing.T) {
	tl := newTestTimeline(t, counterSlides...)
	if err := tl.Load([]*Group{outline(t, "a")}); err == nil {
		t.Fatalf("expected a to be unknown after reload")
	}
	if err := tl.Load([]*Group{outline(t, "var a = 5"), outline(t, "a")}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, err := tl.Run(context.Background(), 1); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := globalDouble(t, tl, "a"); got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
}

func TestTimelineRuntimeErrorRecorded(t *testing.T) {
	tl := newTestTimeline(t, "var v = {1}", "v[3]")
	_, err := tl.Run(context.Background(), 1)
	if err == nil {
		t.Fatalf("expected runtime error")
	}
	if s := tl.Slide(1); s.Err == nil || s.Err.Slide != 1 || s.Err.Kind != ErrorRuntime {
		t.Fatalf("unexpected slide error %+v", s.Err)
	}
	if _, err := tl.Run(context.Background(), 0); err != nil {
		t.Fatalf("expected timeline to recover: %v", err)
	}
}
