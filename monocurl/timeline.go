package monocurl

import (
	"context"
	"errors"
	"fmt"
)

// Slide is one timeline entry.
type Slide struct {
	Doc *Group
	// Err is the last compile or run failure of this slide.
	Err *SlideError

	prog *program
}

// Compiled reports whether the slide currently has a compiled program.
func (s *Slide) Compiled() bool {
	return s.prog != nil
}

// Timeline is an ordered list of slides compiled against one engine. Each
// slide compiles under the symbols left by its predecessor and caches its
// ending root state so later runs can start from the nearest cache.
type Timeline struct {
	engine *Engine
	slides []*Slide
	caches []*trailingCache
}

// NewTimeline builds an empty timeline on a fresh engine.
func NewTimeline(cfg Config) (*Timeline, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	t := &Timeline{engine: engine}
	t.caches = []*trailingCache{t.preludeCache()}
	return t, nil
}

func (t *Timeline) preludeCache() *trailingCache {
	exec := t.engine.exec
	c := exec.blit(0, nil, nil)
	f, err := exec.frame(t.engine.currentView())
	if err == nil {
		c.frame = f
	}
	c.frame.Slide = -1
	return c
}

func (t *Timeline) Engine() *Engine { return t.engine }
func (t *Timeline) Len() int        { return len(t.slides) }

func (t *Timeline) Slide(i int) *Slide {
	if i < 0 || i >= len(t.slides) {
		return nil
	}
	return t.slides[i]
}

func (t *Timeline) Slides() []*Slide {
	return append([]*Slide(nil), t.slides...)
}

// Load replaces every slide and compiles them in order. The returned error
// is the first compile failure; later slides stay uncompiled.
func (t *Timeline) Load(docs []*Group) error {
	t.slides = make([]*Slide, len(docs))
	for i, doc := range docs {
		t.slides[i] = &Slide{Doc: doc}
	}
	t.engine.symbols.rollback(t.engine.preludeMark)
	t.caches = t.caches[:1]
	t.engine.exec.restoreRoot(t.caches[0].values)
	t.engine.Reset()
	return t.compileFrom(0)
}

// Edit replaces slide i. Its compiled program and the caches of it and
// every later slide are dropped, then slides are recompiled from i until
// the first compile error.
func (t *Timeline) Edit(i int, doc *Group) error {
	if i < 0 || i > len(t.slides) {
		return fmt.Errorf("slide %d out of range", i)
	}
	if i == len(t.slides) {
		t.slides = append(t.slides, &Slide{})
	}
	t.slides[i].Doc = doc
	return t.invalidate(i)
}

// Insert adds a slide before index i.
func (t *Timeline) Insert(i int, doc *Group) error {
	if i < 0 || i > len(t.slides) {
		return fmt.Errorf("slide %d out of range", i)
	}
	t.slides = append(t.slides, nil)
	copy(t.slides[i+1:], t.slides[i:])
	t.slides[i] = &Slide{Doc: doc}
	return t.invalidate(i)
}

// Remove deletes slide i.
func (t *Timeline) Remove(i int) error {
	if i < 0 || i >= len(t.slides) {
		return fmt.Errorf("slide %d out of range", i)
	}
	t.slides = append(t.slides[:i], t.slides[i+1:]...)
	return t.invalidate(i)
}

func (t *Timeline) invalidate(i int) error {
	start := i
	for j := 0; j < i; j++ {
		if !t.slides[j].Compiled() {
			start = j
			break
		}
	}
	t.engine.symbols.rollback(t.markBefore(start))
	for _, s := range t.slides[start:] {
		s.prog = nil
		s.Err = nil
	}
	if len(t.caches) > start+1 {
		t.caches = t.caches[:start+1]
	}
	t.engine.log.Debug("invalidated slides", "from", start, "caches", len(t.caches))
	t.engine.Reset()
	return t.compileFrom(start)
}

// markBefore is the symbol state slide i compiles under. Compiled slides
// always form a prefix of the timeline.
func (t *Timeline) markBefore(i int) symbolMark {
	if i == 0 {
		return t.engine.preludeMark
	}
	return t.slides[i-1].prog.end
}

// compileFrom compiles slides from start in order under the symbol table
// as it stands, stopping at the first compile error.
func (t *Timeline) compileFrom(start int) error {
	for i := start; i < len(t.slides); i++ {
		s := t.slides[i]
		if s.Doc == nil {
			s.Err = &SlideError{Kind: ErrorSyntax, Slide: i, Message: "slide has no content"}
			return s.Err
		}
		prog, err := t.engine.compile(s.Doc)
		if err != nil {
			s.Err = newSlideError(i, err)
			t.engine.log.Debug("slide failed to compile", "slide", i, "error", err)
			return s.Err
		}
		s.prog, s.Err = prog, nil
	}
	return nil
}

// Cached returns the cached end frame of slide i, if it has one.
func (t *Timeline) Cached(i int) (Frame, bool) {
	if i < 0 || i+1 >= len(t.caches) || t.caches[i+1] == nil {
		return Frame{}, false
	}
	return t.caches[i+1].frame, true
}

// Run executes slide i, restoring the nearest cached state at or before
// its start and running every slide in between. Slides whose end state is
// already cached keep their cache.
func (t *Timeline) Run(ctx context.Context, i int) (Frame, error) {
	if i < 0 || i >= len(t.slides) {
		return Frame{}, fmt.Errorf("slide %d out of range", i)
	}
	for j := 0; j <= i; j++ {
		if !t.slides[j].Compiled() {
			if t.slides[j].Err != nil {
				return Frame{}, t.slides[j].Err
			}
			return Frame{}, fmt.Errorf("slide %d is not compiled", j)
		}
	}

	start := min(i, len(t.caches)-1)
	for start > 0 && t.caches[start] == nil {
		start--
	}
	e := t.engine
	e.Reset()
	e.exec.restoreRoot(t.resolveAll(t.caches[start]))
	e.log.Debug("running slides", "from", start, "to", i)

	var frame Frame
	for j := start; j <= i; j++ {
		var err error
		frame, err = t.runSlide(ctx, j)
		if err != nil {
			return Frame{}, err
		}
	}
	return frame, nil
}

func (t *Timeline) runSlide(ctx context.Context, i int) (Frame, error) {
	e := t.engine
	s := t.slides[i]
	e.exec.slide = i
	e.exec.animTime = 0
	if _, err := e.run(ctx, s.prog); err != nil {
		if !errors.Is(err, ErrInterrupted) {
			s.Err = newSlideError(i, err)
			err = s.Err
		}
		e.log.Debug("slide run failed", "slide", i, "error", err)
		e.Reset()
		return Frame{}, err
	}
	s.Err = nil
	frame, err := e.exec.frame(s.prog.view)
	if err != nil {
		s.Err = newSlideError(i, err)
		e.Reset()
		return Frame{}, s.Err
	}

	pos := i + 1
	if pos < len(t.caches) && t.caches[pos] != nil {
		return frame, nil
	}
	for len(t.caches) <= pos {
		t.caches = append(t.caches, nil)
	}
	c := e.exec.blit(pos, t.caches[i], t.cachedValue)
	c.frame = frame
	t.caches[pos] = c
	e.log.Debug("cached slide", "slide", i, "slots", len(c.values), "fresh", c.fresh)
	return frame, nil
}

// cachedValue resolves slot of the cache at pos through its jump index.
func (t *Timeline) cachedValue(pos, slot int) Value {
	c := t.caches[pos]
	return t.caches[c.jump[slot]].values[slot]
}

func (t *Timeline) resolveAll(c *trailingCache) []Value {
	out := make([]Value, len(c.values))
	for j := range out {
		out[j] = t.cachedValue(c.position, j)
	}
	return out
}
