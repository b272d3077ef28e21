package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/monocurl/monocurl-sub000/monocurl"
)

const watchDebounce = 50 * time.Millisecond

func watchCommand(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	verbose := fs.Bool("v", false, "log engine activity to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("monocurl watch: deck path required")
	}
	path, err := filepath.Abs(remaining[0])
	if err != nil {
		return fmt.Errorf("resolve deck path: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w, err := newDeckWatcher(path, os.Stdout, newLogger(*verbose))
	if err != nil {
		return err
	}
	return w.watch(ctx)
}

// deckWatcher keeps a timeline in sync with a deck file. Edits go through
// the gate so a slide that is still running is interrupted first.
type deckWatcher struct {
	path   string
	out    io.Writer
	log    *slog.Logger
	gate   *monocurl.Gate
	tl     *monocurl.Timeline
	slides []string
	runs   chan struct{}
}

func newDeckWatcher(path string, out io.Writer, log *slog.Logger) (*deckWatcher, error) {
	deck, err := loadDeck(path)
	if err != nil {
		return nil, err
	}
	w := &deckWatcher{path: path, out: out, log: log, gate: &monocurl.Gate{}, runs: make(chan struct{}, 1)}
	cfg := monocurl.Config{Logger: log, Interrupter: w.gate}
	deck.Config.Apply(&cfg)
	tl, err := monocurl.NewTimeline(cfg)
	if err != nil {
		return nil, err
	}
	w.tl = tl
	if _, err := w.apply(deck); err != nil {
		fmt.Fprintln(out, err)
	}
	return w, nil
}

// apply brings the timeline in line with deck, editing only slides whose
// text changed. It returns the index of the first changed slide, or -1.
func (w *deckWatcher) apply(deck *monocurl.Deck) (int, error) {
	docs, err := deck.Documents()
	if err != nil {
		return -1, err
	}
	first := -1
	var firstErr error
	record := func(i int, err error) {
		if first < 0 || i < first {
			first = i
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for i, text := range deck.Slides {
		if i < len(w.slides) && w.slides[i] == text {
			continue
		}
		record(i, w.tl.Edit(i, docs[i]))
	}
	for i := len(w.slides) - 1; i >= len(deck.Slides); i-- {
		record(i, w.tl.Remove(i))
	}
	w.slides = append([]string(nil), deck.Slides...)
	if first >= 0 {
		w.log.Debug("deck changed", "first", first, "slides", len(w.slides))
	}
	return first, firstErr
}

func (w *deckWatcher) reload() {
	deck, err := loadDeck(w.path)
	if err != nil {
		fmt.Fprintln(w.out, err)
		return
	}
	var changed int
	err = w.gate.Do(func() error {
		var applyErr error
		changed, applyErr = w.apply(deck)
		return applyErr
	})
	if err != nil {
		fmt.Fprintln(w.out, err)
		return
	}
	if changed >= 0 {
		w.requestRun()
	}
}

func (w *deckWatcher) requestRun() {
	select {
	case w.runs <- struct{}{}:
	default:
	}
}

// runLatest runs the last slide whenever a run is requested. A run that is
// interrupted by a newer edit is dropped silently.
func (w *deckWatcher) runLatest(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.runs:
		}
		err := w.gate.Do(func() error {
			last := w.tl.Len() - 1
			if last < 0 {
				return nil
			}
			frame, err := w.tl.Run(ctx, last)
			if err != nil {
				return err
			}
			fmt.Fprintln(w.out, describeFrame(frame))
			return nil
		})
		if err != nil && !errors.Is(err, monocurl.ErrInterrupted) {
			fmt.Fprintln(w.out, err)
		}
	}
}

func (w *deckWatcher) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	go w.runLatest(ctx)
	w.requestRun()

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	defer debounce.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			w.log.Warn("watch error", "error", err)
		case <-debounce.C:
			w.reload()
		}
	}
}
