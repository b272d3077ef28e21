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
	"strings"

	"github.com/monocurl/monocurl-sub000/monocurl"
)

func main() {
	if err := runCLI(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return usageError()
	}
	switch args[1] {
	case "run":
		return runCommand(args[2:])
	case "check":
		return checkCommand(args[2:])
	case "fmt":
		return fmtCommand(args[2:])
	case "watch":
		return watchCommand(args[2:])
	case "play":
		return playCommand(args[2:])
	case "repl":
		return replCommand(args[2:])
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	slide := fs.Int("slide", -1, "last slide to run (default: every slide)")
	realtime := fs.Bool("realtime", false, "pace animation frames at the deck frame rate")
	verbose := fs.Bool("v", false, "log engine activity to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("monocurl run: deck path required")
	}

	deck, err := loadDeck(remaining[0])
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := monocurl.Config{Logger: newLogger(*verbose)}
	deck.Config.Apply(&cfg)
	if *realtime {
		cfg.FrameHook = pacedFrames(ctx, frameRate(cfg), nil)
	}
	tl, err := newTimeline(deck, cfg)
	if err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}

	last := tl.Len() - 1
	if *slide >= 0 {
		if *slide > last {
			return fmt.Errorf("monocurl run: slide %d out of range (deck has %d)", *slide, tl.Len())
		}
		last = *slide
	}
	for i := 0; i <= last; i++ {
		frame, err := tl.Run(ctx, i)
		if err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
		fmt.Println(describeFrame(frame))
	}
	return nil
}

func describeFrame(f monocurl.Frame) string {
	return fmt.Sprintf("slide %d: %d mesh(es) at t=%s", f.Slide, len(f.Meshes), formatSeconds(f.Time))
}

func formatSeconds(t float64) string {
	return fmt.Sprintf("%.2fs", t)
}

func newLogger(verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// loadDeck reads a YAML deck. Any other file is treated as a deck with a
// single slide holding the file's outline.
func loadDeck(path string) (*monocurl.Deck, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return monocurl.LoadDeck(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read slide: %w", err)
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &monocurl.Deck{Title: title, Slides: []string{strings.TrimRight(string(data), "\n")}}, nil
}

// newTimeline compiles every slide of deck. cfg should already carry the
// deck settings. The timeline is returned even when a slide fails so
// callers can inspect the slides that compiled.
func newTimeline(deck *monocurl.Deck, cfg monocurl.Config) (*monocurl.Timeline, error) {
	tl, err := monocurl.NewTimeline(cfg)
	if err != nil {
		return nil, err
	}
	docs, err := deck.Documents()
	if err != nil {
		return tl, err
	}
	if err := tl.Load(docs); err != nil {
		return tl, err
	}
	return tl, nil
}

func frameRate(cfg monocurl.Config) float64 {
	if cfg.FrameRate > 0 {
		return cfg.FrameRate
	}
	return 30
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags] <deck>\n", prog)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  run     run every slide (or up to -slide) and print the final frames")
	fmt.Fprintln(os.Stderr, "  check   compile decks and report errors")
	fmt.Fprintln(os.Stderr, "  fmt     normalize slide outlines (-w to write, -check to verify)")
	fmt.Fprintln(os.Stderr, "  watch   recompile and rerun a deck whenever it changes")
	fmt.Fprintln(os.Stderr, "  play    step through a deck in an interactive player")
	fmt.Fprintln(os.Stderr, "  repl    evaluate statements interactively (-plain for a line editor)")
	fmt.Fprintln(os.Stderr, "Run flags:")
	fmt.Fprintln(os.Stderr, "  -slide int")
	fmt.Fprintln(os.Stderr, "    last slide to run")
	fmt.Fprintln(os.Stderr, "  -realtime")
	fmt.Fprintln(os.Stderr, "    pace animation frames at the deck frame rate")
	fmt.Fprintln(os.Stderr, "  -v")
	fmt.Fprintln(os.Stderr, "    log engine activity to stderr")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}
