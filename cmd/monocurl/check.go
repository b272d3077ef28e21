package main

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/monocurl/monocurl-sub000/monocurl"
)

func checkCommand(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}
	targets := fs.Args()
	if len(targets) == 0 {
		return errors.New("monocurl check: deck path required")
	}

	issues := 0
	for _, target := range targets {
		path, err := filepath.Abs(target)
		if err != nil {
			return fmt.Errorf("resolve deck path: %w", err)
		}
		deck, err := loadDeck(path)
		if err != nil {
			return err
		}
		for _, issue := range checkDeck(deck) {
			fmt.Printf("%s:%s\n", path, issue)
			issues++
		}
	}
	if issues == 0 {
		fmt.Println("No issues found")
		return nil
	}
	return fmt.Errorf("check found %d issue(s)", issues)
}

// checkDeck compiles every slide and reports each failure as
// "slide:line: message". Compilation stops at the first failing slide
// because later slides depend on its declarations.
func checkDeck(deck *monocurl.Deck) []string {
	var cfg monocurl.Config
	deck.Config.Apply(&cfg)
	_, err := newTimeline(deck, cfg)
	if err == nil {
		return nil
	}
	var se *monocurl.SlideError
	if errors.As(err, &se) {
		return []string{fmt.Sprintf("%d:%d: %s", se.Slide, se.Line+1, se.Message)}
	}
	return []string{err.Error()}
}
