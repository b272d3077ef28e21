package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/monocurl/monocurl-sub000/monocurl"
)

func fmtCommand(args []string) error {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	write := fs.Bool("w", false, "write result to source files instead of stdout")
	check := fs.Bool("check", false, "fail if any source file needs formatting")
	if err := fs.Parse(args); err != nil {
		return err
	}

	targets := fs.Args()
	if len(targets) == 0 {
		return errors.New("monocurl fmt: path required")
	}

	files, err := collectSlideFiles(targets)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	changedCount := 0
	for _, path := range files {
		original, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		formatted, err := formatFile(path, original)
		if err != nil {
			return fmt.Errorf("format %s: %w", path, err)
		}
		changed := !bytes.Equal(formatted, original)
		if changed {
			changedCount++
		}

		switch {
		case *write && changed:
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if err := os.WriteFile(path, formatted, info.Mode().Perm()); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		case !*write && !*check:
			fmt.Print(string(formatted))
		}
	}

	if *check && changedCount > 0 {
		return fmt.Errorf("monocurl fmt: %d file(s) need formatting", changedCount)
	}

	return nil
}

func isDeckFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func collectSlideFiles(targets []string) ([]string, error) {
	seen := make(map[string]struct{})
	files := make([]string, 0)
	addFile := func(path string) {
		if filepath.Ext(path) != ".mcl" && !isDeckFile(path) {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		files = append(files, abs)
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		if !info.IsDir() {
			addFile(target)
			continue
		}
		err = filepath.WalkDir(target, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				return nil
			}
			addFile(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", target, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func formatFile(path string, source []byte) ([]byte, error) {
	if !isDeckFile(path) {
		formatted, err := formatSlideSource(string(source))
		if err != nil {
			return nil, err
		}
		return []byte(formatted), nil
	}
	deck, err := monocurl.DecodeDeck(bytes.NewReader(source))
	if err != nil {
		return nil, err
	}
	for i, slide := range deck.Slides {
		formatted, err := formatSlideSource(slide)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i, err)
		}
		deck.Slides[i] = strings.TrimRight(formatted, "\n")
	}
	return deck.Encode()
}

// formatSlideSource rewrites an outline in canonical form: tab
// indentation, no trailing whitespace, no blank lines and a final newline.
func formatSlideSource(source string) (string, error) {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	doc, err := monocurl.ParseOutline(normalized)
	if err != nil {
		return "", err
	}
	return monocurl.FormatOutline(doc), nil
}
