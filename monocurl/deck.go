package monocurl

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Deck is a presentation file: a title, engine settings and the outline
// text of every slide.
type Deck struct {
	Title  string     `yaml:"title,omitempty"`
	Config DeckConfig `yaml:"config,omitempty"`
	Slides []string   `yaml:"slides"`
}

// DeckConfig holds the engine settings a deck may override. Zero fields
// keep the engine defaults.
type DeckConfig struct {
	FrameRate          float64 `yaml:"frame_rate,omitempty"`
	MaxAnimationFrames int     `yaml:"max_animation_frames,omitempty"`
	RecursionLimit     int     `yaml:"recursion_limit,omitempty"`
	HeapLimitMB        int     `yaml:"heap_limit_mb,omitempty"`
	StackCapacity      int     `yaml:"stack_capacity,omitempty"`
}

// Apply copies the non-zero settings onto cfg.
func (d DeckConfig) Apply(cfg *Config) {
	if d.FrameRate > 0 {
		cfg.FrameRate = d.FrameRate
	}
	if d.MaxAnimationFrames > 0 {
		cfg.MaxAnimationFrames = d.MaxAnimationFrames
	}
	if d.RecursionLimit > 0 {
		cfg.RecursionLimit = d.RecursionLimit
	}
	if d.HeapLimitMB > 0 {
		cfg.HeapLimitBytes = d.HeapLimitMB << 20
	}
	if d.StackCapacity > 0 {
		cfg.StackCapacity = d.StackCapacity
	}
}

// LoadDeck reads a deck file from disk.
func LoadDeck(path string) (*Deck, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	deck, err := DecodeDeck(file)
	if err != nil {
		return nil, fmt.Errorf("deck %s: %w", path, err)
	}
	return deck, nil
}

// DecodeDeck parses deck YAML. Unknown fields are rejected.
func DecodeDeck(r io.Reader) (*Deck, error) {
	var deck Deck
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&deck); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty deck")
		}
		return nil, fmt.Errorf("parse deck: %w", err)
	}
	for i, slide := range deck.Slides {
		deck.Slides[i] = strings.TrimRight(slide, "\n")
	}
	return &deck, nil
}

// Encode renders the deck as YAML.
func (d *Deck) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode deck: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode deck: %w", err)
	}
	return buf.Bytes(), nil
}

// Documents parses every slide's outline. Errors are reported as
// *SlideError for the failing slide.
func (d *Deck) Documents() ([]*Group, error) {
	docs := make([]*Group, len(d.Slides))
	for i, text := range d.Slides {
		doc, err := ParseOutline(text)
		if err != nil {
			return nil, newSlideError(i, err)
		}
		docs[i] = doc
	}
	return docs, nil
}
