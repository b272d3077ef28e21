package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/monocurl/monocurl-sub000/monocurl"
)

func playCommand(args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("monocurl play: deck path required")
	}
	deck, err := loadDeck(remaining[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m, err := newPlayerModel(ctx, deck)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.bindProgram(p)
	_, err = p.Run()
	return err
}

type frameMsg monocurl.Frame

type replayMsg struct{}

type slideDoneMsg struct {
	run   int
	frame monocurl.Frame
	err   error
}

type playerKeyMap struct {
	Next  key.Binding
	Prev  key.Binding
	Play  key.Binding
	First key.Binding
	Quit  key.Binding
}

func (k playerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Play, k.First, k.Quit}
}

func (k playerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var playerKeys = playerKeyMap{
	Next: key.NewBinding(
		key.WithKeys("right", "l", "n"),
		key.WithHelp("→", "next slide"),
	),
	Prev: key.NewBinding(
		key.WithKeys("left", "h", "p"),
		key.WithHelp("←", "previous slide"),
	),
	Play: key.NewBinding(
		key.WithKeys(" ", "enter"),
		key.WithHelp("space", "replay slide"),
	),
	First: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("g", "first slide"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// player is shared by every copy of the bubbletea model. Runs happen on a
// separate goroutine behind the gate and report back through send.
type player struct {
	ctx  context.Context
	tl   *monocurl.Timeline
	gate *monocurl.Gate
	send func(tea.Msg)
}

type playerModel struct {
	*player
	title    string
	slide    int
	run      int
	playing  bool
	frame    monocurl.Frame
	status   string
	err      error
	help     help.Model
	width    int
	quitting bool
}

func newPlayerModel(ctx context.Context, deck *monocurl.Deck) (playerModel, error) {
	p := &player{ctx: ctx, gate: &monocurl.Gate{}}
	cfg := monocurl.Config{Interrupter: p.gate}
	deck.Config.Apply(&cfg)
	cfg.FrameHook = pacedFrames(ctx, frameRate(cfg), func(f monocurl.Frame) error {
		if p.send != nil {
			p.send(frameMsg(f))
		}
		return nil
	})
	tl, err := newTimeline(deck, cfg)
	if tl == nil {
		return playerModel{}, err
	}
	p.tl = tl
	m := playerModel{player: p, title: deck.Title, help: help.New(), err: err}
	if m.title == "" {
		m.title = "monocurl"
	}
	return m, nil
}

func (m playerModel) bindProgram(p *tea.Program) {
	m.send = p.Send
}

func (m playerModel) Init() tea.Cmd {
	return func() tea.Msg { return replayMsg{} }
}

// startRun plays the current slide. A newer run interrupts an older one
// through the gate.
func (m *playerModel) startRun() tea.Cmd {
	m.run++
	m.playing = true
	m.err = nil
	run, slide, p := m.run, m.slide, m.player
	return func() tea.Msg {
		var frame monocurl.Frame
		err := p.gate.Do(func() error {
			var err error
			frame, err = p.tl.Run(p.ctx, slide)
			return err
		})
		return slideDoneMsg{run: run, frame: frame, err: err}
	}
}

func (m playerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case replayMsg:
		if m.tl.Len() == 0 {
			return m, nil
		}
		return m, m.startRun()

	case frameMsg:
		m.frame = monocurl.Frame(msg)
		return m, nil

	case slideDoneMsg:
		if msg.run != m.run {
			return m, nil
		}
		m.playing = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.frame = msg.frame
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, playerKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, playerKeys.Next):
			if m.slide+1 >= m.tl.Len() {
				return m, nil
			}
			m.slide++
			return m, m.startRun()
		case key.Matches(msg, playerKeys.Prev):
			if m.slide == 0 {
				return m, nil
			}
			m.slide--
			return m, m.showCached()
		case key.Matches(msg, playerKeys.First):
			m.slide = 0
			return m, m.showCached()
		case key.Matches(msg, playerKeys.Play):
			return m.Update(replayMsg{})
		}
	}
	return m, nil
}

// showCached jumps to the end of a slide that already ran, falling back to
// running it.
func (m *playerModel) showCached() tea.Cmd {
	var frame monocurl.Frame
	ok := false
	m.gate.View(func() {
		frame, ok = m.tl.Cached(m.slide)
	})
	if !ok {
		return m.startRun()
	}
	m.run++
	m.playing = false
	m.err = nil
	m.frame = frame
	return nil
}

func (m playerModel) View() string {
	if m.quitting {
		return mutedStyle.Render("Goodbye!\n")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.title) + " ")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("slide %d/%d", m.slide+1, m.tl.Len())) + "\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", max(min(m.width-2, 60), 10))) + "\n\n")

	state := "stopped"
	if m.playing {
		state = "playing"
	}
	b.WriteString(fmt.Sprintf("  %s  %s\n", nameStyle.Render(state), formatSeconds(m.frame.Time)))
	b.WriteString(renderFramePanel(m.frame) + "\n")
	if m.err != nil {
		b.WriteString("  " + errorStyle.Render("✗ "+m.err.Error()) + "\n")
	}
	b.WriteString("\n" + m.help.View(playerKeys))
	return b.String()
}

func renderFramePanel(f monocurl.Frame) string {
	var lines []string
	lines = append(lines, titleStyle.Render("Frame"))
	cam := f.Camera
	lines = append(lines, fmt.Sprintf("  camera  origin %v  forward %v", cam.Origin, cam.Forward))
	if len(f.Meshes) == 0 {
		lines = append(lines, mutedStyle.Render("  no meshes shown"))
	}
	for _, shown := range f.Meshes {
		lines = append(lines, fmt.Sprintf("  %016x  %s", shown.ID, shown.Mesh.Describe()))
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}
