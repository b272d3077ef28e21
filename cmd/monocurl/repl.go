package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/chzyer/readline"
	"github.com/monocurl/monocurl-sub000/monocurl"
)

const (
	replPrompt         = "mcl> "
	replContinuePrompt = "...  "
)

func replCommand(args []string) error {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	plain := fs.Bool("plain", false, "use a line editor instead of the full-screen interface")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *plain {
		return runPlainREPL(nil, nil)
	}
	return runREPL()
}

type historyEntry struct {
	input  string
	output string
	isErr  bool
}

type replModel struct {
	textInput   textinput.Model
	session     *session
	history     []historyEntry
	help        help.Model
	cmdHistory  []string
	historyIdx  int
	width       int
	height      int
	showHelp    bool
	showVars    bool
	quitting    bool
	initialized bool
}

type replKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Tab   key.Binding
	Clear key.Binding
	Vars  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func (k replKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Vars, k.Clear, k.Quit}
}

func (k replKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Tab},
		{k.Vars, k.Clear, k.Help, k.Quit},
	}
}

var replKeys = replKeyMap{
	Up:    key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous input")),
	Down:  key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next input")),
	Enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run; empty line ends a block")),
	Tab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "complete name")),
	Clear: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
	Vars:  key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "globals")),
	Help:  key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "help")),
	Quit:  key.NewBinding(key.WithKeys("ctrl+c", "ctrl+d"), key.WithHelp("ctrl+c", "quit")),
}

// replCommands are the colon commands understood outside a block.
var replCommands = [][2]string{
	{":help", "toggle help"},
	{":vars", "toggle globals"},
	{":clear", "clear history"},
	{":reset", "start a fresh engine"},
	{":quit", "exit"},
}

func newREPLModel() replModel {
	ti := textinput.New()
	ti.Placeholder = "type a statement..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.Prompt = replPrompt

	return replModel{
		textInput:  ti,
		session:    newSession(),
		history:    make([]historyEntry, 0),
		help:       help.New(),
		cmdHistory: make([]string, 0),
		historyIdx: -1,
	}
}

func (m replModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.EnterAltScreen)
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10
		m.help.Width = msg.Width
		m.initialized = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, replKeys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, replKeys.Clear):
			m.history = make([]historyEntry, 0)
			return m, nil

		case key.Matches(msg, replKeys.Vars):
			m.showVars = !m.showVars
			return m, nil

		case key.Matches(msg, replKeys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, replKeys.Up):
			if len(m.cmdHistory) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.cmdHistory) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, replKeys.Down):
			if m.historyIdx != -1 {
				if m.historyIdx < len(m.cmdHistory)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, replKeys.Tab):
			m = m.handleAutocomplete()
			return m, nil

		case key.Matches(msg, replKeys.Enter):
			raw := m.textInput.Value()
			input := strings.TrimSpace(raw)
			if input == "" && !m.session.continuing() {
				return m, nil
			}

			if strings.HasPrefix(input, ":") && !m.session.continuing() {
				var cmd tea.Cmd
				m, cmd = m.handleCommand(input)
				m.textInput.SetValue("")
				m.historyIdx = -1
				return m, cmd
			}

			output, isErr, done := m.session.submit(raw)
			if input != "" {
				m.cmdHistory = append(m.cmdHistory, input)
			}
			if done {
				m.history = append(m.history, historyEntry{
					input:  input,
					output: output,
					isErr:  isErr,
				})
				m.textInput.Prompt = replPrompt
			} else {
				m.history = append(m.history, historyEntry{input: raw})
				m.textInput.Prompt = replContinuePrompt
			}
			m.textInput.SetValue("")
			m.historyIdx = -1
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m replModel) handleCommand(input string) (replModel, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case ":help", ":h":
		m.showHelp = !m.showHelp
	case ":clear", ":c":
		m.history = make([]historyEntry, 0)
	case ":vars", ":v":
		m.showVars = !m.showVars
	case ":reset", ":r":
		m.session.reset()
		m.history = append(m.history, historyEntry{
			input:  input,
			output: "Environment reset",
		})
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit
	default:
		m.history = append(m.history, historyEntry{
			input:  input,
			output: fmt.Sprintf("Unknown command: %s", cmd),
			isErr:  true,
		})
	}
	return m, nil
}

func lastWord(input string) string {
	i := strings.LastIndexFunc(input, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	return input[i+1:]
}

func (m replModel) handleAutocomplete() replModel {
	input := m.textInput.Value()
	word := lastWord(input)
	completions := m.session.complete(word)

	if len(completions) == 1 {
		prefix := strings.TrimSuffix(input, word)
		m.textInput.SetValue(prefix + completions[0])
		m.textInput.CursorEnd()
	} else if len(completions) > 1 {
		m.history = append(m.history, historyEntry{
			output: "Completions: " + strings.Join(completions, ", "),
		})
	}
	return m
}

func (m replModel) View() string {
	if !m.initialized {
		return "Loading..."
	}
	if m.quitting {
		return mutedStyle.Render("Goodbye!\n")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Monocurl REPL") + "\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", max(min(m.width-2, 60), 10))) + "\n\n")

	globals := m.session.globals()
	reserved := 8
	if m.showHelp {
		reserved += len(replCommands) + 6
	}
	if m.showVars {
		reserved += len(globals) + 3
	}
	visible := max(m.height-reserved, 1)
	for _, entry := range m.history[max(len(m.history)-visible, 0):] {
		b.WriteString(renderEntry(entry))
	}

	if m.showVars {
		b.WriteString(renderVarsPanel(globals) + "\n")
	}
	if m.showHelp {
		b.WriteString(renderCommandsPanel() + "\n")
	}
	b.WriteString(m.textInput.View() + "\n\n")
	m.help.ShowAll = m.showHelp
	b.WriteString(m.help.View(replKeys))
	return b.String()
}

func renderEntry(entry historyEntry) string {
	var b strings.Builder
	if entry.input != "" {
		b.WriteString(mutedStyle.Render("  › ") + entry.input + "\n")
	}
	switch {
	case entry.output == "":
		return b.String()
	case entry.isErr:
		b.WriteString("  " + errorStyle.Render("✗ "+entry.output) + "\n")
	default:
		b.WriteString("  " + resultStyle.Render("→ "+entry.output) + "\n")
	}
	return b.String() + "\n"
}

func renderVarsPanel(globals []monocurl.Binding) string {
	if len(globals) == 0 {
		return borderStyle.Render(mutedStyle.Render("No globals declared"))
	}
	lines := []string{titleStyle.Render("Globals")}
	for _, g := range globals {
		kw := "var"
		if g.Const {
			kw = "let"
		}
		lines = append(lines, fmt.Sprintf("  %s %s = %s", mutedStyle.Render(kw), nameStyle.Render(g.Name), g.Value.String()))
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func renderCommandsPanel() string {
	lines := []string{titleStyle.Render("Commands")}
	for _, c := range replCommands {
		lines = append(lines, fmt.Sprintf("  %s  %s", nameStyle.Render(fmt.Sprintf("%-7s", c[0])), mutedStyle.Render(c[1])))
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func runREPL() error {
	p := tea.NewProgram(newREPLModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// replCompleter adapts session completion to the line editor.
type replCompleter struct {
	session *session
}

func (c replCompleter) Do(line []rune, pos int) ([][]rune, int) {
	word := lastWord(string(line[:pos]))
	var out [][]rune
	for _, name := range c.session.complete(word) {
		out = append(out, []rune(name[len(word):]))
	}
	return out, len([]rune(word))
}

// runPlainREPL reads statements with a line editor. nil in and out use the
// terminal.
func runPlainREPL(in io.ReadCloser, out io.Writer) error {
	s := newSession()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryLimit:    500,
		AutoComplete:    replCompleter{session: s},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           in,
		Stdout:          out,
	})
	if err != nil {
		return fmt.Errorf("repl: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" && !s.continuing() {
				return nil
			}
			s.pending = nil
			rl.SetPrompt(replPrompt)
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
		if cmd := strings.TrimSpace(line); !s.continuing() {
			switch cmd {
			case ":quit", ":q":
				return nil
			case ":reset", ":r":
				s.reset()
				fmt.Fprintln(rl.Stdout(), "Environment reset")
				continue
			}
		}
		output, isErr, done := s.submit(line)
		if !done {
			rl.SetPrompt(replContinuePrompt)
			continue
		}
		rl.SetPrompt(replPrompt)
		if output == "" {
			continue
		}
		if isErr {
			fmt.Fprintln(rl.Stderr(), output)
		} else {
			fmt.Fprintln(rl.Stdout(), output)
		}
	}
}
