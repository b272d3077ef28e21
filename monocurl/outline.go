package monocurl

import (
	"fmt"
	"regexp"
	"strings"
)

// Node is an element of a slide outline: either an Entry or a mode Group.
type Node interface {
	outlineNode()
	LineNumber() int
}

// Group is an indented block of outline nodes. The root group of a slide
// has an empty Tag. Groups written as "[tag: mode]" select a mode of a
// parameter group when they appear inside a functor argument block.
type Group struct {
	Tag      string
	Mode     string
	Line     int
	Children []Node
}

// Entry is one line of a slide. Title is set for "name: value" argument
// lines. Body holds the indented lines that follow the entry, if any.
type Entry struct {
	Title string
	Value string
	Line  int
	Body  *Group
}

func (*Group) outlineNode() {}
func (*Entry) outlineNode() {}

func (g *Group) LineNumber() int { return g.Line }
func (e *Entry) LineNumber() int { return e.Line }

// OutlineError reports a malformed outline.
type OutlineError struct {
	Line    int
	Message string
}

func (e *OutlineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line+1, e.Message)
}

var (
	titledEntryPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*):\s+(\S.*)$`)
	modeGroupPattern   = regexp.MustCompile(`^\[\s*([A-Za-z_][A-Za-z0-9_]*)\s*(?::\s*([A-Za-z_][A-Za-z0-9_]*)\s*)?\]$`)
)

// ParseOutline splits slide text into a tree of entries using tab
// indentation. Blank lines are skipped but still count toward line numbers.
func ParseOutline(text string) (*Group, error) {
	root := &Group{Line: 0}
	type level struct {
		group *Group
		last  Node
	}
	stack := []level{{group: root}}

	lines := strings.Split(text, "\n")
	for idx, raw := range lines {
		raw = strings.TrimRight(raw, " \t\r")
		if raw == "" {
			continue
		}
		depth := 0
		for depth < len(raw) && raw[depth] == '\t' {
			depth++
		}
		content := raw[depth:]
		if strings.HasPrefix(content, " ") {
			return nil, &OutlineError{Line: idx, Message: "illegal indentation: use tabs"}
		}

		current := len(stack) - 1
		switch {
		case depth > current+1:
			return nil, &OutlineError{Line: idx, Message: "illegal indentation"}
		case depth == current+1:
			parent := stack[current].last
			var child *Group
			switch p := parent.(type) {
			case *Entry:
				p.Body = &Group{Line: idx}
				child = p.Body
			case *Group:
				child = p
			default:
				return nil, &OutlineError{Line: idx, Message: "illegal indentation"}
			}
			stack = append(stack, level{group: child})
		default:
			stack = stack[:depth+1]
		}

		top := &stack[len(stack)-1]
		node := parseOutlineLine(content, idx)
		top.group.Children = append(top.group.Children, node)
		top.last = node
	}
	return root, nil
}

func parseOutlineLine(content string, line int) Node {
	if m := modeGroupPattern.FindStringSubmatch(content); m != nil {
		return &Group{Tag: m[1], Mode: m[2], Line: line}
	}
	if m := titledEntryPattern.FindStringSubmatch(content); m != nil {
		return &Entry{Title: m[1], Value: m[2], Line: line}
	}
	return &Entry{Value: content, Line: line}
}

// FormatOutline renders a group back to canonical outline text.
func FormatOutline(g *Group) string {
	var sb strings.Builder
	writeOutlineGroup(&sb, g, 0)
	return sb.String()
}

func writeOutlineGroup(sb *strings.Builder, g *Group, depth int) {
	if g == nil {
		return
	}
	for _, child := range g.Children {
		sb.WriteString(strings.Repeat("\t", depth))
		switch n := child.(type) {
		case *Group:
			sb.WriteString("[" + n.Tag)
			if n.Mode != "" {
				sb.WriteString(": " + n.Mode)
			}
			sb.WriteString("]\n")
			writeOutlineGroup(sb, n, depth+1)
		case *Entry:
			if n.Title != "" {
				sb.WriteString(n.Title + ": ")
			}
			sb.WriteString(strings.TrimSpace(n.Value))
			sb.WriteString("\n")
			writeOutlineGroup(sb, n.Body, depth+1)
		}
	}
}
