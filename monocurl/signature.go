package monocurl

import (
	"slices"
	"strings"
)

type paramKind uint8

const (
	paramValue paramKind = iota
	paramReference
	paramFunction
	paramGroup
)

// param is one declared parameter. Function-typed parameters list the
// argument names their lambda receives; group parameters list their modes.
type param struct {
	name  string
	kind  paramKind
	args  []string
	modes []paramMode
}

type paramMode struct {
	name   string
	params []string
}

type signature struct {
	params []param
}

// width is the number of frame slots the parameters occupy. A group takes
// one slot for the selected mode name plus one per mode parameter.
func (s *signature) width() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, p := range s.params {
		n++
		if p.kind == paramGroup {
			for _, m := range p.modes {
				n += len(m.params)
			}
		}
	}
	return n
}

// needsFunctor reports whether calls must use the labeled argument form.
func (s *signature) needsFunctor() bool {
	if s == nil {
		return false
	}
	for _, p := range s.params {
		if p.kind != paramValue {
			return true
		}
	}
	return false
}

func (s *signature) equal(o *signature) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.params) != len(o.params) {
		return false
	}
	for i, p := range s.params {
		q := o.params[i]
		if p.name != q.name || p.kind != q.kind || !slices.Equal(p.args, q.args) || len(p.modes) != len(q.modes) {
			return false
		}
		for j, m := range p.modes {
			if m.name != q.modes[j].name || !slices.Equal(m.params, q.modes[j].params) {
				return false
			}
		}
	}
	return true
}

// slotNames lists the flattened parameter names in slot order.
func (s *signature) slotNames() []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, p := range s.params {
		out = append(out, p.name)
		if p.kind == paramGroup {
			for _, m := range p.modes {
				out = append(out, m.params...)
			}
		}
	}
	return out
}

func (s *signature) String() string {
	if s == nil {
		return "()"
	}
	parts := make([]string, len(s.params))
	for i, p := range s.params {
		switch p.kind {
		case paramReference:
			parts[i] = p.name + "&"
		case paramFunction:
			parts[i] = p.name + "(" + strings.Join(p.args, ", ") + ")"
		case paramGroup:
			modes := make([]string, len(p.modes))
			for j, m := range p.modes {
				modes[j] = m.name + "(" + strings.Join(m.params, ", ") + ")"
			}
			parts[i] = "[" + p.name + ": " + strings.Join(modes, ", ") + "]"
		default:
			parts[i] = p.name
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
