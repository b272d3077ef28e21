package monocurl

import (
	"strconv"
	"strings"
)

// Kind identifies the dynamic type of a Value.
type Kind uint8

const (
	KindUninitialized Kind = iota
	KindDouble
	KindChar
	KindFunction
	KindFunctor
	KindVector
	KindMap
	KindMesh
	KindAnimation
	KindLvalue
)

var kindNames = [...]string{
	KindUninitialized: "uninitialized",
	KindDouble:        "double",
	KindChar:          "char",
	KindFunction:      "function",
	KindFunctor:       "functor",
	KindVector:        "vector",
	KindMap:           "map",
	KindMesh:          "mesh",
	KindAnimation:     "animation",
	KindLvalue:        "lvalue",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a tagged script value. The zero Value is uninitialized; every
// operation on it fails.
type Value struct {
	kind Kind
	num  float64
	obj  any
}

func NewDouble(f float64) Value { return Value{kind: KindDouble, num: f} }
func NewChar(r rune) Value      { return Value{kind: KindChar, num: float64(r)} }

func NewBool(b bool) Value {
	if b {
		return NewDouble(1)
	}
	return NewDouble(0)
}

// NewString builds the character vector used for text.
func NewString(s string) Value {
	elems := make([]Value, 0, len(s))
	for _, r := range s {
		elems = append(elems, NewChar(r))
	}
	return NewVector(elems)
}

func NewVector(elems []Value) Value {
	return Value{kind: KindVector, obj: &Vector{elems: elems}}
}

func NewMap(m *Map) Value {
	if m == nil {
		m = newMap(0)
	}
	return Value{kind: KindMap, obj: m}
}

func NewMesh(m Mesh) Value { return Value{kind: KindMesh, obj: m} }

func newFunctionValue(fn *Function) Value  { return Value{kind: KindFunction, obj: fn} }
func newFunctorValue(f *Functor) Value     { return Value{kind: KindFunctor, obj: f} }
func newAnimationValue(a *Animation) Value { return Value{kind: KindAnimation, obj: a} }
func newLvalueValue(lv *Lvalue) Value      { return Value{kind: KindLvalue, obj: lv} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUninitialized() bool { return v.kind == KindUninitialized }

func (v Value) Double() float64 { return v.num }

func (v Value) Char() rune { return rune(v.num) }

func (v Value) Vector() *Vector {
	vec, _ := v.obj.(*Vector)
	return vec
}

func (v Value) Map() *Map {
	m, _ := v.obj.(*Map)
	return m
}

func (v Value) Mesh() Mesh {
	m, _ := v.obj.(Mesh)
	return m
}

func (v Value) Function() *Function {
	fn, _ := v.obj.(*Function)
	return fn
}

func (v Value) Functor() *Functor {
	f, _ := v.obj.(*Functor)
	return f
}

func (v Value) Animation() *Animation {
	a, _ := v.obj.(*Animation)
	return a
}

func (v Value) lvalue() *Lvalue {
	lv, _ := v.obj.(*Lvalue)
	return lv
}

// Text returns the contents of a character vector.
func (v Value) Text() (string, bool) {
	if v.kind != KindVector {
		return "", false
	}
	var sb strings.Builder
	for _, elem := range v.Vector().elems {
		if elem.kind != KindChar {
			return "", false
		}
		sb.WriteRune(elem.Char())
	}
	return sb.String(), true
}

func (v Value) String() string {
	switch v.kind {
	case KindUninitialized:
		return "<uninitialized>"
	case KindDouble:
		return formatDouble(v.num)
	case KindChar:
		return string(v.Char())
	case KindVector:
		elems := v.Vector().elems
		if len(elems) > 0 {
			if text, ok := v.Text(); ok {
				return strconv.Quote(text)
			}
		}
		parts := make([]string, len(elems))
		for i, elem := range elems {
			parts[i] = elem.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindMap:
		m := v.Map()
		if m.Len() == 0 {
			return "{:}"
		}
		parts := make([]string, 0, m.Len())
		m.each(func(key, value Value) bool {
			parts = append(parts, key.String()+": "+value.String())
			return true
		})
		return "{" + strings.Join(parts, ", ") + "}"
	case KindFunction:
		return "<func " + v.Function().Name() + ">"
	case KindFunctor:
		f := v.Functor()
		if f.result.value.kind == KindUninitialized {
			return "<functor " + f.Name() + ">"
		}
		return f.result.value.String()
	case KindMesh:
		return "<mesh " + v.Mesh().Describe() + ">"
	case KindAnimation:
		return "<animation " + v.Animation().state.String() + ">"
	case KindLvalue:
		lv := v.lvalue()
		slot := lv.ref()
		if slot == nil {
			return "<lvalue>"
		}
		return slot.String()
	default:
		return "<unknown>"
	}
}

func formatDouble(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
