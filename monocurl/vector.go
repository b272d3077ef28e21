package monocurl

import (
	"cmp"
	"errors"
	"math"
)

// Vector is an ordered sequence of values. Character vectors double as
// strings.
type Vector struct {
	elems []Value
	hashCache
}

func (v *Vector) Len() int { return len(v.elems) }

// At returns the element at i without bounds checking beyond Go's own.
func (v *Vector) At(i int) Value { return v.elems[i] }

func copyVector(v Value) Value {
	src := v.Vector()
	out := &Vector{elems: make([]Value, len(src.elems)), hashCache: src.hashCache}
	for i, elem := range src.elems {
		out.elems[i] = copyValue(elem)
	}
	return Value{kind: KindVector, obj: out}
}

var errDivisionByZero = errors.New("division by zero")

type arithFunc func(a, b float64) (float64, error)

func addDoubles(a, b float64) (float64, error)      { return a + b, nil }
func subtractDoubles(a, b float64) (float64, error) { return a - b, nil }
func multiplyDoubles(a, b float64) (float64, error) { return a * b, nil }

func divideDoubles(a, b float64) (float64, error) {
	if b == 0 {
		return 0, errDivisionByZero
	}
	return a / b, nil
}

func doubleArith(fn arithFunc) binaryFunc {
	return func(exec *Execution, a, b Value) (Value, error) {
		switch b.kind {
		case KindDouble:
			r, err := fn(a.num, b.num)
			if err != nil {
				return Value{}, exec.errorf("%v", err)
			}
			return NewDouble(r), nil
		case KindVector:
			elems := b.Vector().elems
			out := make([]Value, len(elems))
			for i, elem := range elems {
				elem, err := exec.concrete(elem)
				if err != nil {
					return Value{}, err
				}
				if elem.kind == KindVector {
					r, err := doubleArith(fn)(exec, a, elem)
					if err != nil {
						return Value{}, err
					}
					out[i] = r
					continue
				}
				if elem.kind != KindDouble {
					return Value{}, exec.errorf("cannot combine double with %s element", elem.kind)
				}
				r, err := fn(a.num, elem.num)
				if err != nil {
					return Value{}, exec.errorf("%v", err)
				}
				out[i] = NewDouble(r)
			}
			return NewVector(out), nil
		default:
			return Value{}, exec.errorf("cannot combine double with %s", b.kind)
		}
	}
}

func doublePower(exec *Execution, a, b Value) (Value, error) {
	if b.kind != KindDouble {
		return Value{}, exec.errorf("exponent must be a double, got %s", b.kind)
	}
	return NewDouble(math.Pow(a.num, b.num)), nil
}

func negateDouble(_ *Execution, v Value) (Value, error) {
	return NewDouble(-v.num), nil
}

// vectorArith applies fn elementwise. Two vectors must have equal length;
// a double operand is broadcast.
func vectorArith(name string, fn arithFunc) binaryFunc {
	var apply binaryFunc
	apply = func(exec *Execution, a, b Value) (Value, error) {
		left := a.Vector().elems
		out := make([]Value, len(left))
		var right []Value
		switch b.kind {
		case KindDouble:
		case KindVector:
			right = b.Vector().elems
			if len(right) != len(left) {
				return Value{}, exec.errorf("cannot %s vectors of length %d and %d", name, len(left), len(right))
			}
		default:
			return Value{}, exec.errorf("cannot %s vector and %s", name, b.kind)
		}
		for i, elem := range left {
			other := b
			if right != nil {
				other = right[i]
			}
			l, err := exec.concrete(elem)
			if err != nil {
				return Value{}, err
			}
			r, err := exec.concrete(other)
			if err != nil {
				return Value{}, err
			}
			switch {
			case l.kind == KindDouble:
				res, err := doubleArith(fn)(exec, l, r)
				if err != nil {
					return Value{}, err
				}
				out[i] = res
			case l.kind == KindVector:
				res, err := apply(exec, l, r)
				if err != nil {
					return Value{}, err
				}
				out[i] = res
			default:
				return Value{}, exec.errorf("cannot %s %s elements", name, l.kind)
			}
		}
		return NewVector(out), nil
	}
	return apply
}

func negateVector(exec *Execution, v Value) (Value, error) {
	elems := v.Vector().elems
	out := make([]Value, len(elems))
	for i, elem := range elems {
		n, err := exec.negate(elem)
		if err != nil {
			return Value{}, err
		}
		out[i] = n
	}
	return NewVector(out), nil
}

func vectorContains(exec *Execution, coll, item Value) (bool, error) {
	for _, elem := range coll.Vector().elems {
		c, err := exec.compare(elem, item)
		if err != nil {
			return false, err
		}
		if c == 0 {
			return true, nil
		}
	}
	return false, nil
}

func compareVectors(exec *Execution, a, b Value) (int, error) {
	left, right := a.Vector().elems, b.Vector().elems
	for i := 0; i < len(left) && i < len(right); i++ {
		c, err := exec.compare(left[i], right[i])
		if err != nil || c != 0 {
			return c, err
		}
	}
	return cmp.Compare(len(left), len(right)), nil
}

func indexVector(exec *Execution, base *Lvalue, container Value, writable bool, key Value, _ bool) (*Lvalue, error) {
	vec := container.Vector()
	i, err := exec.integerIndex(key, len(vec.elems))
	if err != nil {
		return nil, err
	}
	return base.element(vec, i, writable), nil
}

func (exec *Execution) integerIndex(key Value, length int) (int, error) {
	if key.kind != KindDouble {
		return 0, exec.errorf("vector index must be a double, got %s", key.kind)
	}
	if key.num != math.Trunc(key.num) {
		return 0, exec.errorf("vector index %s is not an integer", formatDouble(key.num))
	}
	if key.num < 0 || key.num >= float64(length) {
		return 0, exec.errorf("index %s out of range for vector of length %d", formatDouble(key.num), length)
	}
	return int(key.num), nil
}

func sizeVector(v Value) int {
	size := 48
	for _, elem := range v.Vector().elems {
		size += approximateSize(elem)
	}
	return size
}
