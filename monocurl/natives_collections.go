package monocurl

import (
	"fmt"
	"math"
	"slices"
)

func builtinLen(exec *Execution, args []Value) (Value, error) {
	v, err := exec.concrete(args[0])
	if err != nil {
		return Value{}, err
	}
	switch v.kind {
	case KindVector:
		return NewDouble(float64(v.Vector().Len())), nil
	case KindMap:
		return NewDouble(float64(v.Map().Len())), nil
	default:
		return Value{}, fmt.Errorf("len expects a vector or map, got %s", v.kind)
	}
}

func builtinAppend(exec *Execution, args []Value) (Value, error) {
	vec, err := exec.vectorArg("append", args[0])
	if err != nil {
		return Value{}, err
	}
	item, err := exec.concrete(args[1])
	if err != nil {
		return Value{}, err
	}
	return NewVector(append(slices.Clip(vec.elems), item)), nil
}

func builtinPop(exec *Execution, args []Value) (Value, error) {
	vec, err := exec.vectorArg("pop", args[0])
	if err != nil {
		return Value{}, err
	}
	if len(vec.elems) == 0 {
		return Value{}, fmt.Errorf("pop from an empty vector")
	}
	return NewVector(slices.Clone(vec.elems[:len(vec.elems)-1])), nil
}

func builtinReverse(exec *Execution, args []Value) (Value, error) {
	vec, err := exec.vectorArg("reverse", args[0])
	if err != nil {
		return Value{}, err
	}
	out := slices.Clone(vec.elems)
	slices.Reverse(out)
	return NewVector(out), nil
}

// builtinSort orders elements with the language's total comparison.
func builtinSort(exec *Execution, args []Value) (Value, error) {
	vec, err := exec.vectorArg("sort", args[0])
	if err != nil {
		return Value{}, err
	}
	out := slices.Clone(vec.elems)
	var sortErr error
	slices.SortStableFunc(out, func(a, b Value) int {
		if sortErr != nil {
			return 0
		}
		c, err := exec.compare(a, b)
		if err != nil {
			sortErr = err
		}
		return c
	})
	if sortErr != nil {
		return Value{}, sortErr
	}
	return NewVector(out), nil
}

// builtinRange accepts (end), (start, end) or (start, end, step).
func builtinRange(exec *Execution, args []Value) (Value, error) {
	if len(args) == 0 || len(args) > 3 {
		return Value{}, fmt.Errorf("range expects 1 to 3 arguments, got %d", len(args))
	}
	nums := make([]float64, len(args))
	for i, arg := range args {
		var err error
		if nums[i], err = exec.numberArg("range", arg); err != nil {
			return Value{}, err
		}
	}
	start, end, step := 0.0, nums[0], 1.0
	if len(nums) > 1 {
		start, end = nums[0], nums[1]
	}
	if len(nums) > 2 {
		step = nums[2]
	}
	if step == 0 {
		return Value{}, fmt.Errorf("range step must not be zero")
	}
	count := math.Ceil((end - start) / step)
	if count <= 0 {
		return NewVector(nil), nil
	}
	limit := exec.engine.config.HeapLimitBytes / 16
	if count > float64(limit) {
		return Value{}, fmt.Errorf("range of %s elements exceeds the heap limit", formatDouble(count))
	}
	out := make([]Value, int(count))
	for i := range out {
		out[i] = NewDouble(start + float64(i)*step)
	}
	return NewVector(out), nil
}

func builtinZip(exec *Execution, args []Value) (Value, error) {
	a, err := exec.vectorArg("zip", args[0])
	if err != nil {
		return Value{}, err
	}
	b, err := exec.vectorArg("zip", args[1])
	if err != nil {
		return Value{}, err
	}
	n := min(len(a.elems), len(b.elems))
	out := make([]Value, n)
	for i := 0; i < n; i++ {
		out[i] = NewVector([]Value{a.elems[i], b.elems[i]})
	}
	return NewVector(out), nil
}

func (exec *Execution) mapArg(fn string, v Value) (*Map, error) {
	v, err := exec.concrete(v)
	if err != nil {
		return nil, err
	}
	if v.kind != KindMap {
		return nil, fmt.Errorf("%s expects a map, got %s", fn, v.kind)
	}
	return v.Map(), nil
}

func builtinKeys(exec *Execution, args []Value) (Value, error) {
	m, err := exec.mapArg("keys", args[0])
	if err != nil {
		return Value{}, err
	}
	return NewVector(m.keys()), nil
}

func builtinValues(exec *Execution, args []Value) (Value, error) {
	m, err := exec.mapArg("values", args[0])
	if err != nil {
		return Value{}, err
	}
	out := make([]Value, 0, m.Len())
	m.each(func(_, value Value) bool {
		out = append(out, value)
		return true
	})
	return NewVector(out), nil
}

func builtinHas(exec *Execution, args []Value) (Value, error) {
	ok, err := exec.contains(args[0], args[1])
	if err != nil {
		return Value{}, err
	}
	return NewBool(ok), nil
}

// builtinRemove drops a key from a map or an index from a vector.
func builtinRemove(exec *Execution, args []Value) (Value, error) {
	coll, err := exec.concrete(args[0])
	if err != nil {
		return Value{}, err
	}
	key, err := exec.concrete(args[1])
	if err != nil {
		return Value{}, err
	}
	switch coll.kind {
	case KindMap:
		m := coll.Map().clone()
		if _, err := exec.mapRemove(m, key); err != nil {
			return Value{}, err
		}
		return NewMap(m), nil
	case KindVector:
		elems := coll.Vector().elems
		i, err := exec.integerIndex(key, len(elems))
		if err != nil {
			return Value{}, err
		}
		return NewVector(slices.Delete(slices.Clone(elems), i, i+1)), nil
	default:
		return Value{}, fmt.Errorf("remove expects a vector or map, got %s", coll.kind)
	}
}

// builtinSlice returns elements [start, end). Negative bounds count from
// the end.
func builtinSlice(exec *Execution, args []Value) (Value, error) {
	vec, err := exec.vectorArg("slice", args[0])
	if err != nil {
		return Value{}, err
	}
	n := len(vec.elems)
	bounds := [2]int{}
	for i := range bounds {
		x, err := exec.numberArg("slice", args[i+1])
		if err != nil {
			return Value{}, err
		}
		if x != math.Trunc(x) {
			return Value{}, fmt.Errorf("slice bound %s is not an integer", formatDouble(x))
		}
		if x < 0 {
			x += float64(n)
		}
		if x < 0 || x > float64(n) {
			return Value{}, fmt.Errorf("slice bound %s out of range for vector of length %d", formatDouble(x), n)
		}
		bounds[i] = int(x)
	}
	if bounds[0] > bounds[1] {
		return Value{}, fmt.Errorf("slice bounds are inverted: %d > %d", bounds[0], bounds[1])
	}
	return NewVector(slices.Clone(vec.elems[bounds[0]:bounds[1]])), nil
}

func builtinConcat(exec *Execution, args []Value) (Value, error) {
	var out []Value
	for _, arg := range args {
		vec, err := exec.vectorArg("concat", arg)
		if err != nil {
			return Value{}, err
		}
		out = append(out, vec.elems...)
	}
	return NewVector(out), nil
}
