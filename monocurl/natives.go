package monocurl

import (
	"fmt"
	"strings"
)

type nativeSpec struct {
	name   string
	params string
	arity  int
	fn     NativeFunc
}

// builtinNatives is the library installed into every engine. Entries with
// params use labeled-argument calls; arity -1 is variadic.
var builtinNatives = []nativeSpec{
	{name: "abs", arity: 1, fn: unaryMath("abs", mathAbs)},
	{name: "floor", arity: 1, fn: unaryMath("floor", mathFloor)},
	{name: "ceil", arity: 1, fn: unaryMath("ceil", mathCeil)},
	{name: "round", arity: 1, fn: unaryMath("round", mathRound)},
	{name: "sqrt", arity: 1, fn: unaryMath("sqrt", mathSqrt)},
	{name: "exp", arity: 1, fn: unaryMath("exp", mathExp)},
	{name: "ln", arity: 1, fn: unaryMath("ln", mathLog)},
	{name: "log10", arity: 1, fn: unaryMath("log10", mathLog10)},
	{name: "sign", arity: 1, fn: unaryMath("sign", mathSign)},
	{name: "min", arity: -1, fn: builtinMin},
	{name: "max", arity: -1, fn: builtinMax},
	{name: "mod", arity: 2, fn: builtinMod},
	{name: "clamp", arity: 3, fn: builtinClamp},

	{name: "sin", arity: 1, fn: unaryMath("sin", mathSin)},
	{name: "cos", arity: 1, fn: unaryMath("cos", mathCos)},
	{name: "tan", arity: 1, fn: unaryMath("tan", mathTan)},
	{name: "asin", arity: 1, fn: unaryMath("asin", mathAsin)},
	{name: "acos", arity: 1, fn: unaryMath("acos", mathAcos)},
	{name: "atan", arity: 1, fn: unaryMath("atan", mathAtan)},
	{name: "atan2", arity: 2, fn: builtinAtan2},
	{name: "deg", arity: 1, fn: unaryMath("deg", mathDeg)},
	{name: "rad", arity: 1, fn: unaryMath("rad", mathRad)},

	{name: "sum", arity: 1, fn: builtinSum},
	{name: "mean", arity: 1, fn: builtinMean},
	{name: "variance", arity: 1, fn: builtinVariance},
	{name: "stdev", arity: 1, fn: builtinStdev},
	{name: "median", arity: 1, fn: builtinMedian},

	{name: "len", arity: 1, fn: builtinLen},
	{name: "append", arity: 2, fn: builtinAppend},
	{name: "pop", arity: 1, fn: builtinPop},
	{name: "reverse", arity: 1, fn: builtinReverse},
	{name: "sort", arity: 1, fn: builtinSort},
	{name: "range", arity: -1, fn: builtinRange},
	{name: "zip", arity: 2, fn: builtinZip},
	{name: "keys", arity: 1, fn: builtinKeys},
	{name: "values", arity: 1, fn: builtinValues},
	{name: "has", arity: 2, fn: builtinHas},
	{name: "remove", arity: 2, fn: builtinRemove},
	{name: "slice", arity: 3, fn: builtinSlice},
	{name: "concat", arity: -1, fn: builtinConcat},

	{name: "dot", arity: 2, fn: builtinDot},
	{name: "cross", arity: 2, fn: builtinCross},
	{name: "norm", arity: 1, fn: builtinNorm},
	{name: "normalize", arity: 1, fn: builtinNormalize},
	{name: "mix", arity: 3, fn: builtinMix},
	{name: "polygon", arity: -1, fn: builtinPolygon},
	{name: "translate", arity: 2, fn: builtinTranslate},
	{name: "scale", arity: 2, fn: builtinScale},
	{name: "mesh_points", arity: 1, fn: builtinMeshPoints},
	{name: "mesh_tag", arity: 1, fn: builtinMeshTag},

	{name: "wait", arity: 1, fn: builtinWait},
	{name: "set", params: "target&, value", fn: builtinSet},
	{name: "lerp", params: "target&, to, time", fn: builtinLerp},
	{name: "animation", params: "sentinel, pull, push&", fn: builtinAnimation},

	{name: "str", arity: 1, fn: builtinStr},
	{name: "print", arity: -1, fn: builtinPrint},
}

func (exec *Execution) numberArg(fn string, v Value) (float64, error) {
	v, err := exec.concrete(v)
	if err != nil {
		return 0, err
	}
	if v.kind != KindDouble {
		return 0, fmt.Errorf("%s expects a number, got %s", fn, v.kind)
	}
	return v.num, nil
}

func (exec *Execution) vectorArg(fn string, v Value) (*Vector, error) {
	v, err := exec.concrete(v)
	if err != nil {
		return nil, err
	}
	if v.kind != KindVector {
		return nil, fmt.Errorf("%s expects a vector, got %s", fn, v.kind)
	}
	return v.Vector(), nil
}

func (exec *Execution) numbersArg(fn string, v Value) ([]float64, error) {
	vec, err := exec.vectorArg(fn, v)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vec.elems))
	for i, elem := range vec.elems {
		if out[i], err = exec.numberArg(fn, elem); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (exec *Execution) meshArg(fn string, v Value) (Mesh, error) {
	v, err := exec.concrete(v)
	if err != nil {
		return nil, err
	}
	if v.kind != KindMesh {
		return nil, fmt.Errorf("%s expects a mesh, got %s", fn, v.kind)
	}
	return v.Mesh(), nil
}

func numbersValue(nums []float64) Value {
	out := make([]Value, len(nums))
	for i, n := range nums {
		out[i] = NewDouble(n)
	}
	return NewVector(out)
}

func builtinStr(exec *Execution, args []Value) (Value, error) {
	v, err := exec.concrete(args[0])
	if err != nil {
		return Value{}, err
	}
	if text, ok := v.Text(); ok {
		return NewString(text), nil
	}
	return NewString(v.String()), nil
}

func builtinPrint(exec *Execution, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, arg := range args {
		v, err := exec.concrete(arg)
		if err != nil {
			return Value{}, err
		}
		if text, ok := v.Text(); ok {
			parts[i] = text
		} else {
			parts[i] = v.String()
		}
	}
	line := strings.Join(parts, " ")
	if _, err := fmt.Fprintln(exec.engine.config.Output, line); err != nil {
		return Value{}, fmt.Errorf("print: %w", err)
	}
	return NewString(line), nil
}
