package monocurl

import (
	"fmt"
	"math"
	"slices"
)

func mathAbs(x float64) float64   { return math.Abs(x) }
func mathFloor(x float64) float64 { return math.Floor(x) }
func mathCeil(x float64) float64  { return math.Ceil(x) }
func mathRound(x float64) float64 { return math.Round(x) }
func mathSqrt(x float64) float64  { return math.Sqrt(x) }
func mathExp(x float64) float64   { return math.Exp(x) }
func mathLog(x float64) float64   { return math.Log(x) }
func mathLog10(x float64) float64 { return math.Log10(x) }
func mathSin(x float64) float64   { return math.Sin(x) }
func mathCos(x float64) float64   { return math.Cos(x) }
func mathTan(x float64) float64   { return math.Tan(x) }
func mathAsin(x float64) float64  { return math.Asin(x) }
func mathAcos(x float64) float64  { return math.Acos(x) }
func mathAtan(x float64) float64  { return math.Atan(x) }
func mathDeg(x float64) float64   { return x * 180 / math.Pi }
func mathRad(x float64) float64   { return x * math.Pi / 180 }

func mathSign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// unaryMath lifts fn over a number or, elementwise, over nested vectors.
func unaryMath(name string, fn func(float64) float64) NativeFunc {
	var apply func(exec *Execution, v Value) (Value, error)
	apply = func(exec *Execution, v Value) (Value, error) {
		v, err := exec.concrete(v)
		if err != nil {
			return Value{}, err
		}
		switch v.kind {
		case KindDouble:
			out := fn(v.num)
			if math.IsNaN(out) {
				return Value{}, fmt.Errorf("%s is undefined for %s", name, formatDouble(v.num))
			}
			return NewDouble(out), nil
		case KindVector:
			elems := v.Vector().elems
			out := make([]Value, len(elems))
			for i, elem := range elems {
				if out[i], err = apply(exec, elem); err != nil {
					return Value{}, err
				}
			}
			return NewVector(out), nil
		default:
			return Value{}, fmt.Errorf("%s expects a number or vector, got %s", name, v.kind)
		}
	}
	return func(exec *Execution, args []Value) (Value, error) {
		return apply(exec, args[0])
	}
}

// extremeArgs accepts either several numbers or one vector of numbers.
func (exec *Execution) extremeArgs(name string, args []Value) ([]float64, error) {
	if len(args) == 1 {
		v, err := exec.concrete(args[0])
		if err != nil {
			return nil, err
		}
		if v.kind == KindVector {
			return exec.numbersArg(name, v)
		}
	}
	out := make([]float64, len(args))
	for i, arg := range args {
		var err error
		if out[i], err = exec.numberArg(name, arg); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func builtinMin(exec *Execution, args []Value) (Value, error) {
	nums, err := exec.extremeArgs("min", args)
	if err != nil {
		return Value{}, err
	}
	if len(nums) == 0 {
		return Value{}, fmt.Errorf("min expects at least one number")
	}
	return NewDouble(slices.Min(nums)), nil
}

func builtinMax(exec *Execution, args []Value) (Value, error) {
	nums, err := exec.extremeArgs("max", args)
	if err != nil {
		return Value{}, err
	}
	if len(nums) == 0 {
		return Value{}, fmt.Errorf("max expects at least one number")
	}
	return NewDouble(slices.Max(nums)), nil
}

// builtinMod returns a result with the sign of the divisor.
func builtinMod(exec *Execution, args []Value) (Value, error) {
	a, err := exec.numberArg("mod", args[0])
	if err != nil {
		return Value{}, err
	}
	b, err := exec.numberArg("mod", args[1])
	if err != nil {
		return Value{}, err
	}
	if b == 0 {
		return Value{}, fmt.Errorf("mod by zero")
	}
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return NewDouble(r), nil
}

func builtinClamp(exec *Execution, args []Value) (Value, error) {
	var nums [3]float64
	for i := range nums {
		var err error
		if nums[i], err = exec.numberArg("clamp", args[i]); err != nil {
			return Value{}, err
		}
	}
	x, lo, hi := nums[0], nums[1], nums[2]
	if lo > hi {
		return Value{}, fmt.Errorf("clamp bounds are inverted: %s > %s", formatDouble(lo), formatDouble(hi))
	}
	return NewDouble(math.Min(math.Max(x, lo), hi)), nil
}

func builtinAtan2(exec *Execution, args []Value) (Value, error) {
	y, err := exec.numberArg("atan2", args[0])
	if err != nil {
		return Value{}, err
	}
	x, err := exec.numberArg("atan2", args[1])
	if err != nil {
		return Value{}, err
	}
	return NewDouble(math.Atan2(y, x)), nil
}

func builtinSum(exec *Execution, args []Value) (Value, error) {
	nums, err := exec.numbersArg("sum", args[0])
	if err != nil {
		return Value{}, err
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return NewDouble(total), nil
}

func (exec *Execution) sampleArg(name string, v Value) ([]float64, error) {
	nums, err := exec.numbersArg(name, v)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return nil, fmt.Errorf("%s of an empty vector", name)
	}
	return nums, nil
}

func mean(nums []float64) float64 {
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total / float64(len(nums))
}

func variance(nums []float64) float64 {
	m := mean(nums)
	total := 0.0
	for _, n := range nums {
		total += (n - m) * (n - m)
	}
	return total / float64(len(nums))
}

func builtinMean(exec *Execution, args []Value) (Value, error) {
	nums, err := exec.sampleArg("mean", args[0])
	if err != nil {
		return Value{}, err
	}
	return NewDouble(mean(nums)), nil
}

func builtinVariance(exec *Execution, args []Value) (Value, error) {
	nums, err := exec.sampleArg("variance", args[0])
	if err != nil {
		return Value{}, err
	}
	return NewDouble(variance(nums)), nil
}

func builtinStdev(exec *Execution, args []Value) (Value, error) {
	nums, err := exec.sampleArg("stdev", args[0])
	if err != nil {
		return Value{}, err
	}
	return NewDouble(math.Sqrt(variance(nums))), nil
}

func builtinMedian(exec *Execution, args []Value) (Value, error) {
	nums, err := exec.sampleArg("median", args[0])
	if err != nil {
		return Value{}, err
	}
	slices.Sort(nums)
	mid := len(nums) / 2
	if len(nums)%2 == 1 {
		return NewDouble(nums[mid]), nil
	}
	return NewDouble((nums[mid-1] + nums[mid]) / 2), nil
}
