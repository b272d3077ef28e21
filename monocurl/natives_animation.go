package monocurl

import (
	"fmt"
	"math"
)

// Sentinels of the built-in animations. Their bound parameters come first,
// followed by elapsed, dt, pull and push.
var (
	waitSentinel = &Native{Name: "wait", arity: 5, Fn: func(exec *Execution, args []Value) (Value, error) {
		duration, elapsed := args[0].num, args[1].num
		return finishedWhen(elapsed >= duration), nil
	}}
	setSentinel = &Native{Name: "set", arity: 4, Fn: func(exec *Execution, args []Value) (Value, error) {
		if err := exec.writePush(args[3], copyValue(args[2])); err != nil {
			return Value{}, err
		}
		return NewDouble(1), nil
	}}
	lerpSentinel = &Native{Name: "lerp", arity: 6, Fn: func(exec *Execution, args []Value) (Value, error) {
		start, duration, elapsed := args[0], args[1].num, args[2].num
		t := 1.0
		if duration > 0 {
			t = math.Min(elapsed/duration, 1)
		}
		v, err := exec.interpolate(start, args[4], t)
		if err != nil {
			return Value{}, err
		}
		if err := exec.writePush(args[5], v); err != nil {
			return Value{}, err
		}
		return finishedWhen(t >= 1), nil
	}}
)

func finishedWhen(done bool) Value {
	if done {
		return NewDouble(1)
	}
	return NewDouble(0)
}

func (exec *Execution) writePush(push Value, v Value) error {
	if push.kind != KindLvalue {
		return fmt.Errorf("animation target must be a variable, got %s", push.kind)
	}
	return exec.assign(push.lvalue(), v)
}

func (exec *Execution) durationArg(fn string, v Value) (float64, error) {
	t, err := exec.numberArg(fn, v)
	if err != nil {
		return 0, err
	}
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("%s expects a finite non-negative duration, got %s", fn, formatDouble(t))
	}
	return t, nil
}

// builtinWait plays nothing for the given number of seconds.
func builtinWait(exec *Execution, args []Value) (Value, error) {
	t, err := exec.durationArg("wait", args[0])
	if err != nil {
		return Value{}, err
	}
	return NewAnimation(bindNative(waitSentinel, NewDouble(t)), Value{}, Value{}), nil
}

// builtinSet writes value into target on its first tick.
func builtinSet(exec *Execution, args []Value) (Value, error) {
	value, err := exec.prune(args[1])
	if err != nil {
		return Value{}, err
	}
	return NewAnimation(bindNative(setSentinel), value, args[0]), nil
}

// builtinLerp moves target linearly from its current value to "to" over
// time seconds.
func builtinLerp(exec *Execution, args []Value) (Value, error) {
	start, err := exec.prune(args[0])
	if err != nil {
		return Value{}, err
	}
	to, err := exec.prune(args[1])
	if err != nil {
		return Value{}, err
	}
	t, err := exec.durationArg("lerp", args[2])
	if err != nil {
		return Value{}, err
	}
	if _, err := exec.interpolate(start, to, 0); err != nil {
		return Value{}, err
	}
	return NewAnimation(bindNative(lerpSentinel, start, NewDouble(t)), to, args[0]), nil
}

// builtinAnimation wraps a script sentinel function.
func builtinAnimation(exec *Execution, args []Value) (Value, error) {
	sentinel, err := exec.concrete(args[0])
	if err != nil {
		return Value{}, err
	}
	if sentinel.kind != KindFunction {
		return Value{}, fmt.Errorf("animation sentinel must be a function, got %s", sentinel.kind)
	}
	if w := sentinel.Function().signature().width(); sentinel.Function().native == nil && w != 4 {
		return Value{}, fmt.Errorf("animation sentinel must take 4 parameters (elapsed, dt, pull, push), got %d", w)
	}
	pull, err := exec.prune(args[1])
	if err != nil {
		return Value{}, err
	}
	return NewAnimation(sentinel, pull, args[2]), nil
}
