package monocurl

// AnimState is the progress of one animation or animation group.
type AnimState uint8

const (
	AnimUnplayed AnimState = iota
	AnimPlaying
	// AnimSentinelIfOthers finishes only once its siblings are finished.
	AnimSentinelIfOthers
	// AnimSentinelForce finishes regardless of its siblings.
	AnimSentinelForce
	AnimError
)

func (s AnimState) String() string {
	switch s {
	case AnimUnplayed:
		return "unplayed"
	case AnimPlaying:
		return "playing"
	case AnimSentinelIfOthers:
		return "finished-if-others"
	case AnimSentinelForce:
		return "finished"
	default:
		return "error"
	}
}

// Animation interpolates push toward pull. Each tick its sentinel is called
// with the elapsed time, the tick length, pull and push; a positive result
// finishes it, zero keeps it playing, and a negative result finishes it
// once its siblings have.
type Animation struct {
	pull     Value
	push     Value
	sentinel Value
	sticky   bool
	elapsed  float64
	state    AnimState
}

// NewAnimation builds an animation value. push should be an lvalue when the
// sentinel writes through it.
func NewAnimation(sentinel, pull, push Value) Value {
	return newAnimationValue(&Animation{sentinel: sentinel, pull: pull, push: push})
}

func (a *Animation) Elapsed() float64 { return a.elapsed }
func (a *Animation) State() AnimState { return a.state }
func (a *Animation) Sticky() bool     { return a.sticky }

func (a *Animation) copy() *Animation {
	out := *a
	out.pull = copyValue(a.pull)
	return &out
}

func (exec *Execution) makeSticky(v Value) (Value, error) {
	v, err := exec.concrete(v)
	if err != nil {
		return Value{}, err
	}
	if v.kind != KindAnimation {
		return Value{}, exec.errorf("sticky expects an animation, got %s", v.kind)
	}
	a := v.Animation().copy()
	a.sticky = true
	return newAnimationValue(a), nil
}

// stepLeaf advances a non-sticky animation by dt.
func (exec *Execution) stepLeaf(a *Animation, dt float64) (AnimState, error) {
	if a.state == AnimSentinelForce {
		return a.state, nil
	}
	a.elapsed += dt
	args := []Value{NewDouble(a.elapsed), NewDouble(dt), copyValue(a.pull), a.push}
	sentinel, err := exec.concrete(a.sentinel)
	if err != nil {
		a.state = AnimError
		return a.state, err
	}
	if sentinel.kind != KindFunction {
		a.state = AnimError
		return a.state, exec.errorf("animation sentinel must be a function, got %s", sentinel.kind)
	}
	fn := sentinel.Function()
	if sig := fn.signature(); sig != nil && len(sig.params) == 4 && sig.params[3].kind != paramReference {
		args[3], err = exec.prune(a.push)
		if err != nil {
			a.state = AnimError
			return a.state, err
		}
	}
	res, err := exec.invoke(sentinel, args)
	if err == nil {
		res, err = exec.concrete(res)
	}
	if err != nil {
		a.state = AnimError
		return a.state, err
	}
	if res.kind != KindDouble {
		a.state = AnimError
		return a.state, exec.errorf("animation sentinel must return a double, got %s", res.kind)
	}
	switch {
	case res.num > 0:
		a.state = AnimSentinelForce
	case res.num < 0:
		a.state = AnimSentinelIfOthers
	default:
		a.state = AnimPlaying
	}
	return a.state, nil
}
