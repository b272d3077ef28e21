package monocurl

import "fmt"

// schedNode mirrors a played value: a leaf animation or a vector whose
// children are split into runs. A run is a prefix of sticky animations
// followed by the non-sticky animations they attach to. Runs play one
// after another; members of a run play in parallel.
type schedNode struct {
	anim      *Animation
	runs      [][]*schedNode
	current   int
	activated bool
	state     AnimState
}

func (exec *Execution) buildSchedule(v Value) (*schedNode, error) {
	v, err := exec.concrete(v)
	if err != nil {
		return nil, err
	}
	switch v.kind {
	case KindAnimation:
		a := v.Animation().copy()
		a.elapsed = 0
		a.state = AnimUnplayed
		return &schedNode{anim: a}, nil
	case KindVector:
		node := &schedNode{}
		var run []*schedNode
		runHasBody := false
		for _, elem := range v.Vector().elems {
			child, err := exec.buildSchedule(elem)
			if err != nil {
				return nil, err
			}
			sticky := child.anim != nil && child.anim.sticky
			if sticky && runHasBody {
				node.runs = append(node.runs, run)
				run, runHasBody = nil, false
			}
			run = append(run, child)
			if !sticky {
				runHasBody = true
			}
		}
		if len(run) > 0 {
			if !runHasBody {
				return nil, exec.errorf("sticky animation must be followed by a non-sticky animation")
			}
			node.runs = append(node.runs, run)
		}
		return node, nil
	default:
		return nil, exec.errorf("cannot play %s", v.kind)
	}
}

func isSticky(n *schedNode) bool {
	return n.anim != nil && n.anim.sticky
}

// subStep advances node by dt and reports its aggregate state. A
// conditional finish is passed up for the parent to resolve.
func (exec *Execution) subStep(node *schedNode, dt float64) (AnimState, error) {
	if node.anim != nil {
		return exec.stepLeaf(node.anim, dt)
	}
	if node.state == AnimSentinelForce || node.state == AnimSentinelIfOthers {
		return node.state, nil
	}
	if len(node.runs) == 0 {
		node.state = AnimSentinelForce
		return node.state, nil
	}

	run := node.runs[node.current]
	if !node.activated {
		if err := exec.activateRun(run); err != nil {
			return AnimError, err
		}
		node.activated = true
	}

	playing, force := false, false
	for _, member := range run {
		if isSticky(member) {
			continue
		}
		st, err := exec.subStep(member, dt)
		if err != nil {
			node.state = AnimError
			return AnimError, err
		}
		switch st {
		case AnimPlaying:
			playing = true
		case AnimSentinelForce:
			force = true
		}
	}

	aggregate := AnimSentinelIfOthers
	switch {
	case playing:
		return AnimPlaying, nil
	case force:
		aggregate = AnimSentinelForce
	}
	if node.current < len(node.runs)-1 {
		if aggregate == AnimSentinelIfOthers {
			node.state = AnimError
			return AnimError, exec.errorf("conditionally finished animations need an unconditional sibling")
		}
		node.current++
		node.activated = false
		return AnimPlaying, nil
	}
	node.state = aggregate
	return aggregate, nil
}

// activateRun applies the sticky members of a run. They never step; their
// pull is written to their push once when the run starts.
func (exec *Execution) activateRun(run []*schedNode) error {
	for _, member := range run {
		if !isSticky(member) {
			continue
		}
		a := member.anim
		if a.push.kind == KindLvalue && a.pull.kind != KindUninitialized {
			if err := exec.assign(a.push.lvalue(), copyValue(a.pull)); err != nil {
				return err
			}
		}
		a.state = AnimSentinelIfOthers
	}
	return nil
}

// reallyStep advances the root of a play statement. A conditional finish
// at the root has nothing left to wait for and counts as done.
func (exec *Execution) reallyStep(root *schedNode, dt float64) (bool, error) {
	st, err := exec.subStep(root, dt)
	if err != nil {
		return false, err
	}
	return st == AnimSentinelForce || st == AnimSentinelIfOthers, nil
}

type playStmt struct {
	expr node
	view frameView
}

func (n *playStmt) eval(exec *Execution) (Value, error) {
	v, err := n.expr.eval(exec)
	if err != nil {
		return Value{}, err
	}
	if v, err = exec.prune(v); err != nil {
		return Value{}, err
	}
	root, err := exec.buildSchedule(v)
	if err != nil {
		return Value{}, err
	}

	engine := exec.engine
	prev := engine.state
	engine.state = StateAnimation
	defer func() { engine.state = prev }()

	dt := 1 / engine.config.FrameRate
	for frame := 0; ; frame++ {
		if frame >= engine.config.MaxAnimationFrames {
			return Value{}, exec.errorf("animation exceeded %d frames", engine.config.MaxAnimationFrames)
		}
		done, err := exec.reallyStep(root, dt)
		if err != nil {
			return Value{}, err
		}
		exec.animTime += dt
		if hook := engine.config.FrameHook; hook != nil {
			f, err := exec.frame(n.view)
			if err != nil {
				return Value{}, err
			}
			if err := hook(f); err != nil {
				return Value{}, exec.wrapError(fmt.Errorf("frame hook: %w", err))
			}
		}
		if in := engine.config.Interrupter; in != nil {
			in.PreInterrupt()
			in.PostInterrupt()
		}
		if err := exec.checkInterrupt(); err != nil {
			return Value{}, err
		}
		if done {
			return Value{}, nil
		}
	}
}
