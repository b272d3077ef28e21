package monocurl

import "math"

// node is a compiled expression or statement.
type node interface {
	eval(exec *Execution) (Value, error)
}

type literalNode struct {
	value Value
}

func (n *literalNode) eval(*Execution) (Value, error) {
	return n.value, nil
}

type stringNode struct {
	text string
}

func (n *stringNode) eval(*Execution) (Value, error) {
	return NewString(n.text), nil
}

type vectorNode struct {
	elems []node
}

func (n *vectorNode) eval(exec *Execution) (Value, error) {
	out := make([]Value, len(n.elems))
	for i, elem := range n.elems {
		v, err := elem.eval(exec)
		if err != nil {
			return Value{}, err
		}
		if out[i], err = exec.prune(v); err != nil {
			return Value{}, err
		}
	}
	return NewVector(out), nil
}

type mapNode struct {
	keys   []node
	values []node
}

func (n *mapNode) eval(exec *Execution) (Value, error) {
	m := newMap(len(n.keys))
	for i := range n.keys {
		k, err := n.keys[i].eval(exec)
		if err != nil {
			return Value{}, err
		}
		if k, err = exec.concrete(k); err != nil {
			return Value{}, err
		}
		v, err := n.values[i].eval(exec)
		if err != nil {
			return Value{}, err
		}
		if v, err = exec.prune(v); err != nil {
			return Value{}, err
		}
		if err := exec.mapSet(m, copyValue(k), v); err != nil {
			return Value{}, err
		}
	}
	return NewMap(m), nil
}

// localNode reads a slot of the current frame.
type localNode struct {
	name   string
	slot   int
	flavor LvalueFlavor
}

func (n *localNode) eval(exec *Execution) (Value, error) {
	return newLvalueValue(exec.stackLvalue(exec.fp+n.slot, n.flavor)), nil
}

// captureNode reads a value captured by the running closure.
type captureNode struct {
	name  string
	index int
}

func (n *captureNode) eval(exec *Execution) (Value, error) {
	return newLvalueValue(heapLvalue(LvalueConst, &exec.captures[n.index])), nil
}

type unaryNode struct {
	op      TokenType
	operand node
}

func (n *unaryNode) eval(exec *Execution) (Value, error) {
	v, err := n.operand.eval(exec)
	if err != nil {
		return Value{}, err
	}
	switch n.op {
	case tokenMinus:
		return exec.negate(v)
	case tokenBang:
		b, err := exec.truth(v)
		if err != nil {
			return Value{}, err
		}
		return NewBool(!b), nil
	default:
		return exec.makeSticky(v)
	}
}

type arithNode struct {
	op          binaryOp
	left, right node
}

func (n *arithNode) eval(exec *Execution) (Value, error) {
	l, err := n.left.eval(exec)
	if err != nil {
		return Value{}, err
	}
	r, err := n.right.eval(exec)
	if err != nil {
		return Value{}, err
	}
	return exec.arith(n.op, l, r)
}

type compareNode struct {
	op          TokenType
	left, right node
}

func (n *compareNode) eval(exec *Execution) (Value, error) {
	l, err := n.left.eval(exec)
	if err != nil {
		return Value{}, err
	}
	r, err := n.right.eval(exec)
	if err != nil {
		return Value{}, err
	}
	c, err := exec.compare(l, r)
	if err != nil {
		return Value{}, err
	}
	switch n.op {
	case tokenEQ:
		return NewBool(c == 0), nil
	case tokenNotEQ:
		return NewBool(c != 0), nil
	case tokenLT:
		return NewBool(c < 0), nil
	case tokenLTE:
		return NewBool(c <= 0), nil
	case tokenGT:
		return NewBool(c > 0), nil
	default:
		return NewBool(c >= 0), nil
	}
}

type logicalNode struct {
	and         bool
	left, right node
}

func (n *logicalNode) eval(exec *Execution) (Value, error) {
	l, err := n.left.eval(exec)
	if err != nil {
		return Value{}, err
	}
	lb, err := exec.truth(l)
	if err != nil {
		return Value{}, err
	}
	if n.and != lb {
		return NewBool(lb), nil
	}
	r, err := n.right.eval(exec)
	if err != nil {
		return Value{}, err
	}
	rb, err := exec.truth(r)
	if err != nil {
		return Value{}, err
	}
	return NewBool(rb), nil
}

type containsNode struct {
	item, coll node
}

func (n *containsNode) eval(exec *Execution) (Value, error) {
	item, err := n.item.eval(exec)
	if err != nil {
		return Value{}, err
	}
	coll, err := n.coll.eval(exec)
	if err != nil {
		return Value{}, err
	}
	ok, err := exec.contains(coll, item)
	if err != nil {
		return Value{}, err
	}
	return NewBool(ok), nil
}

// rangeNode builds the half-open sequence start, start+1, ... below end.
type rangeNode struct {
	start, end node
}

func (n *rangeNode) bounds(exec *Execution) (float64, float64, error) {
	s, err := n.start.eval(exec)
	if err != nil {
		return 0, 0, err
	}
	e, err := n.end.eval(exec)
	if err != nil {
		return 0, 0, err
	}
	if s, err = exec.concrete(s); err != nil {
		return 0, 0, err
	}
	if e, err = exec.concrete(e); err != nil {
		return 0, 0, err
	}
	if s.kind != KindDouble || e.kind != KindDouble {
		return 0, 0, exec.errorf("range bounds must be doubles, got %s and %s", s.kind, e.kind)
	}
	if math.IsInf(s.num, 0) || math.IsInf(e.num, 0) || math.IsNaN(s.num) || math.IsNaN(e.num) {
		return 0, 0, exec.errorf("range bounds must be finite")
	}
	return s.num, e.num, nil
}

func (n *rangeNode) eval(exec *Execution) (Value, error) {
	start, end, err := n.bounds(exec)
	if err != nil {
		return Value{}, err
	}
	var out []Value
	for x := start; x < end; x++ {
		out = append(out, NewDouble(x))
		if len(out)%4096 == 0 {
			if err := exec.step(); err != nil {
				return Value{}, err
			}
		}
	}
	return NewVector(out), nil
}

type indexNode struct {
	base, key node
	create    bool
}

func (n *indexNode) eval(exec *Execution) (Value, error) {
	base, err := n.base.eval(exec)
	if err != nil {
		return Value{}, err
	}
	key, err := n.key.eval(exec)
	if err != nil {
		return Value{}, err
	}
	return exec.index(base, key, n.create)
}

type attrNode struct {
	base node
	name string
}

func (n *attrNode) eval(exec *Execution) (Value, error) {
	base, err := n.base.eval(exec)
	if err != nil {
		return Value{}, err
	}
	return exec.attribute(base, n.name)
}

type callNode struct {
	fn   node
	args []node
}

func (n *callNode) eval(exec *Execution) (Value, error) {
	fn, err := n.fn.eval(exec)
	if err != nil {
		return Value{}, err
	}
	args := make([]Value, len(n.args))
	for i, arg := range n.args {
		v, err := arg.eval(exec)
		if err != nil {
			return Value{}, err
		}
		if args[i], err = exec.prune(v); err != nil {
			return Value{}, err
		}
	}
	if err := exec.step(); err != nil {
		return Value{}, err
	}
	target, err := exec.concrete(fn)
	if err != nil {
		return Value{}, err
	}
	if target.kind == KindFunction && target.Function().signature().needsFunctor() {
		return Value{}, exec.errorf("%s must be called with labeled arguments", target.Function().Name())
	}
	return exec.call(target, args)
}
