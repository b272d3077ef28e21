package monocurl

// stmt wraps a statement with the source location used in error reports.
type stmt struct {
	pos  Position
	src  string
	node node
}

// block is a statement list. Slots [base, base+count) of the frame hold the
// block's own declarations; they are cleared on exit unless the block is a
// slide root, whose declarations persist into later slides.
type block struct {
	stmts      []stmt
	base       int
	count      int
	persistent bool
}

func (exec *Execution) evalBlock(b *block) (Value, error) {
	var result Value
	var err error
	for _, s := range b.stmts {
		exec.pos, exec.src = s.pos, s.src
		if err = exec.step(); err != nil {
			break
		}
		result, err = s.node.eval(exec)
		if err != nil || exec.returning {
			break
		}
	}
	if !b.persistent {
		exec.clearSlots(exec.fp+b.base, exec.fp+b.base+b.count)
	}
	if err != nil {
		return Value{}, err
	}
	return result, nil
}

type exprStmt struct {
	expr node
}

func (n *exprStmt) eval(exec *Execution) (Value, error) {
	v, err := n.expr.eval(exec)
	if err != nil {
		return Value{}, err
	}
	return exec.prune(v)
}

type declStmt struct {
	name string
	slot int
	expr node
}

func (n *declStmt) eval(exec *Execution) (Value, error) {
	v, err := n.expr.eval(exec)
	if err != nil {
		return Value{}, err
	}
	if v, err = exec.prune(v); err != nil {
		return Value{}, err
	}
	if v.kind == KindUninitialized {
		return Value{}, exec.errorf("%s is initialized with an uninitialized value", n.name)
	}
	exec.stack[exec.fp+n.slot] = v
	return Value{}, nil
}

type funcStmt struct {
	slot int
	tmpl *funcTemplate
}

func (n *funcStmt) eval(exec *Execution) (Value, error) {
	fn, err := exec.instantiate(n.tmpl)
	if err != nil {
		return Value{}, err
	}
	exec.stack[exec.fp+n.slot] = fn
	return Value{}, nil
}

type assignStmt struct {
	target node
	value  node
	plus   bool
}

// eval computes the right-hand side before resolving the target so the
// target lvalue cannot be invalidated by the evaluation.
func (n *assignStmt) eval(exec *Execution) (Value, error) {
	v, err := n.value.eval(exec)
	if err != nil {
		return Value{}, err
	}
	if v, err = exec.prune(v); err != nil {
		return Value{}, err
	}
	if v.kind == KindUninitialized {
		return Value{}, exec.errorf("cannot assign an uninitialized value")
	}
	target, err := n.target.eval(exec)
	if err != nil {
		return Value{}, err
	}
	if target.kind != KindLvalue {
		return Value{}, exec.errorf("cannot assign to a temporary value")
	}
	if n.plus {
		return Value{}, exec.plusAssign(target, v)
	}
	return Value{}, exec.assign(target.lvalue(), v)
}

type ifStmt struct {
	conds    []node
	bodies   []*block
	elseBody *block
}

func (n *ifStmt) eval(exec *Execution) (Value, error) {
	for i, cond := range n.conds {
		c, err := cond.eval(exec)
		if err != nil {
			return Value{}, err
		}
		ok, err := exec.truth(c)
		if err != nil {
			return Value{}, err
		}
		if ok {
			return exec.evalBlock(n.bodies[i])
		}
	}
	if n.elseBody != nil {
		return exec.evalBlock(n.elseBody)
	}
	return Value{}, nil
}

type whileStmt struct {
	cond node
	body *block
}

func (n *whileStmt) eval(exec *Execution) (Value, error) {
	for {
		c, err := n.cond.eval(exec)
		if err != nil {
			return Value{}, err
		}
		ok, err := exec.truth(c)
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return Value{}, nil
		}
		if _, err := exec.evalBlock(n.body); err != nil {
			return Value{}, err
		}
		if exec.returning {
			return Value{}, nil
		}
	}
}

// forStmt binds slot to each element of a copy of the iterable. Direct
// ranges are iterated without building the vector.
type forStmt struct {
	slot int
	iter node
	body *block
}

func (n *forStmt) eval(exec *Execution) (Value, error) {
	defer exec.clearSlots(exec.fp+n.slot, exec.fp+n.slot+1)
	if r, ok := n.iter.(*rangeNode); ok {
		start, end, err := r.bounds(exec)
		if err != nil {
			return Value{}, err
		}
		for x := start; x < end; x++ {
			if done, err := n.iterate(exec, NewDouble(x)); done || err != nil {
				return Value{}, err
			}
		}
		return Value{}, nil
	}

	it, err := n.iter.eval(exec)
	if err != nil {
		return Value{}, err
	}
	if it, err = exec.concrete(it); err != nil {
		return Value{}, err
	}
	var elems []Value
	switch it.kind {
	case KindVector:
		elems = copyVector(it).Vector().elems
	case KindMap:
		elems = it.Map().keys()
	default:
		return Value{}, exec.errorf("cannot iterate over %s", it.kind)
	}
	for _, elem := range elems {
		if done, err := n.iterate(exec, copyValue(elem)); done || err != nil {
			return Value{}, err
		}
	}
	return Value{}, nil
}

func (n *forStmt) iterate(exec *Execution, v Value) (bool, error) {
	exec.stack[exec.fp+n.slot] = v
	if _, err := exec.evalBlock(n.body); err != nil {
		return true, err
	}
	return exec.returning, nil
}

type returnStmt struct {
	expr node
}

func (n *returnStmt) eval(exec *Execution) (Value, error) {
	v, err := n.expr.eval(exec)
	if err != nil {
		return Value{}, err
	}
	if v, err = exec.prune(v); err != nil {
		return Value{}, err
	}
	exec.retval = v
	exec.returning = true
	return Value{}, nil
}
