package monocurl

// Functor is a function call that remembers its arguments. Its result is
// recomputed only when an argument written through an attribute changed
// its content hash.
type Functor struct {
	fn         Value
	name       string
	args       []functorArg
	result     *functorResult
	forceConst bool
}

type functorArg struct {
	name     string
	kind     paramKind
	field    Value
	lastHash uint64
	dirty    bool
	readOnly bool
}

// functorResult is shared between copies of a functor until one of them
// recomputes.
type functorResult struct {
	value Value
}

func (f *Functor) Name() string {
	return f.name
}

func (f *Functor) copy() *Functor {
	out := &Functor{fn: f.fn, name: f.name, result: f.result, forceConst: f.forceConst}
	out.args = make([]functorArg, len(f.args))
	for i, a := range f.args {
		if a.kind != paramReference {
			a.field = copyValue(a.field)
		}
		out.args[i] = a
	}
	return out
}

func (exec *Execution) fieldHash(v Value) (uint64, error) {
	if v.kind == KindUninitialized {
		return 0, nil
	}
	return exec.hash(v)
}

// Result returns the cached result, recomputing it first when a dirty
// argument's content changed.
func (f *Functor) Result(exec *Execution) (Value, error) {
	if f.forceConst {
		return f.result.value, nil
	}
	hashes := make([]uint64, len(f.args))
	changed := false
	for i, a := range f.args {
		hashes[i] = a.lastHash
		if !a.dirty {
			continue
		}
		h, err := exec.fieldHash(a.field)
		if err != nil {
			return Value{}, err
		}
		if h != a.lastHash {
			hashes[i] = h
			changed = true
		}
	}
	if changed {
		res, err := exec.invokeFunctor(f)
		if err != nil {
			return Value{}, err
		}
		f.result = &functorResult{value: res}
	}
	// Dirty bits and hashes are only committed once the result matches them.
	for i := range f.args {
		f.args[i].lastHash = hashes[i]
		f.args[i].dirty = false
	}
	return f.result.value, nil
}

func (exec *Execution) invokeFunctor(f *Functor) (Value, error) {
	args := make([]Value, len(f.args))
	for i, a := range f.args {
		if a.kind == paramReference {
			args[i] = a.field
		} else {
			args[i] = copyValue(a.field)
		}
	}
	res, err := exec.invoke(f.fn, args)
	if err != nil {
		return Value{}, err
	}
	if res.kind == KindUninitialized {
		return Value{}, exec.errorf("%s produced no value", f.name)
	}
	return res, nil
}

func attributeFunctor(exec *Execution, base *Lvalue, container Value, writable bool, name string) (*Lvalue, error) {
	f := container.Functor()
	for i := range f.args {
		a := &f.args[i]
		if a.name != name {
			continue
		}
		if f.forceConst {
			return nil, exec.errorf("attributes of %s are not accessible because it takes reference or function arguments", f.name)
		}
		a.dirty = true
		flavor := LvalueConst
		if writable && !a.readOnly {
			flavor = LvaluePersistent
		}
		return &Lvalue{flavor: flavor, slot: &a.field, stackIndex: -1, parent: base}, nil
	}
	res, err := f.Result(exec)
	if err != nil {
		return nil, err
	}
	fn := opsFor(res.kind).attribute
	if fn == nil {
		return nil, exec.errorf("%s has no argument %s", f.name, name)
	}
	return fn(exec, temporary(res), res, false, name)
}

type functorArgNode struct {
	name     string
	kind     paramKind
	expr     node
	lambda   *funcTemplate
	mode     string
	selected bool
	modeSlot bool
}

// functorNode evaluates a labeled-argument call and wraps it in a Functor.
type functorNode struct {
	fn   node
	name string
	args []functorArgNode
}

func (n *functorNode) eval(exec *Execution) (Value, error) {
	fnVal, err := n.fn.eval(exec)
	if err != nil {
		return Value{}, err
	}
	if fnVal, err = exec.concrete(fnVal); err != nil {
		return Value{}, err
	}
	if fnVal.kind != KindFunction {
		return Value{}, exec.unsupported("call", fnVal)
	}
	if err := exec.step(); err != nil {
		return Value{}, err
	}

	f := &Functor{fn: fnVal, name: n.name, args: make([]functorArg, len(n.args))}
	for i, spec := range n.args {
		arg := functorArg{name: spec.name, kind: spec.kind}
		switch {
		case spec.kind == paramReference:
			v, err := spec.expr.eval(exec)
			if err != nil {
				return Value{}, err
			}
			if v.kind != KindLvalue {
				return Value{}, exec.errorf("argument %s must be a variable", spec.name)
			}
			if _, writable, err := exec.resolve(v.lvalue()); err != nil {
				return Value{}, err
			} else if !writable {
				return Value{}, exec.errorf("argument %s must be an assignable variable", spec.name)
			}
			arg.field = v
			f.forceConst = true
		case spec.kind == paramFunction:
			fn, err := exec.instantiate(spec.lambda)
			if err != nil {
				return Value{}, err
			}
			arg.field = fn
			f.forceConst = true
		case spec.kind == paramGroup:
			arg.field = NewString(spec.mode)
			arg.readOnly = true
		case spec.modeSlot && !spec.selected:
		default:
			v, err := spec.expr.eval(exec)
			if err != nil {
				return Value{}, err
			}
			if arg.field, err = exec.prune(v); err != nil {
				return Value{}, err
			}
		}
		if arg.kind != paramReference {
			if arg.lastHash, err = exec.fieldHash(arg.field); err != nil {
				return Value{}, err
			}
		}
		f.args[i] = arg
	}

	res, err := exec.invokeFunctor(f)
	if err != nil {
		return Value{}, err
	}
	f.result = &functorResult{value: res}
	return newFunctorValue(f), nil
}
