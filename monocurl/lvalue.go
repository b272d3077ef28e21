package monocurl

// LvalueFlavor controls whether writes through an lvalue are allowed and
// how long the referenced storage is expected to live.
type LvalueFlavor uint8

const (
	// LvalueMutable refers to a var or tree slot or an element inside one.
	LvalueMutable LvalueFlavor = iota
	// LvalueConst refers to storage that may only be read.
	LvalueConst
	// LvaluePersistent refers to storage owned by a value that outlives the
	// expression, such as a functor argument field.
	LvaluePersistent
	// LvalueParameter is assignable exactly once and binds call arguments.
	LvalueParameter
	// LvalueReference wraps a slot that itself holds an lvalue, as with
	// reference parameters.
	LvalueReference
)

// hashOwner is a container whose cached hash goes stale when one of its
// elements is written through an lvalue.
type hashOwner interface {
	invalidateHash()
}

// Lvalue is an assignable or readable handle to a value slot. Slots on the
// execution stack carry their index and the generation they were created
// in, so handles that outlive their frame are detected instead of reading
// reused storage.
type Lvalue struct {
	flavor     LvalueFlavor
	slot       *Value
	vec        *Vector
	index      int
	stackIndex int
	gen        uint32
	owner      hashOwner
	parent     *Lvalue
	bound      bool
}

func heapLvalue(flavor LvalueFlavor, slot *Value) *Lvalue {
	return &Lvalue{flavor: flavor, slot: slot, stackIndex: -1}
}

// temporary wraps an rvalue so it can be indexed like a variable.
func temporary(v Value) *Lvalue {
	slot := v
	return heapLvalue(LvalueConst, &slot)
}

// child derives the handle for an element stored inside lv's value.
func (lv *Lvalue) child(slot *Value, owner hashOwner, writable bool) *Lvalue {
	return &Lvalue{flavor: lv.childFlavor(writable), slot: slot, stackIndex: -1, owner: owner, parent: lv}
}

// element derives the handle for vec[i]. The slot is looked up on every
// access since appends may move the backing array.
func (lv *Lvalue) element(vec *Vector, i int, writable bool) *Lvalue {
	return &Lvalue{flavor: lv.childFlavor(writable), vec: vec, index: i, stackIndex: -1, owner: vec, parent: lv}
}

func (lv *Lvalue) childFlavor(writable bool) LvalueFlavor {
	if !writable {
		return LvalueConst
	}
	if lv.flavor == LvaluePersistent {
		return LvaluePersistent
	}
	return LvalueMutable
}

// ref returns the storage lv points at, or nil when it no longer exists.
func (lv *Lvalue) ref() *Value {
	if lv.vec != nil {
		if lv.index >= len(lv.vec.elems) {
			return nil
		}
		return &lv.vec.elems[lv.index]
	}
	return lv.slot
}

func (exec *Execution) checkLive(lv *Lvalue) error {
	if lv.ref() == nil {
		if lv.vec != nil {
			return exec.errorf("reference to element %d of a vector of length %d", lv.index, len(lv.vec.elems))
		}
		return exec.errorf("invalid reference")
	}
	if lv.stackIndex >= 0 && exec.slotGen[lv.stackIndex] != lv.gen {
		return exec.errorf("reference to a variable that is no longer in scope")
	}
	return nil
}

// deref follows lvalue chains to the stored value. Functors are returned
// as is.
func (exec *Execution) deref(v Value) (Value, error) {
	for v.kind == KindLvalue {
		lv := v.lvalue()
		if err := exec.checkLive(lv); err != nil {
			return Value{}, err
		}
		v = *lv.ref()
	}
	return v, nil
}

// concrete dereferences lvalues and replaces functors by their current
// result.
func (exec *Execution) concrete(v Value) (Value, error) {
	for {
		var err error
		v, err = exec.deref(v)
		if err != nil {
			return Value{}, err
		}
		if v.kind != KindFunctor {
			return v, nil
		}
		v, err = v.Functor().Result(exec)
		if err != nil {
			return Value{}, err
		}
	}
}

// resolve walks through reference levels to the lvalue that owns the
// stored value and reports whether every level permits writes.
func (exec *Execution) resolve(lv *Lvalue) (*Lvalue, bool, error) {
	writable := true
	for {
		if err := exec.checkLive(lv); err != nil {
			return nil, false, err
		}
		switch lv.flavor {
		case LvalueConst:
			writable = false
		case LvalueReference:
			inner := lv.ref().lvalue()
			if inner == nil {
				return nil, false, exec.errorf("reference parameter is not bound")
			}
			lv = inner
			continue
		}
		return lv, writable, nil
	}
}

func (exec *Execution) assign(lv *Lvalue, v Value) error {
	target, writable, err := exec.resolve(lv)
	if err != nil {
		return err
	}
	if !writable {
		return exec.errorf("cannot assign to a constant")
	}
	if target.flavor == LvalueParameter {
		if target.bound {
			return exec.errorf("parameter is already bound")
		}
		target.bound = true
	}
	*target.ref() = v
	target.touch()
	return nil
}

// touch invalidates the cached hashes of every container on the path to
// the written slot.
func (lv *Lvalue) touch() {
	for l := lv; l != nil; l = l.parent {
		if l.owner != nil {
			l.owner.invalidateHash()
		}
	}
}
