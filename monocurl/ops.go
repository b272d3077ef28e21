package monocurl

import "cmp"

type binaryFunc func(exec *Execution, a, b Value) (Value, error)

// typeOps is the per-kind operation table. A nil entry means the kind does
// not support the operation.
type typeOps struct {
	copy       func(v Value) Value
	add        binaryFunc
	subtract   binaryFunc
	multiply   binaryFunc
	divide     binaryFunc
	power      binaryFunc
	negate     func(exec *Execution, v Value) (Value, error)
	truth      func(exec *Execution, v Value) (bool, error)
	contains   func(exec *Execution, coll, item Value) (bool, error)
	compare    func(exec *Execution, a, b Value) (int, error)
	index      func(exec *Execution, base *Lvalue, container Value, writable bool, key Value, create bool) (*Lvalue, error)
	attribute  func(exec *Execution, base *Lvalue, container Value, writable bool, name string) (*Lvalue, error)
	call       func(exec *Execution, fn Value, args []Value) (Value, error)
	plusAssign func(exec *Execution, target *Lvalue, v Value) error
	hash       func(exec *Execution, v Value) (uint64, error)
	size       func(v Value) int
}

var typeTable [KindLvalue + 1]*typeOps

func init() {
	typeTable[KindUninitialized] = &typeOps{
		size: func(Value) int { return 16 },
	}
	typeTable[KindDouble] = &typeOps{
		add:      doubleArith(addDoubles),
		subtract: doubleArith(subtractDoubles),
		multiply: doubleArith(multiplyDoubles),
		divide:   doubleArith(divideDoubles),
		power:    doublePower,
		negate:   negateDouble,
		truth:    func(_ *Execution, v Value) (bool, error) { return v.num != 0, nil },
		compare:  func(_ *Execution, a, b Value) (int, error) { return cmp.Compare(a.num, b.num), nil },
		hash:     hashDoubleValue,
		size:     func(Value) int { return 16 },
	}
	typeTable[KindChar] = &typeOps{
		compare: func(_ *Execution, a, b Value) (int, error) { return cmp.Compare(a.num, b.num), nil },
		hash:    hashCharValue,
		size:    func(Value) int { return 16 },
	}
	typeTable[KindVector] = &typeOps{
		copy:     copyVector,
		add:      vectorArith("add", addDoubles),
		subtract: vectorArith("subtract", subtractDoubles),
		multiply: vectorArith("multiply", multiplyDoubles),
		divide:   vectorArith("divide", divideDoubles),
		negate:   negateVector,
		contains: vectorContains,
		compare:  compareVectors,
		index:    indexVector,
		hash:     hashVectorValue,
		size:     sizeVector,
	}
	typeTable[KindMap] = &typeOps{
		copy:      func(v Value) Value { return NewMap(v.Map().clone()) },
		contains:  mapContains,
		compare:   compareMaps,
		index:     indexMap,
		attribute: attributeMap,
		hash:      hashMapValue,
		size:      sizeMap,
	}
	typeTable[KindFunction] = &typeOps{
		call:    callFunctionValue,
		compare: compareByHash,
		hash:    hashFunctionValue,
		size:    sizeFunction,
	}
	typeTable[KindFunctor] = &typeOps{
		copy:      func(v Value) Value { return newFunctorValue(v.Functor().copy()) },
		attribute: attributeFunctor,
		hash:      hashFunctorValue,
		size:      sizeFunctor,
	}
	typeTable[KindMesh] = &typeOps{
		compare: compareByHash,
		hash:    hashMeshValue,
		size:    func(v Value) int { return v.Mesh().Size() },
	}
	typeTable[KindAnimation] = &typeOps{
		copy:    func(v Value) Value { return newAnimationValue(v.Animation().copy()) },
		compare: compareByHash,
		hash:    hashAnimationValue,
		size:    sizeAnimation,
	}
	typeTable[KindLvalue] = &typeOps{
		plusAssign: plusAssignLvalue,
		size:       func(Value) int { return 48 },
	}
}

func opsFor(k Kind) *typeOps {
	if int(k) < len(typeTable) && typeTable[k] != nil {
		return typeTable[k]
	}
	return typeTable[KindUninitialized]
}

func (exec *Execution) unsupported(op string, v Value) error {
	if v.kind == KindUninitialized {
		return exec.errorf("use of uninitialized value")
	}
	return exec.errorf("operation %s not supported for %s", op, v.kind)
}

// copyValue duplicates v so later writes to either side stay independent.
// Functions and meshes are immutable and therefore shared.
func copyValue(v Value) Value {
	if fn := opsFor(v.kind).copy; fn != nil {
		return fn(v)
	}
	return v
}

// prune turns an evaluation result into an owned value: lvalues are
// dereferenced and the target is copied.
func (exec *Execution) prune(v Value) (Value, error) {
	v, err := exec.deref(v)
	if err != nil {
		return Value{}, err
	}
	return copyValue(v), nil
}

type binaryOp uint8

const (
	opAdd binaryOp = iota
	opSubtract
	opMultiply
	opDivide
	opPower
)

var binaryOpNames = [...]string{"add", "subtract", "multiply", "divide", "power"}

func (exec *Execution) arith(op binaryOp, a, b Value) (Value, error) {
	a, err := exec.concrete(a)
	if err != nil {
		return Value{}, err
	}
	b, err = exec.concrete(b)
	if err != nil {
		return Value{}, err
	}
	if b.kind == KindUninitialized {
		return Value{}, exec.unsupported(binaryOpNames[op], b)
	}
	ops := opsFor(a.kind)
	var fn binaryFunc
	switch op {
	case opAdd:
		fn = ops.add
	case opSubtract:
		fn = ops.subtract
	case opMultiply:
		fn = ops.multiply
	case opDivide:
		fn = ops.divide
	case opPower:
		fn = ops.power
	}
	if fn == nil {
		return Value{}, exec.unsupported(binaryOpNames[op], a)
	}
	return fn(exec, a, b)
}

func (exec *Execution) negate(v Value) (Value, error) {
	v, err := exec.concrete(v)
	if err != nil {
		return Value{}, err
	}
	fn := opsFor(v.kind).negate
	if fn == nil {
		return Value{}, exec.unsupported("negate", v)
	}
	return fn(exec, v)
}

func (exec *Execution) truth(v Value) (bool, error) {
	v, err := exec.concrete(v)
	if err != nil {
		return false, err
	}
	fn := opsFor(v.kind).truth
	if fn == nil {
		return false, exec.unsupported("bool", v)
	}
	return fn(exec, v)
}

func (exec *Execution) contains(coll, item Value) (bool, error) {
	coll, err := exec.concrete(coll)
	if err != nil {
		return false, err
	}
	fn := opsFor(coll.kind).contains
	if fn == nil {
		return false, exec.unsupported("contains", coll)
	}
	return fn(exec, coll, item)
}

// compare orders values first by kind and then by content.
func (exec *Execution) compare(a, b Value) (int, error) {
	a, err := exec.concrete(a)
	if err != nil {
		return 0, err
	}
	b, err = exec.concrete(b)
	if err != nil {
		return 0, err
	}
	if a.kind == KindUninitialized {
		return 0, exec.unsupported("compare", a)
	}
	if b.kind == KindUninitialized {
		return 0, exec.unsupported("compare", b)
	}
	if a.kind != b.kind {
		return cmp.Compare(a.kind, b.kind), nil
	}
	fn := opsFor(a.kind).compare
	if fn == nil {
		return 0, exec.unsupported("compare", a)
	}
	return fn(exec, a, b)
}

func compareByHash(exec *Execution, a, b Value) (int, error) {
	ha, err := exec.hash(a)
	if err != nil {
		return 0, err
	}
	hb, err := exec.hash(b)
	if err != nil {
		return 0, err
	}
	return cmp.Compare(ha, hb), nil
}

// index resolves base[key]. base may be an lvalue or a temporary.
func (exec *Execution) index(base, key Value, create bool) (Value, error) {
	lv, container, writable, err := exec.container(base)
	if err != nil {
		return Value{}, err
	}
	key, err = exec.concrete(key)
	if err != nil {
		return Value{}, err
	}
	fn := opsFor(container.kind).index
	if fn == nil {
		return Value{}, exec.unsupported("index", container)
	}
	out, err := fn(exec, lv, container, writable, key, create)
	if err != nil {
		return Value{}, err
	}
	return newLvalueValue(out), nil
}

func (exec *Execution) attribute(base Value, name string) (Value, error) {
	lv, err := exec.baseLvalue(base)
	if err != nil {
		return Value{}, err
	}
	target, writable, err := exec.resolve(lv)
	if err != nil {
		return Value{}, err
	}
	container := *target.ref()
	fn := opsFor(container.kind).attribute
	if fn == nil {
		return Value{}, exec.unsupported("attribute", container)
	}
	out, err := fn(exec, target, container, writable, name)
	if err != nil {
		return Value{}, err
	}
	return newLvalueValue(out), nil
}

func (exec *Execution) baseLvalue(base Value) (*Lvalue, error) {
	if base.kind == KindLvalue {
		return base.lvalue(), nil
	}
	if base.kind == KindUninitialized {
		return nil, exec.unsupported("index", base)
	}
	return temporary(base), nil
}

// container resolves base to the lvalue holding an indexable value. Functor
// results are exposed read-only.
func (exec *Execution) container(base Value) (*Lvalue, Value, bool, error) {
	lv, err := exec.baseLvalue(base)
	if err != nil {
		return nil, Value{}, false, err
	}
	target, writable, err := exec.resolve(lv)
	if err != nil {
		return nil, Value{}, false, err
	}
	container := *target.ref()
	if container.kind == KindFunctor {
		res, err := container.Functor().Result(exec)
		if err != nil {
			return nil, Value{}, false, err
		}
		return temporary(res), res, false, nil
	}
	return target, container, writable, nil
}

func (exec *Execution) call(fn Value, args []Value) (Value, error) {
	fn, err := exec.concrete(fn)
	if err != nil {
		return Value{}, err
	}
	op := opsFor(fn.kind).call
	if op == nil {
		return Value{}, exec.unsupported("call", fn)
	}
	return op(exec, fn, args)
}

func (exec *Execution) plusAssign(target Value, v Value) error {
	op := opsFor(target.kind).plusAssign
	if op == nil {
		return exec.unsupported("plus_assign", target)
	}
	return op(exec, target.lvalue(), v)
}

func plusAssignLvalue(exec *Execution, lv *Lvalue, v Value) error {
	target, writable, err := exec.resolve(lv)
	if err != nil {
		return err
	}
	if !writable {
		return exec.errorf("cannot assign to a constant")
	}
	current := *target.ref()
	if current.kind == KindVector {
		vec := current.Vector()
		vec.elems = append(vec.elems, v)
		vec.invalidateHash()
		target.touch()
		return nil
	}
	sum, err := exec.arith(opAdd, current, v)
	if err != nil {
		return err
	}
	*target.ref() = sum
	target.touch()
	return nil
}

// approximateSize estimates the memory held by v in bytes.
func approximateSize(v Value) int {
	if fn := opsFor(v.kind).size; fn != nil {
		return fn(v)
	}
	return 16
}
