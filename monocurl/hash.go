package monocurl

import (
	"hash/fnv"
	"math"
)

type hashCache struct {
	hash  uint64
	valid bool
}

func (c *hashCache) invalidateHash() {
	c.valid = false
}

const hashSeed uint64 = 0x9e3779b97f4a7c15

// mixHash folds x into h with a splitmix64 finalizer.
func mixHash(h, x uint64) uint64 {
	z := h ^ (x + hashSeed + (h << 6) + (h >> 2))
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func hashDouble(f float64) uint64 {
	if f == 0 {
		f = 0
	}
	if math.IsNaN(f) {
		return mixHash(uint64(KindDouble), 0x7ff8000000000001)
	}
	return mixHash(uint64(KindDouble), math.Float64bits(f))
}

// hash returns the content hash of v. Equal values hash equally; the
// uninitialized value and unhashable kinds fail.
func (exec *Execution) hash(v Value) (uint64, error) {
	v, err := exec.deref(v)
	if err != nil {
		return 0, err
	}
	op := opsFor(v.kind).hash
	if op == nil {
		return 0, exec.unsupported("hash", v)
	}
	return op(exec, v)
}

func hashDoubleValue(_ *Execution, v Value) (uint64, error) {
	return hashDouble(v.num), nil
}

func hashCharValue(_ *Execution, v Value) (uint64, error) {
	return mixHash(uint64(KindChar), uint64(v.Char())), nil
}

func hashVectorValue(exec *Execution, v Value) (uint64, error) {
	vec := v.Vector()
	if vec.valid {
		return vec.hash, nil
	}
	h := mixHash(uint64(KindVector), uint64(len(vec.elems)))
	for _, elem := range vec.elems {
		eh, err := exec.hash(elem)
		if err != nil {
			return 0, err
		}
		h = mixHash(h, eh)
	}
	vec.hash, vec.valid = h, true
	return h, nil
}

func hashMapValue(exec *Execution, v Value) (uint64, error) {
	m := v.Map()
	if m.valid {
		return m.hash, nil
	}
	h := mixHash(uint64(KindMap), uint64(m.live))
	for _, e := range m.entries {
		if e.deleted {
			continue
		}
		vh, err := exec.hash(e.value)
		if err != nil {
			return 0, err
		}
		h = mixHash(mixHash(h, e.keyHash), vh)
	}
	m.hash, m.valid = h, true
	return h, nil
}

func hashFunctionValue(exec *Execution, v Value) (uint64, error) {
	fn := v.Function()
	var h uint64
	if fn.native != nil {
		h = mixHash(uint64(KindFunction), hashString(fn.native.Name))
	} else {
		h = mixHash(uint64(KindFunction), fn.tmpl.id)
	}
	for _, c := range fn.captures {
		ch, err := exec.hash(c)
		if err != nil {
			return 0, err
		}
		h = mixHash(h, ch)
	}
	return h, nil
}

func hashFunctorValue(exec *Execution, v Value) (uint64, error) {
	res, err := v.Functor().Result(exec)
	if err != nil {
		return 0, err
	}
	return exec.hash(res)
}

func hashMeshValue(_ *Execution, v Value) (uint64, error) {
	return mixHash(uint64(KindMesh), v.Mesh().Hash()), nil
}

func hashAnimationValue(exec *Execution, v Value) (uint64, error) {
	a := v.Animation()
	h := mixHash(uint64(KindAnimation), math.Float64bits(a.elapsed))
	if a.sticky {
		h = mixHash(h, 1)
	}
	h = mixHash(h, uint64(a.state))
	for _, part := range []Value{a.sentinel, a.pull} {
		if part.kind == KindUninitialized {
			continue
		}
		ph, err := exec.hash(part)
		if err != nil {
			return 0, err
		}
		h = mixHash(h, ph)
	}
	return h, nil
}
