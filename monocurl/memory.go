package monocurl

const (
	estimatedValueBytes     = 24
	estimatedCallFrameBytes = 32
)

// estimateHeap approximates the bytes held by live stack slots and the
// active captures. Shared function and functor results are counted once.
func (exec *Execution) estimateHeap() int {
	est := newMemoryEstimator()
	total := len(exec.callStack) * estimatedCallFrameBytes
	for i := 0; i < exec.sp; i++ {
		total += est.value(exec.stack[i])
	}
	for _, c := range exec.captures {
		total += est.value(c)
	}
	return total
}

type memoryEstimator struct {
	seen map[any]struct{}
}

func newMemoryEstimator() *memoryEstimator {
	return &memoryEstimator{seen: make(map[any]struct{})}
}

func (est *memoryEstimator) once(key any) bool {
	if _, ok := est.seen[key]; ok {
		return false
	}
	est.seen[key] = struct{}{}
	return true
}

func (est *memoryEstimator) value(v Value) int {
	switch v.kind {
	case KindVector:
		vec := v.Vector()
		if !est.once(vec) {
			return estimatedValueBytes
		}
		size := estimatedValueBytes * 2
		for _, elem := range vec.elems {
			size += est.value(elem)
		}
		return size
	case KindMap:
		m := v.Map()
		if !est.once(m) {
			return estimatedValueBytes
		}
		size := estimatedValueBytes*2 + len(m.index)*4
		for _, e := range m.entries {
			size += 32
			if !e.deleted {
				size += est.value(e.key) + est.value(e.value)
			}
		}
		return size
	case KindFunction:
		fn := v.Function()
		if !est.once(fn) {
			return estimatedValueBytes
		}
		size := 64
		for _, c := range fn.captures {
			size += est.value(c)
		}
		return size
	case KindFunctor:
		f := v.Functor()
		size := 96
		for _, arg := range f.args {
			size += 32 + est.value(arg.field)
		}
		if est.once(f.result) {
			size += est.value(f.result.value)
		}
		return size
	case KindAnimation:
		a := v.Animation()
		return 96 + est.value(a.pull) + est.value(a.sentinel)
	default:
		return approximateSize(v)
	}
}

func sizeFunction(v Value) int {
	return newMemoryEstimator().value(v)
}

func sizeFunctor(v Value) int {
	return newMemoryEstimator().value(v)
}

func sizeAnimation(v Value) int {
	return newMemoryEstimator().value(v)
}
