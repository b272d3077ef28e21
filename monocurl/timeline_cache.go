package monocurl

// trailingCache is the root frame state at one timeline position.
// Position 0 is the state after the prelude; position i+1 is the state
// after slide i. A slot either holds its value here (jump[j] equals the
// position) or jump[j] names the earlier position whose cached value is
// still authoritative.
type trailingCache struct {
	position int
	values   []Value
	jump     []int
	frame    Frame
	fresh    int
}

// blit snapshots the root frame into a cache for position, comparing each
// slot with the previous position by content hash. The first hash failure
// stops comparison and every remaining slot is stored fresh.
func (exec *Execution) blit(position int, prev *trailingCache, resolve func(pos, slot int) Value) *trailingCache {
	size := exec.rootSize
	c := &trailingCache{
		position: position,
		values:   make([]Value, size),
		jump:     make([]int, size),
	}
	comparing := prev != nil
	for j := 0; j < size; j++ {
		cur := exec.stack[j]
		if comparing && j < len(prev.jump) {
			same, ok := exec.sameContent(cur, resolve(prev.position, j))
			if !ok {
				comparing = false
			} else if same {
				c.jump[j] = prev.jump[j]
				continue
			}
		}
		c.values[j] = copyValue(cur)
		c.jump[j] = position
		c.fresh++
	}
	return c
}

// sameContent compares two slot values by hash. ok is false when either
// value cannot be hashed.
func (exec *Execution) sameContent(a, b Value) (same, ok bool) {
	if a.kind == KindUninitialized || b.kind == KindUninitialized {
		return a.kind == b.kind, true
	}
	if a.kind != b.kind {
		return false, true
	}
	ha, err := exec.hash(a)
	if err != nil {
		return false, false
	}
	hb, err := exec.hash(b)
	if err != nil {
		return false, false
	}
	return ha == hb, true
}

// restoreRoot replaces the root frame with values. Slots past the new root
// size are cleared.
func (exec *Execution) restoreRoot(values []Value) {
	exec.clearSlots(len(values), max(exec.rootSize, exec.sp))
	for j, v := range values {
		exec.stack[j] = copyValue(v)
	}
	exec.rootSize = len(values)
	exec.sp = len(values)
	exec.fp = 0
	exec.captures = nil
}
