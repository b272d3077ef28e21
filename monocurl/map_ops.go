package monocurl

import "cmp"

func mapContains(exec *Execution, coll, item Value) (bool, error) {
	item, err := exec.concrete(item)
	if err != nil {
		return false, err
	}
	slot, err := exec.mapGet(coll.Map(), item)
	return slot != nil, err
}

func compareMaps(exec *Execution, a, b Value) (int, error) {
	left, right := a.Map(), b.Map()
	var li, ri int
	for {
		for li < len(left.entries) && left.entries[li].deleted {
			li++
		}
		for ri < len(right.entries) && right.entries[ri].deleted {
			ri++
		}
		if li >= len(left.entries) || ri >= len(right.entries) {
			break
		}
		c, err := exec.compare(left.entries[li].key, right.entries[ri].key)
		if err != nil || c != 0 {
			return c, err
		}
		c, err = exec.compare(left.entries[li].value, right.entries[ri].value)
		if err != nil || c != 0 {
			return c, err
		}
		li++
		ri++
	}
	return cmp.Compare(left.live, right.live), nil
}

func indexMap(exec *Execution, base *Lvalue, container Value, writable bool, key Value, create bool) (*Lvalue, error) {
	m := container.Map()
	var slot *Value
	var err error
	if create && writable {
		slot, err = exec.mapSlot(m, copyValue(key))
	} else {
		slot, err = exec.mapGet(m, key)
	}
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, exec.errorf("key %s not found", key)
	}
	return base.child(slot, m, writable), nil
}

func attributeMap(exec *Execution, base *Lvalue, container Value, writable bool, name string) (*Lvalue, error) {
	return indexMap(exec, base, container, writable, NewString(name), false)
}

func sizeMap(v Value) int {
	m := v.Map()
	size := 64 + len(m.index)*4
	for _, e := range m.entries {
		size += 32
		if !e.deleted {
			size += approximateSize(e.key) + approximateSize(e.value)
		}
	}
	return size
}
