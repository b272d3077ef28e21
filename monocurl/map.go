package monocurl

// Map is an insertion-ordered hash map keyed by script values. Lookups use
// an open-addressed index with linear probing over the entries slice.
// Entries are individually allocated so element handles survive growth.
type Map struct {
	entries []*mapEntry
	index   []int32
	live    int
	hashCache
}

type mapEntry struct {
	key     Value
	keyHash uint64
	value   Value
	deleted bool
}

const (
	mapSlotEmpty     int32 = -1
	mapSlotTombstone int32 = -2
)

func newMap(capacity int) *Map {
	m := &Map{}
	m.rebuild(capacity)
	return m
}

func (m *Map) Len() int {
	return m.live
}

func (m *Map) rebuild(capacity int) {
	size := 8
	for size < capacity*2 {
		size <<= 1
	}
	if m.live < len(m.entries) {
		compact := make([]*mapEntry, 0, m.live)
		for _, e := range m.entries {
			if !e.deleted {
				compact = append(compact, e)
			}
		}
		m.entries = compact
	}
	m.index = make([]int32, size)
	for i := range m.index {
		m.index[i] = mapSlotEmpty
	}
	mask := uint64(size - 1)
	for i, e := range m.entries {
		pos := e.keyHash & mask
		for m.index[pos] != mapSlotEmpty {
			pos = (pos + 1) & mask
		}
		m.index[pos] = int32(i)
	}
}

func (exec *Execution) mapFind(m *Map, key Value) (int, uint64, error) {
	h, err := exec.hash(key)
	if err != nil {
		return -1, 0, err
	}
	if len(m.index) == 0 {
		return -1, h, nil
	}
	mask := uint64(len(m.index) - 1)
	pos := h & mask
	for probes := 0; probes < len(m.index); probes++ {
		slot := m.index[pos]
		if slot == mapSlotEmpty {
			return -1, h, nil
		}
		if slot >= 0 {
			e := m.entries[slot]
			if e.keyHash == h {
				cmp, err := exec.compare(e.key, key)
				if err != nil {
					return -1, h, err
				}
				if cmp == 0 {
					return int(slot), h, nil
				}
			}
		}
		pos = (pos + 1) & mask
	}
	return -1, h, nil
}

// mapGet returns a pointer to the stored value, or nil when absent.
func (exec *Execution) mapGet(m *Map, key Value) (*Value, error) {
	idx, _, err := exec.mapFind(m, key)
	if err != nil || idx < 0 {
		return nil, err
	}
	return &m.entries[idx].value, nil
}

// mapSlot returns the stored value for key, inserting an uninitialized one
// when it is absent.
func (exec *Execution) mapSlot(m *Map, key Value) (*Value, error) {
	idx, h, err := exec.mapFind(m, key)
	if err != nil {
		return nil, err
	}
	if idx >= 0 {
		return &m.entries[idx].value, nil
	}
	if (len(m.entries)+1)*2 > len(m.index) {
		m.rebuild(m.live + 1)
	}
	m.entries = append(m.entries, &mapEntry{key: key, keyHash: h})
	m.live++
	mask := uint64(len(m.index) - 1)
	pos := h & mask
	for m.index[pos] >= 0 {
		pos = (pos + 1) & mask
	}
	m.index[pos] = int32(len(m.entries) - 1)
	m.invalidateHash()
	return &m.entries[len(m.entries)-1].value, nil
}

func (exec *Execution) mapSet(m *Map, key, value Value) error {
	slot, err := exec.mapSlot(m, key)
	if err != nil {
		return err
	}
	*slot = value
	m.invalidateHash()
	return nil
}

func (exec *Execution) mapRemove(m *Map, key Value) (bool, error) {
	idx, h, err := exec.mapFind(m, key)
	if err != nil || idx < 0 {
		return false, err
	}
	m.entries[idx].deleted = true
	m.entries[idx].value = Value{}
	m.live--
	mask := uint64(len(m.index) - 1)
	pos := h & mask
	for m.index[pos] != int32(idx) {
		pos = (pos + 1) & mask
	}
	m.index[pos] = mapSlotTombstone
	m.invalidateHash()
	if m.live*4 < len(m.entries) {
		m.rebuild(m.live)
	}
	return true, nil
}

// each visits live entries in insertion order until fn returns false.
func (m *Map) each(fn func(key, value Value) bool) {
	for _, e := range m.entries {
		if e.deleted {
			continue
		}
		if !fn(e.key, e.value) {
			return
		}
	}
}

func (m *Map) keys() []Value {
	out := make([]Value, 0, m.live)
	m.each(func(key, _ Value) bool {
		out = append(out, key)
		return true
	})
	return out
}

// clone copies the map structure; values are copied with copyValue.
func (m *Map) clone() *Map {
	out := &Map{
		entries: make([]*mapEntry, 0, m.live),
		live:    m.live,
	}
	for _, e := range m.entries {
		if e.deleted {
			continue
		}
		out.entries = append(out.entries, &mapEntry{key: copyValue(e.key), keyHash: e.keyHash, value: copyValue(e.value)})
	}
	out.rebuild(out.live)
	out.hashCache = m.hashCache
	return out
}
