package monocurl

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

type symbolFlags uint16

const (
	symConst symbolFlags = 1 << iota
	symTree
	symFunction
	symReference
	symFunctionParam
	// symElided marks synthetic functor-argument symbols. They take part in
	// duplicate detection but are invisible to name lookup.
	symElided
)

type symbol struct {
	name     string
	depth    int
	level    int
	slot     int
	flags    symbolFlags
	sig      *signature
	shadowed *symbol
	native   *Native
	prelude  bool
}

func (s *symbol) is(flag symbolFlags) bool {
	return s.flags&flag != 0
}

// funcScope tracks slot allocation and captures for one function body. The
// root scope belongs to the persistent slide frame.
type funcScope struct {
	parent       *funcScope
	level        int
	nextSlot     int
	frameSize    int
	captures     []captureSpec
	captureIndex map[*symbol]int
}

// captureSpec says where a closure copies a captured value from when the
// func statement executes: a slot of the enclosing frame or one of the
// enclosing function's own captures.
type captureSpec struct {
	name  string
	local bool
	index int
}

type blockMark struct {
	entries  int
	nextSlot int
}

type symbolMark struct {
	entries   int
	nextSlot  int
	frameSize int
}

type symbolTable struct {
	entries []*symbol
	byName  map[string]*symbol
	depth   int
	fn      *funcScope
	blocks  []blockMark
}

func newSymbolTable() *symbolTable {
	return &symbolTable{
		byName: make(map[string]*symbol),
		fn:     &funcScope{captureIndex: map[*symbol]int{}},
	}
}

func (st *symbolTable) mark() symbolMark {
	return symbolMark{entries: len(st.entries), nextSlot: st.fn.nextSlot, frameSize: st.fn.frameSize}
}

// rollback discards every symbol declared after m. Only valid at the root.
func (st *symbolTable) rollback(m symbolMark) {
	for len(st.entries) > m.entries {
		st.pop()
	}
	st.fn.nextSlot = m.nextSlot
	st.fn.frameSize = m.frameSize
}

func (st *symbolTable) pop() {
	last := st.entries[len(st.entries)-1]
	st.entries = st.entries[:len(st.entries)-1]
	if last.shadowed != nil {
		st.byName[last.name] = last.shadowed
	} else {
		delete(st.byName, last.name)
	}
}

func (st *symbolTable) beginBlock() {
	st.depth++
	st.blocks = append(st.blocks, blockMark{entries: len(st.entries), nextSlot: st.fn.nextSlot})
}

// endBlock pops the block's symbols and returns the slot range they used.
func (st *symbolTable) endBlock() (base, count int) {
	m := st.blocks[len(st.blocks)-1]
	st.blocks = st.blocks[:len(st.blocks)-1]
	for len(st.entries) > m.entries {
		st.pop()
	}
	base, count = m.nextSlot, st.fn.nextSlot-m.nextSlot
	st.fn.nextSlot = m.nextSlot
	st.depth--
	return base, count
}

func (st *symbolTable) beginFunction() {
	st.fn = &funcScope{parent: st.fn, level: st.fn.level + 1, captureIndex: map[*symbol]int{}}
	st.beginBlock()
}

func (st *symbolTable) endFunction() *funcScope {
	st.endBlock()
	fs := st.fn
	st.fn = fs.parent
	return fs
}

func (st *symbolTable) allocSlot() int {
	slot := st.fn.nextSlot
	st.fn.nextSlot++
	if st.fn.nextSlot > st.fn.frameSize {
		st.fn.frameSize = st.fn.nextSlot
	}
	return slot
}

// declare pushes a symbol in the current block. Redeclaring a name in the
// same block is only allowed with identical flags and signature; prelude
// names and natives may always be shadowed.
func (st *symbolTable) declare(name string, flags symbolFlags, sig *signature) (*symbol, error) {
	if !isIdentifier(name) {
		return nil, fmt.Errorf("invalid identifier %q", name)
	}
	if isKeyword(name) {
		return nil, fmt.Errorf("%s is a reserved word", name)
	}
	prev := st.byName[name]
	if prev != nil && prev.depth == st.depth && prev.level == st.fn.level {
		if prev.is(symElided) {
			return nil, fmt.Errorf("argument %s given more than once", name)
		}
		if !prev.prelude && prev.native == nil && (prev.flags != flags || !prev.sig.equal(sig)) {
			return nil, fmt.Errorf("%s is already declared in this scope with a different kind", name)
		}
	}
	s := &symbol{
		name:     name,
		depth:    st.depth,
		level:    st.fn.level,
		flags:    flags,
		sig:      sig,
		shadowed: prev,
		slot:     -1,
	}
	if flags&symElided == 0 {
		s.slot = st.allocSlot()
	}
	st.entries = append(st.entries, s)
	st.byName[name] = s
	return s, nil
}

func (st *symbolTable) lookup(name string) *symbol {
	s := st.byName[name]
	for s != nil && s.is(symElided) {
		s = s.shadowed
	}
	return s
}

// capture returns the capture index of s inside fs, registering it along
// the chain of enclosing functions as needed.
func (st *symbolTable) capture(fs *funcScope, s *symbol) int {
	if idx, ok := fs.captureIndex[s]; ok {
		return idx
	}
	spec := captureSpec{name: s.name}
	if fs.parent.level == s.level {
		spec.local = true
		spec.index = s.slot
	} else {
		spec.index = st.capture(fs.parent, s)
	}
	fs.captures = append(fs.captures, spec)
	idx := len(fs.captures) - 1
	fs.captureIndex[s] = idx
	return idx
}

func (st *symbolTable) visibleNames() []string {
	names := make([]string, 0, len(st.byName))
	for name := range st.byName {
		if st.lookup(name) != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// suggest finds the closest visible name for an unknown identifier.
func (st *symbolTable) suggest(target string) string {
	candidates := st.visibleNames()
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}
