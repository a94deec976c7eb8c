package locals

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/go-skink/skink/pkg/vm"
)

// SlotKind classifies a frame slot index.
type SlotKind uint8

const (
	InvalidSlot SlotKind = iota // outside every range
	LocalSlot                   // fast local storage
	CellSlot                    // cell made by the frame itself
	FreeSlot                    // cell captured from an enclosing frame
)

var slotKindNames = [...]string{
	InvalidSlot: "invalid",
	LocalSlot:   "local",
	CellSlot:    "cell",
	FreeSlot:    "free",
}

func (k SlotKind) String() string {
	if int(k) < len(slotKindNames) {
		return slotKindNames[k]
	}
	return "invalid"
}

// unknownName is what Name returns for an index that resolves to no
// declared variable, so diagnostics never index a name table out of
// bounds.
const unknownName = "?"

// SlotTable describes the slot layout of one code object: how many
// slots each range has, which declared name backs each index, and the
// reverse name-to-index mapping. It is computed once per code object
// and read-only afterwards.
type SlotTable struct {
	NumLocals int
	NumCells  int
	NumFree   int

	names  []slotName
	byName map[string]slotRef
}

type slotName struct {
	kind SlotKind
	name string
}

type slotRef struct {
	kind  SlotKind
	index int
}

// NewSlotTable computes the slot layout of code. Most callers should
// use TableFor, which memoizes the result.
func NewSlotTable(code *vm.Code) *SlotTable {
	t := &SlotTable{
		NumLocals: code.NumLocals(),
		NumCells:  code.NumCells(),
		NumFree:   code.NumFree(),
	}
	total := t.NumLocals + t.NumCells + t.NumFree
	t.names = make([]slotName, 0, total)
	t.byName = make(map[string]slotRef, total)
	add := func(kind SlotKind, name string, opIndex int) {
		t.names = append(t.names, slotName{kind, name})
		// first declaration wins: locals shadow cells, cells shadow
		// free variables, matching the slot array order
		if _, ok := t.byName[name]; !ok {
			t.byName[name] = slotRef{kind, opIndex}
		}
	}
	for i, name := range code.Locals {
		add(LocalSlot, name, i)
	}
	for i, name := range code.Cells {
		add(CellSlot, name, t.NumLocals+i)
	}
	for i, name := range code.Frees {
		add(FreeSlot, name, t.NumLocals+t.NumCells+i)
	}
	return t
}

// Code metadata is immutable, so a layout can be computed once and
// shared by every frame of the same function. tableCache memoizes
// layouts by code object identity; it is the only piece of this package
// with internal synchronization, slot access itself takes no locks.
const tableCacheSize = 128

var tableCache, _ = lru.New(tableCacheSize)

// TableFor returns the slot table of code, computing and caching it on
// first use.
func TableFor(code *vm.Code) *SlotTable {
	if t, ok := tableCache.Get(code); ok {
		return t.(*SlotTable)
	}
	t := NewSlotTable(code)
	tableCache.Add(code, t)
	return t
}

// TotalSlots returns the number of slots in a frame of this layout.
func (t *SlotTable) TotalSlots() int {
	return t.NumLocals + t.NumCells + t.NumFree
}

// ValidFastIndex reports whether i addresses a fast local slot.
func (t *SlotTable) ValidFastIndex(i int) bool {
	return i >= 0 && i < t.NumLocals
}

// ValidCellIndex reports whether i addresses a cell or free slot.
// Cell indexes are absolute: the cell range starts at NumLocals.
func (t *SlotTable) ValidCellIndex(i int) bool {
	return i >= t.NumLocals && i < t.TotalSlots()
}

// Kind classifies slot index i, returning InvalidSlot for indexes
// outside every range.
func (t *SlotTable) Kind(i int) SlotKind {
	if i < 0 || i >= len(t.names) {
		return InvalidSlot
	}
	return t.names[i].kind
}

// Name returns the declared name backing slot index i, or "?" when i
// is outside every range.
func (t *SlotTable) Name(i int) string {
	if i < 0 || i >= len(t.names) {
		return unknownName
	}
	return t.names[i].name
}

// Lookup resolves a declared variable name to its slot kind and the
// index the matching operations expect: a fast index for LocalSlot, an
// absolute slot index for CellSlot and FreeSlot.
func (t *SlotTable) Lookup(name string) (SlotKind, int, bool) {
	ref, ok := t.byName[name]
	if !ok {
		return InvalidSlot, 0, false
	}
	return ref.kind, ref.index, true
}
