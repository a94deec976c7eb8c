package locals_test

import (
	"testing"

	"github.com/go-skink/skink/pkg/locals"
	"github.com/go-skink/skink/pkg/vm"
)

func layoutCode() *vm.Code {
	return &vm.Code{
		Name:   "f",
		Locals: []string{"a", "b"},
		Cells:  []string{"c"},
		Frees:  []string{"d"},
	}
}

func TestSlotTableLayout(t *testing.T) {
	st := locals.NewSlotTable(layoutCode())
	if st.NumLocals != 2 || st.NumCells != 1 || st.NumFree != 1 {
		t.Fatalf("wrong layout: %d locals, %d cells, %d free", st.NumLocals, st.NumCells, st.NumFree)
	}
	if st.TotalSlots() != 4 {
		t.Fatalf("wrong total: %d", st.TotalSlots())
	}
}

func TestSlotTableNames(t *testing.T) {
	st := locals.NewSlotTable(layoutCode())
	for i, want := range []string{"a", "b", "c", "d"} {
		if got := st.Name(i); got != want {
			t.Errorf("Name(%d): want %q, got %q", i, want, got)
		}
	}
	// indexes outside every range resolve to the placeholder, never to
	// an out of bounds read of a name table
	for _, i := range []int{-1, 4, 100} {
		if got := st.Name(i); got != "?" {
			t.Errorf("Name(%d): want \"?\", got %q", i, got)
		}
	}
}

func TestSlotTableKinds(t *testing.T) {
	st := locals.NewSlotTable(layoutCode())
	want := []locals.SlotKind{locals.LocalSlot, locals.LocalSlot, locals.CellSlot, locals.FreeSlot}
	for i, k := range want {
		if got := st.Kind(i); got != k {
			t.Errorf("Kind(%d): want %s, got %s", i, k, got)
		}
	}
	if st.Kind(4) != locals.InvalidSlot || st.Kind(-1) != locals.InvalidSlot {
		t.Errorf("out of range indexes should be InvalidSlot")
	}
}

func TestIndexValidators(t *testing.T) {
	st := locals.NewSlotTable(layoutCode())
	for i, want := range map[int]bool{-1: false, 0: true, 1: true, 2: false, 3: false, 4: false} {
		if got := st.ValidFastIndex(i); got != want {
			t.Errorf("ValidFastIndex(%d): want %v, got %v", i, want, got)
		}
	}
	for i, want := range map[int]bool{-1: false, 0: false, 1: false, 2: true, 3: true, 4: false} {
		if got := st.ValidCellIndex(i); got != want {
			t.Errorf("ValidCellIndex(%d): want %v, got %v", i, want, got)
		}
	}
}

func TestLookup(t *testing.T) {
	st := locals.NewSlotTable(layoutCode())
	cases := []struct {
		name  string
		kind  locals.SlotKind
		index int
	}{
		{"a", locals.LocalSlot, 0},
		{"b", locals.LocalSlot, 1},
		{"c", locals.CellSlot, 2},
		{"d", locals.FreeSlot, 3},
	}
	for _, tc := range cases {
		kind, index, ok := st.Lookup(tc.name)
		if !ok {
			t.Errorf("Lookup(%q) failed", tc.name)
			continue
		}
		if kind != tc.kind || index != tc.index {
			t.Errorf("Lookup(%q): want (%s, %d), got (%s, %d)", tc.name, tc.kind, tc.index, kind, index)
		}
	}
	if _, _, ok := st.Lookup("nosuch"); ok {
		t.Errorf("Lookup of an undeclared name should fail")
	}
}

func TestLookupShadowing(t *testing.T) {
	// when ranges share a name, resolution follows the slot array
	// order: locals first, then cells, then free variables
	st := locals.NewSlotTable(&vm.Code{
		Name:   "f",
		Locals: []string{"x"},
		Cells:  []string{"x"},
	})
	kind, index, ok := st.Lookup("x")
	if !ok || kind != locals.LocalSlot || index != 0 {
		t.Errorf("want (local, 0), got (%s, %d, %v)", kind, index, ok)
	}
}

func TestTableForCached(t *testing.T) {
	code := layoutCode()
	if locals.TableFor(code) != locals.TableFor(code) {
		t.Errorf("TableFor should return the same table for the same code object")
	}
	other := layoutCode()
	if locals.TableFor(code) == locals.TableFor(other) {
		t.Errorf("distinct code objects should not share a table")
	}
}

func TestSlotKindString(t *testing.T) {
	for kind, want := range map[locals.SlotKind]string{
		locals.LocalSlot:   "local",
		locals.CellSlot:    "cell",
		locals.FreeSlot:    "free",
		locals.InvalidSlot: "invalid",
	} {
		if got := kind.String(); got != want {
			t.Errorf("want %q, got %q", want, got)
		}
	}
}
