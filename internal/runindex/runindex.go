// Package runindex maps identification run identifiers to dense integer
// slots. The index is built once per invocation, before grouping, and is
// read-only afterwards.
package runindex

// Index assigns each run identifier a dense slot in insertion order.
type Index struct {
	slots map[string]int
	ids   []string
}

// New returns an empty index.
func New() *Index {
	return &Index{slots: make(map[string]int)}
}

// Add returns the slot for id, assigning the next free slot on first use.
func (x *Index) Add(id string) int {
	if slot, ok := x.slots[id]; ok {
		return slot
	}
	slot := len(x.ids)
	x.slots[id] = slot
	x.ids = append(x.ids, id)
	return slot
}

// Slot returns the slot for id and whether id is known.
func (x *Index) Slot(id string) (int, bool) {
	slot, ok := x.slots[id]
	return slot, ok
}

// Len returns the number of distinct runs.
func (x *Index) Len() int {
	return len(x.ids)
}

// IDs returns the run identifiers in insertion order.
func (x *Index) IDs() []string {
	return append([]string(nil), x.ids...)
}
