package wfc

// Snapshot is an immutable deep copy of the grid's cell state and
// instance-count table, captured immediately before a collapse commit.
// It never aliases the live grid.
type Snapshot struct {
	cells  [][]*Cell
	counts map[string]int
}

// Snapshot captures the grid's current state
func (g *Grid) Snapshot() *Snapshot {
	cells := make([][]*Cell, g.Depth)
	for z := 0; z < g.Depth; z++ {
		cells[z] = make([]*Cell, g.Width)
		for x := 0; x < g.Width; x++ {
			cells[z][x] = g.cells[z][x].Clone()
		}
	}
	return &Snapshot{
		cells:  cells,
		counts: g.Counts(),
	}
}

// Restore overwrites the grid's cells and instance counts with the
// snapshot's captured values, discarding everything committed since.
// The snapshot stays valid; the grid receives fresh copies.
func (g *Grid) Restore(s *Snapshot) {
	for z := 0; z < g.Depth; z++ {
		for x := 0; x < g.Width; x++ {
			g.cells[z][x] = s.cells[z][x].Clone()
		}
	}
	counts := make(map[string]int, len(s.counts))
	for id, n := range s.counts {
		counts[id] = n
	}
	g.counts = counts
}

// History is the snapshot stack used for backtracking: most recent
// first, bounded by a capacity that evicts the oldest entry when
// exceeded.
type History struct {
	stack    []*Snapshot
	capacity int
}

// NewHistory creates a history bounded to capacity snapshots
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{capacity: capacity}
}

// Push adds a snapshot, evicting the oldest when the stack is full
func (h *History) Push(s *Snapshot) {
	if len(h.stack) >= h.capacity {
		// Drop the oldest; a backtrack that deep is treated as exhaustion.
		copy(h.stack, h.stack[1:])
		h.stack = h.stack[:len(h.stack)-1]
	}
	h.stack = append(h.stack, s)
}

// Pop removes and returns the most recent snapshot
func (h *History) Pop() (*Snapshot, bool) {
	if len(h.stack) == 0 {
		return nil, false
	}
	s := h.stack[len(h.stack)-1]
	h.stack[len(h.stack)-1] = nil
	h.stack = h.stack[:len(h.stack)-1]
	return s, true
}

// Len returns the number of stored snapshots
func (h *History) Len() int {
	return len(h.stack)
}

// Capacity returns the bound on stored snapshots
func (h *History) Capacity() int {
	return h.capacity
}
