package wfc

import (
	"math/rand"
	"reflect"
	"testing"
)

// captureCells deep-copies the grid's cell state for later comparison.
func captureCells(g *Grid) []*Cell {
	var out []*Cell
	g.EachCell(func(cell *Cell) {
		out = append(out, cell.Clone())
	})
	return out
}

func TestSnapshotRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	tiles := weightedTiles(1, 2, 3)
	grid, err := NewGrid(3, 3, tiles, rng)
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	grid.Collapse(Position{0, 0}, tiles[0], 0)

	before := captureCells(grid)
	beforeCounts := grid.Counts()
	snap := grid.Snapshot()

	// Mutate freely: collapse, narrow, empty a cell.
	grid.Collapse(Position{1, 1}, tiles[2], 1)
	grid.At(Position{2, 0}).RemovePossibility(tiles[1], rng)
	emptied := grid.At(Position{2, 2})
	for _, tile := range tiles {
		emptied.RemovePossibility(tile, rng)
	}

	grid.Restore(snap)

	after := captureCells(grid)
	for i := range before {
		if !reflect.DeepEqual(before[i], after[i]) {
			t.Errorf("cell %d differs after restore: %+v vs %+v", i, before[i], after[i])
		}
	}
	if !reflect.DeepEqual(beforeCounts, grid.Counts()) {
		t.Errorf("counts after restore = %v, want %v", grid.Counts(), beforeCounts)
	}
}

func TestSnapshotDoesNotAlias(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	tiles := weightedTiles(1, 1)
	grid, err := NewGrid(2, 2, tiles, rng)
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}

	snap := grid.Snapshot()
	grid.Collapse(Position{0, 0}, tiles[0], 0)
	grid.Restore(snap)

	// A snapshot survives its own restore and backs a second one.
	grid.Collapse(Position{1, 1}, tiles[1], 0)
	grid.Restore(snap)

	grid.EachCell(func(cell *Cell) {
		if cell.Collapsed {
			t.Errorf("cell (%d,%d) still collapsed after restoring the pristine snapshot", cell.X, cell.Z)
		}
		if len(cell.Possible) != 2 {
			t.Errorf("cell (%d,%d) has %d possibilities after restore, want 2", cell.X, cell.Z, len(cell.Possible))
		}
	})
	if len(grid.Counts()) != 0 {
		t.Errorf("counts after restore = %v, want empty", grid.Counts())
	}
}

func TestHistoryEviction(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	tiles := weightedTiles(1)
	grid, err := NewGrid(1, 1, tiles, rng)
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}

	h := NewHistory(2)
	if h.Capacity() != 2 {
		t.Errorf("Capacity() = %d, want 2", h.Capacity())
	}

	first := grid.Snapshot()
	second := grid.Snapshot()
	third := grid.Snapshot()
	h.Push(first)
	h.Push(second)
	h.Push(third)

	if h.Len() != 2 {
		t.Errorf("Len() = %d after pushing 3 into capacity 2, want 2", h.Len())
	}

	// Most recent out first; the oldest was evicted.
	if got, ok := h.Pop(); !ok || got != third {
		t.Error("first Pop() did not return the most recent snapshot")
	}
	if got, ok := h.Pop(); !ok || got != second {
		t.Error("second Pop() did not return the second snapshot")
	}
	if _, ok := h.Pop(); ok {
		t.Error("Pop() on drained history = ok, want empty")
	}
}

func TestHistoryMinimumCapacity(t *testing.T) {
	h := NewHistory(0)
	if h.Capacity() != 1 {
		t.Errorf("Capacity() = %d for zero request, want 1", h.Capacity())
	}
}
