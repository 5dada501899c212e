package wfc

import (
	"fmt"
	"math/rand"
)

// Position addresses one cell on the grid
type Position struct {
	X, Z int
}

// String returns the string representation of a Position
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Z)
}

// Step returns the neighboring position in the given horizontal direction
func (p Position) Step(d Direction) Position {
	switch d {
	case North:
		return Position{p.X, p.Z - 1}
	case South:
		return Position{p.X, p.Z + 1}
	case East:
		return Position{p.X + 1, p.Z}
	case West:
		return Position{p.X - 1, p.Z}
	}
	return p
}

// Grid is the width x depth cell array plus the per-run instance-count
// table. Counts are scoped to this grid alone, never shared across
// runs, and travel with every snapshot.
type Grid struct {
	Width, Depth int

	cells  [][]*Cell // indexed [z][x]
	counts map[string]int
}

// NewGrid creates a grid whose every cell starts with the full catalog
// as its possibility set, entropy computed immediately from rng.
func NewGrid(width, depth int, tiles []*TileDefinition, rng *rand.Rand) (*Grid, error) {
	if width < 1 || depth < 1 {
		return nil, ErrInvalidSize
	}
	g := &Grid{
		Width:  width,
		Depth:  depth,
		cells:  make([][]*Cell, depth),
		counts: make(map[string]int),
	}
	for z := 0; z < depth; z++ {
		g.cells[z] = make([]*Cell, width)
		for x := 0; x < width; x++ {
			cell := newCell(x, z, tiles)
			cell.UpdateEntropy(rng)
			g.cells[z][x] = cell
		}
	}
	return g, nil
}

// InBounds reports whether the position lies on the grid
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.Width && p.Z >= 0 && p.Z < g.Depth
}

// At returns the cell at the position, or nil when out of bounds
func (g *Grid) At(p Position) *Cell {
	if !g.InBounds(p) {
		return nil
	}
	return g.cells[p.Z][p.X]
}

// Collapse commits the cell at p to the tile and rotation and bumps the
// tile's instance count
func (g *Grid) Collapse(p Position, tile *TileDefinition, rotation int) {
	g.cells[p.Z][p.X].Collapse(tile, rotation)
	g.counts[tile.ID]++
}

// InstanceCount returns how many times the tile has been placed
func (g *Grid) InstanceCount(tile *TileDefinition) int {
	return g.counts[tile.ID]
}

// UnderInstanceCap reports whether the tile may still be placed without
// exceeding its cap. Uncapped tiles are always eligible.
func (g *Grid) UnderInstanceCap(tile *TileDefinition) bool {
	if !tile.Capped() {
		return true
	}
	return g.counts[tile.ID] < tile.MaxInstances
}

// Counts returns a copy of the instance-count table
func (g *Grid) Counts() map[string]int {
	out := make(map[string]int, len(g.counts))
	for id, n := range g.counts {
		out[id] = n
	}
	return out
}

// AllCollapsed reports whether every cell has been committed
func (g *Grid) AllCollapsed() bool {
	for z := 0; z < g.Depth; z++ {
		for x := 0; x < g.Width; x++ {
			if !g.cells[z][x].Collapsed {
				return false
			}
		}
	}
	return true
}

// IsBorder reports whether the position lies on the grid edge
func (g *Grid) IsBorder(p Position) bool {
	return p.X == 0 || p.Z == 0 || p.X == g.Width-1 || p.Z == g.Depth-1
}

// EachCell visits every cell in row-major order
func (g *Grid) EachCell(visit func(*Cell)) {
	for z := 0; z < g.Depth; z++ {
		for x := 0; x < g.Width; x++ {
			visit(g.cells[z][x])
		}
	}
}
