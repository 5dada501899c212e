package wfc

import (
	"math/rand"

	"github.com/zyedidia/generic/mapset"
)

// Propagator walks constraint changes outward from a changed cell,
// shrinking neighboring possibility sets breadth-first until the grid
// is stable or some cell is driven to zero possibilities.
type Propagator struct {
	grid   *Grid
	compat *Compatibility
	rng    *rand.Rand
	notify func(Position)
}

// NewPropagator creates a propagator over the grid. notify, if non-nil,
// is invoked with a cell's position each time propagation narrows that
// cell's possibilities; it must not mutate solver state.
func NewPropagator(grid *Grid, compat *Compatibility, rng *rand.Rand, notify func(Position)) *Propagator {
	return &Propagator{
		grid:   grid,
		compat: compat,
		rng:    rng,
		notify: notify,
	}
}

// Propagate runs breadth-first constraint propagation from start.
// It returns false as soon as any cell's possibility set becomes empty;
// the grid is left in its partial state for the caller to roll back.
// Out-of-bounds neighbors are an open boundary, never a failure.
func (p *Propagator) Propagate(start Position) bool {
	queue := []Position{start}
	queued := mapset.New[Position]()
	queued.Put(start)

	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		queued.Remove(pos)

		source := p.grid.At(pos)
		if source == nil {
			continue
		}

		for _, dir := range HorizontalDirections() {
			npos := pos.Step(dir)
			neighbor := p.grid.At(npos)
			if neighbor == nil || neighbor.Collapsed {
				continue
			}

			kept := make([]*TileDefinition, 0, len(neighbor.Possible))
			for _, candidate := range neighbor.Possible {
				if p.supported(source, dir, candidate) {
					kept = append(kept, candidate)
				}
			}
			if len(kept) == len(neighbor.Possible) {
				continue
			}

			neighbor.Possible = kept
			neighbor.UpdateEntropy(p.rng)
			if len(kept) == 0 {
				return false
			}
			if p.notify != nil {
				p.notify(npos)
			}
			if !queued.Has(npos) {
				queued.Put(npos)
				queue = append(queue, npos)
			}
		}
	}
	return true
}

// supported reports whether the candidate tile has at least one rotation
// compatible with at least one (tile, rotation) pairing still possible
// in the source cell, across the source->neighbor boundary in direction
// dir. A collapsed source offers only its committed pairing.
func (p *Propagator) supported(source *Cell, dir Direction, candidate *TileDefinition) bool {
	facing := dir.Opposite()

	if source.Collapsed {
		sourceSocket := source.Chosen.SocketAt(dir, source.Rotation)
		for _, cr := range candidate.AllowedRotations() {
			if p.compat.Compatible(sourceSocket, candidate.SocketAt(facing, cr)) {
				return true
			}
		}
		return false
	}

	for _, sourceTile := range source.Possible {
		for _, sr := range sourceTile.AllowedRotations() {
			sourceSocket := sourceTile.SocketAt(dir, sr)
			for _, cr := range candidate.AllowedRotations() {
				if p.compat.Compatible(sourceSocket, candidate.SocketAt(facing, cr)) {
					return true
				}
			}
		}
	}
	return false
}
