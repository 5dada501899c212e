package wfc

import (
	"fmt"
	"math"
)

// The initial-constraints phase: callers may force-collapse cells and
// strip possibilities before Solve starts. Every mutation propagates
// the same way the main loop does, and any contradiction is surfaced
// to the caller immediately rather than silently ignored.

// ForceCollapse commits a specific tile and rotation to a cell before
// solving. The collapse is propagated like a main-loop commit; a
// contradiction during that propagation is returned as ErrContradiction.
func (s *Solver) ForceCollapse(pos Position, tileID string, rotation int) error {
	if s.state != StateIdle {
		return ErrNotIdle
	}
	if !s.grid.InBounds(pos) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, pos)
	}
	tile, ok := s.catalog.Tile(tileID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTile, tileID)
	}
	cell := s.grid.At(pos)
	if cell.Collapsed {
		return fmt.Errorf("wfc: cell %v already collapsed", pos)
	}
	if !tile.RotationAllowed(rotation) {
		return fmt.Errorf("wfc: rotation %d not allowed for tile %q", rotation, tileID)
	}
	if !cell.HasPossibility(tile) {
		s.stats.Contradictions++
		return fmt.Errorf("%w: tile %q no longer possible at %v", ErrContradiction, tileID, pos)
	}

	s.grid.Collapse(pos, tile, rotation)
	s.stats.Collapses++
	if s.collapseObserver != nil {
		s.collapseObserver(pos, tile, rotation)
	}

	if s.opts.PropagateImmediately {
		if !s.prop.Propagate(pos) {
			s.stats.Contradictions++
			return fmt.Errorf("%w: propagation from forced collapse at %v", ErrContradiction, pos)
		}
	}
	return nil
}

// RestrictByCategory removes every tile whose category fails the keep
// predicate from all uncollapsed cells, propagating each narrowed cell
func (s *Solver) RestrictByCategory(keep func(category string) bool) error {
	if s.state != StateIdle {
		return ErrNotIdle
	}
	if keep == nil {
		return nil
	}
	var failed error
	s.grid.EachCell(func(cell *Cell) {
		if failed != nil || cell.Collapsed {
			return
		}
		failed = s.restrictCell(cell, func(t *TileDefinition) bool {
			return keep(t.Category)
		})
	})
	return failed
}

// RestrictByDistance removes tiles whose center-distance window
// excludes the cell's Euclidean distance from center. Tiles that
// declare no window of their own fall back to the min/max arguments;
// zero means unbounded on that side.
func (s *Solver) RestrictByDistance(center Position, min, max float64) error {
	if s.state != StateIdle {
		return ErrNotIdle
	}
	var failed error
	s.grid.EachCell(func(cell *Cell) {
		if failed != nil || cell.Collapsed {
			return
		}
		dist := math.Hypot(float64(cell.X-center.X), float64(cell.Z-center.Z))
		failed = s.restrictCell(cell, func(t *TileDefinition) bool {
			lo := t.MinCenterDistance
			if lo <= 0 {
				lo = min
			}
			hi := t.MaxCenterDistance
			if hi <= 0 {
				hi = max
			}
			if dist < lo {
				return false
			}
			if hi > 0 && dist > hi {
				return false
			}
			return true
		})
	})
	return failed
}

// RestrictBorder removes tiles not allowed on the grid border from
// every border cell
func (s *Solver) RestrictBorder() error {
	if s.state != StateIdle {
		return ErrNotIdle
	}
	var failed error
	s.grid.EachCell(func(cell *Cell) {
		if failed != nil || cell.Collapsed {
			return
		}
		if !s.grid.IsBorder(Position{cell.X, cell.Z}) {
			return
		}
		failed = s.restrictCell(cell, func(t *TileDefinition) bool {
			return t.AllowOnBorder
		})
	})
	return failed
}

// restrictCell rebuilds the cell's possibility set from the keep
// predicate. A narrowed cell gets fresh entropy and is propagated when
// immediate propagation is on; an emptied set or failed propagation is
// returned as ErrContradiction.
func (s *Solver) restrictCell(cell *Cell, keep func(*TileDefinition) bool) error {
	kept := make([]*TileDefinition, 0, len(cell.Possible))
	for _, t := range cell.Possible {
		if keep(t) {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(cell.Possible) {
		return nil
	}

	pos := Position{cell.X, cell.Z}
	cell.Possible = kept
	cell.UpdateEntropy(s.rng)
	if len(kept) == 0 {
		s.stats.Contradictions++
		return fmt.Errorf("%w: no tiles remain at %v", ErrContradiction, pos)
	}

	if s.opts.PropagateImmediately {
		if !s.prop.Propagate(pos) {
			s.stats.Contradictions++
			return fmt.Errorf("%w: propagation from restriction at %v", ErrContradiction, pos)
		}
	}
	return nil
}
