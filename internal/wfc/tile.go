package wfc

import (
	"fmt"
	"math"
)

// TileDefinition describes one placeable tile: its sampling weight,
// rotation policy, the socket on each of its six faces, and the
// generation constraints applied during the initial-constraints phase
// and tile selection. Definitions are immutable once a Catalog accepts
// them.
type TileDefinition struct {
	ID       string
	Name     string
	Weight   float64
	Category string

	AllowRotation bool
	RotationSteps int

	// Sockets is indexed by Direction: North, East, South, West, Top, Bottom.
	Sockets [6]Socket

	// MaxInstances caps placements per run; zero or negative means unlimited.
	MaxInstances int

	// MinCenterDistance/MaxCenterDistance bound the Euclidean distance from
	// a designated center point; zero means unbounded on that side.
	MinCenterDistance float64
	MaxCenterDistance float64

	AllowOnBorder bool
}

// SocketAt returns the socket presented on face d when the tile is
// rotated by rotation steps of 90 degrees. Vertical faces ignore rotation.
func (t *TileDefinition) SocketAt(d Direction, rotation int) Socket {
	return t.Sockets[rotatedFace(d, rotation)]
}

// AllowedRotations returns the rotation steps the tile may be placed at
func (t *TileDefinition) AllowedRotations() []int {
	if !t.AllowRotation {
		return []int{0}
	}
	steps := t.RotationSteps
	if steps < 1 {
		steps = 1
	} else if steps > 4 {
		steps = 4
	}
	rotations := make([]int, steps)
	for i := range rotations {
		rotations[i] = i
	}
	return rotations
}

// RotationAllowed reports whether the given rotation step is legal for the tile
func (t *TileDefinition) RotationAllowed(rotation int) bool {
	for _, r := range t.AllowedRotations() {
		if r == rotation {
			return true
		}
	}
	return false
}

// Capped reports whether the tile carries an instance cap
func (t *TileDefinition) Capped() bool {
	return t.MaxInstances > 0
}

// validate checks the definition in isolation; socket declarations are
// checked against the compatibility table by the Catalog.
func (t *TileDefinition) validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: tile with empty id", ErrInvalidCatalog)
	}
	if t.Weight < 0 || math.IsNaN(t.Weight) || math.IsInf(t.Weight, 0) {
		return fmt.Errorf("%w: tile %q: weight must be a non-negative finite number", ErrInvalidCatalog, t.ID)
	}
	if t.AllowRotation && (t.RotationSteps < 1 || t.RotationSteps > 4) {
		return fmt.Errorf("%w: tile %q: rotation steps must be 1..4, got %d", ErrInvalidCatalog, t.ID, t.RotationSteps)
	}
	for _, d := range []Direction{North, East, South, West, Top, Bottom} {
		if t.Sockets[d] == "" {
			return fmt.Errorf("%w: tile %q: missing %s socket", ErrInvalidCatalog, t.ID, d)
		}
	}
	if t.MinCenterDistance < 0 || t.MaxCenterDistance < 0 {
		return fmt.Errorf("%w: tile %q: negative center distance bound", ErrInvalidCatalog, t.ID)
	}
	if t.MaxCenterDistance > 0 && t.MinCenterDistance > t.MaxCenterDistance {
		return fmt.Errorf("%w: tile %q: min center distance exceeds max", ErrInvalidCatalog, t.ID)
	}
	return nil
}
