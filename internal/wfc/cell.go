package wfc

import (
	"math"
	"math/rand"
)

// EntropySentinel is the entropy of a cell with zero remaining
// possibilities. A cell carrying it is a contradiction.
var EntropySentinel = math.Inf(1)

// Entropy tie-break jitter bounds. The jitter is strictly positive and
// always below one thousandth so it can only order cells whose Shannon
// entropy is identical.
const (
	entropyJitterMin = 1e-6
	entropyJitterMax = 1e-3
)

// Cell is one grid position's possibility state. Possible keeps catalog
// order and only ever shrinks between a collapse commit and a restore,
// so iteration over it is deterministic for a given seed.
type Cell struct {
	X, Z int

	Possible  []*TileDefinition
	Collapsed bool
	Chosen    *TileDefinition
	Rotation  int
	Entropy   float64
}

// newCell creates an uncollapsed cell holding the full possibility set.
// The caller computes the initial entropy.
func newCell(x, z int, tiles []*TileDefinition) *Cell {
	possible := make([]*TileDefinition, len(tiles))
	copy(possible, tiles)
	return &Cell{
		X:        x,
		Z:        z,
		Possible: possible,
	}
}

// IsValid reports whether the cell still has at least one possibility
func (c *Cell) IsValid() bool {
	return len(c.Possible) > 0
}

// HasPossibility reports whether the tile remains in the possibility set
func (c *Cell) HasPossibility(tile *TileDefinition) bool {
	for _, t := range c.Possible {
		if t == tile {
			return true
		}
	}
	return false
}

// Collapse commits the cell to one tile and rotation. The tile must not
// be nil; rotation validity is the caller's responsibility. Instance
// counting happens on the Grid, not here.
func (c *Cell) Collapse(tile *TileDefinition, rotation int) {
	c.Possible = c.Possible[:0]
	c.Possible = append(c.Possible, tile)
	c.Collapsed = true
	c.Chosen = tile
	c.Rotation = rotation
	c.Entropy = 0
}

// RemovePossibility drops the tile from the possibility set, recomputing
// entropy on success. Returns false if the tile was not present.
func (c *Cell) RemovePossibility(tile *TileDefinition, rng *rand.Rand) bool {
	for i, t := range c.Possible {
		if t != tile {
			continue
		}
		c.Possible = append(c.Possible[:i], c.Possible[i+1:]...)
		c.UpdateEntropy(rng)
		return true
	}
	return false
}

// UpdateEntropy recomputes the cell's entropy from its possibility set:
// the contradiction sentinel for an empty set, zero for a single
// possibility, otherwise the Shannon entropy of the weight-normalized
// set plus a small seeded jitter to break ties.
func (c *Cell) UpdateEntropy(rng *rand.Rand) {
	switch len(c.Possible) {
	case 0:
		c.Entropy = EntropySentinel
		return
	case 1:
		c.Entropy = 0
		return
	}

	total := 0.0
	for _, t := range c.Possible {
		total += t.Weight
	}

	entropy := 0.0
	if total > 0 {
		for _, t := range c.Possible {
			if t.Weight <= 0 {
				continue
			}
			p := t.Weight / total
			entropy -= p * math.Log2(p)
		}
	} else {
		// All-zero weights sample uniformly, so the uncertainty is log2(n).
		entropy = math.Log2(float64(len(c.Possible)))
	}

	jitter := entropyJitterMin + rng.Float64()*(entropyJitterMax-entropyJitterMin)
	c.Entropy = entropy + jitter
}

// Clone returns a deep, independent copy of the cell's state. Tile
// definitions are shared; they are immutable catalog objects.
func (c *Cell) Clone() *Cell {
	possible := make([]*TileDefinition, len(c.Possible))
	copy(possible, c.Possible)
	return &Cell{
		X:         c.X,
		Z:         c.Z,
		Possible:  possible,
		Collapsed: c.Collapsed,
		Chosen:    c.Chosen,
		Rotation:  c.Rotation,
		Entropy:   c.Entropy,
	}
}
