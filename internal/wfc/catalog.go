package wfc

import "fmt"

// Catalog is the immutable, validated set of tile definitions plus
// their socket compatibility table. A catalog is built once before
// solving; solvers never mutate it, so any number of runs may share one.
type Catalog struct {
	name   string
	tiles  []*TileDefinition
	byID   map[string]*TileDefinition
	compat *Compatibility
}

// NewCatalog validates the definitions against the compatibility table
// and returns the immutable catalog. Tile order is preserved; it fixes
// the iteration order of every possibility set derived from the catalog.
func NewCatalog(name string, tiles []*TileDefinition, compat *Compatibility) (*Catalog, error) {
	if len(tiles) == 0 {
		return nil, fmt.Errorf("%w: no tiles", ErrInvalidCatalog)
	}
	if compat == nil {
		return nil, fmt.Errorf("%w: no compatibility table", ErrInvalidCatalog)
	}
	if err := compat.Validate(); err != nil {
		return nil, err
	}

	byID := make(map[string]*TileDefinition, len(tiles))
	for _, tile := range tiles {
		if err := tile.validate(); err != nil {
			return nil, err
		}
		if _, exists := byID[tile.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate tile id %q", ErrInvalidCatalog, tile.ID)
		}
		for _, d := range []Direction{North, East, South, West, Top, Bottom} {
			if !compat.Declared(tile.Sockets[d]) {
				return nil, fmt.Errorf("%w: tile %q: undeclared socket %q on %s face",
					ErrInvalidCatalog, tile.ID, tile.Sockets[d], d)
			}
		}
		byID[tile.ID] = tile
	}

	return &Catalog{
		name:   name,
		tiles:  tiles,
		byID:   byID,
		compat: compat,
	}, nil
}

// Name returns the catalog's name
func (c *Catalog) Name() string {
	return c.name
}

// Len returns the number of tile definitions
func (c *Catalog) Len() int {
	return len(c.tiles)
}

// Tiles returns the tile definitions in catalog order
func (c *Catalog) Tiles() []*TileDefinition {
	out := make([]*TileDefinition, len(c.tiles))
	copy(out, c.tiles)
	return out
}

// Tile looks up a definition by id
func (c *Catalog) Tile(id string) (*TileDefinition, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// Compatibility returns the catalog's socket acceptance table
func (c *Catalog) Compatibility() *Compatibility {
	return c.compat
}
