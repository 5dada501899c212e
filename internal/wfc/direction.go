package wfc

// Direction indexes one face of a tile. The four horizontal directions
// participate in adjacency and rotation; Top and Bottom never rotate.
type Direction int

const (
	North Direction = iota
	East
	South
	West
	Top
	Bottom
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// IsHorizontal returns true for the four rotating directions
func (d Direction) IsHorizontal() bool {
	return d >= North && d <= West
}

// Opposite returns the facing direction
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	case West:
		return East
	case Top:
		return Bottom
	case Bottom:
		return Top
	default:
		return d
	}
}

// HorizontalDirections returns the four directions used for grid adjacency
func HorizontalDirections() []Direction {
	return []Direction{North, East, South, West}
}

// rotatedFace maps a requested horizontal direction to the unrotated
// socket face for a tile rotated by rotation steps of 90 degrees.
// Vertical faces are returned unchanged.
func rotatedFace(d Direction, rotation int) Direction {
	if !d.IsHorizontal() {
		return d
	}
	return Direction((int(d) - rotation%4 + 4) % 4)
}
