package wfc

import "fmt"

// Socket is the type tag carried by one face of a tile. Two adjacent
// faces touch when the source face's socket accepts the target face's
// socket; acceptance is directional and never assumed symmetric.
type Socket string

// Compatibility is the exhaustive directional socket acceptance table.
// Every declared socket pair must be explicitly set before the table
// (and any catalog built on it) passes validation; lookups never fall
// through to a silent default.
type Compatibility struct {
	sockets  []Socket
	declared map[Socket]bool
	accepts  map[Socket]map[Socket]bool
}

// NewCompatibility creates an empty compatibility table
func NewCompatibility() *Compatibility {
	return &Compatibility{
		declared: make(map[Socket]bool),
		accepts:  make(map[Socket]map[Socket]bool),
	}
}

// Declare registers socket types in the table, preserving declaration order
func (c *Compatibility) Declare(sockets ...Socket) {
	for _, s := range sockets {
		if c.declared[s] {
			continue
		}
		c.declared[s] = true
		c.sockets = append(c.sockets, s)
		c.accepts[s] = make(map[Socket]bool)
	}
}

// Set records whether a source face with socket a accepts a target face
// with socket b. Undeclared sockets are declared implicitly.
func (c *Compatibility) Set(a, b Socket, compatible bool) {
	c.Declare(a, b)
	c.accepts[a][b] = compatible
}

// Allow marks the directional pair a -> b compatible
func (c *Compatibility) Allow(a, b Socket) {
	c.Set(a, b, true)
}

// AllowMutual marks both directions of a pair compatible
func (c *Compatibility) AllowMutual(a, b Socket) {
	c.Set(a, b, true)
	c.Set(b, a, true)
}

// Complete explicitly marks every remaining undefined pair incompatible,
// so that the table covers all declared sockets in both directions.
func (c *Compatibility) Complete() {
	for _, a := range c.sockets {
		for _, b := range c.sockets {
			if _, ok := c.accepts[a][b]; !ok {
				c.accepts[a][b] = false
			}
		}
	}
}

// Compatible reports whether a source face with socket a accepts a
// target face with socket b
func (c *Compatibility) Compatible(a, b Socket) bool {
	return c.accepts[a][b]
}

// Defined reports whether the pair a -> b has an explicit entry
func (c *Compatibility) Defined(a, b Socket) bool {
	row, ok := c.accepts[a]
	if !ok {
		return false
	}
	_, ok = row[b]
	return ok
}

// Declared reports whether the socket type is known to the table
func (c *Compatibility) Declared(s Socket) bool {
	return c.declared[s]
}

// Sockets returns the declared socket types in declaration order
func (c *Compatibility) Sockets() []Socket {
	out := make([]Socket, len(c.sockets))
	copy(out, c.sockets)
	return out
}

// Validate checks that every declared pair has an explicit entry
func (c *Compatibility) Validate() error {
	if len(c.sockets) == 0 {
		return fmt.Errorf("%w: no socket types declared", ErrInvalidCatalog)
	}
	for _, a := range c.sockets {
		for _, b := range c.sockets {
			if !c.Defined(a, b) {
				return fmt.Errorf("%w: compatibility undefined for %q -> %q", ErrInvalidCatalog, a, b)
			}
		}
	}
	return nil
}
