package wfc

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	ErrInvalidCatalog     = errors.New("wfc: invalid tile catalog")
	ErrInvalidSize        = errors.New("wfc: invalid grid size")
	ErrContradiction      = errors.New("wfc: contradiction - no valid tiles for cell")
	ErrBacktrackExhausted = errors.New("wfc: backtrack budget exhausted")
	ErrNotIdle            = errors.New("wfc: solver is not idle")
	ErrOutOfBounds        = errors.New("wfc: position out of grid bounds")
	ErrUnknownTile        = errors.New("wfc: tile not in catalog")
)

// State tracks the solver's lifecycle: Idle until Solve begins, Running
// during the collapse loop, then Complete or Failed forever after.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateComplete
	StateFailed
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of a run
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomeFailed   Outcome = "failed"
)

// DefaultHistoryCapacity bounds the snapshot stack when Options leaves
// HistoryCapacity unset. A backtrack deeper than the bound behaves as
// budget exhaustion.
const DefaultHistoryCapacity = 64

// Options are the construction parameters for one run
type Options struct {
	Width int
	Depth int
	Seed  int64

	UseBacktracking      bool
	MaxBacktracks        int
	PropagateImmediately bool

	// HistoryCapacity bounds the snapshot stack; zero means
	// DefaultHistoryCapacity.
	HistoryCapacity int
}

// Stats are the accumulated run counters
type Stats struct {
	Collapses      int   `json:"collapses"`
	Contradictions int   `json:"contradictions"`
	Backtracks     int   `json:"backtracks"`
	ElapsedMS      int64 `json:"elapsed_ms"`
}

// Placement reports one cell of the final grid. An empty TileID marks a
// cell left unresolved by a failed run.
type Placement struct {
	X        int    `json:"x"`
	Z        int    `json:"z"`
	TileID   string `json:"tile_id,omitempty"`
	Rotation int    `json:"rotation"`
}

// Result is the termination report: the finalized grid in row-major
// order, the run statistics, and a checksum over the placements.
type Result struct {
	Catalog    string      `json:"catalog,omitempty"`
	Width      int         `json:"width"`
	Depth      int         `json:"depth"`
	Seed       int64       `json:"seed"`
	Outcome    Outcome     `json:"outcome"`
	Failure    string      `json:"failure,omitempty"`
	Placements []Placement `json:"placements"`
	Stats      Stats       `json:"stats"`
	Checksum   string      `json:"checksum"`
}

// PlacementAt returns the placement for the cell at (x, z)
func (r *Result) PlacementAt(x, z int) Placement {
	return r.Placements[z*r.Width+x]
}

// Unresolved returns how many cells were left without an assignment
func (r *Result) Unresolved() int {
	n := 0
	for _, p := range r.Placements {
		if p.TileID == "" {
			n++
		}
	}
	return n
}

// Solver orchestrates one run of the collapse loop over its own grid,
// history, and RNG stream. Nothing is shared across solver instances,
// so independent runs never interfere.
type Solver struct {
	catalog *Catalog
	opts    Options

	grid    *Grid
	history *History
	prop    *Propagator
	rng     *rand.Rand

	state   State
	stats   Stats
	failure string
	started time.Time
	elapsed time.Duration

	narrowObserver    func(Position)
	collapseObserver  func(Position, *TileDefinition, int)
	backtrackObserver func(int)
}

// NewSolver creates an idle solver for one run over the catalog. The
// grid starts with every cell holding the full catalog, and one seeded
// generator feeds every randomized decision of the run.
func NewSolver(catalog *Catalog, opts Options) (*Solver, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, ErrInvalidCatalog
	}
	if opts.HistoryCapacity <= 0 {
		opts.HistoryCapacity = DefaultHistoryCapacity
	}

	s := &Solver{
		catalog: catalog,
		opts:    opts,
		rng:     rand.New(rand.NewSource(opts.Seed)),
		history: NewHistory(opts.HistoryCapacity),
		state:   StateIdle,
	}

	grid, err := NewGrid(opts.Width, opts.Depth, catalog.Tiles(), s.rng)
	if err != nil {
		return nil, err
	}
	s.grid = grid
	s.prop = NewPropagator(grid, catalog.Compatibility(), s.rng, func(p Position) {
		if s.narrowObserver != nil {
			s.narrowObserver(p)
		}
	})
	return s, nil
}

// SetNarrowObserver installs the hook invoked each time propagation
// narrows a cell's possibilities. Informational only; the hook must not
// mutate solver state.
func (s *Solver) SetNarrowObserver(fn func(Position)) {
	s.narrowObserver = fn
}

// SetCollapseObserver installs the hook invoked after each committed
// collapse with the position, tile, and rotation
func (s *Solver) SetCollapseObserver(fn func(Position, *TileDefinition, int)) {
	s.collapseObserver = fn
}

// SetBacktrackObserver installs the hook invoked after each restore with
// the running backtrack count
func (s *Solver) SetBacktrackObserver(fn func(int)) {
	s.backtrackObserver = fn
}

// State returns the solver's lifecycle state
func (s *Solver) State() State {
	return s.state
}

// Stats returns the counters accumulated so far
func (s *Solver) Stats() Stats {
	st := s.stats
	st.ElapsedMS = s.elapsedMS()
	return st
}

// Grid exposes the live grid for observers and tests. Callers outside
// the solver must treat it as read-only.
func (s *Solver) Grid() *Grid {
	return s.grid
}

// Catalog returns the catalog this solver runs over
func (s *Solver) Catalog() *Catalog {
	return s.catalog
}

// Start moves the solver from Idle to Running
func (s *Solver) Start() error {
	if s.state != StateIdle {
		return ErrNotIdle
	}
	s.state = StateRunning
	s.started = time.Now()
	return nil
}

// Solve runs the collapse loop to termination, yielding between
// iterations to check ctx. Cancellation is observed only at that yield
// point and reports a Failed result; it never corrupts invariants.
// The error is non-nil only when the solver has already run.
func (s *Solver) Solve(ctx context.Context) (*Result, error) {
	if err := s.Start(); err != nil {
		return nil, err
	}
	for s.state == StateRunning {
		if s.grid.AllCollapsed() {
			s.finish(StateComplete, "")
			break
		}
		if ctx != nil && ctx.Err() != nil {
			s.finish(StateFailed, "cancelled")
			break
		}
		s.Step()
	}
	return s.Result(), nil
}

// Step executes one iteration of the Running loop and returns the
// resulting state. Hosts that animate or interleave the run drive Step
// directly after Start; completion is detected here as well.
func (s *Solver) Step() State {
	if s.state != StateRunning {
		return s.state
	}
	if s.grid.AllCollapsed() {
		s.finish(StateComplete, "")
		return s.state
	}

	pos, ok := s.selectCell()
	if !ok {
		// Every uncollapsed cell is already contradictory.
		s.contradiction()
		return s.state
	}

	cell := s.grid.At(pos)
	tile, rotation, ok := s.chooseTileAndRotation(cell)
	if !ok {
		s.contradiction()
		return s.state
	}

	if s.opts.UseBacktracking {
		s.history.Push(s.grid.Snapshot())
	}
	s.grid.Collapse(pos, tile, rotation)
	s.stats.Collapses++
	if s.collapseObserver != nil {
		s.collapseObserver(pos, tile, rotation)
	}

	if s.opts.PropagateImmediately {
		if !s.prop.Propagate(pos) {
			s.contradiction()
		}
	}
	return s.state
}

// selectCell picks the minimum-entropy cell among uncollapsed valid
// cells, breaking exact ties uniformly. ok is false when no such cell
// exists.
func (s *Solver) selectCell() (Position, bool) {
	best := math.Inf(1)
	var ties []Position
	for z := 0; z < s.grid.Depth; z++ {
		for x := 0; x < s.grid.Width; x++ {
			cell := s.grid.At(Position{x, z})
			if cell.Collapsed || !cell.IsValid() {
				continue
			}
			switch {
			case cell.Entropy < best:
				best = cell.Entropy
				ties = ties[:0]
				ties = append(ties, Position{x, z})
			case cell.Entropy == best:
				ties = append(ties, Position{x, z})
			}
		}
	}
	if len(ties) == 0 {
		return Position{}, false
	}
	return ties[s.rng.Intn(len(ties))], true
}

// chooseTileAndRotation runs weighted tile selection and rotation
// validation as a single loop over the cell's shrinking candidate list.
// Tiles with no rotation compatible with the already-collapsed neighbors
// are dropped from the cell; ok is false once the set empties.
func (s *Solver) chooseTileAndRotation(cell *Cell) (*TileDefinition, int, bool) {
	for len(cell.Possible) > 0 {
		tile := s.pickTile(cell)
		rotations := s.validRotations(cell, tile)
		if len(rotations) > 0 {
			return tile, rotations[s.rng.Intn(len(rotations))], true
		}
		cell.RemovePossibility(tile, s.rng)
	}
	return nil, 0, false
}

// pickTile selects a tile from the cell's possibilities: candidates
// under their instance cap first, the unfiltered set as a fallback,
// weighted by tile weight, uniform when every weight is zero.
func (s *Solver) pickTile(cell *Cell) *TileDefinition {
	candidates := make([]*TileDefinition, 0, len(cell.Possible))
	for _, t := range cell.Possible {
		if s.grid.UnderInstanceCap(t) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		candidates = cell.Possible
	}

	total := 0.0
	for _, t := range candidates {
		total += t.Weight
	}
	if total <= 0 {
		return candidates[s.rng.Intn(len(candidates))]
	}

	r := s.rng.Float64() * total
	acc := 0.0
	for _, t := range candidates {
		acc += t.Weight
		if r < acc {
			return t
		}
	}
	return candidates[len(candidates)-1]
}

// validRotations returns the rotations of tile compatible with every
// already-collapsed neighbor of the cell. Open neighbors impose no
// constraint here; propagation resolves them.
func (s *Solver) validRotations(cell *Cell, tile *TileDefinition) []int {
	var valid []int
	for _, r := range tile.AllowedRotations() {
		if s.rotationFits(cell, tile, r) {
			valid = append(valid, r)
		}
	}
	return valid
}

// rotationFits checks the tile at the given rotation against each
// collapsed neighbor's committed pairing in all four directions
func (s *Solver) rotationFits(cell *Cell, tile *TileDefinition, rotation int) bool {
	pos := Position{cell.X, cell.Z}
	for _, dir := range HorizontalDirections() {
		neighbor := s.grid.At(pos.Step(dir))
		if neighbor == nil || !neighbor.Collapsed {
			continue
		}
		mine := tile.SocketAt(dir, rotation)
		theirs := neighbor.Chosen.SocketAt(dir.Opposite(), neighbor.Rotation)
		if !s.catalog.Compatibility().Compatible(mine, theirs) {
			return false
		}
	}
	return true
}

// contradiction handles an empty possibility set or a failed
// propagation pass: restore the most recent snapshot while backtracking
// is enabled and budget remains, otherwise terminate in Failed.
func (s *Solver) contradiction() {
	s.stats.Contradictions++

	if !s.opts.UseBacktracking || s.stats.Backtracks >= s.opts.MaxBacktracks {
		s.finish(StateFailed, "backtrack budget exhausted")
		return
	}
	snap, ok := s.history.Pop()
	if !ok {
		// Nothing left to restore; older snapshots were evicted.
		s.finish(StateFailed, "backtrack budget exhausted")
		return
	}
	s.grid.Restore(snap)
	s.stats.Backtracks++
	if s.backtrackObserver != nil {
		s.backtrackObserver(s.stats.Backtracks)
	}
}

// finish moves the solver into a terminal state
func (s *Solver) finish(state State, failure string) {
	s.state = state
	s.failure = failure
	s.elapsed = time.Since(s.started)
}

func (s *Solver) elapsedMS() int64 {
	switch s.state {
	case StateIdle:
		return 0
	case StateRunning:
		return time.Since(s.started).Milliseconds()
	default:
		return s.elapsed.Milliseconds()
	}
}

// Result builds the termination report. It returns nil while the solver
// has not yet reached Complete or Failed.
func (s *Solver) Result() *Result {
	if s.state != StateComplete && s.state != StateFailed {
		return nil
	}

	placements := make([]Placement, 0, s.grid.Width*s.grid.Depth)
	s.grid.EachCell(func(cell *Cell) {
		p := Placement{X: cell.X, Z: cell.Z}
		if cell.Collapsed {
			p.TileID = cell.Chosen.ID
			p.Rotation = cell.Rotation
		}
		placements = append(placements, p)
	})

	outcome := OutcomeComplete
	if s.state == StateFailed {
		outcome = OutcomeFailed
	}

	stats := s.stats
	stats.ElapsedMS = s.elapsed.Milliseconds()

	return &Result{
		Catalog:    s.catalog.Name(),
		Width:      s.grid.Width,
		Depth:      s.grid.Depth,
		Seed:       s.opts.Seed,
		Outcome:    outcome,
		Failure:    s.failure,
		Placements: placements,
		Stats:      stats,
		Checksum:   GridChecksum(s.grid.Width, s.grid.Depth, placements),
	}
}
