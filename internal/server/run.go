package server

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Le-Vincent56/Procedural-Generation/internal/database"
	"github.com/Le-Vincent56/Procedural-Generation/internal/logger"
	"github.com/Le-Vincent56/Procedural-Generation/internal/wfc"
)

// Event types streamed to run watchers.
const (
	EventNarrow    = "narrow"
	EventCollapse  = "collapse"
	EventBacktrack = "backtrack"
	EventResult    = "result"
)

// watcherBuffer is the per-watcher event queue. A watcher that falls
// this far behind the solver is dropped rather than allowed to stall it.
const watcherBuffer = 256

// Event is one progress message streamed to run watchers. Narrow events
// carry a position, collapse events add the committed tile and rotation,
// backtrack events carry the running restore count, and the final result
// event carries the full termination report.
type Event struct {
	Type       string      `json:"type"`
	RunID      string      `json:"run_id"`
	X          int         `json:"x,omitempty"`
	Z          int         `json:"z,omitempty"`
	TileID     string      `json:"tile_id,omitempty"`
	Rotation   int         `json:"rotation,omitempty"`
	Backtracks int         `json:"backtracks,omitempty"`
	Result     *wfc.Result `json:"result,omitempty"`
}

// activeRun tracks one in-flight solver run: its cancel handle and the
// watchers subscribed to its event stream. The solver itself is owned
// exclusively by the run's goroutine and never touched from here.
type activeRun struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{} // closed after the run is archived

	mu       sync.Mutex
	watchers map[chan Event]struct{}
	finished bool
	result   *wfc.Result
}

func newActiveRun(id string, cancel context.CancelFunc) *activeRun {
	return &activeRun{
		id:       id,
		cancel:   cancel,
		done:     make(chan struct{}),
		watchers: make(map[chan Event]struct{}),
	}
}

// subscribe registers a new watcher. Subscribing to a finished run
// yields the result event immediately followed by end of stream.
func (r *activeRun) subscribe() chan Event {
	ch := make(chan Event, watcherBuffer)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		if r.result != nil {
			ch <- Event{Type: EventResult, RunID: r.id, Result: r.result}
		}
		close(ch)
		return ch
	}

	r.watchers[ch] = struct{}{}
	return ch
}

// unsubscribe removes a watcher and closes its channel.
func (r *activeRun) unsubscribe(ch chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.watchers[ch]; ok {
		delete(r.watchers, ch)
		close(ch)
	}
}

// publish delivers an event to every watcher. A watcher with a full
// queue is dropped on the spot; the solver never blocks on a consumer.
func (r *activeRun) publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ch := range r.watchers {
		select {
		case ch <- ev:
		default:
			delete(r.watchers, ch)
			close(ch)
		}
	}
}

// finish records the terminal result, delivers it to the remaining
// watchers, and ends every stream.
func (r *activeRun) finish(result *wfc.Result) {
	r.mu.Lock()
	r.finished = true
	r.result = result
	for ch := range r.watchers {
		if result != nil {
			select {
			case ch <- Event{Type: EventResult, RunID: r.id, Result: result}:
			default:
			}
		}
		delete(r.watchers, ch)
		close(ch)
	}
	r.mu.Unlock()
}

// launchRun registers a run for the solver and starts it on its own
// goroutine, wiring the solver's observer hooks into the event stream.
// Returns the run id handed back to the submitter.
func (s *Server) launchRun(solver *wfc.Solver, opts wfc.Options) string {
	id := uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())
	run := newActiveRun(id, cancel)

	solver.SetNarrowObserver(func(pos wfc.Position) {
		run.publish(Event{Type: EventNarrow, RunID: id, X: pos.X, Z: pos.Z})
	})
	solver.SetCollapseObserver(func(pos wfc.Position, tile *wfc.TileDefinition, rotation int) {
		run.publish(Event{Type: EventCollapse, RunID: id, X: pos.X, Z: pos.Z, TileID: tile.ID, Rotation: rotation})
	})
	solver.SetBacktrackObserver(func(count int) {
		run.publish(Event{Type: EventBacktrack, RunID: id, Backtracks: count})
	})

	s.mu.Lock()
	s.runs[id] = run
	s.mu.Unlock()

	go s.runSolve(ctx, run, solver, opts)
	return id
}

// runSolve drives one solver to termination, archives the result, and
// releases the run's watchers.
func (s *Server) runSolve(ctx context.Context, run *activeRun, solver *wfc.Solver, opts wfc.Options) {
	activeRuns.Inc()
	defer activeRuns.Dec()
	defer close(run.done)
	defer run.cancel()

	result, err := solver.Solve(ctx)
	if err != nil {
		// Only reachable if the solver was driven before launch.
		logger.Error("Solver refused to start", "run_id", run.id, "error", err)
		run.finish(nil)
		s.removeRun(run.id)
		return
	}

	recordRun(result)

	if s.db != nil {
		if _, err := s.db.SaveRunWithID(run.id, result, opts); err != nil {
			logger.Error("Failed to archive run", "run_id", run.id, "error", err)
		}
	}

	logger.Info("Run finished",
		"run_id", run.id,
		"catalog", result.Catalog,
		"outcome", result.Outcome,
		"collapses", result.Stats.Collapses,
		"contradictions", result.Stats.Contradictions,
		"backtracks", result.Stats.Backtracks,
		"elapsed_ms", result.Stats.ElapsedMS)

	run.finish(result)
	s.removeRun(run.id)
}

// lookupRun returns the in-flight run for an id, if any.
func (s *Server) lookupRun(id string) (*activeRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}

func (s *Server) removeRun(id string) {
	s.mu.Lock()
	delete(s.runs, id)
	s.mu.Unlock()
}

// recordResult rebuilds a Result from an archived run so finished runs
// replay through the same event shape as live ones.
func recordResult(rec *database.RunRecord) *wfc.Result {
	return &wfc.Result{
		Catalog:    rec.Catalog,
		Width:      rec.Width,
		Depth:      rec.Depth,
		Seed:       rec.Seed,
		Outcome:    wfc.Outcome(rec.Outcome),
		Failure:    rec.Failure,
		Placements: rec.Placements,
		Stats: wfc.Stats{
			Collapses:      rec.Collapses,
			Contradictions: rec.Contradictions,
			Backtracks:     rec.Backtracks,
			ElapsedMS:      rec.ElapsedMS,
		},
		Checksum: rec.Checksum,
	}
}
