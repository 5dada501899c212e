package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Le-Vincent56/Procedural-Generation/internal/database"
	"github.com/Le-Vincent56/Procedural-Generation/internal/logger"
	"github.com/Le-Vincent56/Procedural-Generation/internal/wfc"
)

// SolveRequest is the POST /api/solve body. Omitted fields fall back to
// the solver defaults from the daemon config; the boolean and budget
// overrides are pointers so an explicit false is distinguishable from
// an omission.
type SolveRequest struct {
	Catalog string `json:"catalog"`
	Width   int    `json:"width"`
	Depth   int    `json:"depth"`
	Seed    int64  `json:"seed"`

	UseBacktracking      *bool `json:"use_backtracking"`
	MaxBacktracks        *int  `json:"max_backtracks"`
	PropagateImmediately *bool `json:"propagate_immediately"`
	HistoryCapacity      int   `json:"history_capacity"`

	Constraints *ConstraintsRequest `json:"constraints"`
}

// ConstraintsRequest mirrors the pre-solve constraint phase. Forced
// collapses are applied first, then the category keep-list, the
// center-distance window, and the border restriction.
type ConstraintsRequest struct {
	Collapse       []CollapseRequest `json:"collapse"`
	KeepCategories []string          `json:"keep_categories"`
	Distance       *DistanceRequest  `json:"distance"`
	Border         bool              `json:"border"`
}

// CollapseRequest forces one cell to a tile and rotation before solving.
type CollapseRequest struct {
	X        int    `json:"x"`
	Z        int    `json:"z"`
	TileID   string `json:"tile_id"`
	Rotation int    `json:"rotation"`
}

// DistanceRequest applies a Euclidean distance window around a center
// cell. Zero min or max means unbounded on that side.
type DistanceRequest struct {
	CenterX int     `json:"center_x"`
	CenterZ int     `json:"center_z"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// SolveResponse acknowledges an accepted run. The seed is echoed back
// so time-derived seeds can be replayed.
type SolveResponse struct {
	RunID   string `json:"run_id"`
	Catalog string `json:"catalog"`
	Width   int    `json:"width"`
	Depth   int    `json:"depth"`
	Seed    int64  `json:"seed"`
}

// RunSummary is one row of GET /api/runs.
type RunSummary struct {
	ID             string    `json:"id"`
	Catalog        string    `json:"catalog"`
	Width          int       `json:"width"`
	Depth          int       `json:"depth"`
	Seed           int64     `json:"seed"`
	Outcome        string    `json:"outcome"`
	Collapses      int       `json:"collapses"`
	Contradictions int       `json:"contradictions"`
	Backtracks     int       `json:"backtracks"`
	ElapsedMS      int64     `json:"elapsed_ms"`
	Checksum       string    `json:"checksum"`
	CreatedAt      time.Time `json:"created_at"`
}

// RunDetail is the GET /api/runs/{id} body: the summary plus the
// options used and the full placement list.
type RunDetail struct {
	RunSummary
	UseBacktracking bool            `json:"use_backtracking"`
	MaxBacktracks   int             `json:"max_backtracks"`
	Failure         string          `json:"failure,omitempty"`
	Placements      []wfc.Placement `json:"placements"`
}

// CatalogSummary is one entry of GET /api/catalogs.
type CatalogSummary struct {
	Name    string `json:"name"`
	Tiles   int    `json:"tiles"`
	Default bool   `json:"default,omitempty"`
}

// handleSolve validates a solve request, applies its initial
// constraints, and launches the run on its own goroutine. The run id
// is returned immediately; progress streams over /ws and the finished
// result lands in the archive.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	name := req.Catalog
	if name == "" {
		name = s.serverConfig.Catalogs.Default
	}
	catalog, ok := s.store.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown catalog: "+name)
		return
	}

	opts := s.solveOptions(&req)
	solver, err := wfc.NewSolver(catalog, opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := applyConstraints(solver, req.Constraints); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, wfc.ErrContradiction) {
			// The constraints themselves are unsatisfiable.
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}

	id := s.launchRun(solver, opts)
	logger.Info("Run submitted",
		"run_id", id,
		"catalog", name,
		"width", opts.Width,
		"depth", opts.Depth,
		"seed", opts.Seed,
		"client_ip", getRealIP(r))

	writeJSON(w, http.StatusAccepted, SolveResponse{
		RunID:   id,
		Catalog: name,
		Width:   opts.Width,
		Depth:   opts.Depth,
		Seed:    opts.Seed,
	})
}

// solveOptions folds the request over the configured solver defaults.
// A zero seed after both layers falls through to the current time.
func (s *Server) solveOptions(req *SolveRequest) wfc.Options {
	defaults := s.serverConfig.Solver
	opts := wfc.Options{
		Width:                req.Width,
		Depth:                req.Depth,
		Seed:                 req.Seed,
		UseBacktracking:      defaults.UseBacktracking,
		MaxBacktracks:        defaults.MaxBacktracks,
		PropagateImmediately: defaults.PropagateImmediately,
		HistoryCapacity:      defaults.HistoryCapacity,
	}
	if opts.Width == 0 {
		opts.Width = defaults.Width
	}
	if opts.Depth == 0 {
		opts.Depth = defaults.Depth
	}
	if opts.Seed == 0 {
		opts.Seed = defaults.Seed
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if req.UseBacktracking != nil {
		opts.UseBacktracking = *req.UseBacktracking
	}
	if req.MaxBacktracks != nil {
		opts.MaxBacktracks = *req.MaxBacktracks
	}
	if req.PropagateImmediately != nil {
		opts.PropagateImmediately = *req.PropagateImmediately
	}
	if req.HistoryCapacity > 0 {
		opts.HistoryCapacity = req.HistoryCapacity
	}
	return opts
}

// applyConstraints runs the pre-solve constraint phase on an idle solver.
func applyConstraints(solver *wfc.Solver, c *ConstraintsRequest) error {
	if c == nil {
		return nil
	}
	for _, fc := range c.Collapse {
		if err := solver.ForceCollapse(wfc.Position{X: fc.X, Z: fc.Z}, fc.TileID, fc.Rotation); err != nil {
			return err
		}
	}
	if len(c.KeepCategories) > 0 {
		keep := make(map[string]bool, len(c.KeepCategories))
		for _, category := range c.KeepCategories {
			keep[category] = true
		}
		if err := solver.RestrictByCategory(func(category string) bool {
			return keep[category]
		}); err != nil {
			return err
		}
	}
	if c.Distance != nil {
		center := wfc.Position{X: c.Distance.CenterX, Z: c.Distance.CenterZ}
		if err := solver.RestrictByDistance(center, c.Distance.Min, c.Distance.Max); err != nil {
			return err
		}
	}
	if c.Border {
		if err := solver.RestrictBorder(); err != nil {
			return err
		}
	}
	return nil
}

// handleListRuns returns recent archived runs, optionally filtered by
// catalog name.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "run archive not configured")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		limit = n
	}

	records, err := s.db.ListRuns(r.URL.Query().Get("catalog"), limit)
	if err != nil {
		logger.Error("Failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	summaries := make([]RunSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, runSummary(rec))
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleGetRun returns one archived run with its placements. A run that
// is still in flight reports its state instead of a result.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, live := s.lookupRun(id); live {
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "state": "running"})
		return
	}

	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "run archive not configured")
		return
	}

	rec, err := s.db.GetRun(id)
	if errors.Is(err, database.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "unknown run: "+id)
		return
	}
	if err != nil {
		logger.Error("Failed to load run", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	writeJSON(w, http.StatusOK, RunDetail{
		RunSummary:      runSummary(rec),
		UseBacktracking: rec.UseBacktracking,
		MaxBacktracks:   rec.MaxBacktracks,
		Failure:         rec.Failure,
		Placements:      rec.Placements,
	})
}

// handleDeleteRun removes an archived run. In-flight runs cannot be
// deleted; they leave the registry when they finish.
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, live := s.lookupRun(id); live {
		writeError(w, http.StatusConflict, "run still in flight: "+id)
		return
	}

	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "run archive not configured")
		return
	}

	err := s.db.DeleteRun(id)
	if errors.Is(err, database.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "unknown run: "+id)
		return
	}
	if err != nil {
		logger.Error("Failed to delete run", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete run")
		return
	}

	logger.Info("Run deleted", "run_id", id, "client_ip", getRealIP(r))
	w.WriteHeader(http.StatusNoContent)
}

// handleCatalogs lists the catalogs the tile set store is serving.
func (s *Server) handleCatalogs(w http.ResponseWriter, r *http.Request) {
	names := s.store.Names()
	summaries := make([]CatalogSummary, 0, len(names))
	for _, name := range names {
		catalog, ok := s.store.Get(name)
		if !ok {
			continue // Dropped between Names and Get by a hot reload
		}
		summaries = append(summaries, CatalogSummary{
			Name:    name,
			Tiles:   catalog.Len(),
			Default: name == s.serverConfig.Catalogs.Default,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"uptime":      s.GetUptime().String(),
		"active_runs": s.ActiveRunCount(),
		"catalogs":    s.store.Len(),
	})
}

func runSummary(rec *database.RunRecord) RunSummary {
	return RunSummary{
		ID:             rec.ID,
		Catalog:        rec.Catalog,
		Width:          rec.Width,
		Depth:          rec.Depth,
		Seed:           rec.Seed,
		Outcome:        rec.Outcome,
		Collapses:      rec.Collapses,
		Contradictions: rec.Contradictions,
		Backtracks:     rec.Backtracks,
		ElapsedMS:      rec.ElapsedMS,
		Checksum:       rec.Checksum,
		CreatedAt:      rec.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
