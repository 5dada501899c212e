package wfc

import (
	"context"
	"errors"
	"testing"
)

func TestForceCollapse(t *testing.T) {
	solver := mustSolver(t, uniformCatalog(t), Options{
		Width: 3, Depth: 3, Seed: 4,
		PropagateImmediately: true,
	})
	if err := solver.ForceCollapse(Position{1, 1}, "grass", 1); err != nil {
		t.Fatalf("ForceCollapse() error = %v", err)
	}

	result, err := solver.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if result.Outcome != OutcomeComplete {
		t.Fatalf("Outcome = %v, want %v", result.Outcome, OutcomeComplete)
	}
	forced := result.PlacementAt(1, 1)
	if forced.TileID != "grass" || forced.Rotation != 1 {
		t.Errorf("forced cell = %q rotation %d, want grass rotation 1", forced.TileID, forced.Rotation)
	}
	if result.Stats.Collapses != 9 {
		t.Errorf("Collapses = %d, want 9 including the forced one", result.Stats.Collapses)
	}
}

func TestForceCollapseErrors(t *testing.T) {
	solver := mustSolver(t, uniformCatalog(t), Options{Width: 2, Depth: 2, Seed: 1})

	if err := solver.ForceCollapse(Position{5, 0}, "grass", 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("out-of-bounds error = %v, want ErrOutOfBounds", err)
	}
	if err := solver.ForceCollapse(Position{0, 0}, "lava", 0); !errors.Is(err, ErrUnknownTile) {
		t.Errorf("unknown tile error = %v, want ErrUnknownTile", err)
	}
	// dirt does not rotate.
	if err := solver.ForceCollapse(Position{0, 0}, "dirt", 1); err == nil {
		t.Error("illegal rotation error = nil, want non-nil")
	}

	if err := solver.ForceCollapse(Position{0, 0}, "dirt", 0); err != nil {
		t.Fatalf("ForceCollapse() error = %v", err)
	}
	if err := solver.ForceCollapse(Position{0, 0}, "grass", 0); err == nil {
		t.Error("double collapse error = nil, want non-nil")
	}

	if err := solver.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := solver.ForceCollapse(Position{1, 1}, "grass", 0); !errors.Is(err, ErrNotIdle) {
		t.Errorf("post-start error = %v, want ErrNotIdle", err)
	}
}

func TestForceCollapseContradiction(t *testing.T) {
	solver := mustSolver(t, trapCatalog(t), Options{
		Width: 3, Depth: 1, Seed: 1,
		PropagateImmediately: true,
	})

	err := solver.ForceCollapse(Position{1, 0}, "A", 0)
	if !errors.Is(err, ErrContradiction) {
		t.Errorf("ForceCollapse(strander) error = %v, want ErrContradiction", err)
	}
	if solver.Stats().Contradictions == 0 {
		t.Error("Contradictions = 0 after a contradictory forced collapse")
	}
}

func TestRestrictByCategory(t *testing.T) {
	compat := NewCompatibility()
	compat.AllowMutual("open", "open")
	compat.AllowMutual("flat", "flat")
	compat.Complete()
	tiles := []*TileDefinition{
		{ID: "field", Name: "Field", Weight: 1, Category: "land", Sockets: [6]Socket{"open", "open", "open", "open", "flat", "flat"}},
		{ID: "lake", Name: "Lake", Weight: 1, Category: "water", Sockets: [6]Socket{"open", "open", "open", "open", "flat", "flat"}},
	}
	catalog, err := NewCatalog("terrain", tiles, compat)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	solver := mustSolver(t, catalog, Options{Width: 3, Depth: 3, Seed: 2, PropagateImmediately: true})
	if err := solver.RestrictByCategory(func(category string) bool { return category == "land" }); err != nil {
		t.Fatalf("RestrictByCategory() error = %v", err)
	}

	result, err := solver.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if result.Outcome != OutcomeComplete {
		t.Fatalf("Outcome = %v, want %v", result.Outcome, OutcomeComplete)
	}
	for _, p := range result.Placements {
		if p.TileID != "field" {
			t.Errorf("cell (%d,%d) = %q, want field only", p.X, p.Z, p.TileID)
		}
	}
}

func TestRestrictByCategoryContradiction(t *testing.T) {
	solver := mustSolver(t, uniformCatalog(t), Options{Width: 2, Depth: 2, Seed: 2})
	err := solver.RestrictByCategory(func(string) bool { return false })
	if !errors.Is(err, ErrContradiction) {
		t.Errorf("RestrictByCategory(reject all) error = %v, want ErrContradiction", err)
	}
}

func TestRestrictBorder(t *testing.T) {
	compat := NewCompatibility()
	compat.AllowMutual("open", "open")
	compat.AllowMutual("flat", "flat")
	compat.Complete()
	tiles := []*TileDefinition{
		{ID: "edge", Name: "Edge", Weight: 1, AllowOnBorder: true, Sockets: [6]Socket{"open", "open", "open", "open", "flat", "flat"}},
		{ID: "inner", Name: "Inner", Weight: 1, AllowOnBorder: false, Sockets: [6]Socket{"open", "open", "open", "open", "flat", "flat"}},
	}
	catalog, err := NewCatalog("bordered", tiles, compat)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	solver := mustSolver(t, catalog, Options{Width: 3, Depth: 3, Seed: 2})
	if err := solver.RestrictBorder(); err != nil {
		t.Fatalf("RestrictBorder() error = %v", err)
	}

	grid := solver.Grid()
	grid.EachCell(func(cell *Cell) {
		pos := Position{cell.X, cell.Z}
		want := 2
		if grid.IsBorder(pos) {
			want = 1
		}
		if len(cell.Possible) != want {
			t.Errorf("cell %v has %d possibilities, want %d", pos, len(cell.Possible), want)
		}
		if grid.IsBorder(pos) && cell.Possible[0].ID != "edge" {
			t.Errorf("border cell %v kept %q, want edge", pos, cell.Possible[0].ID)
		}
	})
}

func TestRestrictByDistance(t *testing.T) {
	compat := NewCompatibility()
	compat.AllowMutual("open", "open")
	compat.AllowMutual("flat", "flat")
	compat.Complete()
	tiles := []*TileDefinition{
		{ID: "hub", Name: "Hub", Weight: 1, MaxCenterDistance: 1.5, Sockets: [6]Socket{"open", "open", "open", "open", "flat", "flat"}},
		{ID: "rim", Name: "Rim", Weight: 1, MinCenterDistance: 2, Sockets: [6]Socket{"open", "open", "open", "open", "flat", "flat"}},
		{ID: "any", Name: "Any", Weight: 1, Sockets: [6]Socket{"open", "open", "open", "open", "flat", "flat"}},
	}
	catalog, err := NewCatalog("rings", tiles, compat)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	solver := mustSolver(t, catalog, Options{Width: 5, Depth: 5, Seed: 2})
	if err := solver.RestrictByDistance(Position{2, 2}, 0, 0); err != nil {
		t.Fatalf("RestrictByDistance() error = %v", err)
	}

	has := func(pos Position, id string) bool {
		for _, tile := range solver.Grid().At(pos).Possible {
			if tile.ID == id {
				return true
			}
		}
		return false
	}

	// Distance 0: inside the hub ring, closer than the rim's minimum.
	center := Position{2, 2}
	if !has(center, "hub") || has(center, "rim") || !has(center, "any") {
		t.Errorf("center possibilities wrong: hub=%v rim=%v any=%v", has(center, "hub"), has(center, "rim"), has(center, "any"))
	}

	// Distance sqrt(8) ~ 2.83: beyond the hub's maximum, past the rim's minimum.
	corner := Position{0, 0}
	if has(corner, "hub") || !has(corner, "rim") || !has(corner, "any") {
		t.Errorf("corner possibilities wrong: hub=%v rim=%v any=%v", has(corner, "hub"), has(corner, "rim"), has(corner, "any"))
	}

	// Distance 2: exactly the rim's minimum, past the hub's maximum.
	ring := Position{2, 0}
	if has(ring, "hub") || !has(ring, "rim") {
		t.Errorf("ring possibilities wrong: hub=%v rim=%v", has(ring, "hub"), has(ring, "rim"))
	}
}

func TestRestrictByDistanceFallbackBounds(t *testing.T) {
	// Tiles without their own window inherit the caller's bounds.
	solver := mustSolver(t, uniformCatalog(t), Options{Width: 5, Depth: 5, Seed: 2})
	if err := solver.RestrictByDistance(Position{2, 2}, 1, 10); !errors.Is(err, ErrContradiction) {
		t.Errorf("RestrictByDistance() error = %v, want ErrContradiction at the emptied center", err)
	}
	if n := len(solver.Grid().At(Position{2, 2}).Possible); n != 0 {
		t.Errorf("center kept %d possibilities inside the excluded radius, want 0", n)
	}
}
