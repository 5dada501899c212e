package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Le-Vincent56/Procedural-Generation/internal/config"
	"github.com/Le-Vincent56/Procedural-Generation/internal/database"
	"github.com/Le-Vincent56/Procedural-Generation/internal/tileset"
)

const testCatalogYAML = `name: terrain
sockets:
  - open
compatibility:
  - source: open
    targets: [open]
tiles:
  - id: floor
    name: Floor
    weight: 4
    category: floor
    sockets:
      north: open
      east: open
      south: open
      west: open
      top: open
      bottom: open
  - id: pillar
    name: Pillar
    weight: 1
    category: feature
    sockets:
      north: open
      east: open
      south: open
      west: open
      top: open
      bottom: open
`

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "terrain.yaml"), []byte(testCatalogYAML), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	store, err := tileset.NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	db, err := database.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.DefaultConfig()
	cfg.Catalogs.Default = "terrain"

	srv := NewServer(":0", store, cfg)
	srv.SetDatabase(db)
	t.Cleanup(srv.Shutdown)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return srv, ts
}

func submitSolve(t *testing.T, ts *httptest.Server, body string) SolveResponse {
	t.Helper()

	resp, err := http.Post(ts.URL+"/api/solve", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/solve error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST /api/solve status = %d, body %s", resp.StatusCode, data)
	}

	var ack SolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode solve response: %v", err)
	}
	if ack.RunID == "" {
		t.Fatal("solve response has empty run id")
	}
	return ack
}

// waitForRun polls the archive endpoint until the run has a terminal
// outcome.
func waitForRun(t *testing.T, ts *httptest.Server, id string) RunDetail {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/api/runs/" + id)
		if err != nil {
			t.Fatalf("GET /api/runs/%s error = %v", id, err)
		}
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			var detail RunDetail
			if err := json.Unmarshal(data, &detail); err != nil {
				t.Fatalf("decode run detail: %v", err)
			}
			if detail.Outcome != "" {
				return detail
			}
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("run %s did not finish in time", id)
	return RunDetail{}
}

func TestSolve_CompletesAndArchives(t *testing.T) {
	_, ts := newTestServer(t)

	ack := submitSolve(t, ts, `{"catalog": "terrain", "width": 4, "depth": 4, "seed": 42}`)
	if ack.Catalog != "terrain" {
		t.Errorf("ack catalog = %s, want terrain", ack.Catalog)
	}
	if ack.Seed != 42 {
		t.Errorf("ack seed = %d, want 42", ack.Seed)
	}

	detail := waitForRun(t, ts, ack.RunID)
	if detail.Outcome != "complete" {
		t.Fatalf("outcome = %s (failure %q), want complete", detail.Outcome, detail.Failure)
	}
	if len(detail.Placements) != 16 {
		t.Errorf("placements = %d, want 16", len(detail.Placements))
	}
	if detail.Checksum == "" {
		t.Error("archived run has empty checksum")
	}
	for _, p := range detail.Placements {
		if p.TileID == "" {
			t.Fatalf("unresolved cell (%d,%d) in a complete run", p.X, p.Z)
		}
	}
}

func TestSolve_DefaultCatalogAndDerivedSeed(t *testing.T) {
	_, ts := newTestServer(t)

	// No catalog and seed 0: the config default catalog is used and a
	// time-derived seed is echoed back.
	ack := submitSolve(t, ts, `{"width": 3, "depth": 3}`)
	if ack.Catalog != "terrain" {
		t.Errorf("ack catalog = %s, want terrain", ack.Catalog)
	}
	if ack.Seed == 0 {
		t.Error("expected a derived nonzero seed")
	}

	detail := waitForRun(t, ts, ack.RunID)
	if detail.Outcome != "complete" {
		t.Errorf("outcome = %s, want complete", detail.Outcome)
	}
	if detail.Seed != ack.Seed {
		t.Errorf("archived seed = %d, want acknowledged seed %d", detail.Seed, ack.Seed)
	}
}

func TestSolve_SameSeedSameChecksum(t *testing.T) {
	_, ts := newTestServer(t)

	first := submitSolve(t, ts, `{"width": 6, "depth": 6, "seed": 7}`)
	second := submitSolve(t, ts, `{"width": 6, "depth": 6, "seed": 7}`)

	one := waitForRun(t, ts, first.RunID)
	two := waitForRun(t, ts, second.RunID)

	if one.Checksum != two.Checksum {
		t.Errorf("checksums differ for identical seeds: %s vs %s", one.Checksum, two.Checksum)
	}
	if one.Collapses != two.Collapses {
		t.Errorf("collapse counts differ for identical seeds: %d vs %d", one.Collapses, two.Collapses)
	}
}

func TestSolve_UnknownCatalog(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/solve", "application/json",
		strings.NewReader(`{"catalog": "missing", "width": 4, "depth": 4}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestSolve_InvalidSize(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/solve", "application/json",
		strings.NewReader(`{"width": -1, "depth": 4}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestSolve_InvalidBody(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/solve", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestSolve_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/solve")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestSolve_ContradictoryConstraints(t *testing.T) {
	_, ts := newTestServer(t)

	// Keeping a category no tile carries empties every cell.
	resp, err := http.Post(ts.URL+"/api/solve", "application/json",
		strings.NewReader(`{"width": 4, "depth": 4, "constraints": {"keep_categories": ["bogus"]}}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestSolve_ForcedCollapseAppearsInResult(t *testing.T) {
	_, ts := newTestServer(t)

	ack := submitSolve(t, ts, `{
		"width": 4, "depth": 4, "seed": 11,
		"constraints": {"collapse": [{"x": 2, "z": 3, "tile_id": "pillar"}]}
	}`)

	detail := waitForRun(t, ts, ack.RunID)
	if detail.Outcome != "complete" {
		t.Fatalf("outcome = %s, want complete", detail.Outcome)
	}

	for _, p := range detail.Placements {
		if p.X == 2 && p.Z == 3 {
			if p.TileID != "pillar" {
				t.Errorf("forced cell holds %q, want pillar", p.TileID)
			}
			return
		}
	}
	t.Error("forced cell missing from placements")
}

func TestSolve_UnknownForcedTile(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/solve", "application/json",
		strings.NewReader(`{"width": 4, "depth": 4, "constraints": {"collapse": [{"x": 0, "z": 0, "tile_id": "ghost"}]}}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestListRuns(t *testing.T) {
	_, ts := newTestServer(t)

	ack := submitSolve(t, ts, `{"width": 4, "depth": 4, "seed": 5}`)
	waitForRun(t, ts, ack.RunID)

	resp, err := http.Get(ts.URL + "/api/runs")
	if err != nil {
		t.Fatalf("GET /api/runs error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var summaries []RunSummary
	if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil {
		t.Fatalf("decode summaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	if summaries[0].ID != ack.RunID {
		t.Errorf("summary id = %s, want %s", summaries[0].ID, ack.RunID)
	}
	if summaries[0].Catalog != "terrain" {
		t.Errorf("summary catalog = %s, want terrain", summaries[0].Catalog)
	}
}

func TestListRuns_InvalidLimit(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/runs?limit=zero")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/runs/no-such-run")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestDeleteRun(t *testing.T) {
	_, ts := newTestServer(t)

	ack := submitSolve(t, ts, `{"width": 3, "depth": 3, "seed": 9}`)
	waitForRun(t, ts, ack.RunID)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/runs/"+ack.RunID, nil)
	if err != nil {
		t.Fatalf("NewRequest error = %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	// Second delete finds nothing.
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestCatalogs(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/catalogs")
	if err != nil {
		t.Fatalf("GET /api/catalogs error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var summaries []CatalogSummary
	if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil {
		t.Fatalf("decode summaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("catalogs = %d, want 1", len(summaries))
	}
	if summaries[0].Name != "terrain" {
		t.Errorf("catalog name = %s, want terrain", summaries[0].Name)
	}
	if summaries[0].Tiles != 2 {
		t.Errorf("catalog tiles = %d, want 2", summaries[0].Tiles)
	}
	if !summaries[0].Default {
		t.Error("expected terrain to be flagged as the default catalog")
	}
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("health status = %v, want ok", health["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	ack := submitSolve(t, ts, `{"width": 3, "depth": 3, "seed": 1}`)
	waitForRun(t, ts, ack.RunID)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics body: %v", err)
	}
	body := string(data)

	for _, metric := range []string{
		"wfc_server_runs_total",
		"wfc_server_collapses_total",
		"wfc_server_solve_duration_seconds",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("metrics output missing %s", metric)
		}
	}
}

func TestShutdown_CalledTwice(t *testing.T) {
	srv, _ := newTestServer(t)

	srv.Shutdown()

	// Second shutdown should not panic (protected by sync.Once)
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("second Shutdown() call panicked: %v", r)
		}
	}()
	srv.Shutdown()
}

func TestShutdown_CancelsInFlightRun(t *testing.T) {
	srv, ts := newTestServer(t)

	// Large enough that the run is still going when Shutdown fires.
	ack := submitSolve(t, ts, `{"width": 96, "depth": 96, "seed": 3}`)

	resp, err := http.Get(ts.URL + "/api/runs/" + ack.RunID)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), "running") {
		t.Fatalf("expected in-flight run state, got status %d body %s", resp.StatusCode, data)
	}

	srv.Shutdown()

	// Shutdown waits for archival, so the cancelled outcome is readable
	// immediately.
	resp, err = http.Get(ts.URL + "/api/runs/" + ack.RunID)
	if err != nil {
		t.Fatalf("GET after shutdown error = %v", err)
	}
	defer resp.Body.Close()

	var detail RunDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		t.Fatalf("decode run detail: %v", err)
	}
	if detail.Outcome != "failed" {
		t.Errorf("outcome = %s, want failed", detail.Outcome)
	}
	if detail.Failure != "cancelled" {
		t.Errorf("failure = %s, want cancelled", detail.Failure)
	}
}

func TestActiveRunCount_Empty(t *testing.T) {
	srv, _ := newTestServer(t)

	if n := srv.ActiveRunCount(); n != 0 {
		t.Errorf("ActiveRunCount() = %d, want 0", n)
	}
}
