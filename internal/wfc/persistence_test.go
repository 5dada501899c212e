package wfc

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func solvedResult(t *testing.T) *Result {
	t.Helper()
	solver := mustSolver(t, uniformCatalog(t), Options{
		Width: 3, Depth: 2, Seed: 21,
		PropagateImmediately: true,
	})
	result, err := solver.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	return result
}

func TestSaveLoadResult(t *testing.T) {
	result := solvedResult(t)
	path := filepath.Join(t.TempDir(), "run.yaml")

	if err := SaveResult(result, path); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}
	loaded, err := LoadResult(path)
	if err != nil {
		t.Fatalf("LoadResult() error = %v", err)
	}

	if loaded.Catalog != result.Catalog || loaded.Width != result.Width || loaded.Depth != result.Depth {
		t.Errorf("loaded header = %q %dx%d, want %q %dx%d",
			loaded.Catalog, loaded.Width, loaded.Depth, result.Catalog, result.Width, result.Depth)
	}
	if loaded.Seed != result.Seed || loaded.Outcome != result.Outcome {
		t.Errorf("loaded seed/outcome = %d/%v, want %d/%v", loaded.Seed, loaded.Outcome, result.Seed, result.Outcome)
	}
	if loaded.Checksum != result.Checksum {
		t.Errorf("loaded checksum = %s, want %s", loaded.Checksum, result.Checksum)
	}
	if !reflect.DeepEqual(loaded.Placements, result.Placements) {
		t.Error("loaded placements differ from the saved run")
	}
	if loaded.Stats != result.Stats {
		t.Errorf("loaded stats = %+v, want %+v", loaded.Stats, result.Stats)
	}
}

func TestLoadResultTamperedPlacement(t *testing.T) {
	result := solvedResult(t)
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := SaveResult(result, path); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	swapped := result.Placements[0].TileID
	replacement := "grass"
	if swapped == "grass" {
		replacement = "dirt"
	}
	tampered := strings.Replace(string(data), "tile: "+swapped, "tile: "+replacement, 1)
	if tampered == string(data) {
		t.Fatal("tampering did not change the file")
	}
	if err := os.WriteFile(path, []byte(tampered), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := LoadResult(path); err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("LoadResult(tampered) error = %v, want checksum mismatch", err)
	}
}

func TestLoadResultCellCountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.yaml")
	short := "width: 2\ndepth: 2\nseed: 1\noutcome: complete\nchecksum: abc\ncells:\n  - {x: 0, z: 0, tile: a}\n"
	if err := os.WriteFile(path, []byte(short), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := LoadResult(path); err == nil {
		t.Error("LoadResult(short file) error = nil, want non-nil")
	}
}

func TestLoadResultMissingFile(t *testing.T) {
	if _, err := LoadResult(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadResult(absent) error = nil, want non-nil")
	}
}
