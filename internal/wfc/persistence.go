package wfc

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ResultData represents a serialized run result for persistence
type ResultData struct {
	Catalog  string     `yaml:"catalog,omitempty"`
	Width    int        `yaml:"width"`
	Depth    int        `yaml:"depth"`
	Seed     int64      `yaml:"seed"`
	Outcome  string     `yaml:"outcome"`
	Failure  string     `yaml:"failure,omitempty"`
	Checksum string     `yaml:"checksum"`
	SavedAt  time.Time  `yaml:"saved_at"`
	Stats    StatsData  `yaml:"stats"`
	Cells    []CellData `yaml:"cells"`
}

// StatsData represents serialized run statistics
type StatsData struct {
	Collapses      int   `yaml:"collapses"`
	Contradictions int   `yaml:"contradictions"`
	Backtracks     int   `yaml:"backtracks"`
	ElapsedMS      int64 `yaml:"elapsed_ms"`
}

// CellData represents one serialized placement. An omitted tile marks
// an unresolved cell.
type CellData struct {
	X        int    `yaml:"x"`
	Z        int    `yaml:"z"`
	Tile     string `yaml:"tile,omitempty"`
	Rotation int    `yaml:"rotation,omitempty"`
}

// SaveResult writes a run result to a YAML file
func SaveResult(result *Result, filename string) error {
	data := ResultData{
		Catalog:  result.Catalog,
		Width:    result.Width,
		Depth:    result.Depth,
		Seed:     result.Seed,
		Outcome:  string(result.Outcome),
		Failure:  result.Failure,
		Checksum: result.Checksum,
		SavedAt:  time.Now(),
		Stats: StatsData{
			Collapses:      result.Stats.Collapses,
			Contradictions: result.Stats.Contradictions,
			Backtracks:     result.Stats.Backtracks,
			ElapsedMS:      result.Stats.ElapsedMS,
		},
		Cells: make([]CellData, 0, len(result.Placements)),
	}
	for _, p := range result.Placements {
		data.Cells = append(data.Cells, CellData{
			X:        p.X,
			Z:        p.Z,
			Tile:     p.TileID,
			Rotation: p.Rotation,
		})
	}

	yamlData, err := yaml.Marshal(&data)
	if err != nil {
		return fmt.Errorf("failed to marshal result data: %w", err)
	}
	if err := os.WriteFile(filename, yamlData, 0644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}

// LoadResult reads a run result from a YAML file and verifies its
// checksum against the stored placements
func LoadResult(filename string) (*Result, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}

	var stored ResultData
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse result YAML: %w", err)
	}
	if len(stored.Cells) != stored.Width*stored.Depth {
		return nil, fmt.Errorf("result file has %d cells, want %d", len(stored.Cells), stored.Width*stored.Depth)
	}

	result := &Result{
		Catalog:  stored.Catalog,
		Width:    stored.Width,
		Depth:    stored.Depth,
		Seed:     stored.Seed,
		Outcome:  Outcome(stored.Outcome),
		Failure:  stored.Failure,
		Checksum: stored.Checksum,
		Stats: Stats{
			Collapses:      stored.Stats.Collapses,
			Contradictions: stored.Stats.Contradictions,
			Backtracks:     stored.Stats.Backtracks,
			ElapsedMS:      stored.Stats.ElapsedMS,
		},
		Placements: make([]Placement, 0, len(stored.Cells)),
	}
	for _, c := range stored.Cells {
		result.Placements = append(result.Placements, Placement{
			X:        c.X,
			Z:        c.Z,
			TileID:   c.Tile,
			Rotation: c.Rotation,
		})
	}

	if sum := GridChecksum(result.Width, result.Depth, result.Placements); sum != result.Checksum {
		return nil, fmt.Errorf("result checksum mismatch: file says %s, placements hash to %s", result.Checksum, sum)
	}
	return result, nil
}
