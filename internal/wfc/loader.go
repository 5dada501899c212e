package wfc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogFile is the YAML representation of a tile catalog. Tiles are a
// list, not a map, so the file fixes the catalog order that seeded runs
// depend on.
type CatalogFile struct {
	Name          string       `yaml:"name"`
	Sockets       []string     `yaml:"sockets"`
	Compatibility []CompatRule `yaml:"compatibility"`
	Tiles         []TileEntry  `yaml:"tiles"`
}

// CompatRule declares which target sockets a source socket accepts.
// Rules are directional; a pair listed in one direction only stays
// one-way. Every unlisted pair is recorded as explicitly incompatible.
type CompatRule struct {
	Source  string   `yaml:"source"`
	Targets []string `yaml:"targets"`
}

// TileEntry is one tile definition from the YAML file
type TileEntry struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Weight   float64 `yaml:"weight"`
	Category string  `yaml:"category,omitempty"`

	Rotation RotationEntry `yaml:"rotation"`
	Sockets  SocketEntry   `yaml:"sockets"`

	MaxInstances      int     `yaml:"max_instances,omitempty"`
	MinCenterDistance float64 `yaml:"min_center_distance,omitempty"`
	MaxCenterDistance float64 `yaml:"max_center_distance,omitempty"`

	// AllowOnBorder defaults to true when omitted.
	AllowOnBorder *bool `yaml:"allow_on_border,omitempty"`
}

// RotationEntry is a tile's rotation policy from the YAML file.
// Steps defaults to 4 when rotation is allowed and steps is omitted.
type RotationEntry struct {
	Allow bool `yaml:"allow"`
	Steps int  `yaml:"steps,omitempty"`
}

// SocketEntry names the socket on each face
type SocketEntry struct {
	North  string `yaml:"north"`
	East   string `yaml:"east"`
	South  string `yaml:"south"`
	West   string `yaml:"west"`
	Top    string `yaml:"top"`
	Bottom string `yaml:"bottom"`
}

// LoadCatalog reads and validates a catalog YAML file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a validated catalog from YAML bytes
func ParseCatalog(data []byte) (*Catalog, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	return BuildCatalog(&file)
}

// BuildCatalog converts the file representation into a validated
// Catalog: sockets become the declared set, listed compatibility rules
// become explicit allowances, every remaining pair becomes an explicit
// denial, and tile entries become immutable definitions.
func BuildCatalog(file *CatalogFile) (*Catalog, error) {
	compat := NewCompatibility()
	for _, s := range file.Sockets {
		compat.Declare(Socket(s))
	}
	for _, rule := range file.Compatibility {
		if !compat.Declared(Socket(rule.Source)) {
			return nil, fmt.Errorf("%w: compatibility rule for undeclared socket %q", ErrInvalidCatalog, rule.Source)
		}
		for _, target := range rule.Targets {
			if !compat.Declared(Socket(target)) {
				return nil, fmt.Errorf("%w: compatibility target %q undeclared for source %q", ErrInvalidCatalog, target, rule.Source)
			}
			compat.Allow(Socket(rule.Source), Socket(target))
		}
	}
	compat.Complete()

	tiles := make([]*TileDefinition, 0, len(file.Tiles))
	for _, entry := range file.Tiles {
		tiles = append(tiles, tileFromEntry(entry))
	}
	return NewCatalog(file.Name, tiles, compat)
}

// tileFromEntry converts one YAML tile entry into a definition
func tileFromEntry(entry TileEntry) *TileDefinition {
	steps := entry.Rotation.Steps
	if entry.Rotation.Allow && steps == 0 {
		steps = 4
	}
	allowOnBorder := true
	if entry.AllowOnBorder != nil {
		allowOnBorder = *entry.AllowOnBorder
	}
	return &TileDefinition{
		ID:            entry.ID,
		Name:          entry.Name,
		Weight:        entry.Weight,
		Category:      entry.Category,
		AllowRotation: entry.Rotation.Allow,
		RotationSteps: steps,
		Sockets: [6]Socket{
			North:  Socket(entry.Sockets.North),
			East:   Socket(entry.Sockets.East),
			South:  Socket(entry.Sockets.South),
			West:   Socket(entry.Sockets.West),
			Top:    Socket(entry.Sockets.Top),
			Bottom: Socket(entry.Sockets.Bottom),
		},
		MaxInstances:      entry.MaxInstances,
		MinCenterDistance: entry.MinCenterDistance,
		MaxCenterDistance: entry.MaxCenterDistance,
		AllowOnBorder:     allowOnBorder,
	}
}
