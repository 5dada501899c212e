package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Le-Vincent56/Procedural-Generation/internal/wfc"
)

// writeCatalogYAML writes a catalog file with a short header comment.
// Tile order in the file fixes the catalog order seeded runs depend on,
// so the entries are encoded exactly as assembled.
func writeCatalogYAML(file *wfc.CatalogFile, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	// Write header comment
	fmt.Fprintf(f, "# Tile catalog - %s\n", file.Name)
	fmt.Fprintf(f, "# Tile count: %d\n", len(file.Tiles))
	fmt.Fprintf(f, "# Socket count: %d\n\n", len(file.Sockets))

	// Create encoder with nice formatting
	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(file); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}
