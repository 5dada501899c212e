package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Le-Vincent56/Procedural-Generation/internal/wfc"
)

func main() {
	name := flag.String("name", "dungeon", "Catalog name")
	out := flag.String("out", "", "Output file (default: data/catalogs/{name}.yaml)")
	force := flag.Bool("force", false, "Overwrite the output file if it exists")
	flag.Parse()

	outputPath := *out
	if outputPath == "" {
		outputPath = fmt.Sprintf("data/catalogs/%s.yaml", *name)
	}

	if !*force {
		if _, err := os.Stat(outputPath); err == nil {
			fmt.Fprintf(os.Stderr, "Error: %s already exists (use -force to overwrite)\n", outputPath)
			os.Exit(1)
		}
	}

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	file := buildDungeonCatalog(*name)

	// Validate before writing so the file always loads
	catalog, err := wfc.BuildCatalog(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: generated catalog is invalid: %v\n", err)
		os.Exit(1)
	}

	if err := writeCatalogYAML(file, outputPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to write catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote catalog %q to %s (%d tiles, %d sockets)\n",
		catalog.Name(), outputPath, catalog.Len(), len(catalog.Compatibility().Sockets()))
}
