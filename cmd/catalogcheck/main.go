package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Le-Vincent56/Procedural-Generation/internal/wfc"
)

func main() {
	dir := flag.String("dir", "data/catalogs", "Catalog directory to check when no files are given")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		found, err := findCatalogFiles(*dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		files = found
	}
	if len(files) == 0 {
		fmt.Println("No catalog files found")
		os.Exit(1)
	}

	failures := 0
	for _, path := range files {
		catalog, err := wfc.LoadCatalog(path)
		if err != nil {
			fmt.Printf("FAIL %s\n  %v\n", path, err)
			failures++
			continue
		}
		fmt.Printf("OK   %s\n", path)
		printSummary(catalog)
	}

	fmt.Printf("\nChecked %d catalog(s), %d failed\n", len(files), failures)
	if failures > 0 {
		os.Exit(1)
	}
}

func findCatalogFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func printSummary(catalog *wfc.Catalog) {
	fmt.Printf("  catalog %q: %d tiles, %d sockets\n",
		catalog.Name(), catalog.Len(), len(catalog.Compatibility().Sockets()))

	categories := make(map[string]int)
	for _, tile := range catalog.Tiles() {
		categories[tile.Category]++
	}
	var names []string
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		label := name
		if label == "" {
			label = "(uncategorized)"
		}
		fmt.Printf("    category %-16s %d tile(s)\n", label, categories[name])
	}

	for _, tile := range catalog.Tiles() {
		var notes []string
		if tile.Capped() {
			notes = append(notes, fmt.Sprintf("max %d instance(s)", tile.MaxInstances))
		}
		if !tile.AllowOnBorder {
			notes = append(notes, "border excluded")
		}
		if tile.MinCenterDistance > 0 || tile.MaxCenterDistance > 0 {
			notes = append(notes, fmt.Sprintf("center distance %.1f..%.1f", tile.MinCenterDistance, tile.MaxCenterDistance))
		}
		if len(notes) > 0 {
			fmt.Printf("    tile %-20s %s\n", tile.ID, strings.Join(notes, ", "))
		}
	}
}
