package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gookit/color"

	"github.com/Le-Vincent56/Procedural-Generation/internal/database"
	"github.com/Le-Vincent56/Procedural-Generation/internal/wfc"
)

// categoryStyles is the palette cycled over catalog categories.
var categoryStyles = []color.Style{
	{color.FgGreen},
	{color.FgBlue},
	{color.FgYellow},
	{color.FgMagenta},
	{color.FgCyan},
	{color.FgRed, color.OpBold},
	{color.FgWhite, color.OpBold},
}

// categoryGlyphs is cycled alongside the style palette.
const categoryGlyphs = "#.+o*%=@~&"

var unresolvedStyle = color.Style{color.FgRed, color.OpBold}

func main() {
	catalogFile := flag.String("catalog", "data/catalogs/dungeon.yaml", "Path to catalog YAML file")
	width := flag.Int("width", 16, "Grid width")
	depth := flag.Int("depth", 16, "Grid depth")
	seed := flag.Int64("seed", 0, "Solver seed (default: random based on current time)")
	backtracking := flag.Bool("backtracking", true, "Recover from contradictions by restoring snapshots")
	maxBacktracks := flag.Int("max-backtracks", 32, "Snapshot restore budget")
	propagate := flag.Bool("propagate", true, "Propagate constraints after each collapse")
	historyCapacity := flag.Int("history", 0, "Snapshot stack bound (0 for the solver default)")
	border := flag.Bool("border", false, "Keep border-restricted tiles off the grid edge")
	categories := flag.String("categories", "", "Comma-separated category keep-list (empty keeps all)")
	centerMin := flag.Float64("center-min", 0, "Minimum distance from grid center for windowless tiles")
	centerMax := flag.Float64("center-max", 0, "Maximum distance from grid center for windowless tiles")
	outputFile := flag.String("output", "", "Write the finished run to a snapshot YAML file")
	dbFile := flag.String("db", "", "Archive the run into a SQLite database")
	showLegend := flag.Bool("legend", true, "Show legend")
	noColor := flag.Bool("no-color", false, "Disable ANSI colors")
	flag.Parse()

	if *noColor {
		color.Disable()
	}

	catalog, err := wfc.LoadCatalog(*catalogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		os.Exit(1)
	}

	runSeed := *seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}

	opts := wfc.Options{
		Width:                *width,
		Depth:                *depth,
		Seed:                 runSeed,
		UseBacktracking:      *backtracking,
		MaxBacktracks:        *maxBacktracks,
		PropagateImmediately: *propagate,
		HistoryCapacity:      *historyCapacity,
	}

	solver, err := wfc.NewSolver(catalog, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building solver: %v\n", err)
		os.Exit(1)
	}

	if err := applyConstraints(solver, opts, *categories, *centerMin, *centerMax, *border); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying constraints: %v\n", err)
		os.Exit(1)
	}

	result, err := solver.Solve(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running solver: %v\n", err)
		os.Exit(1)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("Tile Map (Catalog: %s, %dx%d, Seed: %d)\n",
		catalog.Name(), result.Width, result.Depth, result.Seed))
	output.WriteString(strings.Repeat("=", 60) + "\n\n")

	glyphs := buildGlyphTable(catalog)
	renderGrid(&output, result, catalog, glyphs)

	if *showLegend {
		output.WriteString(getLegend(glyphs, result))
	}

	renderStats(&output, result)
	fmt.Print(output.String())

	if *outputFile != "" {
		if err := wfc.SaveResult(result, *outputFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing snapshot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nSnapshot written to %s\n", *outputFile)
	}

	if *dbFile != "" {
		if err := archiveRun(result, opts, *dbFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error archiving run: %v\n", err)
			os.Exit(1)
		}
	}

	if result.Outcome != wfc.OutcomeComplete {
		os.Exit(1)
	}
}

// applyConstraints runs the pre-solve constraint phase from the flags.
// The distance window is anchored at the grid center.
func applyConstraints(solver *wfc.Solver, opts wfc.Options, categories string, centerMin, centerMax float64, border bool) error {
	if categories != "" {
		keep := make(map[string]bool)
		for _, category := range strings.Split(categories, ",") {
			keep[strings.TrimSpace(category)] = true
		}
		if err := solver.RestrictByCategory(func(category string) bool {
			return keep[category]
		}); err != nil {
			return err
		}
	}

	if centerMin > 0 || centerMax > 0 {
		center := wfc.Position{X: opts.Width / 2, Z: opts.Depth / 2}
		if err := solver.RestrictByDistance(center, centerMin, centerMax); err != nil {
			return err
		}
	}

	if border {
		if err := solver.RestrictBorder(); err != nil {
			return err
		}
	}
	return nil
}

// glyphEntry renders one category on the map.
type glyphEntry struct {
	glyph string
	style color.Style
}

// buildGlyphTable assigns each category a stable glyph and color by
// sorted category order.
func buildGlyphTable(catalog *wfc.Catalog) map[string]glyphEntry {
	seen := make(map[string]bool)
	var names []string
	for _, tile := range catalog.Tiles() {
		if !seen[tile.Category] {
			seen[tile.Category] = true
			names = append(names, tile.Category)
		}
	}
	sort.Strings(names)

	table := make(map[string]glyphEntry, len(names))
	for i, name := range names {
		table[name] = glyphEntry{
			glyph: string(categoryGlyphs[i%len(categoryGlyphs)]),
			style: categoryStyles[i%len(categoryStyles)],
		}
	}
	return table
}

func renderGrid(output *strings.Builder, result *wfc.Result, catalog *wfc.Catalog, glyphs map[string]glyphEntry) {
	for z := 0; z < result.Depth; z++ {
		for x := 0; x < result.Width; x++ {
			p := result.PlacementAt(x, z)
			if p.TileID == "" {
				output.WriteString(unresolvedStyle.Sprint("!"))
				continue
			}
			tile, ok := catalog.Tile(p.TileID)
			if !ok {
				output.WriteString("?")
				continue
			}
			entry := glyphs[tile.Category]
			output.WriteString(entry.style.Sprint(entry.glyph))
		}
		output.WriteString("\n")
	}
	output.WriteString("\n")
}

func renderStats(output *strings.Builder, result *wfc.Result) {
	output.WriteString("Run statistics:\n")
	output.WriteString(fmt.Sprintf("  outcome:        %s\n", result.Outcome))
	if result.Failure != "" {
		output.WriteString(fmt.Sprintf("  failure:        %s\n", result.Failure))
	}
	output.WriteString(fmt.Sprintf("  collapses:      %d\n", result.Stats.Collapses))
	output.WriteString(fmt.Sprintf("  contradictions: %d\n", result.Stats.Contradictions))
	output.WriteString(fmt.Sprintf("  backtracks:     %d\n", result.Stats.Backtracks))
	output.WriteString(fmt.Sprintf("  elapsed:        %dms\n", result.Stats.ElapsedMS))
	output.WriteString(fmt.Sprintf("  checksum:       %s\n", result.Checksum))

	counts := make(map[string]int)
	for _, p := range result.Placements {
		if p.TileID != "" {
			counts[p.TileID]++
		}
	}
	var ids []string
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})

	output.WriteString("\nTile counts:\n")
	for _, id := range ids {
		output.WriteString(fmt.Sprintf("  %-20s %d\n", truncate(id, 20), counts[id]))
	}
}

func getLegend(glyphs map[string]glyphEntry, result *wfc.Result) string {
	var names []string
	for name := range glyphs {
		names = append(names, name)
	}
	sort.Strings(names)

	var legend strings.Builder
	legend.WriteString("Legend:\n")
	for _, name := range names {
		entry := glyphs[name]
		label := name
		if label == "" {
			label = "(uncategorized)"
		}
		legend.WriteString(fmt.Sprintf("  [%s] %s\n", entry.style.Sprint(entry.glyph), label))
	}
	if result.Unresolved() > 0 {
		legend.WriteString(fmt.Sprintf("  [%s] unresolved cell\n", unresolvedStyle.Sprint("!")))
	}
	legend.WriteString("\n")
	return legend.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// archiveRun stores the finished run in a SQLite archive, creating the
// database on first use.
func archiveRun(result *wfc.Result, opts wfc.Options, path string) error {
	db, err := database.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.SaveRun(result, opts)
	if err != nil {
		return err
	}
	fmt.Printf("\nRun archived as %s in %s\n", id, path)
	return nil
}
