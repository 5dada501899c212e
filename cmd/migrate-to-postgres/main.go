// migrate-to-postgres migrates the run archive from SQLite to PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/wfc.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user wfc \
//	    -pg-password wfc \
//	    -pg-database wfc
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func main() {
	// Parse command-line flags
	sqlitePath := flag.String("sqlite", "data/wfc.db", "Path to SQLite database")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "wfc", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "wfc", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", "wfc", "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	verify := flag.Bool("verify", false, "Compare row counts between the databases and exit")
	flag.Parse()

	log.Println("SQLite to PostgreSQL Migration Tool")
	log.Println("====================================")

	// Open SQLite database
	log.Printf("Opening SQLite database: %s", *sqlitePath)
	sqliteDB, err := sql.Open("sqlite", *sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite database: %v", err)
	}
	defer sqliteDB.Close()

	// Verify SQLite connection
	if err := sqliteDB.Ping(); err != nil {
		log.Fatalf("Failed to connect to SQLite database: %v", err)
	}

	// Build PostgreSQL connection string
	pgConnStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		*pgHost, *pgPort, *pgUser, *pgPassword, *pgDatabase, *pgSSLMode,
	)

	// Open PostgreSQL database
	log.Printf("Opening PostgreSQL database: %s@%s:%d/%s", *pgUser, *pgHost, *pgPort, *pgDatabase)
	pgDB, err := sql.Open("postgres", pgConnStr)
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL database: %v", err)
	}
	defer pgDB.Close()

	// Verify PostgreSQL connection
	if err := pgDB.Ping(); err != nil {
		log.Fatalf("Failed to connect to PostgreSQL database: %v", err)
	}

	if *verify {
		if err := verifyCounts(sqliteDB, pgDB); err != nil {
			log.Fatalf("Verification failed: %v", err)
		}
		return
	}

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
	}

	// Run migrations on PostgreSQL first
	log.Println("Ensuring PostgreSQL schema is ready...")
	if !*dryRun {
		if err := migratePostgres(pgDB); err != nil {
			log.Fatalf("Failed to migrate PostgreSQL schema: %v", err)
		}
	}

	// Migrate each table. Runs go first so placement foreign keys resolve.
	tables := []struct {
		name    string
		migrate func(*sql.DB, *sql.DB, bool) (int64, error)
	}{
		{"runs", migrateRuns},
		{"placements", migratePlacements},
	}

	var totalRows int64
	for _, t := range tables {
		log.Printf("Migrating table: %s", t.name)
		count, err := t.migrate(sqliteDB, pgDB, *dryRun)
		if err != nil {
			log.Fatalf("Failed to migrate %s: %v", t.name, err)
		}
		log.Printf("  Migrated %d rows", count)
		totalRows += count
	}

	log.Println("====================================")
	log.Printf("Migration complete! Total rows migrated: %d", totalRows)
	if *dryRun {
		log.Println("(DRY RUN - No actual changes were made)")
	}
}

func migratePostgres(db *sql.DB) error {
	migrations := []string{
		// Runs table
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			catalog TEXT NOT NULL,
			width INTEGER NOT NULL,
			depth INTEGER NOT NULL,
			seed BIGINT NOT NULL,
			use_backtracking INTEGER NOT NULL DEFAULT 0,
			max_backtracks INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL,
			failure TEXT NOT NULL DEFAULT '',
			collapses INTEGER NOT NULL DEFAULT 0,
			contradictions INTEGER NOT NULL DEFAULT 0,
			backtracks INTEGER NOT NULL DEFAULT 0,
			elapsed_ms BIGINT NOT NULL DEFAULT 0,
			checksum TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		// Placements table
		`CREATE TABLE IF NOT EXISTS placements (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			x INTEGER NOT NULL,
			z INTEGER NOT NULL,
			tile_id TEXT NOT NULL DEFAULT '',
			rotation INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, x, z)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_runs_catalog ON runs(catalog)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

func migrateRuns(sqlite, pg *sql.DB, dryRun bool) (int64, error) {
	rows, err := sqlite.Query(`
		SELECT id, catalog, width, depth, seed, use_backtracking, max_backtracks,
		       outcome, failure, collapses, contradictions, backtracks, elapsed_ms,
		       checksum, created_at
		FROM runs
	`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		var id, catalog, outcome, failure, checksum string
		var width, depth, useBacktracking, maxBacktracks int
		var seed, collapses, contradictions, backtracks, elapsedMS int64
		var createdAt string

		if err := rows.Scan(
			&id, &catalog, &width, &depth, &seed, &useBacktracking, &maxBacktracks,
			&outcome, &failure, &collapses, &contradictions, &backtracks, &elapsedMS,
			&checksum, &createdAt,
		); err != nil {
			return count, err
		}

		if dryRun {
			count++
			continue
		}

		// Check if run already exists
		var existingID string
		err := pg.QueryRow(`SELECT id FROM runs WHERE id = $1`, id).Scan(&existingID)
		if err == nil {
			// Run exists, skip
			continue
		}

		// created_at is NOT NULL on the target
		created := parseTime(createdAt)
		if created == nil {
			now := time.Now()
			created = &now
		}

		_, err = pg.Exec(`
			INSERT INTO runs (
				id, catalog, width, depth, seed, use_backtracking, max_backtracks,
				outcome, failure, collapses, contradictions, backtracks, elapsed_ms,
				checksum, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`, id, catalog, width, depth, seed, useBacktracking, maxBacktracks,
			outcome, failure, collapses, contradictions, backtracks, elapsedMS,
			checksum, created)
		if err != nil {
			if !strings.Contains(err.Error(), "duplicate key") {
				return count, err
			}
		} else {
			count++
		}
	}

	return count, rows.Err()
}

func migratePlacements(sqlite, pg *sql.DB, dryRun bool) (int64, error) {
	rows, err := sqlite.Query(`
		SELECT run_id, x, z, tile_id, rotation
		FROM placements
		ORDER BY run_id, z, x
	`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int64
	copyRun := make(map[string]bool)
	for rows.Next() {
		var runID, tileID string
		var x, z, rotation int

		if err := rows.Scan(&runID, &x, &z, &tileID, &rotation); err != nil {
			return count, err
		}

		if dryRun {
			count++
			continue
		}

		// Probe each run once; skip runs whose placements already exist
		migrate, probed := copyRun[runID]
		if !probed {
			var n int
			if err := pg.QueryRow(`SELECT COUNT(*) FROM placements WHERE run_id = $1`, runID).Scan(&n); err != nil {
				return count, err
			}
			migrate = n == 0
			copyRun[runID] = migrate
		}
		if !migrate {
			continue
		}

		_, err = pg.Exec(`
			INSERT INTO placements (run_id, x, z, tile_id, rotation)
			VALUES ($1, $2, $3, $4, $5)
		`, runID, x, z, tileID, rotation)
		if err != nil {
			if !strings.Contains(err.Error(), "duplicate key") {
				return count, err
			}
		} else {
			count++
		}
	}

	return count, rows.Err()
}

// verifyCounts compares per-table row counts across the two databases.
func verifyCounts(sqlite, pg *sql.DB) error {
	mismatch := false
	for _, table := range []string{"runs", "placements"} {
		var sqliteCount, pgCount int64
		if err := sqlite.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&sqliteCount); err != nil {
			return fmt.Errorf("sqlite count for %s: %w", table, err)
		}
		if err := pg.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&pgCount); err != nil {
			return fmt.Errorf("postgres count for %s: %w", table, err)
		}
		status := "OK"
		if sqliteCount != pgCount {
			status = "MISMATCH"
			mismatch = true
		}
		log.Printf("  %-12s sqlite=%d postgres=%d %s", table, sqliteCount, pgCount, status)
	}
	if mismatch {
		return fmt.Errorf("row counts differ")
	}
	log.Println("Verification passed")
	return nil
}

// Helper functions

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	// Try various formats
	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05-07:00",
		time.RFC3339,
		time.RFC3339Nano,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return &t
		}
	}
	log.Printf("Warning: Could not parse time: %s", s)
	return nil
}

func init() {
	// Custom usage message
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Migrates the run archive from SQLite to PostgreSQL.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s -sqlite data/wfc.db -pg-host localhost -pg-user wfc -pg-password wfc -pg-database wfc\n", os.Args[0])
	}
}
