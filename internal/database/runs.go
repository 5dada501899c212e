package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Le-Vincent56/Procedural-Generation/internal/wfc"
)

// ErrRunNotFound is returned when a run lookup fails.
var ErrRunNotFound = errors.New("run not found")

// RunRecord represents one archived solver run. Placements is populated
// by GetRun and left empty by ListRuns.
type RunRecord struct {
	ID              string
	Catalog         string
	Width           int
	Depth           int
	Seed            int64
	UseBacktracking bool
	MaxBacktracks   int
	Outcome         string
	Failure         string
	Collapses       int
	Contradictions  int
	Backtracks      int
	ElapsedMS       int64
	Checksum        string
	CreatedAt       time.Time

	Placements []wfc.Placement
}

// SaveRun archives a finished run and its placements in one transaction
// and returns the generated run id.
func (d *Database) SaveRun(result *wfc.Result, opts wfc.Options) (string, error) {
	return d.SaveRunWithID(uuid.New().String(), result, opts)
}

// SaveRunWithID archives a finished run under a caller-chosen id. The
// server uses this so the id handed out at submission matches the
// archive row.
func (d *Database) SaveRunWithID(id string, result *wfc.Result, opts wfc.Options) (string, error) {
	if result == nil {
		return "", errors.New("cannot save a nil result")
	}

	backtracking := 0
	if opts.UseBacktracking {
		backtracking = 1
	}

	tx, err := d.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(d.qb.Build(`
		INSERT INTO runs (id, catalog, width, depth, seed, use_backtracking, max_backtracks,
			outcome, failure, collapses, contradictions, backtracks, elapsed_ms, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, result.Catalog, result.Width, result.Depth, result.Seed, backtracking, opts.MaxBacktracks,
		string(result.Outcome), result.Failure, result.Stats.Collapses, result.Stats.Contradictions,
		result.Stats.Backtracks, result.Stats.ElapsedMS, result.Checksum, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(d.qb.Build(
		"INSERT INTO placements (run_id, x, z, tile_id, rotation) VALUES (?, ?, ?, ?, ?)",
	))
	if err != nil {
		return "", fmt.Errorf("failed to prepare placement insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range result.Placements {
		if _, err := stmt.Exec(id, p.X, p.Z, p.TileID, p.Rotation); err != nil {
			return "", fmt.Errorf("failed to insert placement (%d,%d): %w", p.X, p.Z, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// GetRun loads an archived run with its placements in row-major order.
func (d *Database) GetRun(id string) (*RunRecord, error) {
	run, err := d.scanRun(d.db.QueryRow(d.qb.Build(
		`SELECT id, catalog, width, depth, seed, use_backtracking, max_backtracks,
			outcome, failure, collapses, contradictions, backtracks, elapsed_ms, checksum, created_at
		FROM runs WHERE id = ?`), id))
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(d.qb.Build(
		"SELECT x, z, tile_id, rotation FROM placements WHERE run_id = ? ORDER BY z, x"), id)
	if err != nil {
		return nil, fmt.Errorf("failed to query placements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p wfc.Placement
		if err := rows.Scan(&p.X, &p.Z, &p.TileID, &p.Rotation); err != nil {
			return nil, fmt.Errorf("failed to scan placement: %w", err)
		}
		run.Placements = append(run.Placements, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read placements: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first, without
// placements. A non-empty catalog filters to that catalog's runs.
func (d *Database) ListRuns(catalog string, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, catalog, width, depth, seed, use_backtracking, max_backtracks,
			outcome, failure, collapses, contradictions, backtracks, elapsed_ms, checksum, created_at
		FROM runs`
	args := []any{}
	if catalog != "" {
		query += " WHERE catalog = ?"
		args = append(args, catalog)
	}
	query += " ORDER BY created_at DESC, id LIMIT ?"
	args = append(args, limit)

	rows, err := d.db.Query(d.qb.Build(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		run, err := d.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run; its placements go with it via the cascade.
func (d *Database) DeleteRun(id string) error {
	result, err := d.db.Exec(d.qb.Build("DELETE FROM runs WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrRunNotFound
	}
	return nil
}

// CountRuns returns the number of archived runs.
func (d *Database) CountRuns() (int, error) {
	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (d *Database) scanRun(row scanner) (*RunRecord, error) {
	var run RunRecord
	var backtracking int
	err := row.Scan(
		&run.ID, &run.Catalog, &run.Width, &run.Depth, &run.Seed, &backtracking, &run.MaxBacktracks,
		&run.Outcome, &run.Failure, &run.Collapses, &run.Contradictions, &run.Backtracks,
		&run.ElapsedMS, &run.Checksum, &run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.UseBacktracking = backtracking != 0
	return &run, nil
}
