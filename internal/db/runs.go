package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jonathan/campaign-copy/internal/types"
)

const runColumns = `id, product_id, product_name, category, brand, channel_ids, tone, occasion,
	variant_count, direction, model, status, COALESCE(error_message, ''), created_at, completed_at`

// CreateRun inserts a run record in the running state
func (db *DB) CreateRun(ctx context.Context, run *types.Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	status := run.Status
	if status == "" {
		status = types.RunStatusRunning
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO generation_runs
		   (id, product_id, product_name, category, brand, channel_ids, tone, occasion, variant_count, direction, model, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at`,
		run.ID, run.ProductID, run.ProductName, run.Category, run.Brand, run.ChannelIDs,
		run.Tone, run.Occasion, run.VariantCount, run.Direction, run.Model, status,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	run.Status = status
	return nil
}

// CompleteRun stores the channel results and marks the run completed, atomically
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, results []types.ChannelResult) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, result := range results {
		variants, err := json.Marshal(result.Variants)
		if err != nil {
			return fmt.Errorf("failed to marshal variants for %s: %w", result.ChannelID, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO channel_results (run_id, position, channel_id, channel_name, variants)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (run_id, position) DO UPDATE
			   SET channel_id = $3, channel_name = $4, variants = $5, created_at = NOW()`,
			runID, i, result.ChannelID, result.ChannelName, variants,
		)
		if err != nil {
			return fmt.Errorf("failed to save channel result %s: %w", result.ChannelID, err)
		}
	}

	if err := finishRun(ctx, tx, runID, types.RunStatusCompleted, ""); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// FailRun marks the run failed with the error that aborted it
func (db *DB) FailRun(ctx context.Context, runID uuid.UUID, message string) error {
	return finishRun(ctx, db.pool, runID, types.RunStatusFailed, message)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func finishRun(ctx context.Context, q execer, runID uuid.UUID, status, message string) error {
	var errMsg *string
	if message != "" {
		errMsg = &message
	}
	tag, err := q.Exec(ctx,
		`UPDATE generation_runs SET status = $1, error_message = $2, completed_at = NOW() WHERE id = $3`,
		status, errMsg, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun retrieves a run by ID; it returns nil when the run does not exist
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*types.Run, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM generation_runs WHERE id = $1`, runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetRunResults retrieves a run's channel results in request order
func (db *DB) GetRunResults(ctx context.Context, runID uuid.UUID) ([]types.ChannelResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT channel_id, channel_name, variants FROM channel_results
		 WHERE run_id = $1 ORDER BY position ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run results: %w", err)
	}
	defer rows.Close()

	results := []types.ChannelResult{}
	for rows.Next() {
		var result types.ChannelResult
		var variants []byte
		if err := rows.Scan(&result.ChannelID, &result.ChannelName, &variants); err != nil {
			return nil, fmt.Errorf("failed to scan channel result: %w", err)
		}
		if err := json.Unmarshal(variants, &result.Variants); err != nil {
			return nil, fmt.Errorf("failed to decode variants for %s: %w", result.ChannelID, err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read channel results: %w", err)
	}
	return results, nil
}

// ErrRunNotFound is returned when updating or deleting a run that does not exist
var ErrRunNotFound = errors.New("run not found")

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	ProductID string
	Status    string
	Limit     int
}

// ListRuns retrieves recent runs, newest first
func (db *DB) ListRuns(ctx context.Context, filters RunFilters) ([]types.Run, error) {
	query, args := buildListRunsQuery(filters)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []types.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// DeleteRun deletes a run and its results (via cascade)
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM generation_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func buildListRunsQuery(filters RunFilters) (string, []any) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + runColumns + ` FROM generation_runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.ProductID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", argNum)
		args = append(args, filters.ProductID)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)
	return query, args
}

func scanRun(row pgx.Row) (*types.Run, error) {
	var run types.Run
	err := row.Scan(&run.ID, &run.ProductID, &run.ProductName, &run.Category, &run.Brand, &run.ChannelIDs,
		&run.Tone, &run.Occasion, &run.VariantCount, &run.Direction, &run.Model,
		&run.Status, &run.ErrorMessage, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
