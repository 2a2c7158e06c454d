package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

type runRepo struct {
	db *DB
}

func NewRunRepository(db *DB) RunRepository {
	return &runRepo{db: db}
}

const runColumns = `id, automation_id, workspace_id, status, started_at, completed_at,
	duration_ms, result, error, items_created, trigger_data, created_at`

// Create inserts a new run in the running state.
func (r *runRepo) Create(run *Run) error {
	run.Status = RunStatusRunning
	run.CreatedAt = time.Now().UTC()

	if len(run.TriggerData) == 0 {
		run.TriggerData = []byte("{}")
	}

	_, err := r.db.Exec(`
		INSERT INTO runs (id, automation_id, workspace_id, status, started_at, completed_at,
			duration_ms, result, error, items_created, trigger_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, run.ID, run.AutomationID, run.WorkspaceID, run.Status, run.StartedAt, run.CompletedAt,
		run.DurationMs, run.Result, run.Error, run.ItemsCreated, string(run.TriggerData), run.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// CreateFinalized inserts a run directly in a terminal state. Used for
// skip decisions so no dangling running row is ever written.
func (r *runRepo) CreateFinalized(run *Run) error {
	if !run.Status.IsTerminal() {
		return fmt.Errorf("run status %q is not terminal", run.Status)
	}

	run.CreatedAt = time.Now().UTC()

	if len(run.TriggerData) == 0 {
		run.TriggerData = []byte("{}")
	}

	_, err := r.db.Exec(`
		INSERT INTO runs (id, automation_id, workspace_id, status, started_at, completed_at,
			duration_ms, result, error, items_created, trigger_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, run.ID, run.AutomationID, run.WorkspaceID, run.Status, run.StartedAt, run.CompletedAt,
		run.DurationMs, run.Result, run.Error, run.ItemsCreated, string(run.TriggerData), run.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create finalized run: %w", err)
	}

	return nil
}

// Finalize transitions a running run to a terminal state. The transition
// happens exactly once; finalizing a non-running run is an error.
func (r *runRepo) Finalize(id string, status RunStatus, result, errMsg string, itemsCreated int, triggerData []byte, completedAt time.Time) error {
	if !status.IsTerminal() {
		return fmt.Errorf("run status %q is not terminal", status)
	}

	if len(triggerData) == 0 {
		triggerData = []byte("{}")
	}

	res, err := r.db.Exec(`
		UPDATE runs
		SET status = $2, result = $3, error = $4, items_created = $5, trigger_data = $6,
		    completed_at = $7,
		    duration_ms = CAST((julianday($7) - julianday(started_at)) * 86400000 AS INTEGER)
		WHERE id = $1 AND status = 'running'
	`, id, status, result, errMsg, itemsCreated, string(triggerData), completedAt)

	if err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finalize result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s is not in running state", id)
	}

	return nil
}

func (r *runRepo) GetByID(id string) (*Run, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = $1`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

func (r *runRepo) ListByAutomation(automationID string, filter RunFilter) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE automation_id = $1`
	args := []interface{}{automationID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		query += ` AND started_at >= $` + strconv.Itoa(len(args))
	}
	if filter.Until != nil {
		args = append(args, *filter.Until)
		query += ` AND started_at <= $` + strconv.Itoa(len(args))
	}

	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}

func (r *runRepo) CountByStatus(automationID string) (map[RunStatus]int, error) {
	rows, err := r.db.Query(`
		SELECT status, COUNT(*) FROM runs WHERE automation_id = $1 GROUP BY status
	`, automationID)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	defer rows.Close()

	counts := make(map[RunStatus]int)
	for rows.Next() {
		var status RunStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan run count row: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run count rows: %w", err)
	}

	return counts, nil
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var triggerData string

	err := row.Scan(
		&run.ID, &run.AutomationID, &run.WorkspaceID, &run.Status,
		&run.StartedAt, &run.CompletedAt, &run.DurationMs,
		&run.Result, &run.Error, &run.ItemsCreated, &triggerData, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	run.TriggerData = []byte(triggerData)

	return &run, nil
}
