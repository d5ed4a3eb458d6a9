package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/journeyhq/journey/pkg/models"
	"github.com/journeyhq/journey/pkg/persistence"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
	id
  , workflow_id
  , subject_id
  , current_node_id
  , status
  , resume_at
  , snapshot
  , appointment_id
  , created_at
  , updated_at
`

// GetByID returns an execution by its ID.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	execution, err := r.scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

// Save upserts an execution.
func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	now := time.Now().UTC()

	if execution.CreatedAt.IsZero() {
		execution.CreatedAt = now
	}

	execution.UpdatedAt = now

	snapshotJSON, err := json.Marshal(execution.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO executions (
			id, workflow_id, subject_id, current_node_id, status, resume_at,
			snapshot, appointment_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			current_node_id = EXCLUDED.current_node_id,
			status = EXCLUDED.status,
			resume_at = EXCLUDED.resume_at,
			snapshot = EXCLUDED.snapshot,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		execution.SubjectID,
		execution.CurrentNodeID,
		execution.Status,
		execution.ResumeAt,
		snapshotJSON,
		execution.AppointmentID,
		execution.CreatedAt,
		execution.UpdatedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	return nil
}

// Due returns suspended executions whose resume time is at or before the
// given instant.
func (r *ExecutionRepository) Due(ctx context.Context, before time.Time) ([]*models.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM executions
		WHERE status = $1 AND resume_at IS NOT NULL AND resume_at <= $2
		ORDER BY resume_at
	`

	rows, err := r.db.QueryContext(ctx, query, models.ExecutionStatusPending, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query due executions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := r.scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

// Claim atomically clears resume_at on a due execution. The conditional
// update is what keeps concurrent pollers from resuming the same row: only
// the caller whose UPDATE matched gets the execution back, everyone else
// gets nil.
func (r *ExecutionRepository) Claim(ctx context.Context, id string, before time.Time) (*models.Execution, error) {
	query := `
		UPDATE executions
		SET resume_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status = $2 AND resume_at IS NOT NULL AND resume_at <= $3
		RETURNING ` + executionColumns

	row := r.db.QueryRowContext(ctx, query, id, models.ExecutionStatusPending, before)

	execution, err := r.scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to claim execution %s: %w", id, err)
	}

	return execution, nil
}

func (r *ExecutionRepository) scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution     models.Execution
		resumeAt      sql.NullTime
		snapshotJSON  []byte
		appointmentID sql.NullString
	)

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&execution.SubjectID,
		&execution.CurrentNodeID,
		&execution.Status,
		&resumeAt,
		&snapshotJSON,
		&appointmentID,
		&execution.CreatedAt,
		&execution.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if resumeAt.Valid {
		execution.ResumeAt = &resumeAt.Time
	}

	if appointmentID.Valid {
		execution.AppointmentID = &appointmentID.String
	}

	err = json.Unmarshal(snapshotJSON, &execution.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &execution, nil
}
