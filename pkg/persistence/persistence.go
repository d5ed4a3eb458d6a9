// Package persistence provides the data storage abstraction for workflow
// definitions and execution state.
package persistence

import (
	"context"
	"time"

	"github.com/journeyhq/journey/pkg/models"
)

// Persistence is the durable store behind the engine. Workflow definitions
// are read-mostly; executions are the only rows the engine mutates.
type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	// PublishedWorkflowsByTrigger returns all published workflows with the
	// given trigger kind, used by the launcher to fan out business events.
	PublishedWorkflowsByTrigger(ctx context.Context, kind models.TriggerKind) ([]*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error

	ExecutionByID(ctx context.Context, id string) (*models.Execution, error)
	SaveExecution(ctx context.Context, execution *models.Execution) error
	// DueExecutions returns suspended executions whose resume time is at or
	// before the given instant.
	DueExecutions(ctx context.Context, before time.Time) ([]*models.Execution, error)
	// ClaimExecution atomically clears resume_at on a due execution so that
	// exactly one poller runs it. Returns the claimed execution, or nil when
	// the row is no longer due (another poller won, or the execution moved on).
	ClaimExecution(ctx context.Context, id string, before time.Time) (*models.Execution, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
