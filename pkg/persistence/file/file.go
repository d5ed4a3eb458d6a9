// Package file provides file-based persistence for development and tests.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/journeyhq/journey/pkg/models"
	"github.com/journeyhq/journey/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local filesystem,
// one JSON file per entity. A process-wide mutex stands in for the
// conditional UPDATE the PostgreSQL backend uses to claim due executions.
type Persistence struct {
	root string
	mu   sync.Mutex
}

// NewPersistence creates a new file persistence rooted at the given
// directory. Accepts a plain path or a file:// URL.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

// Close performs any necessary cleanup. Nothing to do for files.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) workflowPath(id string) string {
	return filepath.Join(fp.root, "workflows", id+".json")
}

func (fp *Persistence) executionPath(id string) string {
	return filepath.Join(fp.root, "executions", id+".json")
}

// Workflows returns all workflows.
func (fp *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	entries, err := os.ReadDir(filepath.Join(fp.root, "workflows"))
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.Workflow{}, nil
		}

		return nil, fmt.Errorf("failed to read workflows directory: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		workflow, err := fp.WorkflowByID(ctx, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

// WorkflowByID returns a workflow by its ID.
func (fp *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	data, err := os.ReadFile(fp.workflowPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to read workflow %s: %w", id, err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(data, &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
	}

	return &workflow, nil
}

// PublishedWorkflowsByTrigger returns published workflows with the given trigger kind.
func (fp *Persistence) PublishedWorkflowsByTrigger(ctx context.Context, kind models.TriggerKind) ([]*models.Workflow, error) {
	all, err := fp.Workflows(ctx)
	if err != nil {
		return nil, err
	}

	matching := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.IsPublished() && workflow.TriggerKind == kind {
			matching = append(matching, workflow)
		}
	}

	return matching, nil
}

// SaveWorkflow writes a workflow to disk.
func (fp *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	return fp.writeJSON(fp.workflowPath(workflow.ID), workflow)
}

// ExecutionByID returns an execution by its ID.
func (fp *Persistence) ExecutionByID(_ context.Context, id string) (*models.Execution, error) {
	return fp.readExecution(id)
}

// SaveExecution writes an execution to disk.
func (fp *Persistence) SaveExecution(_ context.Context, execution *models.Execution) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	return fp.saveExecutionLocked(execution)
}

// DueExecutions returns suspended executions due at or before the given time.
func (fp *Persistence) DueExecutions(_ context.Context, before time.Time) ([]*models.Execution, error) {
	entries, err := os.ReadDir(filepath.Join(fp.root, "executions"))
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.Execution{}, nil
		}

		return nil, fmt.Errorf("failed to read executions directory: %w", err)
	}

	due := make([]*models.Execution, 0)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		execution, err := fp.readExecution(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}

		if execution.Due(before) {
			due = append(due, execution)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].ResumeAt.Before(*due[j].ResumeAt)
	})

	return due, nil
}

// ClaimExecution clears resume_at on a due execution under the mutex,
// returning nil when the row is no longer due.
func (fp *Persistence) ClaimExecution(_ context.Context, id string, before time.Time) (*models.Execution, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	execution, err := fp.readExecution(id)
	if err != nil {
		if persistence.IsExecutionNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	if !execution.Due(before) {
		return nil, nil
	}

	execution.ResumeAt = nil

	err = fp.saveExecutionLocked(execution)
	if err != nil {
		return nil, err
	}

	return execution, nil
}

func (fp *Persistence) readExecution(id string) (*models.Execution, error) {
	data, err := os.ReadFile(fp.executionPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to read execution %s: %w", id, err)
	}

	var execution models.Execution

	err = json.Unmarshal(data, &execution)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", id, err)
	}

	return &execution, nil
}

func (fp *Persistence) saveExecutionLocked(execution *models.Execution) error {
	now := time.Now().UTC()
	if execution.CreatedAt.IsZero() {
		execution.CreatedAt = now
	}

	execution.UpdatedAt = now

	return fp.writeJSON(fp.executionPath(execution.ID), execution)
}

func (fp *Persistence) writeJSON(path string, value any) error {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

var _ persistence.Persistence = (*Persistence)(nil)
