package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journeyhq/journey/pkg/models"
	"github.com/journeyhq/journey/pkg/persistence"
	"github.com/journeyhq/journey/pkg/testutil"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func TestWorkflowRoundTrip(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	trigger := testutil.CreateTestNode(testutil.WithID("trigger"))
	send := testutil.CreateTestNode(testutil.WithID("send"), testutil.AsLiteralMessage("hi"))
	workflow := testutil.CreateTestWorkflow(
		[]*models.Node{trigger, send},
		[]*models.Edge{testutil.Link("trigger", "send")},
	)

	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	loaded, err := p.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, loaded.Name)
	require.Len(t, loaded.Nodes, 2)
	require.NotNil(t, loaded.Nodes[1].Message)
	assert.Equal(t, "hi", loaded.Nodes[1].Message.Text)
	assert.False(t, loaded.CreatedAt.IsZero())
}

func TestWorkflowByID_NotFound(t *testing.T) {
	p := newTestPersistence(t)

	_, err := p.WorkflowByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestPublishedWorkflowsByTrigger(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	published := testutil.CreateTestWorkflow([]*models.Node{testutil.CreateTestNode()}, nil)
	require.NoError(t, p.SaveWorkflow(ctx, published))

	draft := testutil.CreateTestWorkflow([]*models.Node{testutil.CreateTestNode()}, nil)
	draft.Status = models.WorkflowStatusDraft
	require.NoError(t, p.SaveWorkflow(ctx, draft))

	appointment := testutil.CreateTestWorkflow([]*models.Node{testutil.CreateTestNode()}, nil)
	appointment.TriggerKind = models.TriggerKindAppointmentBooked
	require.NoError(t, p.SaveWorkflow(ctx, appointment))

	byStage, err := p.PublishedWorkflowsByTrigger(ctx, models.TriggerKindStageEntered)
	require.NoError(t, err)
	require.Len(t, byStage, 1)
	assert.Equal(t, published.ID, byStage[0].ID)

	byAppointment, err := p.PublishedWorkflowsByTrigger(ctx, models.TriggerKindAppointmentBooked)
	require.NoError(t, err)
	require.Len(t, byAppointment, 1)
	assert.Equal(t, appointment.ID, byAppointment[0].ID)
}

func TestExecutionRoundTrip(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	execution := testutil.CreateTestExecution("wf-1", "node-1")
	resumeAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	execution.ResumeAt = &resumeAt

	require.NoError(t, p.SaveExecution(ctx, execution))

	loaded, err := p.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.SubjectID, loaded.SubjectID)
	assert.Equal(t, models.SnapshotVersion, loaded.Snapshot.Version)
	require.NotNil(t, loaded.ResumeAt)
	assert.True(t, loaded.ResumeAt.Equal(resumeAt))
}

func TestExecutionByID_NotFound(t *testing.T) {
	p := newTestPersistence(t)

	_, err := p.ExecutionByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestDueExecutions(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()
	now := time.Now().UTC()

	overdue := testutil.CreateTestExecution("wf-1", "node-1")
	overdueAt := now.Add(-2 * time.Hour)
	overdue.ResumeAt = &overdueAt
	require.NoError(t, p.SaveExecution(ctx, overdue))

	justDue := testutil.CreateTestExecution("wf-1", "node-1")
	justDueAt := now.Add(-time.Minute)
	justDue.ResumeAt = &justDueAt
	require.NoError(t, p.SaveExecution(ctx, justDue))

	future := testutil.CreateTestExecution("wf-1", "node-1")
	futureAt := now.Add(time.Hour)
	future.ResumeAt = &futureAt
	require.NoError(t, p.SaveExecution(ctx, future))

	running := testutil.CreateTestExecution("wf-1", "node-1")
	require.NoError(t, p.SaveExecution(ctx, running))

	stopped := testutil.CreateTestExecution("wf-1", "node-1")
	stoppedAt := now.Add(-time.Hour)
	stopped.ResumeAt = &stoppedAt
	stopped.Status = models.ExecutionStatusStopped
	require.NoError(t, p.SaveExecution(ctx, stopped))

	due, err := p.DueExecutions(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 2)

	// Ordered by resume time, earliest first.
	assert.Equal(t, overdue.ID, due[0].ID)
	assert.Equal(t, justDue.ID, due[1].ID)
}

func TestClaimExecution(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()
	now := time.Now().UTC()

	execution := testutil.CreateTestExecution("wf-1", "node-1")
	resumeAt := now.Add(-time.Minute)
	execution.ResumeAt = &resumeAt
	require.NoError(t, p.SaveExecution(ctx, execution))

	claimed, err := p.ClaimExecution(ctx, execution.ID, now)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Nil(t, claimed.ResumeAt, "claiming clears the resume time")

	// The claim is durable.
	stored, err := p.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ResumeAt)

	// A second claim loses.
	reclaimed, err := p.ClaimExecution(ctx, execution.ID, now)
	require.NoError(t, err)
	assert.Nil(t, reclaimed)
}

func TestClaimExecution_NotDue(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()
	now := time.Now().UTC()

	execution := testutil.CreateTestExecution("wf-1", "node-1")
	resumeAt := now.Add(time.Hour)
	execution.ResumeAt = &resumeAt
	require.NoError(t, p.SaveExecution(ctx, execution))

	claimed, err := p.ClaimExecution(ctx, execution.ID, now)
	require.NoError(t, err)
	assert.Nil(t, claimed)

	// Missing rows are a lost race, not an error.
	claimed, err = p.ClaimExecution(ctx, "missing", now)
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestHealthCheck(t *testing.T) {
	p := newTestPersistence(t)
	require.NoError(t, p.HealthCheck(context.Background()))

	missing := NewPersistence("/nonexistent/journey-test")
	require.Error(t, missing.HealthCheck(context.Background()))
}
