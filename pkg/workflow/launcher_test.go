package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journeyhq/journey/pkg/models"
	"github.com/journeyhq/journey/pkg/testutil"
)

func TestLaunch_RunsFirstPassSynchronously(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	workflow := sequenceWorkflow()
	require.NoError(t, h.persistence.SaveWorkflow(ctx, workflow))

	executionID, err := h.launcher.Launch(ctx, workflow.ID, "subject-7", "channel-7", LaunchOptions{})
	require.NoError(t, err)

	require.Len(t, h.messenger.Texts, 1, "first message goes out before Launch returns")
	assert.Equal(t, "channel-7", h.messenger.Texts[0].ChannelID)

	execution, err := h.persistence.ExecutionByID(ctx, executionID)
	require.NoError(t, err)
	assert.Equal(t, "subject-7", execution.SubjectID)
	assert.Equal(t, "channel-7", execution.Snapshot.ChannelID)
	assert.Equal(t, models.SnapshotVersion, execution.Snapshot.Version)
	assert.True(t, execution.Suspended())
}

func TestLaunch_UnpublishedWorkflowRejected(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	workflow := sequenceWorkflow()
	workflow.Status = models.WorkflowStatusDraft
	require.NoError(t, h.persistence.SaveWorkflow(ctx, workflow))

	_, err := h.launcher.Launch(ctx, workflow.ID, "subject-7", "channel-7", LaunchOptions{})
	require.ErrorIs(t, err, ErrWorkflowNotPublished)
	assert.Empty(t, h.messenger.Texts)
}

func TestLaunch_NoTriggerNodeCreatesNoExecution(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	send := testutil.CreateTestNode(testutil.WithID("send"), testutil.AsLiteralMessage("hello"))
	workflow := testutil.CreateTestWorkflow([]*models.Node{send}, nil)
	require.NoError(t, h.persistence.SaveWorkflow(ctx, workflow))

	executionID, err := h.launcher.Launch(ctx, workflow.ID, "subject-7", "channel-7", LaunchOptions{})
	require.ErrorIs(t, err, models.ErrMalformedGraph)
	assert.Empty(t, executionID)
	assert.Empty(t, h.messenger.Texts)
}

func TestLaunchForStageEntered_FiltersOnStage(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	matching := sequenceWorkflow()
	matching.StageID = "stage-hot"
	require.NoError(t, h.persistence.SaveWorkflow(ctx, matching))

	otherStage := sequenceWorkflow()
	otherStage.StageID = "stage-cold"
	require.NoError(t, h.persistence.SaveWorkflow(ctx, otherStage))

	draft := sequenceWorkflow()
	draft.StageID = "stage-hot"
	draft.Status = models.WorkflowStatusDraft
	require.NoError(t, h.persistence.SaveWorkflow(ctx, draft))

	executionIDs, err := h.launcher.LaunchForStageEntered(ctx, "subject-7", "channel-7", "stage-hot")
	require.NoError(t, err)
	require.Len(t, executionIDs, 1)

	execution, err := h.persistence.ExecutionByID(ctx, executionIDs[0])
	require.NoError(t, err)
	assert.Equal(t, matching.ID, execution.WorkflowID)
}

func TestLaunchForStageEntered_OneFailureDoesNotStopOthers(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	broken := testutil.CreateTestWorkflow(
		[]*models.Node{testutil.CreateTestNode(testutil.WithID("send"), testutil.AsLiteralMessage("orphan"))},
		nil,
	)
	require.NoError(t, h.persistence.SaveWorkflow(ctx, broken))

	healthy := sequenceWorkflow()
	require.NoError(t, h.persistence.SaveWorkflow(ctx, healthy))

	executionIDs, err := h.launcher.LaunchForStageEntered(ctx, "subject-7", "channel-7", "stage-1")
	require.NoError(t, err)
	require.Len(t, executionIDs, 1)
}

func TestLaunchForAppointmentBooked_CapturesSnapshot(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	workflow := sequenceWorkflow()
	workflow.TriggerKind = models.TriggerKindAppointmentBooked
	workflow.StageID = ""
	require.NoError(t, h.persistence.SaveWorkflow(ctx, workflow))

	appointmentAt := time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)
	appointment := models.AppointmentRef{ID: "appt-42", At: appointmentAt}

	executionIDs, err := h.launcher.LaunchForAppointmentBooked(ctx, "subject-7", "channel-7", appointment)
	require.NoError(t, err)
	require.Len(t, executionIDs, 1)

	execution, err := h.persistence.ExecutionByID(ctx, executionIDs[0])
	require.NoError(t, err)
	require.NotNil(t, execution.Snapshot.Appointment)
	assert.Equal(t, "appt-42", execution.Snapshot.Appointment.ID)
	assert.Equal(t, appointmentAt, execution.Snapshot.Appointment.At.UTC())
	require.NotNil(t, execution.AppointmentID)
	assert.Equal(t, "appt-42", *execution.AppointmentID)
}
