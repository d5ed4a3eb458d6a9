package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/journeyhq/journey/pkg/eventbus"
	"github.com/journeyhq/journey/pkg/events"
	"github.com/journeyhq/journey/pkg/models"
	"github.com/journeyhq/journey/pkg/persistence"
)

// ErrWorkflowNotPublished indicates a launch attempt against a workflow
// that business events may not trigger.
var ErrWorkflowNotPublished = errors.New("workflow is not published")

// LaunchOptions tunes a single launch.
type LaunchOptions struct {
	// BypassPublishCheck allows launching unpublished workflows. Used by
	// system-internal invocations that already filtered on published status
	// and by privileged re-execution.
	BypassPublishCheck bool
	// Appointment pins the appointment context for appointment-triggered
	// runs. Captured into the snapshot once, at launch.
	Appointment *models.AppointmentRef
}

// Launcher is the entry point invoked by business events: it creates an
// execution positioned at the trigger node and runs the first pass
// synchronously.
type Launcher struct {
	persistence persistence.Persistence
	runner      *Runner
	eventBus    eventbus.EventPublisher
	logger      *slog.Logger
}

// NewLauncher creates a trigger launcher.
func NewLauncher(p persistence.Persistence, runner *Runner, bus eventbus.EventPublisher, logger *slog.Logger) *Launcher {
	return &Launcher{
		persistence: p,
		runner:      runner,
		eventBus:    bus,
		logger:      logger.With("module", "trigger_launcher"),
	}
}

// Launch creates an execution of the given workflow for the subject and
// immediately runs it until it suspends or terminates. No execution is
// created when the workflow is unpublished (unless bypassed) or its graph
// is malformed.
func (l *Launcher) Launch(ctx context.Context, workflowID, subjectID, channelID string, opts LaunchOptions) (string, error) {
	workflow, err := l.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return "", fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
	}

	if !workflow.IsPublished() && !opts.BypassPublishCheck {
		return "", fmt.Errorf("cannot launch workflow %s: %w", workflowID, ErrWorkflowNotPublished)
	}

	triggerNode, err := workflow.TriggerNode()
	if err != nil {
		return "", err
	}

	execution := &models.Execution{
		ID:            generateExecutionID(),
		WorkflowID:    workflow.ID,
		SubjectID:     subjectID,
		CurrentNodeID: triggerNode.ID,
		Status:        models.ExecutionStatusPending,
		Snapshot: models.Snapshot{
			Version:     models.SnapshotVersion,
			ChannelID:   channelID,
			Appointment: opts.Appointment,
		},
	}

	if opts.Appointment != nil {
		execution.AppointmentID = &opts.Appointment.ID
	}

	err = l.persistence.SaveExecution(ctx, execution)
	if err != nil {
		return "", fmt.Errorf("failed to create execution for workflow %s: %w", workflowID, err)
	}

	l.logger.Info("Launched execution",
		"execution_id", execution.ID,
		"workflow_id", workflow.ID,
		"subject_id", subjectID)

	l.publishLaunched(ctx, workflow, execution)

	err = l.runner.Run(ctx, execution.ID)
	if err != nil {
		return execution.ID, fmt.Errorf("first run of execution %s failed: %w", execution.ID, err)
	}

	return execution.ID, nil
}

// LaunchForStageEntered fans a "subject entered stage" event out over all
// published workflows watching that stage. One failed launch does not stop
// the others.
func (l *Launcher) LaunchForStageEntered(ctx context.Context, subjectID, channelID, stageID string) ([]string, error) {
	workflows, err := l.persistence.PublishedWorkflowsByTrigger(ctx, models.TriggerKindStageEntered)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage-entered workflows: %w", err)
	}

	executionIDs := make([]string, 0)

	for _, workflow := range workflows {
		if workflow.StageID != stageID {
			continue
		}

		// Already filtered on published status above.
		executionID, err := l.Launch(ctx, workflow.ID, subjectID, channelID, LaunchOptions{BypassPublishCheck: true})
		if err != nil {
			l.logger.Error("Failed to launch workflow for stage event",
				"workflow_id", workflow.ID,
				"subject_id", subjectID,
				"stage_id", stageID,
				"error", err)

			continue
		}

		executionIDs = append(executionIDs, executionID)
	}

	return executionIDs, nil
}

// LaunchForAppointmentBooked fans a "subject booked appointment" event out
// over all published appointment-triggered workflows, capturing the
// appointment id and absolute time into each execution's snapshot.
func (l *Launcher) LaunchForAppointmentBooked(ctx context.Context, subjectID, channelID string, appointment models.AppointmentRef) ([]string, error) {
	workflows, err := l.persistence.PublishedWorkflowsByTrigger(ctx, models.TriggerKindAppointmentBooked)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointment-booked workflows: %w", err)
	}

	executionIDs := make([]string, 0)

	for _, workflow := range workflows {
		executionID, err := l.Launch(ctx, workflow.ID, subjectID, channelID, LaunchOptions{
			BypassPublishCheck: true,
			Appointment:        &appointment,
		})
		if err != nil {
			l.logger.Error("Failed to launch workflow for appointment event",
				"workflow_id", workflow.ID,
				"subject_id", subjectID,
				"appointment_id", appointment.ID,
				"error", err)

			continue
		}

		executionIDs = append(executionIDs, executionID)
	}

	return executionIDs, nil
}

func (l *Launcher) publishLaunched(ctx context.Context, workflow *models.Workflow, execution *models.Execution) {
	if l.eventBus == nil {
		return
	}

	event := events.ExecutionLaunched{
		BaseEvent: events.BaseEvent{
			ID:          "evt-" + uuid.New().String()[:8],
			Type:        events.ExecutionLaunchedEvent,
			Timestamp:   time.Now().UTC(),
			WorkflowID:  workflow.ID,
			ExecutionID: execution.ID,
			SubjectID:   execution.SubjectID,
		},
		TriggerKind: workflow.TriggerKind,
		StageID:     workflow.StageID,
	}

	err := l.eventBus.Publish(ctx, execution.ID, event)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to publish launch event",
			"execution_id", execution.ID,
			"error", err)
	}
}

// generateExecutionID generates a unique execution ID.
func generateExecutionID() string {
	return "exec-" + uuid.New().String()[:8]
}
