package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/journeyhq/journey/pkg/eventbus"
	"github.com/journeyhq/journey/pkg/events"
	"github.com/journeyhq/journey/pkg/models"
	"github.com/journeyhq/journey/pkg/otelhelper"
	"github.com/journeyhq/journey/pkg/persistence"
)

// Runner drives one execution forward: an explicit trampoline loop that
// runs instantaneous nodes in a single pass and returns control only when
// the execution suspends or reaches a terminal status. All position and
// status changes are persisted before the loop moves on, so a process
// crash resumes exactly where the last write left off.
type Runner struct {
	persistence persistence.Persistence
	executor    *NodeExecutor
	eventBus    eventbus.EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

// NewRunner creates an execution runner. The event publisher and tracer
// are optional; a nil publisher disables lifecycle events.
func NewRunner(p persistence.Persistence, executor *NodeExecutor, bus eventbus.EventPublisher, tracer trace.Tracer, logger *slog.Logger) *Runner {
	return &Runner{
		persistence: p,
		executor:    executor,
		eventBus:    bus,
		tracer:      tracer,
		logger:      logger.With("module", "execution_runner"),
		now:         time.Now,
	}
}

// Run advances the execution until it suspends or terminates. Calling it
// on a non-pending execution, or on a suspended execution before its
// resume time, is a safe no-op, which is what makes at-least-once
// resumption from the poller and the manual resume endpoint tolerable.
func (r *Runner) Run(ctx context.Context, executionID string) error {
	logger := r.logger.With("execution_id", executionID)

	execution, err := r.persistence.ExecutionByID(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to load execution %s: %w", executionID, err)
	}

	if execution.Status != models.ExecutionStatusPending {
		logger.Info("Execution is not pending, nothing to do", "status", execution.Status)

		return nil
	}

	// A claimed row arrives here with ResumeAt already cleared; anything
	// still carrying a future resume time must keep sleeping.
	if execution.Suspended() && !execution.Due(r.now().UTC()) {
		logger.Info("Execution is not due yet, nothing to do", "resume_at", execution.ResumeAt)

		return nil
	}

	workflow, err := r.persistence.WorkflowByID(ctx, execution.WorkflowID)
	if err != nil {
		return fmt.Errorf("failed to load workflow %s: %w", execution.WorkflowID, err)
	}

	var span trace.Span

	if r.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, r.tracer, "execution.run",
			attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
			attribute.String(otelhelper.ExecutionIDKey, execution.ID),
			attribute.String(otelhelper.SubjectIDKey, execution.SubjectID),
		)
		defer span.End()
	}

	resolver := NewResolver(workflow, logger)

	for {
		node := workflow.NodeByID(execution.CurrentNodeID)
		if node == nil {
			logger.Warn("Current node no longer exists in graph, completing",
				"node_id", execution.CurrentNodeID)

			return r.complete(ctx, logger, execution)
		}

		logger.Info("Executing node", "node_id", node.ID, "node_kind", node.Kind)

		outcome := r.executor.Execute(ctx, resolver, node, execution)

		switch outcome.Kind {
		case OutcomeAdvance:
			execution.CurrentNodeID = outcome.NextNodeID
			execution.ResumeAt = nil

			err = r.persistence.SaveExecution(ctx, execution)
			if err != nil {
				return r.fail(span, fmt.Errorf("failed to persist advance for execution %s: %w", execution.ID, err))
			}
		case OutcomeSuspend:
			execution.CurrentNodeID = outcome.NextNodeID
			resumeAt := outcome.ResumeAt
			execution.ResumeAt = &resumeAt

			err = r.persistence.SaveExecution(ctx, execution)
			if err != nil {
				return r.fail(span, fmt.Errorf("failed to persist suspension for execution %s: %w", execution.ID, err))
			}

			logger.Info("Execution suspended", "resume_at", resumeAt, "resume_node", outcome.NextNodeID)
			r.publish(ctx, execution, events.ExecutionSuspended{
				BaseEvent: r.baseEvent(execution, events.ExecutionSuspendedEvent),
				NodeID:    node.ID,
				ResumeAt:  resumeAt,
			})

			return nil
		case OutcomeHalt:
			execution.Status = models.ExecutionStatusStopped
			execution.ResumeAt = nil

			err = r.persistence.SaveExecution(ctx, execution)
			if err != nil {
				return r.fail(span, fmt.Errorf("failed to persist stop for execution %s: %w", execution.ID, err))
			}

			logger.Info("Execution stopped by halt node", "node_id", node.ID)
			r.publish(ctx, execution, events.ExecutionStopped{
				BaseEvent: r.baseEvent(execution, events.ExecutionStoppedEvent),
				NodeID:    node.ID,
			})

			return nil
		case OutcomeEnd:
			return r.complete(ctx, logger, execution)
		default:
			return r.fail(span, fmt.Errorf("unknown outcome kind %q for execution %s", outcome.Kind, execution.ID))
		}
	}
}

// Resume re-enters a suspended execution, typically from the due-work
// poller after claiming the row. Safe to call on any execution id.
func (r *Runner) Resume(ctx context.Context, executionID string) error {
	execution, err := r.persistence.ExecutionByID(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to load execution %s: %w", executionID, err)
	}

	if execution.Status == models.ExecutionStatusPending && (execution.ResumeAt == nil || execution.Due(r.now().UTC())) {
		r.publish(ctx, execution, events.ExecutionResumed{
			BaseEvent: r.baseEvent(execution, events.ExecutionResumedEvent),
			NodeID:    execution.CurrentNodeID,
		})
	}

	return r.Run(ctx, executionID)
}

func (r *Runner) complete(ctx context.Context, logger *slog.Logger, execution *models.Execution) error {
	execution.Status = models.ExecutionStatusCompleted
	execution.ResumeAt = nil

	err := r.persistence.SaveExecution(ctx, execution)
	if err != nil {
		return fmt.Errorf("failed to persist completion for execution %s: %w", execution.ID, err)
	}

	logger.Info("Execution completed")
	r.publish(ctx, execution, events.ExecutionCompleted{
		BaseEvent: r.baseEvent(execution, events.ExecutionCompletedEvent),
		Duration:  time.Since(execution.CreatedAt),
	})

	return nil
}

func (r *Runner) fail(span trace.Span, err error) error {
	if span != nil {
		otelhelper.SetError(span, err)
	}

	return err
}

func (r *Runner) baseEvent(execution *models.Execution, eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:          "evt-" + uuid.New().String()[:8],
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		WorkflowID:  execution.WorkflowID,
		ExecutionID: execution.ID,
		SubjectID:   execution.SubjectID,
	}
}

// publish sends a lifecycle event best-effort: a bus outage must never
// fail an execution step.
func (r *Runner) publish(ctx context.Context, execution *models.Execution, event eventbus.Event) {
	if r.eventBus == nil {
		return
	}

	err := r.eventBus.Publish(ctx, execution.ID, event)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish lifecycle event",
			"execution_id", execution.ID,
			"event_type", event.GetType(),
			"error", err)
	}
}
