package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/journeyhq/journey/pkg/models"
	"github.com/journeyhq/journey/pkg/protocol"
)

// OutcomeKind discriminates what a node execution yielded.
type OutcomeKind string

const (
	// OutcomeAdvance moves the execution to the next node immediately.
	OutcomeAdvance OutcomeKind = "advance"
	// OutcomeSuspend parks the execution until a future time.
	OutcomeSuspend OutcomeKind = "suspend"
	// OutcomeHalt stops the execution permanently.
	OutcomeHalt OutcomeKind = "halt"
	// OutcomeEnd completes the execution normally.
	OutcomeEnd OutcomeKind = "end"
)

// Outcome is the result of executing one node.
type Outcome struct {
	Kind       OutcomeKind
	NextNodeID string    // Advance: node to run next; Suspend: resume point
	ResumeAt   time.Time // Suspend only
}

func advanceTo(nodeID string) Outcome {
	if nodeID == "" {
		return Outcome{Kind: OutcomeEnd}
	}

	return Outcome{Kind: OutcomeAdvance, NextNodeID: nodeID}
}

func suspendUntil(at time.Time, nodeID string) Outcome {
	return Outcome{Kind: OutcomeSuspend, NextNodeID: nodeID, ResumeAt: at}
}

// NodeExecutor performs the side effect of a single node. External call
// failures never abort a node: each kind degrades to a safe fallback so a
// collaborator outage cannot stall automation permanently.
type NodeExecutor struct {
	collaborators protocol.Collaborators
	logger        *slog.Logger
	now           func() time.Time
}

// NewNodeExecutor creates a node executor over the given collaborators.
func NewNodeExecutor(collaborators protocol.Collaborators, logger *slog.Logger) *NodeExecutor {
	return &NodeExecutor{
		collaborators: collaborators,
		logger:        logger.With("module", "node_executor"),
		now:           time.Now,
	}
}

// Execute runs one node against the execution's context snapshot and
// yields what the runner should do next.
func (e *NodeExecutor) Execute(ctx context.Context, resolver *Resolver, node *models.Node, execution *models.Execution) Outcome {
	logger := e.logger.With(
		"execution_id", execution.ID,
		"node_id", node.ID,
		"node_kind", node.Kind,
	)

	switch node.Kind {
	case models.NodeKindTrigger:
		return advanceTo(resolver.Next(node.ID))
	case models.NodeKindSendMessage:
		return e.executeSendMessage(ctx, logger, resolver, node, execution)
	case models.NodeKindWait:
		return e.executeWait(ctx, logger, resolver, node, execution)
	case models.NodeKindBranch:
		return e.executeBranch(ctx, logger, resolver, node, execution)
	case models.NodeKindHalt:
		return e.executeHalt(ctx, logger, node, execution)
	default:
		logger.Warn("Unknown node kind, completing execution")

		return Outcome{Kind: OutcomeEnd}
	}
}

// executeSendMessage delivers the node's attachment and text, in that
// order. In generate mode the text comes from the chat collaborator;
// generation failure skips the text but the attachment is still sent.
func (e *NodeExecutor) executeSendMessage(ctx context.Context, logger *slog.Logger, resolver *Resolver, node *models.Node, execution *models.Execution) Outcome {
	config := node.Message
	channelID := execution.Snapshot.ChannelID

	text := config.Text
	if config.Mode == models.MessageModeGenerate {
		generated, err := e.collaborators.Generator.GenerateText(ctx, config.Instruction, execution.SubjectID)
		if err != nil {
			logger.Error("Message generation failed, skipping text", "error", err)

			text = ""
		} else {
			text = generated
		}
	}

	if config.Attachment != nil {
		err := e.collaborators.Messenger.SendAttachment(ctx, channelID, config.Attachment.URL, string(config.Attachment.Kind), nil)
		if err != nil {
			logger.Error("Attachment send failed, continuing", "error", err, "url", config.Attachment.URL)
		}
	}

	if text != "" {
		err := e.collaborators.Messenger.SendText(ctx, channelID, text, nil)
		if err != nil {
			logger.Error("Text send failed, continuing", "error", err)
		}
	}

	return advanceTo(resolver.Next(node.ID))
}

// executeWait computes the resume instant. The resume node is resolved
// once, before suspending; waits that land in the past pass through
// immediately instead of scheduling backwards.
func (e *NodeExecutor) executeWait(ctx context.Context, logger *slog.Logger, resolver *Resolver, node *models.Node, execution *models.Execution) Outcome {
	config := node.Wait
	now := e.now().UTC()

	next := resolver.Next(node.ID)
	if next == "" {
		// Nothing to resume into; suspending would park the execution forever.
		return Outcome{Kind: OutcomeEnd}
	}

	var target time.Time

	switch config.Mode {
	case models.WaitModeDuration:
		target = now.Add(config.Offset())
	case models.WaitModeBeforeAppointment:
		appointment := execution.Snapshot.Appointment
		if appointment == nil {
			logger.Warn("Appointment-relative wait without appointment context, passing through")

			return advanceTo(next)
		}

		target = appointment.At.Add(-config.Offset())
	default:
		logger.Warn("Unknown wait mode, passing through", "mode", config.Mode)

		return advanceTo(next)
	}

	if !target.After(now) {
		logger.Info("Wait target already in the past, passing through", "target", target)

		return advanceTo(next)
	}

	return suspendUntil(target, next)
}

// executeBranch evaluates the node's condition and follows the matching
// labeled edge. Evaluation failure defaults to false.
func (e *NodeExecutor) executeBranch(ctx context.Context, logger *slog.Logger, resolver *Resolver, node *models.Node, execution *models.Execution) Outcome {
	config := node.Branch

	var (
		result bool
		err    error
	)

	switch config.Condition {
	case models.BranchConditionHasReplied:
		result, err = e.collaborators.Recency.HasRecentReply(ctx, execution.SubjectID, config.ReplyWindow())
	case models.BranchConditionAIRule:
		result, err = e.collaborators.Generator.EvaluatePredicate(ctx, config.Rule, execution.SubjectID)
	default:
		logger.Warn("Unknown branch condition, defaulting to false", "condition", config.Condition)
	}

	if err != nil {
		logger.Error("Branch evaluation failed, defaulting to false", "error", err, "condition", config.Condition)

		result = false
	}

	next := resolver.NextForBranch(node.ID, result)
	if next == "" {
		logger.Info("No edge for branch result, completing", "result", result)

		return Outcome{Kind: OutcomeEnd}
	}

	return Outcome{Kind: OutcomeAdvance, NextNodeID: next}
}

// executeHalt disables further automation for the subject and stops the
// execution. This is the only node kind that yields a halt outcome.
func (e *NodeExecutor) executeHalt(ctx context.Context, logger *slog.Logger, node *models.Node, execution *models.Execution) Outcome {
	err := e.collaborators.Automation.DisableAutomation(ctx, execution.SubjectID, "halt node "+node.ID)
	if err != nil {
		logger.Error("Failed to disable automation, stopping anyway", "error", err)
	}

	return Outcome{Kind: OutcomeHalt}
}
