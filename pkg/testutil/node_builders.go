// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/google/uuid"

	"github.com/journeyhq/journey/pkg/models"
)

// CreateTestNode creates a trigger node with default values that can be
// overridden into any other node kind.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:   uuid.New().String(),
		Kind: models.NodeKindTrigger,
		Name: "Test Node",
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node ID.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithName sets the node name.
func WithName(name string) func(*models.Node) {
	return func(n *models.Node) {
		n.Name = name
	}
}

// AsLiteralMessage configures the node as a literal send_message node.
func AsLiteralMessage(text string) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = models.NodeKindSendMessage
		n.Message = &models.MessageConfig{
			Mode: models.MessageModeLiteral,
			Text: text,
		}
	}
}

// AsGeneratedMessage configures the node as a generate-mode send_message node.
func AsGeneratedMessage(instruction string) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = models.NodeKindSendMessage
		n.Message = &models.MessageConfig{
			Mode:        models.MessageModeGenerate,
			Instruction: instruction,
		}
	}
}

// WithAttachment adds an attachment to a send_message node.
func WithAttachment(url string, kind models.AttachmentKind) func(*models.Node) {
	return func(n *models.Node) {
		if n.Message == nil {
			n.Message = &models.MessageConfig{Mode: models.MessageModeLiteral}
		}

		n.Message.Attachment = &models.Attachment{URL: url, Kind: kind}
	}
}

// AsWait configures the node as a duration wait.
func AsWait(amount int, unit models.WaitUnit) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = models.NodeKindWait
		n.Wait = &models.WaitConfig{
			Mode:   models.WaitModeDuration,
			Amount: amount,
			Unit:   unit,
		}
	}
}

// AsWaitBeforeAppointment configures the node as an appointment-relative wait.
func AsWaitBeforeAppointment(amount int, unit models.WaitUnit) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = models.NodeKindWait
		n.Wait = &models.WaitConfig{
			Mode:   models.WaitModeBeforeAppointment,
			Amount: amount,
			Unit:   unit,
		}
	}
}

// AsHasRepliedBranch configures the node as a has_replied branch.
func AsHasRepliedBranch(window string) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = models.NodeKindBranch
		n.Branch = &models.BranchConfig{
			Condition: models.BranchConditionHasReplied,
			Window:    window,
		}
	}
}

// AsAIRuleBranch configures the node as an ai_rule branch.
func AsAIRuleBranch(rule string) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = models.NodeKindBranch
		n.Branch = &models.BranchConfig{
			Condition: models.BranchConditionAIRule,
			Rule:      rule,
		}
	}
}

// AsHalt configures the node as a halt_automation node.
func AsHalt() func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = models.NodeKindHalt
	}
}

// Link creates an unlabeled edge between two nodes.
func Link(sourceID, targetID string) *models.Edge {
	return &models.Edge{
		ID:       uuid.New().String(),
		SourceID: sourceID,
		TargetID: targetID,
	}
}

// LinkBranch creates a labeled edge leaving a branch node.
func LinkBranch(sourceID, targetID string, result bool) *models.Edge {
	return &models.Edge{
		ID:       uuid.New().String(),
		SourceID: sourceID,
		TargetID: targetID,
		Label:    models.BranchLabel(result),
	}
}

// CreateTestWorkflow creates a published stage-entered workflow from the
// given nodes and edges.
func CreateTestWorkflow(nodes []*models.Node, edges []*models.Edge) *models.Workflow {
	return &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "Test Workflow",
		Status:      models.WorkflowStatusPublished,
		TriggerKind: models.TriggerKindStageEntered,
		StageID:     "stage-1",
		Nodes:       nodes,
		Edges:       edges,
		Owner:       "test-user",
	}
}

// CreateTestExecution creates a pending execution positioned at the given node.
func CreateTestExecution(workflowID, nodeID string) *models.Execution {
	return &models.Execution{
		ID:            "exec-" + uuid.New().String()[:8],
		WorkflowID:    workflowID,
		SubjectID:     "subject-1",
		CurrentNodeID: nodeID,
		Status:        models.ExecutionStatusPending,
		Snapshot: models.Snapshot{
			Version:   models.SnapshotVersion,
			ChannelID: "channel-1",
		},
	}
}
