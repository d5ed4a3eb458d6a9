package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validWorkflow() *Workflow {
	return &Workflow{
		ID:          "wf-1",
		Name:        "Welcome Sequence",
		Status:      WorkflowStatusPublished,
		TriggerKind: TriggerKindStageEntered,
		StageID:     "stage-new-lead",
		Nodes: []*Node{
			{ID: "n1", Kind: NodeKindTrigger},
			{ID: "n2", Kind: NodeKindSendMessage, Message: &MessageConfig{
				Mode: MessageModeLiteral,
				Text: "Hello!",
			}},
		},
		Edges: []*Edge{
			{ID: "e1", SourceID: "n1", TargetID: "n2"},
		},
	}
}

func TestWorkflowValidate_ValidGraph(t *testing.T) {
	require.NoError(t, validWorkflow().Validate())
}

func TestWorkflowValidate_NoTriggerNode(t *testing.T) {
	workflow := validWorkflow()
	workflow.Nodes = workflow.Nodes[1:]

	err := workflow.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedGraph)
}

func TestWorkflowValidate_TwoTriggerNodesRejected(t *testing.T) {
	workflow := validWorkflow()
	workflow.Nodes = append(workflow.Nodes, &Node{ID: "n3", Kind: NodeKindTrigger})

	err := workflow.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedGraph)
}

func TestWorkflowValidate_StageEnteredRequiresStageID(t *testing.T) {
	workflow := validWorkflow()
	workflow.StageID = ""

	require.Error(t, workflow.Validate())
}

func TestWorkflowValidate_AppointmentTriggerNeedsNoStage(t *testing.T) {
	workflow := validWorkflow()
	workflow.TriggerKind = TriggerKindAppointmentBooked
	workflow.StageID = ""

	require.NoError(t, workflow.Validate())
}

func TestWorkflowValidate_DanglingEdgeTargetAllowed(t *testing.T) {
	// Edges pointing at deleted nodes are an execution-time concern, not a
	// validation failure.
	workflow := validWorkflow()
	workflow.Edges = append(workflow.Edges, &Edge{ID: "e2", SourceID: "n2", TargetID: "gone"})

	require.NoError(t, workflow.Validate())
}

func TestWorkflowValidate_UnknownEdgeSourceRejected(t *testing.T) {
	workflow := validWorkflow()
	workflow.Edges = append(workflow.Edges, &Edge{ID: "e2", SourceID: "gone", TargetID: "n1"})

	require.Error(t, workflow.Validate())
}

func TestWorkflowValidate_BranchEdgeLabels(t *testing.T) {
	workflow := validWorkflow()
	workflow.Nodes = append(workflow.Nodes,
		&Node{ID: "n3", Kind: NodeKindBranch, Branch: &BranchConfig{Condition: BranchConditionHasReplied}},
		&Node{ID: "n4", Kind: NodeKindHalt},
	)

	t.Run("branch edge without label rejected", func(t *testing.T) {
		wf := *workflow
		wf.Edges = append(workflow.Edges, &Edge{ID: "e3", SourceID: "n3", TargetID: "n4"})

		require.Error(t, wf.Validate())
	})

	t.Run("labeled branch edges accepted", func(t *testing.T) {
		wf := *workflow
		wf.Edges = append(workflow.Edges,
			&Edge{ID: "e3", SourceID: "n3", TargetID: "n4", Label: BranchLabelTrue},
			&Edge{ID: "e4", SourceID: "n3", TargetID: "n2", Label: BranchLabelFalse},
		)

		require.NoError(t, wf.Validate())
	})

	t.Run("label on non-branch edge rejected", func(t *testing.T) {
		wf := *workflow
		wf.Edges = append(workflow.Edges, &Edge{ID: "e3", SourceID: "n2", TargetID: "n1", Label: BranchLabelTrue})

		require.Error(t, wf.Validate())
	})
}

func TestTriggerNode(t *testing.T) {
	workflow := validWorkflow()

	node, err := workflow.TriggerNode()
	require.NoError(t, err)
	assert.Equal(t, "n1", node.ID)

	workflow.Nodes = workflow.Nodes[1:]

	_, err = workflow.TriggerNode()
	assert.ErrorIs(t, err, ErrMalformedGraph)

	workflow = validWorkflow()
	workflow.Nodes = append(workflow.Nodes, &Node{ID: "n3", Kind: NodeKindTrigger})

	_, err = workflow.TriggerNode()
	assert.ErrorIs(t, err, ErrMalformedGraph)
}

func TestNodeValidate(t *testing.T) {
	testCases := []struct {
		name    string
		node    *Node
		wantErr bool
	}{
		{
			name: "trigger needs no config",
			node: &Node{ID: "n", Kind: NodeKindTrigger},
		},
		{
			name: "halt needs no config",
			node: &Node{ID: "n", Kind: NodeKindHalt},
		},
		{
			name:    "send_message without config rejected",
			node:    &Node{ID: "n", Kind: NodeKindSendMessage},
			wantErr: true,
		},
		{
			name: "literal message with text",
			node: &Node{ID: "n", Kind: NodeKindSendMessage, Message: &MessageConfig{
				Mode: MessageModeLiteral,
				Text: "hi",
			}},
		},
		{
			name: "literal message with only an attachment",
			node: &Node{ID: "n", Kind: NodeKindSendMessage, Message: &MessageConfig{
				Mode:       MessageModeLiteral,
				Attachment: &Attachment{URL: "https://cdn.example.com/a.png", Kind: AttachmentKindImage},
			}},
		},
		{
			name: "empty literal message rejected",
			node: &Node{ID: "n", Kind: NodeKindSendMessage, Message: &MessageConfig{
				Mode: MessageModeLiteral,
			}},
			wantErr: true,
		},
		{
			name: "generate mode without instruction rejected",
			node: &Node{ID: "n", Kind: NodeKindSendMessage, Message: &MessageConfig{
				Mode: MessageModeGenerate,
			}},
			wantErr: true,
		},
		{
			name: "duration wait",
			node: &Node{ID: "n", Kind: NodeKindWait, Wait: &WaitConfig{
				Mode:   WaitModeDuration,
				Amount: 2,
				Unit:   WaitUnitHours,
			}},
		},
		{
			name: "zero duration wait rejected",
			node: &Node{ID: "n", Kind: NodeKindWait, Wait: &WaitConfig{
				Mode: WaitModeDuration,
				Unit: WaitUnitHours,
			}},
			wantErr: true,
		},
		{
			name: "ai_rule branch without rule rejected",
			node: &Node{ID: "n", Kind: NodeKindBranch, Branch: &BranchConfig{
				Condition: BranchConditionAIRule,
			}},
			wantErr: true,
		},
		{
			name: "has_replied branch without window uses default",
			node: &Node{ID: "n", Kind: NodeKindBranch, Branch: &BranchConfig{
				Condition: BranchConditionHasReplied,
			}},
		},
		{
			name:    "unknown node kind rejected",
			node:    &Node{ID: "n", Kind: "teleport"},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.node.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestWaitConfigOffset(t *testing.T) {
	assert.Equal(t, 30*time.Minute, (&WaitConfig{Amount: 30, Unit: WaitUnitMinutes}).Offset())
	assert.Equal(t, 2*time.Hour, (&WaitConfig{Amount: 2, Unit: WaitUnitHours}).Offset())
	assert.Equal(t, 72*time.Hour, (&WaitConfig{Amount: 3, Unit: WaitUnitDays}).Offset())
	assert.Equal(t, time.Duration(0), (&WaitConfig{Amount: 5, Unit: "fortnights"}).Offset())
}

func TestBranchConfigReplyWindow(t *testing.T) {
	assert.Equal(t, DefaultReplyWindow, (&BranchConfig{}).ReplyWindow())
	assert.Equal(t, 48*time.Hour, (&BranchConfig{Window: "48h"}).ReplyWindow())
	assert.Equal(t, DefaultReplyWindow, (&BranchConfig{Window: "soon"}).ReplyWindow())
	assert.Equal(t, DefaultReplyWindow, (&BranchConfig{Window: "-1h"}).ReplyWindow())
}

func TestExecutionStateHelpers(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	running := &Execution{Status: ExecutionStatusPending}
	assert.False(t, running.Terminal())
	assert.False(t, running.Suspended())
	assert.False(t, running.Due(now))

	suspended := &Execution{Status: ExecutionStatusPending, ResumeAt: &future}
	assert.True(t, suspended.Suspended())
	assert.False(t, suspended.Due(now))

	due := &Execution{Status: ExecutionStatusPending, ResumeAt: &past}
	assert.True(t, due.Due(now))

	completed := &Execution{Status: ExecutionStatusCompleted, ResumeAt: &past}
	assert.True(t, completed.Terminal())
	assert.False(t, completed.Due(now))
}
