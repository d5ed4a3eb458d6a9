// Package models defines the core domain models for journey workflow automation.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// WorkflowStatus represents the lifecycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowStatusDraft       WorkflowStatus = "draft"       // Editable, not triggerable
	WorkflowStatusPublished   WorkflowStatus = "published"   // Current active, triggerable
	WorkflowStatusUnpublished WorkflowStatus = "unpublished" // Historical, not triggerable
)

// TriggerKind identifies the business event that launches a workflow.
type TriggerKind string

const (
	TriggerKindStageEntered      TriggerKind = "stage_entered"
	TriggerKindAppointmentBooked TriggerKind = "appointment_booked"
)

// ErrMalformedGraph indicates a workflow graph that cannot be executed,
// typically because it has no single trigger node.
var ErrMalformedGraph = errors.New("malformed workflow graph")

// Workflow is the authored, rarely-mutated definition of an automation
// sequence. The engine only reads it; the authoring surface owns mutation.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"         validate:"required,min=3"`
	Status      WorkflowStatus `json:"status"       validate:"required"`
	TriggerKind TriggerKind    `json:"trigger_kind" validate:"required"`
	StageID     string         `json:"stage_id,omitempty"` // Required for stage_entered triggers
	Nodes       []*Node        `json:"nodes"`
	Edges       []*Edge        `json:"edges"`
	Owner       string         `json:"owner"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
}

// IsPublished reports whether the workflow may be launched by business events.
func (w *Workflow) IsPublished() bool {
	return w.Status == WorkflowStatusPublished
}

// NodeByID returns the node with the given id, or nil if absent.
func (w *Workflow) NodeByID(id string) *Node {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// TriggerNode returns the single entry node of the graph. A graph with no
// trigger node, or more than one, is malformed and cannot be launched.
func (w *Workflow) TriggerNode() (*Node, error) {
	var trigger *Node

	for _, node := range w.Nodes {
		if node.Kind != NodeKindTrigger {
			continue
		}

		if trigger != nil {
			return nil, fmt.Errorf("workflow %s has more than one trigger node: %w", w.ID, ErrMalformedGraph)
		}

		trigger = node
	}

	if trigger == nil {
		return nil, fmt.Errorf("workflow %s has no trigger node: %w", w.ID, ErrMalformedGraph)
	}

	return trigger, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the structural integrity of the workflow definition.
// Dangling edges are deliberately not an error here: the edge resolver
// skips them at execution time (partially-edited graphs stay runnable).
func (w *Workflow) Validate() error {
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("workflow %s failed validation: %w", w.ID, err)
	}

	if w.TriggerKind == TriggerKindStageEntered && w.StageID == "" {
		return fmt.Errorf("workflow %s: stage_entered trigger requires a stage id", w.ID)
	}

	if _, err := w.TriggerNode(); err != nil {
		return err
	}

	for _, node := range w.Nodes {
		if err := node.Validate(); err != nil {
			return fmt.Errorf("workflow %s: %w", w.ID, err)
		}
	}

	for _, edge := range w.Edges {
		if err := edge.Validate(); err != nil {
			return fmt.Errorf("workflow %s: %w", w.ID, err)
		}

		source := w.NodeByID(edge.SourceID)
		if source == nil {
			return fmt.Errorf("workflow %s: edge %s has unknown source node %s", w.ID, edge.ID, edge.SourceID)
		}

		if source.Kind == NodeKindBranch && edge.Label == "" {
			return fmt.Errorf("workflow %s: edge %s leaving branch node %s must carry a true/false label", w.ID, edge.ID, source.ID)
		}

		if source.Kind != NodeKindBranch && edge.Label != "" {
			return fmt.Errorf("workflow %s: edge %s carries a branch label but node %s is not a branch", w.ID, edge.ID, source.ID)
		}
	}

	return nil
}
