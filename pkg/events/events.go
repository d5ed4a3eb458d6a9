// Package events defines the execution lifecycle events the engine
// publishes for audit and analytics consumers.
package events

import (
	"time"

	"github.com/journeyhq/journey/pkg/models"
)

type EventType string

// Kafka topic for execution lifecycle events.
const Topic = "journey.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionLaunchedEvent  EventType = "execution.launched"
	ExecutionSuspendedEvent EventType = "execution.suspended"
	ExecutionResumedEvent   EventType = "execution.resumed"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionStoppedEvent   EventType = "execution.stopped"
)

type BaseEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	WorkflowID  string    `json:"workflow_id"`
	ExecutionID string    `json:"execution_id"`
	SubjectID   string    `json:"subject_id"`
}

type ExecutionLaunched struct {
	BaseEvent

	TriggerKind models.TriggerKind `json:"trigger_kind"`
	StageID     string             `json:"stage_id,omitempty"`
}

func (e ExecutionLaunched) GetType() EventType {
	return ExecutionLaunchedEvent
}

type ExecutionSuspended struct {
	BaseEvent

	NodeID   string    `json:"node_id"`
	ResumeAt time.Time `json:"resume_at"`
}

func (e ExecutionSuspended) GetType() EventType {
	return ExecutionSuspendedEvent
}

type ExecutionResumed struct {
	BaseEvent

	NodeID string `json:"node_id"`
}

func (e ExecutionResumed) GetType() EventType {
	return ExecutionResumedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	Duration time.Duration `json:"duration"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionStopped struct {
	BaseEvent

	NodeID string `json:"node_id"` // The halt_automation node that stopped the run
}

func (e ExecutionStopped) GetType() EventType {
	return ExecutionStoppedEvent
}
