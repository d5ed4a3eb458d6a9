package web

import (
	"time"

	"github.com/journeyhq/journey/pkg/models"
)

// StageEnteredRequest is the intake payload for "subject entered a
// pipeline stage" events.
type StageEnteredRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	ChannelID string `json:"channel_id" validate:"required"`
	StageID   string `json:"stage_id"   validate:"required"`
}

// AppointmentBookedRequest is the intake payload for "subject booked an
// appointment" events. At is the absolute appointment time.
type AppointmentBookedRequest struct {
	SubjectID     string    `json:"subject_id"     validate:"required"`
	ChannelID     string    `json:"channel_id"     validate:"required"`
	AppointmentID string    `json:"appointment_id" validate:"required"`
	At            time.Time `json:"at"             validate:"required"`
}

// InboundMessageRequest records an inbound message from a subject, feeding
// the has_replied branch condition.
type InboundMessageRequest struct {
	SubjectID string     `json:"subject_id" validate:"required"`
	At        *time.Time `json:"at,omitempty"`
}

// LaunchResponse lists the executions an event launched.
type LaunchResponse struct {
	ExecutionIDs []string `json:"execution_ids"`
}

// ExecutionResponse is the read shape of one execution.
type ExecutionResponse struct {
	ID            string                 `json:"id"`
	WorkflowID    string                 `json:"workflow_id"`
	SubjectID     string                 `json:"subject_id"`
	CurrentNodeID string                 `json:"current_node_id"`
	Status        models.ExecutionStatus `json:"status"`
	ResumeAt      *time.Time             `json:"resume_at,omitempty"`
	AppointmentID *string                `json:"appointment_id,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func toExecutionResponse(execution *models.Execution) ExecutionResponse {
	return ExecutionResponse{
		ID:            execution.ID,
		WorkflowID:    execution.WorkflowID,
		SubjectID:     execution.SubjectID,
		CurrentNodeID: execution.CurrentNodeID,
		Status:        execution.Status,
		ResumeAt:      execution.ResumeAt,
		AppointmentID: execution.AppointmentID,
		CreatedAt:     execution.CreatedAt,
		UpdatedAt:     execution.UpdatedAt,
	}
}
