package models

import "time"

// ExecutionStatus represents the lifecycle state of one workflow run.
// Pending covers both "actively running" and "suspended until resume_at";
// the two are distinguished by whether ResumeAt is set.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusStopped   ExecutionStatus = "stopped"
)

// SnapshotVersion is the current shape version of the context snapshot.
const SnapshotVersion = 1

// AppointmentRef pins the appointment an execution was launched for. The
// absolute time is captured once at launch; the executor never re-derives
// it from mutable source data.
type AppointmentRef struct {
	ID string    `json:"id"`
	At time.Time `json:"at"`
}

// Snapshot is the closed, versioned context an execution needs to resume
// correctly after an arbitrarily long suspension.
type Snapshot struct {
	Version     int             `json:"version"`
	ChannelID   string          `json:"channel_id"`
	Appointment *AppointmentRef `json:"appointment,omitempty"`
}

// Execution is the only mutable, durable entity of the engine: one
// running, suspended or finished instance of a workflow for one subject.
// Created by the launcher, mutated only by the runner, never deleted.
type Execution struct {
	ID            string          `json:"id"`
	WorkflowID    string          `json:"workflow_id"`
	SubjectID     string          `json:"subject_id"`
	CurrentNodeID string          `json:"current_node_id"`
	Status        ExecutionStatus `json:"status"`
	ResumeAt      *time.Time      `json:"resume_at,omitempty"`
	Snapshot      Snapshot        `json:"snapshot"`
	AppointmentID *string         `json:"appointment_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Terminal reports whether the execution reached a final status.
func (e *Execution) Terminal() bool {
	return e.Status == ExecutionStatusCompleted || e.Status == ExecutionStatusStopped
}

// Suspended reports whether the execution is waiting for a future time.
func (e *Execution) Suspended() bool {
	return e.Status == ExecutionStatusPending && e.ResumeAt != nil
}

// Due reports whether a suspended execution should be resumed at now.
func (e *Execution) Due(now time.Time) bool {
	return e.Suspended() && !e.ResumeAt.After(now)
}
