// Package protocol defines the contracts between the workflow engine and
// its external collaborators. The engine treats every call as plain
// request/response with its own failure semantics; none of them is assumed
// idempotent or retryable.
package protocol

import (
	"context"
	"time"
)

// DeliveryHints carries channel-specific delivery options for outbound sends.
type DeliveryHints map[string]string

// Messenger is the messaging-channel delivery client.
type Messenger interface {
	SendText(ctx context.Context, channelID, text string, hints DeliveryHints) error
	SendAttachment(ctx context.Context, channelID, url, kind string, hints DeliveryHints) error
}

// Generator is the chat/LLM collaborator.
type Generator interface {
	// GenerateText produces message text from an instruction plus recent
	// conversation history. Failure is handled by the caller (the send step
	// degrades to sending nothing).
	GenerateText(ctx context.Context, instruction, subjectID string) (string, error)
	// EvaluatePredicate asks whether a free-text rule holds for the subject.
	// Callers default to false on any failure.
	EvaluatePredicate(ctx context.Context, rule, subjectID string) (bool, error)
}

// AutomationControl disables further automated messaging for a subject.
type AutomationControl interface {
	DisableAutomation(ctx context.Context, subjectID, reason string) error
}

// Recency answers whether a subject produced an inbound message inside a
// trailing window, and records inbound activity.
type Recency interface {
	HasRecentReply(ctx context.Context, subjectID string, window time.Duration) (bool, error)
	Touch(ctx context.Context, subjectID string, at time.Time) error
}

// Collaborators bundles the engine's outbound dependencies.
type Collaborators struct {
	Messenger  Messenger
	Generator  Generator
	Automation AutomationControl
	Recency    Recency
}
