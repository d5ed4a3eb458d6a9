package models

import (
	"fmt"
	"time"
)

// NodeKind is the discriminator of the node tagged union.
type NodeKind string

const (
	NodeKindTrigger     NodeKind = "trigger"
	NodeKindSendMessage NodeKind = "send_message"
	NodeKindWait        NodeKind = "wait"
	NodeKindBranch      NodeKind = "branch"
	NodeKindHalt        NodeKind = "halt_automation"
)

// Node is one vertex of a workflow graph. Exactly one of the config
// pointers matching Kind is set; the others stay nil. Keeping the union
// closed makes new node kinds a compile-time extension.
type Node struct {
	ID      string         `json:"id"   validate:"required"`
	Kind    NodeKind       `json:"kind" validate:"required"`
	Name    string         `json:"name"`
	Message *MessageConfig `json:"message,omitempty"`
	Wait    *WaitConfig    `json:"wait,omitempty"`
	Branch  *BranchConfig  `json:"branch,omitempty"`
}

// MessageMode selects how a send_message node produces its text.
type MessageMode string

const (
	MessageModeLiteral  MessageMode = "literal"
	MessageModeGenerate MessageMode = "generate" // Defer text to the chat collaborator
)

// AttachmentKind mirrors the delivery channel's media taxonomy.
type AttachmentKind string

const (
	AttachmentKindImage    AttachmentKind = "image"
	AttachmentKindVideo    AttachmentKind = "video"
	AttachmentKindDocument AttachmentKind = "document"
)

// Attachment is a media payload sent before the message text.
type Attachment struct {
	URL  string         `json:"url"  validate:"required,url"`
	Kind AttachmentKind `json:"kind" validate:"required"`
}

// MessageConfig configures a send_message node.
type MessageConfig struct {
	Mode        MessageMode `json:"mode"`
	Text        string      `json:"text,omitempty"`
	Instruction string      `json:"instruction,omitempty"` // Generate mode only
	Attachment  *Attachment `json:"attachment,omitempty"`
}

// WaitMode selects how a wait node computes its resume instant.
type WaitMode string

const (
	WaitModeDuration          WaitMode = "duration"           // now + offset
	WaitModeBeforeAppointment WaitMode = "before_appointment" // appointment time - offset
)

// WaitUnit is the unit of a wait offset.
type WaitUnit string

const (
	WaitUnitMinutes WaitUnit = "minutes"
	WaitUnitHours   WaitUnit = "hours"
	WaitUnitDays    WaitUnit = "days"
)

// WaitConfig configures a wait node as a signed amount plus unit.
type WaitConfig struct {
	Mode   WaitMode `json:"mode"`
	Amount int      `json:"amount"`
	Unit   WaitUnit `json:"unit"`
}

// Offset converts the amount/unit pair to a duration.
func (c *WaitConfig) Offset() time.Duration {
	switch c.Unit {
	case WaitUnitMinutes:
		return time.Duration(c.Amount) * time.Minute
	case WaitUnitHours:
		return time.Duration(c.Amount) * time.Hour
	case WaitUnitDays:
		return time.Duration(c.Amount) * 24 * time.Hour
	default:
		return 0
	}
}

// BranchCondition names the boolean a branch node evaluates.
type BranchCondition string

const (
	// BranchConditionHasReplied is true when the subject produced an inbound
	// message inside the trailing window.
	BranchConditionHasReplied BranchCondition = "has_replied"
	// BranchConditionAIRule asks the chat collaborator whether a free-text
	// rule holds for the subject.
	BranchConditionAIRule BranchCondition = "ai_rule"
)

// DefaultReplyWindow is the trailing window for has_replied when the
// branch config leaves it unset.
const DefaultReplyWindow = 24 * time.Hour

// BranchConfig configures a branch node.
type BranchConfig struct {
	Condition BranchCondition `json:"condition"`
	Window    string          `json:"window,omitempty"` // has_replied only, Go duration string
	Rule      string          `json:"rule,omitempty"`   // ai_rule only
}

// ReplyWindow parses the configured trailing window, falling back to the
// default on absence or a bad value.
func (c *BranchConfig) ReplyWindow() time.Duration {
	if c.Window == "" {
		return DefaultReplyWindow
	}

	window, err := time.ParseDuration(c.Window)
	if err != nil || window <= 0 {
		return DefaultReplyWindow
	}

	return window
}

// Validate checks that the node carries exactly the config its kind needs.
func (n *Node) Validate() error {
	if err := validate.Struct(n); err != nil {
		return fmt.Errorf("node %s failed validation: %w", n.ID, err)
	}

	switch n.Kind {
	case NodeKindTrigger, NodeKindHalt:
		// No config.
	case NodeKindSendMessage:
		if n.Message == nil {
			return fmt.Errorf("node %s: send_message requires a message config", n.ID)
		}

		switch n.Message.Mode {
		case MessageModeLiteral:
			if n.Message.Text == "" && n.Message.Attachment == nil {
				return fmt.Errorf("node %s: literal message needs text or an attachment", n.ID)
			}
		case MessageModeGenerate:
			if n.Message.Instruction == "" {
				return fmt.Errorf("node %s: generate mode requires an instruction", n.ID)
			}
		default:
			return fmt.Errorf("node %s: unknown message mode %q", n.ID, n.Message.Mode)
		}
	case NodeKindWait:
		if n.Wait == nil {
			return fmt.Errorf("node %s: wait requires a wait config", n.ID)
		}

		if n.Wait.Mode != WaitModeDuration && n.Wait.Mode != WaitModeBeforeAppointment {
			return fmt.Errorf("node %s: unknown wait mode %q", n.ID, n.Wait.Mode)
		}

		if n.Wait.Offset() == 0 && n.Wait.Mode == WaitModeDuration {
			return fmt.Errorf("node %s: wait offset must be non-zero", n.ID)
		}
	case NodeKindBranch:
		if n.Branch == nil {
			return fmt.Errorf("node %s: branch requires a branch config", n.ID)
		}

		switch n.Branch.Condition {
		case BranchConditionHasReplied:
		case BranchConditionAIRule:
			if n.Branch.Rule == "" {
				return fmt.Errorf("node %s: ai_rule branch requires a rule", n.ID)
			}
		default:
			return fmt.Errorf("node %s: unknown branch condition %q", n.ID, n.Branch.Condition)
		}
	default:
		return fmt.Errorf("node %s: unknown node kind %q", n.ID, n.Kind)
	}

	return nil
}
