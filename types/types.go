package types

import "time"

// Status is the lifecycle state of one booking conversation.
type Status string

const (
	StatusCollecting     Status = "collecting"
	StatusAwaitingAnswer Status = "awaiting_answer"
	StatusComplete       Status = "complete"
	StatusFailed         Status = "failed"
)

// Terminal reports whether no further turns are accepted in this status.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation history. Histories are append-only;
// entries are never rewritten or reordered.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// FieldInfo describes one booking field for prompt building.
type FieldInfo struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}
