package session

import (
	"time"

	"github.com/movetics/transflow/booking"
	"github.com/movetics/transflow/types"
)

// Session is the durable unit of conversational state for one booking
// request. It owns its record exclusively; all mutation happens under the
// store's per-session lock.
type Session struct {
	ID       string           `json:"session_id"`
	SenderID string           `json:"sender_id"`
	Request  *booking.Request `json:"request"`
	Missing  []string         `json:"missing_fields"`
	Messages []types.Message  `json:"messages"`

	// PendingQuestion holds the last question asked, cleared once a
	// satisfying answer is merged.
	PendingQuestion string       `json:"pending_question,omitempty"`
	Status          types.Status `json:"status"`
	Attempts        int          `json:"attempts"`

	// Summary is set once finalization produced a confirmation. Empty on a
	// complete session means summarization is still pending retry.
	Summary string `json:"summary,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(id, senderID string) *Session {
	now := time.Now().UTC()
	request := &booking.Request{}
	return &Session{
		ID:        id,
		SenderID:  senderID,
		Request:   request,
		Missing:   request.MissingFields(),
		Status:    types.StatusCollecting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message to the history. History is append-only; nothing
// else in this package rewrites or reorders it. A message identical to the
// latest entry is skipped, so retrying a failed turn does not duplicate the
// user's message.
func (s *Session) Append(role types.Role, text string) types.Message {
	if n := len(s.Messages); n > 0 {
		last := s.Messages[n-1]
		if last.Role == role && last.Text == text {
			return last
		}
	}
	msg := types.Message{Role: role, Text: text, Timestamp: time.Now().UTC()}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = msg.Timestamp
	return msg
}

// ApplyPartial merges extracted fields into the record and refreshes the
// missing-field list and completion status. It returns the fields that were
// actually written; the error only carries per-field coercion failures, and
// successfully coerced fields are applied either way.
func (s *Session) ApplyPartial(partial map[string]any) ([]string, error) {
	applied, err := s.Request.Merge(partial)
	s.Missing = s.Request.MissingFields()
	if len(s.Missing) == 0 {
		s.Status = types.StatusComplete
	}
	return applied, err
}

// Clone returns a deep copy. Stores hand out clones so readers never share
// mutable state with a turn in flight under the session lock.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Request = s.Request.Clone()
	clone.Missing = append([]string(nil), s.Missing...)
	clone.Messages = append([]types.Message(nil), s.Messages...)
	return &clone
}

// ContextWindow returns up to n history entries preceding the most recent
// one, in chronological order. The engine feeds this to the extractor so
// prompt size stays bounded while short-range context survives.
func (s *Session) ContextWindow(n int) []types.Message {
	if len(s.Messages) <= 1 || n <= 0 {
		return nil
	}
	prior := s.Messages[:len(s.Messages)-1]
	if len(prior) > n {
		prior = prior[len(prior)-n:]
	}
	return prior
}
