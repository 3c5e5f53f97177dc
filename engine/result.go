package engine

import "github.com/movetics/transflow/booking"

// TurnStatus tags the outcome of a successful turn.
type TurnStatus string

const (
	StatusWaitingForResponse TurnStatus = "waiting_for_response"
	StatusComplete           TurnStatus = "complete"
)

// Result is the caller-facing outcome of one turn. Waiting turns carry the
// follow-up question and the full missing-field list; complete turns carry
// the summary and the collected record.
type Result struct {
	Status        TurnStatus       `json:"status"`
	SessionID     string           `json:"session_id"`
	Question      string           `json:"question,omitempty"`
	MissingFields []string         `json:"missing_fields,omitempty"`
	Summary       string           `json:"summary,omitempty"`
	RequestData   *booking.Request `json:"request_data,omitempty"`
}
