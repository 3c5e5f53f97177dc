package summary

import "context"

// Summarizer turns a complete booking field map into a human-readable
// confirmation for the requester.
type Summarizer interface {
	Summarize(ctx context.Context, fields map[string]any) (string, error)
}
