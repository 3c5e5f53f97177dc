package summary

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

// Failback tries summarizers in order and returns the first success.
type Failback struct {
	summarizers []Summarizer
}

func NewFailback(summarizers ...Summarizer) *Failback {
	return &Failback{summarizers: summarizers}
}

func (f *Failback) Summarize(ctx context.Context, fields map[string]any) (string, error) {
	if len(f.summarizers) == 0 {
		return "", goerr.New("no summarizers configured")
	}
	var lastErr error
	for _, summarizer := range f.summarizers {
		text, err := summarizer.Summarize(ctx, fields)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", goerr.Wrap(lastErr, "all summarizers failed")
}
