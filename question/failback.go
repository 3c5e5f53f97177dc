package question

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/movetics/transflow/types"
)

// Failback tries generators in order and returns the first success.
type Failback struct {
	generators []Generator
}

func NewFailback(generators ...Generator) *Failback {
	return &Failback{generators: generators}
}

func (f *Failback) Generate(ctx context.Context, known map[string]any, missing []types.FieldInfo) (string, error) {
	if len(f.generators) == 0 {
		return "", goerr.New("no question generators configured")
	}
	var lastErr error
	for _, generator := range f.generators {
		text, err := generator.Generate(ctx, known, missing)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", goerr.Wrap(lastErr, "all question generators failed")
}
