package question

import (
	"context"

	"github.com/movetics/transflow/types"
)

// Generator produces one natural-language follow-up question asking for the
// given missing fields. The engine caps missing at three entries per turn.
type Generator interface {
	Generate(ctx context.Context, known map[string]any, missing []types.FieldInfo) (string, error)
}
