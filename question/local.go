package question

import (
	"context"
	"strings"

	"github.com/movetics/transflow/types"
)

// Local is a template-based generator that needs no model. It serves as the
// fallback when the LLM generator is unreachable.
type Local struct{}

func (Local) Generate(_ context.Context, _ map[string]any, missing []types.FieldInfo) (string, error) {
	if len(missing) == 0 {
		return "¿Hay algo más que quieras agregar a tu solicitud?", nil
	}
	labels := make([]string, 0, len(missing))
	for _, field := range missing {
		labels = append(labels, field.Label)
	}
	var list string
	if len(labels) == 1 {
		list = labels[0]
	} else {
		list = strings.Join(labels[:len(labels)-1], ", ") + " y " + labels[len(labels)-1]
	}
	return "Para continuar con tu solicitud, ¿me puedes indicar " + list + "?", nil
}
