package extract_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/movetics/transflow/extract"
)

func ptr[T any](v T) *T { return &v }

func TestPartialAsMap(t *testing.T) {
	partial := &extract.Partial{
		NombreSolicitante: ptr("Juan Pérez"),
		CantidadPasajeros: ptr(3),
		EquipajeCarga:     ptr(false),
	}
	fields, err := partial.AsMap()
	gt.NoError(t, err)

	gt.V(t, fields["nombre_solicitante"]).Equal(any("Juan Pérez"))
	gt.V(t, fields["cantidad_pasajeros"]).Equal(any(float64(3)))
	gt.V(t, fields["equipaje_carga"]).Equal(any(false))

	// Unset fields are absent, not null.
	_, present := fields["cc_nit"]
	gt.False(t, present)
	gt.A(t, mapKeys(fields)).Length(3)
}

func TestPartialAsMapEmpty(t *testing.T) {
	fields, err := (&extract.Partial{}).AsMap()
	gt.NoError(t, err)
	gt.V(t, len(fields)).Equal(0)
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
