package booking_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/movetics/transflow/booking"
)

func TestApplyMergePatch(t *testing.T) {
	req := &booking.Request{}
	patch := []byte(`{"nombre_solicitante":"Ana Gómez","celular_contacto":"3019876543"}`)

	seeded, err := req.ApplyMergePatch(patch)
	gt.NoError(t, err)
	gt.V(t, *seeded.NombreSolicitante).Equal("Ana Gómez")
	gt.V(t, *seeded.CelularContacto).Equal("+573019876543")

	// The receiver stays untouched.
	gt.V(t, req.NombreSolicitante).Nil()
}

func TestApplyMergePatchOverwrites(t *testing.T) {
	req := &booking.Request{}
	mustMerge(t, req, map[string]any{"direccion_inicio": "Calle 10"})

	seeded, err := req.ApplyMergePatch([]byte(`{"direccion_inicio":"Aeropuerto El Dorado"}`))
	gt.NoError(t, err)
	gt.V(t, *seeded.DireccionInicio).Equal("Aeropuerto El Dorado")
}

func TestApplyMergePatchInvalid(t *testing.T) {
	req := &booking.Request{}
	_, err := req.ApplyMergePatch([]byte(`{not json`))
	gt.Error(t, err)

	_, err = req.ApplyMergePatch([]byte(`{"cantidad_pasajeros":"muchos"}`))
	gt.Error(t, err)
}
