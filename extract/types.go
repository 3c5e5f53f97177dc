package extract

import (
	"context"

	"github.com/bytedance/sonic"
)

// Extractor turns a free-form user message plus short conversation context
// into a partial field map. Implementations must tolerate an empty context
// (first turn). A nil map on success means nothing was extracted.
type Extractor interface {
	Extract(ctx context.Context, message, convContext string) (map[string]any, error)
}

// Partial is the tool schema for extraction output. Field names match the
// booking record's wire names; the model only fills what the user actually
// said.
type Partial struct {
	NombreSolicitante    *string  `json:"nombre_solicitante,omitempty" jsonschema:"description=Nombre completo de quien solicita el servicio"`
	CcNit                *string  `json:"cc_nit,omitempty" jsonschema:"description=Número de cédula o NIT"`
	CelularContacto      *string  `json:"celular_contacto,omitempty" jsonschema:"description=Número de celular de contacto"`
	FechaInicioServicio  *string  `json:"fecha_inicio_servicio,omitempty" jsonschema:"description=Fecha de inicio del servicio"`
	HoraInicioServicio   *string  `json:"hora_inicio_servicio,omitempty" jsonschema:"description=Hora de inicio del servicio"`
	DireccionInicio      *string  `json:"direccion_inicio,omitempty" jsonschema:"description=Dirección de recogida con ciudad"`
	DireccionTerminacion *string  `json:"direccion_terminacion,omitempty" jsonschema:"description=Dirección de destino con ciudad"`
	CantidadPasajeros    *int     `json:"cantidad_pasajeros,omitempty" jsonschema:"description=Cantidad de pasajeros"`
	EquipajeCarga        *bool    `json:"equipaje_carga,omitempty" jsonschema:"description=Si llevan equipaje o carga"`
}

// AsMap converts the typed partial to the field map consumed by
// booking.Request.Merge. Unset fields are absent from the map.
func (p *Partial) AsMap() (map[string]any, error) {
	raw, err := sonic.Marshal(p)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := sonic.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
