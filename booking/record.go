package booking

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/movetics/transflow/errs"
	"github.com/movetics/transflow/types"
)

// Request is a partially-filled transportation booking request. Fields stay
// nil until a merge fills them; pointer-ness is the "unset" marker that
// drives MissingFields.
type Request struct {
	NombreSolicitante    *string `json:"nombre_solicitante,omitempty"`
	CcNit                *string `json:"cc_nit,omitempty"`
	CelularContacto      *string `json:"celular_contacto,omitempty"`
	FechaInicioServicio  *string `json:"fecha_inicio_servicio,omitempty"`
	HoraInicioServicio   *string `json:"hora_inicio_servicio,omitempty"`
	DireccionInicio      *string `json:"direccion_inicio,omitempty"`
	DireccionTerminacion *string `json:"direccion_terminacion,omitempty"`
	CantidadPasajeros    *int    `json:"cantidad_pasajeros,omitempty"`
	EquipajeCarga        *bool   `json:"equipaje_carga,omitempty"`
	RawMessage           string  `json:"raw_message"`
}

type fieldDef struct {
	name        string
	label       string
	description string
	required    bool
	set         func(r *Request, v any) error
	get         func(r *Request) (any, bool)
}

// registry enumerates every mergeable field in declaration order. The order
// is the tie-break for MissingFields, so question generation stays
// deterministic across turns.
var registry = []fieldDef{
	{
		name: "nombre_solicitante", label: "nombre completo", required: true,
		set: setText(func(r *Request) **string { return &r.NombreSolicitante }),
		get: getText(func(r *Request) *string { return r.NombreSolicitante }),
	},
	{
		name: "cc_nit", label: "cédula o NIT", required: true,
		set: setText(func(r *Request) **string { return &r.CcNit }),
		get: getText(func(r *Request) *string { return r.CcNit }),
	},
	{
		name: "celular_contacto", label: "número de celular", required: true,
		description: "se normaliza al formato +57",
		set: func(r *Request, v any) error {
			s, err := coerceText(v)
			if err != nil {
				return err
			}
			normalized := NormalizePhone(s)
			r.CelularContacto = &normalized
			return nil
		},
		get: getText(func(r *Request) *string { return r.CelularContacto }),
	},
	{
		name: "fecha_inicio_servicio", label: "fecha del servicio", required: true,
		set: setText(func(r *Request) **string { return &r.FechaInicioServicio }),
		get: getText(func(r *Request) *string { return r.FechaInicioServicio }),
	},
	{
		name: "hora_inicio_servicio", label: "hora de inicio", required: true,
		set: setText(func(r *Request) **string { return &r.HoraInicioServicio }),
		get: getText(func(r *Request) *string { return r.HoraInicioServicio }),
	},
	{
		name: "direccion_inicio", label: "dirección de recogida", required: true,
		set: setText(func(r *Request) **string { return &r.DireccionInicio }),
		get: getText(func(r *Request) *string { return r.DireccionInicio }),
	},
	{
		name: "direccion_terminacion", label: "dirección de destino", required: false,
		set: setText(func(r *Request) **string { return &r.DireccionTerminacion }),
		get: getText(func(r *Request) *string { return r.DireccionTerminacion }),
	},
	{
		name: "cantidad_pasajeros", label: "cantidad de pasajeros", required: true,
		description: "entero positivo",
		set: func(r *Request, v any) error {
			n, err := coercePositiveInt(v)
			if err != nil {
				return err
			}
			r.CantidadPasajeros = &n
			return nil
		},
		get: func(r *Request) (any, bool) {
			if r.CantidadPasajeros == nil {
				return nil, false
			}
			return *r.CantidadPasajeros, true
		},
	},
	{
		name: "equipaje_carga", label: "si llevan equipaje", required: false,
		set: func(r *Request, v any) error {
			b, err := coerceBool(v)
			if err != nil {
				return err
			}
			r.EquipajeCarga = &b
			return nil
		},
		get: func(r *Request) (any, bool) {
			if r.EquipajeCarga == nil {
				return nil, false
			}
			return *r.EquipajeCarga, true
		},
	},
}

func setText(field func(r *Request) **string) func(r *Request, v any) error {
	return func(r *Request, v any) error {
		s, err := coerceText(v)
		if err != nil {
			return err
		}
		*field(r) = &s
		return nil
	}
}

func getText(field func(r *Request) *string) func(r *Request) (any, bool) {
	return func(r *Request) (any, bool) {
		p := field(r)
		if p == nil {
			return nil, false
		}
		return *p, true
	}
}

// Merge applies a partial field map to the request, last write wins. Unknown
// keys and nil values are skipped silently. A value that cannot be coerced to
// the field's type leaves that field untouched and is reported in the
// returned error (tagged field_coercion); all other entries still apply. The
// returned slice names the fields that were actually written, in registry
// order.
func (r *Request) Merge(partial map[string]any) ([]string, error) {
	if len(partial) == 0 {
		return nil, nil
	}
	var applied []string
	var coercionErrs []error
	for _, def := range registry {
		value, ok := partial[def.name]
		if !ok || value == nil {
			continue
		}
		if err := def.set(r, value); err != nil {
			coercionErrs = append(coercionErrs, goerr.Wrap(err,
				"cannot coerce field value",
				goerr.Tag(errs.TagFieldCoercion),
				goerr.TV(errs.FieldKey, def.name),
				goerr.V("value", value),
			))
			continue
		}
		applied = append(applied, def.name)
	}
	return applied, errors.Join(coercionErrs...)
}

// MissingFields returns the names of mandatory fields still unset, in
// registry order.
func (r *Request) MissingFields() []string {
	var missing []string
	for _, def := range registry {
		if !def.required {
			continue
		}
		if _, ok := def.get(r); !ok {
			missing = append(missing, def.name)
		}
	}
	return missing
}

func (r *Request) IsComplete() bool {
	return len(r.MissingFields()) == 0
}

// Known returns the currently-set fields as a name→value map, excluding the
// raw originating message.
func (r *Request) Known() map[string]any {
	known := make(map[string]any)
	for _, def := range registry {
		if value, ok := def.get(r); ok {
			known[def.name] = value
		}
	}
	return known
}

// Clone returns a deep copy. Results handed to callers carry a clone so the
// stored record cannot be mutated from outside the session lock.
func (r *Request) Clone() *Request {
	clone := &Request{RawMessage: r.RawMessage}
	clone.NombreSolicitante = cloneVal(r.NombreSolicitante)
	clone.CcNit = cloneVal(r.CcNit)
	clone.CelularContacto = cloneVal(r.CelularContacto)
	clone.FechaInicioServicio = cloneVal(r.FechaInicioServicio)
	clone.HoraInicioServicio = cloneVal(r.HoraInicioServicio)
	clone.DireccionInicio = cloneVal(r.DireccionInicio)
	clone.DireccionTerminacion = cloneVal(r.DireccionTerminacion)
	clone.CantidadPasajeros = cloneVal(r.CantidadPasajeros)
	clone.EquipajeCarga = cloneVal(r.EquipajeCarga)
	return clone
}

func cloneVal[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// FieldOrder returns every mergeable field name in declaration order.
func FieldOrder() []string {
	names := make([]string, 0, len(registry))
	for _, def := range registry {
		names = append(names, def.name)
	}
	return names
}

// FieldLabels maps field names to their Spanish display labels.
func FieldLabels() map[string]string {
	labels := make(map[string]string, len(registry))
	for _, def := range registry {
		labels[def.name] = def.label
	}
	return labels
}

// FieldInfos returns prompt metadata for the named fields, preserving order.
func FieldInfos(names []string) []types.FieldInfo {
	byName := make(map[string]fieldDef, len(registry))
	for _, def := range registry {
		byName[def.name] = def
	}
	infos := make([]types.FieldInfo, 0, len(names))
	for _, name := range names {
		def, ok := byName[name]
		if !ok {
			continue
		}
		infos = append(infos, types.FieldInfo{
			Name:        def.name,
			Label:       def.label,
			Description: def.description,
			Required:    def.required,
		})
	}
	return infos
}

// NormalizePhone strips spaces and dashes and prefixes bare 10-digit numbers
// with the Colombian dialing code. Already-prefixed numbers pass through.
func NormalizePhone(phone string) string {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(phone)
	if !strings.HasPrefix(cleaned, "+57") && len(cleaned) == 10 {
		return "+57" + cleaned
	}
	return cleaned
}

func coerceText(v any) (string, error) {
	switch value := v.(type) {
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return "", fmt.Errorf("empty string")
		}
		return trimmed, nil
	case float64:
		// JSON numbers arrive as float64; ID numbers are commonly extracted
		// as numerics, so render integral values back to text.
		if value == math.Trunc(value) {
			return strconv.FormatInt(int64(value), 10), nil
		}
		return strconv.FormatFloat(value, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(value), nil
	case int64:
		return strconv.FormatInt(value, 10), nil
	default:
		return "", fmt.Errorf("expected text, got %T", v)
	}
}

func coercePositiveInt(v any) (int, error) {
	var n int
	switch value := v.(type) {
	case float64:
		if value != math.Trunc(value) {
			return 0, fmt.Errorf("expected integer, got %v", value)
		}
		n = int(value)
	case int:
		n = value
	case int64:
		n = int(value)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", value)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
	if n <= 0 {
		return 0, fmt.Errorf("passenger count must be positive, got %d", n)
	}
	return n, nil
}

func coerceBool(v any) (bool, error) {
	switch value := v.(type) {
	case bool:
		return value, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "sí", "si", "yes":
			return true, nil
		case "false", "no":
			return false, nil
		}
		return false, fmt.Errorf("expected boolean, got %q", value)
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
