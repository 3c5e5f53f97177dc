package summary_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/movetics/transflow/summary"
)

func TestLocalSummary(t *testing.T) {
	text, err := summary.Local{}.Summarize(context.Background(), map[string]any{
		"nombre_solicitante": "Ana Gómez",
		"cc_nit":             "555",
		"cantidad_pasajeros": 2,
		"equipaje_carga":     true,
	})
	gt.NoError(t, err)

	gt.S(t, text).Contains("| Campo")
	gt.S(t, text).Contains("Ana Gómez")
	gt.S(t, text).Contains("555")
	gt.S(t, text).Contains("2")
	gt.S(t, text).Contains("true")
	// Unknown fields stay out of the confirmation.
	gt.S(t, text).NotContains("direccion_terminacion")
}

func TestLocalSummaryEmpty(t *testing.T) {
	text, err := summary.Local{}.Summarize(context.Background(), nil)
	gt.NoError(t, err)
	gt.V(t, text).NotEqual("")
}

func TestFailbackEmpty(t *testing.T) {
	_, err := summary.NewFailback().Summarize(context.Background(), nil)
	gt.Error(t, err)
}
