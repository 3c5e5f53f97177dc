package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"

	"github.com/movetics/transflow/booking"
)

// Local renders the confirmation as a markdown table without calling a
// model. Used standalone in tests and as the failback behind ToolBased.
type Local struct{}

func (Local) Summarize(_ context.Context, fields map[string]any) (string, error) {
	labels := booking.FieldLabels()
	var buf strings.Builder
	buf.WriteString("Tu solicitud de transporte quedó registrada con los siguientes datos:\n\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Campo", "Valor")
	for _, def := range booking.FieldOrder() {
		value, ok := fields[def]
		if !ok {
			continue
		}
		label := labels[def]
		if label == "" {
			label = def
		}
		_ = table.Append(label, fmt.Sprintf("%v", value))
	}
	if err := table.Render(); err != nil {
		return "", err
	}
	buf.WriteString("\nPronto nos pondremos en contacto para confirmar el servicio.")
	return buf.String(), nil
}
