package types

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// FormatKnownFields renders the already-collected fields as a markdown table
// for inclusion in collaborator prompts.
func FormatKnownFields(known map[string]any, labels map[string]string) string {
	if len(known) == 0 {
		return "# Datos conocidos:\nninguno"
	}
	var buf strings.Builder
	buf.WriteString("# Datos conocidos:\n")
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Campo", "Valor")
	for _, name := range names {
		label := labels[name]
		if label == "" {
			label = name
		}
		_ = table.Append(label, fmt.Sprintf("%v", known[name]))
	}
	_ = table.Render()
	return buf.String()
}

// FormatMissingFields renders the still-needed fields as a bullet list.
func FormatMissingFields(missing []FieldInfo) string {
	if len(missing) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Datos faltantes:\n")
	for _, field := range missing {
		buf.WriteString("- ")
		buf.WriteString(field.Label)
		if field.Description != "" {
			buf.WriteString(": ")
			buf.WriteString(field.Description)
		}
		buf.WriteString("\n")
	}
	return strings.TrimRight(buf.String(), "\n")
}

// FormatContext renders recent history entries as "role: text" lines in
// chronological order, the shape fed to the extractor.
func FormatContext(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Text))
	}
	return strings.Join(lines, "\n")
}

// FormatDateHeader is the current-date section prepended to extraction
// prompts so relative dates ("mañana") can be resolved by the model.
func FormatDateHeader(now time.Time) string {
	return fmt.Sprintf("# Fecha actual:\n%s", now.Format(time.RFC3339))
}
