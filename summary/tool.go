package summary

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/movetics/transflow/booking"
	"github.com/movetics/transflow/structured"
	"github.com/movetics/transflow/types"
)

const summarySystemPrompt = `Eres un asistente de una empresa de transporte en Colombia.

Redacta la confirmación final de una solicitud de servicio:
- Resume todos los datos entregados de forma clara y ordenada.
- Confirma que la solicitud fue recibida y será procesada.
- Usa un tono cordial y profesional, en español.`

type confirmation struct {
	Resumen string `json:"resumen" jsonschema:"required,description=Confirmación legible de la solicitud completa"`
}

// ToolBased phrases the confirmation through the chat model.
type ToolBased struct {
	chain *structured.Chain[map[string]any, confirmation]
}

func NewToolBased(chatModel model.ToolCallingChatModel) (*ToolBased, error) {
	chain, err := structured.NewChain[map[string]any, confirmation](
		chatModel,
		buildSummaryPrompt,
		"confirmar_solicitud",
		"Registra la confirmación final de la solicitud de transporte.",
	)
	if err != nil {
		return nil, err
	}
	return &ToolBased{chain: chain}, nil
}

func (s *ToolBased) Summarize(ctx context.Context, fields map[string]any) (string, error) {
	result, err := s.chain.Invoke(ctx, fields)
	if err != nil {
		return "", err
	}
	return result.Resumen, nil
}

func buildSummaryPrompt(_ context.Context, fields map[string]any) ([]*schema.Message, error) {
	return []*schema.Message{
		schema.SystemMessage(summarySystemPrompt),
		schema.UserMessage(types.FormatKnownFields(fields, booking.FieldLabels())),
	}, nil
}
