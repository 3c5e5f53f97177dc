package question

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/movetics/transflow/booking"
	"github.com/movetics/transflow/structured"
	"github.com/movetics/transflow/types"
)

const questionSystemPrompt = `Eres un asistente amable de una empresa de transporte en Colombia.

Tu tarea es pedirle al usuario los datos que aún faltan para su solicitud:
- Haz una sola pregunta natural y conversacional que cubra los datos faltantes.
- Reconoce brevemente la información que ya entregó.
- No uses listas ni viñetas; escribe como en un chat.
- Responde siempre en español.`

type questionInput struct {
	Known   map[string]any
	Missing []types.FieldInfo
}

type followUp struct {
	Pregunta string `json:"pregunta" jsonschema:"required,description=Pregunta natural para pedir los datos faltantes"`
}

// ToolBased asks the chat model to phrase the follow-up question.
type ToolBased struct {
	chain *structured.Chain[questionInput, followUp]
}

func NewToolBased(chatModel model.ToolCallingChatModel) (*ToolBased, error) {
	chain, err := structured.NewChain[questionInput, followUp](
		chatModel,
		buildQuestionPrompt,
		"formular_pregunta",
		"Registra la pregunta de seguimiento para el usuario.",
	)
	if err != nil {
		return nil, err
	}
	return &ToolBased{chain: chain}, nil
}

func (g *ToolBased) Generate(ctx context.Context, known map[string]any, missing []types.FieldInfo) (string, error) {
	plan, err := g.chain.Invoke(ctx, questionInput{Known: known, Missing: missing})
	if err != nil {
		return "", err
	}
	return plan.Pregunta, nil
}

func buildQuestionPrompt(_ context.Context, input questionInput) ([]*schema.Message, error) {
	sections := []string{
		types.FormatKnownFields(input.Known, booking.FieldLabels()),
		types.FormatMissingFields(input.Missing),
	}
	return []*schema.Message{
		schema.SystemMessage(questionSystemPrompt),
		schema.UserMessage(strings.Join(sections, "\n\n")),
	}, nil
}
