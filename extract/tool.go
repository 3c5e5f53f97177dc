package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/movetics/transflow/structured"
	"github.com/movetics/transflow/types"
)

const extractionSystemPrompt = `Eres un asistente que extrae datos de solicitudes de transporte en Colombia.

Reglas:
- Extrae únicamente la información que el usuario menciona explícitamente.
- No inventes ni completes datos que no aparecen en el mensaje o el contexto.
- Resuelve fechas relativas ("mañana", "el próximo lunes") usando la fecha actual.
- Deja sin llenar todo campo del que no haya información.
- Llama siempre a la herramienta extraer_datos, aunque no haya nada que extraer.`

type extractionInput struct {
	Message string
	Context string
}

// ToolBased extracts booking fields via a forced tool call against an
// OpenAI-compatible chat model.
type ToolBased struct {
	chain *structured.Chain[extractionInput, Partial]
}

func NewToolBased(chatModel model.ToolCallingChatModel) (*ToolBased, error) {
	chain, err := structured.NewChain[extractionInput, Partial](
		chatModel,
		buildExtractionPrompt,
		"extraer_datos",
		"Registra los datos de la solicitud de transporte mencionados por el usuario.",
	)
	if err != nil {
		return nil, err
	}
	return &ToolBased{chain: chain}, nil
}

func (e *ToolBased) Extract(ctx context.Context, message, convContext string) (map[string]any, error) {
	partial, err := e.chain.Invoke(ctx, extractionInput{Message: message, Context: convContext})
	if err != nil {
		return nil, err
	}
	return partial.AsMap()
}

func buildExtractionPrompt(_ context.Context, input extractionInput) ([]*schema.Message, error) {
	sections := []string{types.FormatDateHeader(time.Now())}
	if input.Context != "" {
		sections = append(sections, fmt.Sprintf("# Contexto de la conversación:\n%s", input.Context))
	}
	sections = append(sections, fmt.Sprintf("# Mensaje del usuario:\n%s", input.Message))
	return []*schema.Message{
		schema.SystemMessage(extractionSystemPrompt),
		schema.UserMessage(strings.Join(sections, "\n\n")),
	}, nil
}
