// Package structured forces a chat model to answer through a single tool
// call and decodes the arguments into a typed value. Every collaborator in
// this repository is one of these chains with a different output type.
package structured

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/m-mizutani/goerr/v2"
)

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

type Chain[TInput, TOutput any] struct {
	promptBuilder PromptBuilder[TInput]
	chatModel     model.ToolCallingChatModel
	toolInfo      *schema.ToolInfo
}

// NewChain derives the tool schema from TOutput's struct tags and binds it to
// the chat model with forced tool choice.
func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolName string,
	toolDesc string,
) (*Chain[TInput, TOutput], error) {
	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, goerr.Wrap(err, "convert tool info", goerr.V("tool", toolName))
	}
	return &Chain[TInput, TOutput]{
		promptBuilder: promptBuilder,
		chatModel:     chatModel,
		toolInfo:      toolInfo,
	}, nil
}

// Invoke builds the prompt, calls the model, and decodes the forced tool
// call. A response without a tool call is an error; nothing is guessed from
// free text.
func (c *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	messages, err := c.promptBuilder(ctx, input)
	if err != nil {
		return nil, goerr.Wrap(err, "build prompt")
	}

	response, err := c.chatModel.Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{c.toolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, c.toolInfo.Name),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "call model", goerr.V("tool", c.toolInfo.Name))
	}
	if len(response.ToolCalls) == 0 {
		return nil, goerr.New("no tool call in model response",
			goerr.V("tool", c.toolInfo.Name),
			goerr.V("content", response.Content),
		)
	}

	var result TOutput
	if err := sonic.UnmarshalString(response.ToolCalls[0].Function.Arguments, &result); err != nil {
		return nil, goerr.Wrap(err, "parse tool call arguments",
			goerr.V("tool", c.toolInfo.Name),
			goerr.V("arguments", response.ToolCalls[0].Function.Arguments),
		)
	}
	return &result, nil
}
