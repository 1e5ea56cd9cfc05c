// Copyright 2025 The PetVoz Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agent

import (
	"cmp"
	"context"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"

	"github.com/petvoz/petvoz/memory"
)

// DefaultModel is used when no model is configured.
const DefaultModel = shared.ChatModel("gpt-4o-mini")

// OpenAIEngine implements Engine on the OpenAI chat completions API.
type OpenAIEngine struct {
	client *openai.Client
	model  shared.ChatModel
}

type OpenAIEngineParams struct {
	// The OpenAI client to use.
	Client *openai.Client

	// Optional model name. Defaults to DefaultModel.
	Model shared.ChatModel
}

func NewOpenAIEngine(params OpenAIEngineParams) *OpenAIEngine {
	return &OpenAIEngine{
		client: params.Client,
		model:  cmp.Or(params.Model, DefaultModel),
	}
}

func (e *OpenAIEngine) StartTurn(req TurnRequest) Exchange {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	for _, msg := range req.History {
		switch msg.Role {
		case memory.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.Input))

	var tools []openai.ChatCompletionToolUnionParam
	for _, tool := range req.Tools {
		tools = append(tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        tool.Name,
			Description: openai.String(tool.Description),
			Parameters:  shared.FunctionParameters(tool.ParamsJSONSchema),
		}))
	}

	return &openAIExchange{
		client:   e.client,
		model:    e.model,
		messages: messages,
		tools:    tools,
	}
}

type openAIExchange struct {
	client   *openai.Client
	model    shared.ChatModel
	messages []openai.ChatCompletionMessageParamUnion
	tools    []openai.ChatCompletionToolUnionParam
}

func (e *openAIExchange) Next(ctx context.Context) (*Decision, error) {
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    e.model,
		Messages: e.messages,
		Tools:    e.tools,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ModelBehaviorErrorf("chat completion has no choices")
	}

	message := resp.Choices[0].Message
	e.messages = append(e.messages, message.ToParam())

	decision := &Decision{Reply: message.Content}
	for _, tc := range message.ToolCalls {
		decision.ToolCalls = append(decision.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return decision, nil
}

func (e *openAIExchange) SubmitToolOutput(call ToolCall, output string) {
	e.messages = append(e.messages, openai.ToolMessage(output, call.ID))
}
