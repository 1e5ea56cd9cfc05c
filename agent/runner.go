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
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/petvoz/petvoz/actions"
	"github.com/petvoz/petvoz/logging"
	"github.com/petvoz/petvoz/memory"
)

// DefaultMaxSteps bounds the number of engine round trips per turn.
const DefaultMaxSteps = 20

// Canned replies. The assistant speaks Spanish; the missing-key reply
// is intentionally in English so operators spot it in transcripts.
const (
	replyMissingAPIKey = "Error: OpenAI API Key missing."
	replyNotUnderstood = "No entendí eso."
	replyInternalError = "Lo siento, encontré un error."
)

// Runner drives one engine turn at a time: it sends the user input,
// executes requested tool calls, feeds outputs back, and stops when
// the engine produces a final reply or the step bound is hit.
type Runner struct {
	engine       Engine
	tools        []*FunctionTool
	toolsByName  map[string]*FunctionTool
	argSchemas   map[string]*gojsonschema.Schema
	memory       memory.Store
	hooks        RunHooks
	instructions string
	maxSteps     int
}

type RunnerParams struct {
	// The decision engine. A nil engine makes every turn answer with a
	// missing-key error, which keeps the rest of the system usable
	// when no API key is configured.
	Engine Engine

	// The tools exposed to the engine.
	Tools []*FunctionTool

	// Conversation store, keyed by session.
	Memory memory.Store

	// Optional extra lifecycle hooks, called in addition to the
	// per-turn action interceptor.
	Hooks RunHooks

	// Optional system prompt. Defaults to DefaultInstructions.
	Instructions string

	// Optional step bound. Defaults to DefaultMaxSteps.
	MaxSteps int
}

// NewRunner validates the tool set and compiles each tool's parameter
// schema for argument validation.
func NewRunner(params RunnerParams) (*Runner, error) {
	r := &Runner{
		engine:       params.Engine,
		tools:        params.Tools,
		toolsByName:  make(map[string]*FunctionTool, len(params.Tools)),
		argSchemas:   make(map[string]*gojsonschema.Schema, len(params.Tools)),
		memory:       params.Memory,
		hooks:        params.Hooks,
		instructions: cmp.Or(params.Instructions, DefaultInstructions),
		maxSteps:     cmp.Or(params.MaxSteps, DefaultMaxSteps),
	}
	if r.hooks == nil {
		r.hooks = NoOpRunHooks{}
	}

	for _, tool := range params.Tools {
		if _, ok := r.toolsByName[tool.Name]; ok {
			return nil, fmt.Errorf("duplicate tool name %q", tool.Name)
		}
		r.toolsByName[tool.Name] = tool

		if tool.ParamsJSONSchema == nil {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.ParamsJSONSchema))
		if err != nil {
			return nil, fmt.Errorf("invalid parameters schema for tool %q: %w", tool.Name, err)
		}
		r.argSchemas[tool.Name] = schema
	}
	return r, nil
}

// TurnResult is what a completed turn hands back to the transport
// layer: a spoken reply and the UI actions collected along the way.
type TurnResult struct {
	Reply   string
	Actions []actions.Action
}

// RunTurn processes one user utterance for the given session. It never
// returns an error: faults surface as an apologetic reply with no
// actions, matching what the user should hear.
//
// turnContext is the client's view of the UI (e.g. current form
// state), passed to the engine verbatim.
func (r *Runner) RunTurn(ctx context.Context, sessionKey, utterance string, turnContext json.RawMessage) TurnResult {
	if r.engine == nil {
		return TurnResult{Reply: replyMissingAPIKey, Actions: []actions.Action{}}
	}

	contextJSON := "{}"
	if len(turnContext) > 0 {
		contextJSON = string(turnContext)
	}
	input := utterance + "\nContext: " + contextJSON

	exchange := r.engine.StartTurn(TurnRequest{
		Instructions: r.instructions,
		History:      r.memory.History(sessionKey),
		Input:        input,
		Tools:        r.tools,
	})

	interceptor := NewActionInterceptor()
	reply, err := r.loop(ctx, exchange, interceptor)
	if err != nil {
		logging.Logger().Error("turn failed",
			slog.String("sessionKey", sessionKey),
			slog.String("error", err.Error()))
		return TurnResult{Reply: replyInternalError, Actions: []actions.Action{}}
	}
	if reply == "" {
		reply = replyNotUnderstood
	}

	r.memory.Append(sessionKey, memory.Message{Role: memory.RoleUser, Content: utterance})
	r.memory.Append(sessionKey, memory.Message{Role: memory.RoleAssistant, Content: reply})

	return TurnResult{Reply: reply, Actions: interceptor.Actions()}
}

func (r *Runner) loop(ctx context.Context, exchange Exchange, interceptor *ActionInterceptor) (string, error) {
	for step := 1; ; step++ {
		if step > r.maxSteps {
			return "", MaxStepsExceededErrorf("max steps %d exceeded", r.maxSteps)
		}

		decision, err := exchange.Next(ctx)
		if err != nil {
			return "", err
		}
		if decision.IsFinal() {
			return decision.Reply, nil
		}

		for _, call := range decision.ToolCalls {
			output, err := r.invokeTool(ctx, call, interceptor)
			if err != nil {
				return "", err
			}
			exchange.SubmitToolOutput(call, output)
		}
	}
}

// invokeTool executes one requested tool call and returns the output
// to feed back to the engine. Tool handler failures are folded into an
// error action so the UI hears about them; only hook failures abort
// the turn.
func (r *Runner) invokeTool(ctx context.Context, call ToolCall, interceptor *ActionInterceptor) (string, error) {
	tool, ok := r.toolsByName[call.Name]
	if !ok {
		logging.Logger().Warn("engine requested unknown tool", slog.String("tool", call.Name))
		return fmt.Sprintf("Herramienta desconocida: %s.", call.Name), nil
	}

	arguments := call.Arguments
	if arguments == "" {
		arguments = "{}"
	}
	if schema, ok := r.argSchemas[call.Name]; ok {
		result, err := schema.Validate(gojsonschema.NewStringLoader(arguments))
		if err != nil {
			return fmt.Sprintf("Argumentos inválidos para %s: %v.", call.Name, err), nil
		}
		if !result.Valid() {
			return fmt.Sprintf("Argumentos inválidos para %s: %v.", call.Name, result.Errors()), nil
		}
	}

	if err := r.hooks.OnToolStart(ctx, tool); err != nil {
		return "", fmt.Errorf("OnToolStart hook failed: %w", err)
	}

	output, err := tool.OnInvokeTool(ctx, arguments)
	if err != nil {
		logging.Logger().Error("tool failed",
			slog.String("tool", call.Name),
			slog.String("error", err.Error()))
		output = errorActionJSON(err)
	}

	if err := r.hooks.OnToolEnd(ctx, tool, output); err != nil {
		return "", fmt.Errorf("OnToolEnd hook failed: %w", err)
	}
	if err := interceptor.OnToolEnd(ctx, tool, output); err != nil {
		return "", err
	}
	return output, nil
}

func errorActionJSON(err error) string {
	b, e := json.Marshal(actions.Error{Message: err.Error()})
	if e != nil {
		return `{"action":"error","message":"internal error"}`
	}
	return string(b)
}
