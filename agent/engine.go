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

// Package agent runs the conversational orchestration loop: it feeds
// user input to a decision engine, executes the tool calls the engine
// requests, and loops until the engine settles on a final reply.
package agent

import (
	"context"

	"github.com/petvoz/petvoz/memory"
)

// ToolCall is one tool invocation requested by the engine.
type ToolCall struct {
	// Opaque identifier correlating the call with its output.
	ID string

	// The name of the tool to invoke.
	Name string

	// JSON-encoded arguments.
	Arguments string
}

// Decision is one engine step: either a batch of tool calls to
// execute, or a final reply.
type Decision struct {
	ToolCalls []ToolCall
	Reply     string
}

// IsFinal reports whether the decision ends the turn.
func (d *Decision) IsFinal() bool { return len(d.ToolCalls) == 0 }

// TurnRequest is everything the engine needs to start a turn.
type TurnRequest struct {
	Instructions string
	History      []memory.Message
	Input        string
	Tools        []*FunctionTool
}

// Engine produces decisions for a turn.
type Engine interface {
	StartTurn(req TurnRequest) Exchange
}

// Exchange is one in-flight turn with the engine. Callers alternate
// between Next and SubmitToolOutput until Next yields a final decision.
type Exchange interface {
	// Next asks the engine for its next decision. All tool outputs for
	// the previous decision must have been submitted first.
	Next(ctx context.Context) (*Decision, error)

	// SubmitToolOutput records the result of one requested tool call.
	SubmitToolOutput(call ToolCall, output string)
}
