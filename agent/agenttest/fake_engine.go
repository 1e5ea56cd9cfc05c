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

// Package agenttest provides a scripted engine for testing the
// orchestration loop without a live model.
package agenttest

import (
	"context"
	"sync"

	"github.com/petvoz/petvoz/agent"
)

// NextResult is one scripted answer of the fake engine.
type NextResult struct {
	Decision *agent.Decision
	Err      error
}

// DecisionResult scripts a successful engine step.
func DecisionResult(d agent.Decision) NextResult {
	return NextResult{Decision: &d}
}

// ErrorResult scripts an engine fault.
func ErrorResult(err error) NextResult {
	return NextResult{Err: err}
}

// FakeEngine replays a queue of scripted results and records what the
// runner sends it.
type FakeEngine struct {
	mu    sync.Mutex
	queue []NextResult

	// Requests holds every TurnRequest passed to StartTurn.
	Requests []agent.TurnRequest

	// Submitted holds every tool output fed back, in order.
	Submitted []Submission
}

// Submission is one recorded tool output.
type Submission struct {
	Call   agent.ToolCall
	Output string
}

func NewFakeEngine(results ...NextResult) *FakeEngine {
	return &FakeEngine{queue: results}
}

// Enqueue appends further scripted results. Useful for multi-turn
// tests where each turn consumes part of the queue.
func (f *FakeEngine) Enqueue(results ...NextResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, results...)
}

func (f *FakeEngine) StartTurn(req agent.TurnRequest) agent.Exchange {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, req)
	return &fakeExchange{engine: f}
}

type fakeExchange struct {
	engine *FakeEngine
}

func (e *fakeExchange) Next(context.Context) (*agent.Decision, error) {
	f := e.engine
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, agent.ModelBehaviorErrorf("fake engine queue is empty")
	}
	result := f.queue[0]
	f.queue = f.queue[1:]
	if result.Err != nil {
		return nil, result.Err
	}
	return result.Decision, nil
}

func (e *fakeExchange) SubmitToolOutput(call agent.ToolCall, output string) {
	f := e.engine
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Submitted = append(f.Submitted, Submission{Call: call, Output: output})
}
