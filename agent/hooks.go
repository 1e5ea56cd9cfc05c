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

import "context"

// RunHooks receives callbacks for tool lifecycle events within a turn.
type RunHooks interface {
	// OnToolStart is called before a tool is invoked.
	OnToolStart(ctx context.Context, tool *FunctionTool) error

	// OnToolEnd is called after a tool is invoked, with the result that
	// will be fed back to the engine.
	OnToolEnd(ctx context.Context, tool *FunctionTool, result string) error
}

// NoOpRunHooks implements RunHooks ignoring all events.
type NoOpRunHooks struct{}

func (NoOpRunHooks) OnToolStart(context.Context, *FunctionTool) error       { return nil }
func (NoOpRunHooks) OnToolEnd(context.Context, *FunctionTool, string) error { return nil }
