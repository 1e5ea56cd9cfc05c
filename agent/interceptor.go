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
	"context"

	"github.com/petvoz/petvoz/actions"
)

// ActionInterceptor collects the UI actions emitted by tool handlers
// during one turn. Handlers encode actions as the JSON result fed back
// to the engine; the interceptor decodes each result as it passes by,
// skipping results that do not carry an action.
//
// One interceptor serves one turn. It is not safe for concurrent use.
type ActionInterceptor struct {
	NoOpRunHooks
	actions []actions.Action
}

func NewActionInterceptor() *ActionInterceptor {
	return &ActionInterceptor{}
}

func (i *ActionInterceptor) OnToolEnd(_ context.Context, _ *FunctionTool, result string) error {
	if action, ok := actions.Decode(result); ok {
		i.actions = append(i.actions, action)
	}
	return nil
}

// Actions returns the collected actions in emission order.
// The result is never nil.
func (i *ActionInterceptor) Actions() []actions.Action {
	out := make([]actions.Action, len(i.actions))
	copy(out, i.actions)
	return out
}
