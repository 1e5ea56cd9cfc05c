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

// FunctionTool wraps a function so the engine can call it.
type FunctionTool struct {
	// The name of the tool, as shown to the engine.
	Name string

	// A description of the tool, as shown to the engine.
	Description string

	// The JSON schema for the tool's parameters.
	ParamsJSONSchema map[string]any

	// A function that invokes the tool with the given context and
	// parameters. The parameters passed are a JSON string.
	// The result is fed back to the engine verbatim.
	OnInvokeTool func(ctx context.Context, arguments string) (string, error)
}
