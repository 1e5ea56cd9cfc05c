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

import "fmt"

// MaxStepsExceededError indicates the orchestration loop reached the
// step bound before the engine produced a final reply.
type MaxStepsExceededError error

func MaxStepsExceededErrorf(format string, a ...any) MaxStepsExceededError {
	return MaxStepsExceededError(fmt.Errorf(format, a...))
}

// ModelBehaviorError indicates unexpected engine behavior, such as a
// malformed response.
type ModelBehaviorError error

func ModelBehaviorErrorf(format string, a ...any) ModelBehaviorError {
	return ModelBehaviorError(fmt.Errorf(format, a...))
}
