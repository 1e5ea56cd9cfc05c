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

// Package memory stores per-session conversation history, allowing the
// agent to maintain context across turns without explicit manual memory
// management.
package memory

// Roles of conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a session's conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// A Store keeps ordered conversation history per session key.
//
// History is append-only: no operation removes or rewrites entries of a
// live session. An unknown key has an empty history.
type Store interface {
	// Append adds a message at the end of the session's history,
	// creating the session on first use.
	Append(sessionKey string, msg Message)

	// History returns the session's messages in append order.
	// The returned slice is a copy owned by the caller.
	History(sessionKey string) []Message
}
