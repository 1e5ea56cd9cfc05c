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

package server

import (
	"encoding/json"

	"github.com/petvoz/petvoz/actions"
)

// Event names carried in websocket frames.
const (
	EventConnectionAck = "connection_ack"
	EventVoiceInput    = "voice_input"
	EventChatMessage   = "chat_message"
	EventVoiceResponse = "voice_response"
	EventChatResponse  = "chat_response"
	EventError         = "error"
)

// Envelope is one websocket frame: an event name plus its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// VoiceInput carries a recorded utterance, or a text override, plus
// the client's UI context. Audio is base64-encoded.
type VoiceInput struct {
	Audio   string          `json:"audio,omitempty"`
	Text    string          `json:"text,omitempty"`
	Context json.RawMessage `json:"context,omitempty"`
}

// ChatMessage carries a typed utterance plus the client's UI context.
type ChatMessage struct {
	Message string          `json:"message"`
	Context json.RawMessage `json:"context,omitempty"`
}

// VoiceResponse answers a VoiceInput. Audio is base64-encoded and
// omitted when no voice could synthesize the reply.
type VoiceResponse struct {
	Text            string           `json:"text"`
	Audio           string           `json:"audio,omitempty"`
	TranscribedText string           `json:"transcribed_text"`
	Actions         []actions.Action `json:"actions"`
}

// ChatResponse answers a ChatMessage.
type ChatResponse struct {
	Text    string           `json:"text"`
	Actions []actions.Action `json:"actions"`
}

// ErrorEvent reports a failure the client should surface.
type ErrorEvent struct {
	Message string `json:"message"`
}

// ConnectionAck hands the client its session identifier.
type ConnectionAck struct {
	SID string `json:"sid"`
}
