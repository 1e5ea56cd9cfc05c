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

// Package server is the realtime transport boundary: a websocket
// endpoint carrying JSON event frames between the browser client and
// the assistant core.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/petvoz/petvoz/agent"
	"github.com/petvoz/petvoz/logging"
	"github.com/petvoz/petvoz/metrics"
	"github.com/petvoz/petvoz/voice"
)

// Server upgrades HTTP requests to websocket connections and runs one
// event loop per connection. Events of a single connection are
// processed sequentially in arrival order; the session memory relies
// on this serialization. Separate connections run concurrently.
type Server struct {
	runner      *agent.Runner
	transcriber *voice.Transcriber
	synthesizer *voice.Synthesizer
	upgrader    websocket.Upgrader
}

type Params struct {
	Runner      *agent.Runner
	Transcriber *voice.Transcriber
	Synthesizer *voice.Synthesizer
}

func New(params Params) *Server {
	return &Server{
		runner:      params.Runner,
		transcriber: params.Transcriber,
		synthesizer: params.Synthesizer,
		upgrader: websocket.Upgrader{
			// The browser client is served from another origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger().Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logging.Logger().Warn("error closing websocket", slog.String("error", err.Error()))
		}
	}()

	// The connection id doubles as the session memory key.
	sid := uuid.NewString()
	logger := logging.Logger().With(slog.String("sid", sid))
	logger.Info("client connected")

	s.writeEvent(conn, EventConnectionAck, ConnectionAck{SID: sid})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", slog.String("error", err.Error()))
			} else {
				logger.Info("client disconnected")
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			s.writeEvent(conn, EventError, ErrorEvent{Message: "malformed frame"})
			continue
		}

		switch envelope.Event {
		case EventVoiceInput:
			s.handleVoiceInput(r.Context(), conn, sid, envelope.Data, logger)
		case EventChatMessage:
			s.handleChatMessage(r.Context(), conn, sid, envelope.Data, logger)
		default:
			s.writeEvent(conn, EventError, ErrorEvent{Message: "unknown event: " + envelope.Event})
		}
	}
}

func (s *Server) handleVoiceInput(ctx context.Context, conn *websocket.Conn, sid string, data json.RawMessage, logger *slog.Logger) {
	var input VoiceInput
	if err := json.Unmarshal(data, &input); err != nil {
		s.writeEvent(conn, EventError, ErrorEvent{Message: "malformed voice_input payload"})
		return
	}

	userText := input.Text
	if input.Audio != "" {
		audioData, err := base64.StdEncoding.DecodeString(input.Audio)
		if err != nil {
			s.writeEvent(conn, EventError, ErrorEvent{Message: "invalid audio encoding"})
			return
		}
		userText = s.transcriber.SpeechToText(ctx, audioData)
	}

	// Unintelligible audio never reaches the engine.
	if userText == "" {
		s.writeEvent(conn, EventError, ErrorEvent{Message: "Could not understand audio"})
		return
	}
	logger.Info("voice input transcribed", slog.String("text", userText))

	result := s.runner.RunTurn(ctx, sid, userText, input.Context)
	metrics.Turns.WithLabelValues("voice").Inc()

	response := VoiceResponse{
		Text:            result.Reply,
		TranscribedText: userText,
		Actions:         result.Actions,
	}
	if audioData := s.synthesizer.TextToSpeech(ctx, result.Reply); len(audioData) > 0 {
		response.Audio = base64.StdEncoding.EncodeToString(audioData)
	}
	s.writeEvent(conn, EventVoiceResponse, response)
}

func (s *Server) handleChatMessage(ctx context.Context, conn *websocket.Conn, sid string, data json.RawMessage, logger *slog.Logger) {
	var input ChatMessage
	if err := json.Unmarshal(data, &input); err != nil {
		s.writeEvent(conn, EventError, ErrorEvent{Message: "malformed chat_message payload"})
		return
	}
	logger.Info("chat message", slog.String("text", input.Message))

	result := s.runner.RunTurn(ctx, sid, input.Message, input.Context)
	metrics.Turns.WithLabelValues("chat").Inc()

	s.writeEvent(conn, EventChatResponse, ChatResponse{
		Text:    result.Reply,
		Actions: result.Actions,
	})
}

// writeEvent sends one frame. Only the read loop writes, so no write
// lock is needed.
func (s *Server) writeEvent(conn *websocket.Conn, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		logging.Logger().Error("failed to marshal event payload",
			slog.String("event", event), slog.String("error", err.Error()))
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		logging.Logger().Error("failed to marshal event frame",
			slog.String("event", event), slog.String("error", err.Error()))
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		logging.Logger().Warn("failed to write event",
			slog.String("event", event), slog.String("error", err.Error()))
	}
}
