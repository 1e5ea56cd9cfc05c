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
	"context"
	"encoding/base64"
	"encoding/json"
	"iter"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petvoz/petvoz/agent"
	"github.com/petvoz/petvoz/agent/agenttest"
	"github.com/petvoz/petvoz/memory"
	"github.com/petvoz/petvoz/voice"
)

type fixedRecognitionModel struct {
	text string
}

func (m fixedRecognitionModel) Transcribe(context.Context, string, string) (string, error) {
	return m.text, nil
}

type fixedStreamSynthesizer struct {
	audio []byte
}

func (f fixedStreamSynthesizer) Run(context.Context, string) voice.SynthesisResult {
	return f
}

func (f fixedStreamSynthesizer) Seq() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if len(f.audio) > 0 {
			yield(f.audio)
		}
	}
}

func (f fixedStreamSynthesizer) Error() error { return nil }

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialTestServer(t *testing.T, engine agent.Engine, transcriber *voice.Transcriber, synthesizer *voice.Synthesizer) *testClient {
	t.Helper()

	runner, err := agent.NewRunner(agent.RunnerParams{
		Engine: engine,
		Memory: memory.NewInMemoryStore(memory.InMemoryStoreParams{}),
	})
	require.NoError(t, err)

	if transcriber == nil {
		transcriber = voice.NewTranscriber(voice.TranscriberParams{})
	}
	if synthesizer == nil {
		synthesizer = voice.NewSynthesizer(voice.SynthesizerParams{})
	}

	srv := httptest.NewServer(New(Params{
		Runner:      runner,
		Transcriber: transcriber,
		Synthesizer: synthesizer,
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.DialContext(t.Context(), url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(event string, data any) {
	c.t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(c.t, err)
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, frame))
}

func (c *testClient) receive() Envelope {
	c.t.Helper()
	_, message, err := c.conn.ReadMessage()
	require.NoError(c.t, err)
	var envelope Envelope
	require.NoError(c.t, json.Unmarshal(message, &envelope))
	return envelope
}

func (c *testClient) expectAck() string {
	c.t.Helper()
	envelope := c.receive()
	require.Equal(c.t, EventConnectionAck, envelope.Event)
	var ack ConnectionAck
	require.NoError(c.t, json.Unmarshal(envelope.Data, &ack))
	require.NotEmpty(c.t, ack.SID)
	return ack.SID
}

func TestServer_ConnectionAck(t *testing.T) {
	client := dialTestServer(t, agenttest.NewFakeEngine(), nil, nil)
	client.expectAck()
}

func TestServer_ChatMessage(t *testing.T) {
	engine := agenttest.NewFakeEngine(
		agenttest.DecisionResult(agent.Decision{ToolCalls: []agent.ToolCall{
			{ID: "c1", Name: "abrir_formulario_producto", Arguments: "{}"},
		}}),
		agenttest.DecisionResult(agent.Decision{Reply: "He abierto el formulario."}),
	)
	// Unknown tool: the runner feeds an error back and the engine
	// still closes the turn, exercising the transport end to end.
	client := dialTestServer(t, engine, nil, nil)
	client.expectAck()

	client.send(EventChatMessage, ChatMessage{Message: "Quiero añadir un producto"})

	envelope := client.receive()
	require.Equal(t, EventChatResponse, envelope.Event)
	var response ChatResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &response))
	assert.Equal(t, "He abierto el formulario.", response.Text)
	assert.NotNil(t, response.Actions)
}

func TestServer_VoiceInputTextOverride(t *testing.T) {
	engine := agenttest.NewFakeEngine(
		agenttest.DecisionResult(agent.Decision{Reply: "Hola."}),
	)
	client := dialTestServer(t, engine, nil, nil)
	client.expectAck()

	client.send(EventVoiceInput, VoiceInput{Text: "hola"})

	envelope := client.receive()
	require.Equal(t, EventVoiceResponse, envelope.Event)
	var response VoiceResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &response))
	assert.Equal(t, "Hola.", response.Text)
	assert.Equal(t, "hola", response.TranscribedText)
	assert.Empty(t, response.Audio, "no synthesizer voices are configured")
}

func TestServer_VoiceInputAudio(t *testing.T) {
	engine := agenttest.NewFakeEngine(
		agenttest.DecisionResult(agent.Decision{Reply: "Tenemos 3 productos."}),
	)
	transcriber := voice.NewTranscriber(voice.TranscriberParams{
		NewFallback: func() (voice.RecognitionModel, error) {
			return fixedRecognitionModel{text: "lista los productos"}, nil
		},
	})
	synthesizer := voice.NewSynthesizer(voice.SynthesizerParams{
		Fallback: fixedStreamSynthesizer{audio: []byte("mp3 bytes")},
	})
	client := dialTestServer(t, engine, transcriber, synthesizer)
	client.expectAck()

	audio := base64.StdEncoding.EncodeToString([]byte{0x1A, 0x45, 0xDF, 0xA3, 0x01, 0x02})
	client.send(EventVoiceInput, VoiceInput{Audio: audio})

	envelope := client.receive()
	require.Equal(t, EventVoiceResponse, envelope.Event)
	var response VoiceResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &response))
	assert.Equal(t, "Tenemos 3 productos.", response.Text)
	assert.Equal(t, "lista los productos", response.TranscribedText)

	decoded, err := base64.StdEncoding.DecodeString(response.Audio)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3 bytes"), decoded)

	require.Len(t, engine.Requests, 1)
	assert.Contains(t, engine.Requests[0].Input, "lista los productos")
}

func TestServer_UnintelligibleAudioSkipsEngine(t *testing.T) {
	engine := agenttest.NewFakeEngine()
	client := dialTestServer(t, engine, nil, nil)
	client.expectAck()

	audio := base64.StdEncoding.EncodeToString([]byte{0x1A, 0x45, 0xDF, 0xA3, 0x01})
	client.send(EventVoiceInput, VoiceInput{Audio: audio})

	envelope := client.receive()
	require.Equal(t, EventError, envelope.Event)
	var errEvent ErrorEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &errEvent))
	assert.Equal(t, "Could not understand audio", errEvent.Message)

	assert.Empty(t, engine.Requests, "unintelligible audio must not reach the engine")
}

func TestServer_UnknownEvent(t *testing.T) {
	client := dialTestServer(t, agenttest.NewFakeEngine(), nil, nil)
	client.expectAck()

	client.send("telemetry", map[string]any{})

	envelope := client.receive()
	assert.Equal(t, EventError, envelope.Event)
}

func TestServer_SeparateConnectionsGetSeparateSessions(t *testing.T) {
	clientA := dialTestServer(t, agenttest.NewFakeEngine(), nil, nil)
	clientB := dialTestServer(t, agenttest.NewFakeEngine(), nil, nil)

	sidA := clientA.expectAck()
	sidB := clientB.expectAck()
	assert.NotEqual(t, sidA, sidB)
}
