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

package voice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// webmAudio is a minimal payload carrying the EBML magic so it is
// treated as an already containerized recording.
var webmAudio = []byte{0x1A, 0x45, 0xDF, 0xA3, 0x01, 0x02, 0x03, 0x04}

type fakeRecognitionModel struct {
	text  string
	err   error
	calls int
	paths []string
}

func (m *fakeRecognitionModel) Transcribe(_ context.Context, audioPath, language string) (string, error) {
	m.calls++
	m.paths = append(m.paths, audioPath)
	if language != "es" {
		return "", errors.New("unexpected language " + language)
	}
	return m.text, m.err
}

func newSTTServer(t *testing.T, status int, text string) *openai.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/audio/transcriptions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"text":"` + text + `"}`))
	}))
	t.Cleanup(server.Close)

	client := openai.NewClient(
		option.WithBaseURL(server.URL),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return &client
}

func TestTranscriber_Primary(t *testing.T) {
	model := &fakeRecognitionModel{text: "nunca"}
	tr := NewTranscriber(TranscriberParams{
		Client:      newSTTServer(t, http.StatusOK, "Quiero añadir un producto"),
		NewFallback: func() (RecognitionModel, error) { return model, nil },
	})

	text := tr.SpeechToText(t.Context(), webmAudio)
	assert.Equal(t, "Quiero añadir un producto", text)
	assert.Zero(t, model.calls, "fallback must not run when the primary succeeds")
}

func TestTranscriber_FallbackOnPrimaryFailure(t *testing.T) {
	model := &fakeRecognitionModel{text: "lista los productos"}
	created := 0
	tr := NewTranscriber(TranscriberParams{
		Client: newSTTServer(t, http.StatusInternalServerError, ""),
		NewFallback: func() (RecognitionModel, error) {
			created++
			return model, nil
		},
	})

	assert.Equal(t, "lista los productos", tr.SpeechToText(t.Context(), webmAudio))
	assert.Equal(t, "lista los productos", tr.SpeechToText(t.Context(), webmAudio))

	assert.Equal(t, 2, model.calls)
	assert.Equal(t, 1, created, "fallback model must be created once per process")
}

func TestTranscriber_NoClientGoesStraightToFallback(t *testing.T) {
	model := &fakeRecognitionModel{text: "hola"}
	tr := NewTranscriber(TranscriberParams{
		NewFallback: func() (RecognitionModel, error) { return model, nil },
	})

	assert.Equal(t, "hola", tr.SpeechToText(t.Context(), webmAudio))
	assert.Equal(t, 1, model.calls)
}

func TestTranscriber_TotalFailureYieldsEmpty(t *testing.T) {
	model := &fakeRecognitionModel{err: errors.New("model exploded")}
	tr := NewTranscriber(TranscriberParams{
		Client:      newSTTServer(t, http.StatusInternalServerError, ""),
		NewFallback: func() (RecognitionModel, error) { return model, nil },
	})

	assert.Empty(t, tr.SpeechToText(t.Context(), webmAudio))
	assert.Equal(t, 1, model.calls, "fallback runs exactly once per utterance")
}

func TestTranscriber_NoFallbackConfigured(t *testing.T) {
	tr := NewTranscriber(TranscriberParams{})
	assert.Empty(t, tr.SpeechToText(t.Context(), webmAudio))
}

func TestTranscriber_EmptyAudio(t *testing.T) {
	model := &fakeRecognitionModel{text: "nunca"}
	tr := NewTranscriber(TranscriberParams{
		NewFallback: func() (RecognitionModel, error) { return model, nil },
	})

	assert.Empty(t, tr.SpeechToText(t.Context(), nil))
	assert.Zero(t, model.calls)
}

func TestTranscriber_RawPCMIsWrappedAndRemoved(t *testing.T) {
	model := &fakeRecognitionModel{text: "ok"}
	tr := NewTranscriber(TranscriberParams{
		NewFallback: func() (RecognitionModel, error) { return model, nil },
	})

	rawPCM := []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00}
	assert.Equal(t, "ok", tr.SpeechToText(t.Context(), rawPCM))

	require.Len(t, model.paths, 1)
	path := model.paths[0]
	assert.True(t, strings.HasSuffix(path, ".wav"), "raw PCM must be handed over as WAV: %s", path)

	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist, "temp audio file must be removed")
}
