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
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/stretchr/testify/assert"
)

type fakeStreamSynthesizer struct {
	chunks [][]byte
	err    error
	calls  int
}

func (f *fakeStreamSynthesizer) Run(context.Context, string) SynthesisResult {
	f.calls++
	return &fakeSynthesisResult{chunks: f.chunks, err: f.err}
}

type fakeSynthesisResult struct {
	chunks [][]byte
	err    error
}

func (r *fakeSynthesisResult) Seq() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if r.err != nil {
			return
		}
		for _, chunk := range r.chunks {
			if !yield(chunk) {
				return
			}
		}
	}
}

func (r *fakeSynthesisResult) Error() error { return r.err }

func TestSynthesizer_PrimaryConcatenatesChunks(t *testing.T) {
	primary := &fakeStreamSynthesizer{chunks: [][]byte{[]byte("abc"), []byte("def")}}
	fallback := &fakeStreamSynthesizer{chunks: [][]byte{[]byte("nope")}}
	s := NewSynthesizer(SynthesizerParams{Primary: primary, Fallback: fallback})

	audio := s.TextToSpeech(t.Context(), "hola")
	assert.Equal(t, []byte("abcdef"), audio)
	assert.Zero(t, fallback.calls)
}

func TestSynthesizer_FallbackOnPrimaryFailure(t *testing.T) {
	primary := &fakeStreamSynthesizer{err: errors.New("quota exceeded")}
	fallback := &fakeStreamSynthesizer{chunks: [][]byte{[]byte("edge audio")}}
	s := NewSynthesizer(SynthesizerParams{Primary: primary, Fallback: fallback})

	audio := s.TextToSpeech(t.Context(), "hola")
	assert.Equal(t, []byte("edge audio"), audio)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestSynthesizer_EmptyPrimarySuccessIsTerminal(t *testing.T) {
	primary := &fakeStreamSynthesizer{}
	fallback := &fakeStreamSynthesizer{chunks: [][]byte{[]byte("edge audio")}}
	s := NewSynthesizer(SynthesizerParams{Primary: primary, Fallback: fallback})

	assert.Empty(t, s.TextToSpeech(t.Context(), "hola"))
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, fallback.calls, "a successful primary call must not reach the fallback")
}

func TestSynthesizer_NoPrimaryUsesFallback(t *testing.T) {
	fallback := &fakeStreamSynthesizer{chunks: [][]byte{[]byte("edge audio")}}
	s := NewSynthesizer(SynthesizerParams{Fallback: fallback})

	assert.Equal(t, []byte("edge audio"), s.TextToSpeech(t.Context(), "hola"))
}

func TestSynthesizer_TotalFailureYieldsEmpty(t *testing.T) {
	primary := &fakeStreamSynthesizer{err: errors.New("down")}
	fallback := &fakeStreamSynthesizer{err: errors.New("also down")}
	s := NewSynthesizer(SynthesizerParams{Primary: primary, Fallback: fallback})

	assert.Empty(t, s.TextToSpeech(t.Context(), "hola"))
}

func TestSynthesizer_EmptyText(t *testing.T) {
	primary := &fakeStreamSynthesizer{chunks: [][]byte{[]byte("x")}}
	s := NewSynthesizer(SynthesizerParams{Primary: primary})

	assert.Empty(t, s.TextToSpeech(t.Context(), ""))
	assert.Zero(t, primary.calls)
}

func TestOpenAISynthesizer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/audio/speech") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3 bytes"))
	}))
	t.Cleanup(server.Close)

	client := openai.NewClient(
		option.WithBaseURL(server.URL),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	s := NewSynthesizer(SynthesizerParams{
		Primary: NewOpenAISynthesizer(OpenAISynthesizerParams{Client: &client}),
	})

	assert.Equal(t, []byte("mp3 bytes"), s.TextToSpeech(t.Context(), "hola"))
}
