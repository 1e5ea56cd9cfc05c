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
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go/v2"

	"github.com/petvoz/petvoz/logging"
	"github.com/petvoz/petvoz/metrics"
)

const (
	// DefaultTTSModel is the primary synthesis model.
	DefaultTTSModel = openai.SpeechModelTTS1

	// DefaultTTSVoice is the assistant's spoken voice. The service
	// accepts "nova" even though the SDK defines no constant for it.
	DefaultTTSVoice = openai.AudioSpeechNewParamsVoice("nova")
)

// StreamSynthesizer produces speech audio as a stream of chunks.
type StreamSynthesizer interface {
	Run(ctx context.Context, text string) SynthesisResult
}

// SynthesisResult is the outcome of one synthesis run. Error must be
// checked after the sequence is consumed.
type SynthesisResult interface {
	Seq() iter.Seq[[]byte]
	Error() error
}

// OpenAISynthesizer streams speech from the OpenAI audio API.
type OpenAISynthesizer struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.AudioSpeechNewParamsVoice
}

type OpenAISynthesizerParams struct {
	Client *openai.Client

	// Optional model name. Defaults to DefaultTTSModel.
	Model openai.SpeechModel

	// Optional voice name. Defaults to DefaultTTSVoice.
	Voice openai.AudioSpeechNewParamsVoice
}

func NewOpenAISynthesizer(params OpenAISynthesizerParams) *OpenAISynthesizer {
	return &OpenAISynthesizer{
		client: params.Client,
		model:  cmp.Or(params.Model, DefaultTTSModel),
		voice:  cmp.Or(params.Voice, DefaultTTSVoice),
	}
}

func (m *OpenAISynthesizer) Run(ctx context.Context, text string) SynthesisResult {
	resp, err := m.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: m.model,
		Voice: m.voice,
		Input: text,
	})
	return &openAISynthesisResult{resp: resp, err: err}
}

type openAISynthesisResult struct {
	resp *http.Response
	err  error
}

func (r *openAISynthesisResult) Seq() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if r.err != nil {
			return
		}
		defer func() {
			if err := r.resp.Body.Close(); err != nil {
				r.err = errors.Join(r.err, fmt.Errorf("error closing response body: %w", err))
			}
		}()

		eof := false
		for !eof {
			chunk := make([]byte, 1024)
			n, err := r.resp.Body.Read(chunk)

			eof = errors.Is(err, io.EOF)
			if err != nil && !eof {
				r.err = fmt.Errorf("error reading response body: %w", err)
				break
			}

			if n > 0 {
				if !yield(chunk[:n]) {
					break
				}
			}
		}
	}
}

func (r *openAISynthesisResult) Error() error { return r.err }

// Synthesizer turns text into speech audio, falling back to an
// alternate voice when the primary provider is absent or fails.
type Synthesizer struct {
	primary  StreamSynthesizer
	fallback StreamSynthesizer
	timeout  time.Duration
}

type SynthesizerParams struct {
	// Optional primary synthesizer.
	Primary StreamSynthesizer

	// Optional fallback synthesizer, tried when the primary is
	// missing or produces nothing.
	Fallback StreamSynthesizer

	// Optional per-call timeout. Defaults to DefaultSpeechTimeout.
	Timeout time.Duration
}

func NewSynthesizer(params SynthesizerParams) *Synthesizer {
	return &Synthesizer{
		primary:  params.Primary,
		fallback: params.Fallback,
		timeout:  cmp.Or(params.Timeout, DefaultSpeechTimeout),
	}
}

// TextToSpeech synthesizes the given text. Empty bytes mean no voice
// could produce audio; the caller then sends a text-only response.
func (s *Synthesizer) TextToSpeech(ctx context.Context, text string) []byte {
	if text == "" {
		return nil
	}

	if s.primary != nil {
		// A successful primary call is terminal, even with an empty
		// payload; only a failure reaches the fallback.
		audio, err := s.collect(ctx, s.primary, text)
		if err == nil {
			return audio
		}
		logging.Logger().Warn("primary synthesis failed, trying fallback",
			slog.String("error", err.Error()))
	}

	if s.fallback == nil {
		return nil
	}
	metrics.TTSFallbacks.Inc()

	audio, err := s.collect(ctx, s.fallback, text)
	if err != nil {
		logging.Logger().Error("fallback synthesis failed", slog.String("error", err.Error()))
		return nil
	}
	return audio
}

func (s *Synthesizer) collect(ctx context.Context, syn StreamSynthesizer, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result := syn.Run(ctx, text)
	var buf bytes.Buffer
	for chunk := range result.Seq() {
		buf.Write(chunk)
	}
	if err := result.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
