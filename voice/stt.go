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

// Package voice implements the speech pipelines: cloud speech-to-text
// and text-to-speech with local fallbacks. Both directions are
// best-effort: total failure yields an empty result, never an error,
// so the transport layer can degrade to text-only operation.
package voice

import (
	"bytes"
	"cmp"
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v2"

	"github.com/petvoz/petvoz/logging"
	"github.com/petvoz/petvoz/metrics"
)

// DefaultSTTModel is the primary transcription model.
const DefaultSTTModel = openai.AudioModelWhisper1

// DefaultLanguage is the expected speech language.
const DefaultLanguage = "es"

// DefaultSpeechTimeout bounds each external speech call.
const DefaultSpeechTimeout = 30 * time.Second

// RecognitionModel transcribes an audio file on the local machine.
type RecognitionModel interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, error)
}

// Transcriber turns audio into text: primary cloud provider first,
// then a lazily created local model when the provider is absent or
// fails.
type Transcriber struct {
	client   *openai.Client
	model    openai.AudioModel
	language string
	timeout  time.Duration

	newFallback  func() (RecognitionModel, error)
	fallbackOnce sync.Once
	fallback     RecognitionModel
}

type TranscriberParams struct {
	// Optional primary provider client. When nil, transcription goes
	// straight to the fallback model.
	Client *openai.Client

	// Optional transcription model. Defaults to DefaultSTTModel.
	Model openai.AudioModel

	// Optional language hint. Defaults to DefaultLanguage.
	Language string

	// Optional constructor for the local fallback model, invoked at
	// most once per process, on first need.
	NewFallback func() (RecognitionModel, error)

	// Optional per-call timeout. Defaults to DefaultSpeechTimeout.
	Timeout time.Duration
}

func NewTranscriber(params TranscriberParams) *Transcriber {
	return &Transcriber{
		client:      params.Client,
		model:       cmp.Or(params.Model, DefaultSTTModel),
		language:    cmp.Or(params.Language, DefaultLanguage),
		timeout:     cmp.Or(params.Timeout, DefaultSpeechTimeout),
		newFallback: params.NewFallback,
	}
}

// SpeechToText transcribes the given audio. Raw PCM16 payloads are
// wrapped in a WAV container first. An empty result means the audio
// could not be understood by any available model.
func (t *Transcriber) SpeechToText(ctx context.Context, audioData []byte) string {
	if len(audioData) == 0 {
		return ""
	}

	ext := containerExt(audioData)
	if ext == "" {
		wrapped, err := pcm16ToWAV(audioData, DefaultAudioSampleRate, DefaultAudioChannels)
		if err != nil {
			logging.Logger().Error("failed to wrap PCM audio", slog.String("error", err.Error()))
			return ""
		}
		audioData = wrapped
		ext = ".wav"
	}

	audioFile, err := os.CreateTemp("", "petvoz-stt-*"+ext)
	if err != nil {
		logging.Logger().Error("failed to create temp audio file", slog.String("error", err.Error()))
		return ""
	}
	audioPath := audioFile.Name()
	defer func() {
		if err := os.Remove(audioPath); err != nil {
			logging.Logger().Warn("failed to remove temp audio file", slog.String("error", err.Error()))
		}
	}()

	_, err = audioFile.Write(audioData)
	if closeErr := audioFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		logging.Logger().Error("failed to write temp audio file", slog.String("error", err.Error()))
		return ""
	}

	if t.client != nil {
		text, err := t.transcribePrimary(ctx, audioData, ext)
		if err == nil {
			return strings.TrimSpace(text)
		}
		logging.Logger().Warn("primary transcription failed, trying fallback",
			slog.String("error", err.Error()))
	}

	return strings.TrimSpace(t.transcribeFallback(ctx, audioPath))
}

func (t *Transcriber) transcribePrimary(ctx context.Context, audioData []byte, ext string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	response, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model:    t.model,
		File:     openai.File(bytes.NewReader(audioData), "audio"+ext, contentTypeByExt(ext)),
		Language: openai.String(t.language),
	})
	if err != nil {
		return "", err
	}
	return response.Text, nil
}

func (t *Transcriber) transcribeFallback(ctx context.Context, audioPath string) string {
	t.fallbackOnce.Do(func() {
		if t.newFallback == nil {
			return
		}
		model, err := t.newFallback()
		if err != nil {
			logging.Logger().Error("failed to create fallback recognition model",
				slog.String("error", err.Error()))
			return
		}
		t.fallback = model
	})
	if t.fallback == nil {
		return ""
	}

	metrics.STTFallbacks.Inc()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	text, err := t.fallback.Transcribe(ctx, audioPath, t.language)
	if err != nil {
		logging.Logger().Error("fallback transcription failed", slog.String("error", err.Error()))
		return ""
	}
	return text
}

func contentTypeByExt(ext string) string {
	switch ext {
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".m4a":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
