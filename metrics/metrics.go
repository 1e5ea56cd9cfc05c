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

// Package metrics exposes Prometheus counters for the assistant's hot
// paths.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/petvoz/petvoz/agent"
)

var (
	// Turns counts completed conversation turns by input kind
	// (voice or chat).
	Turns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "petvoz",
		Name:      "turns_total",
		Help:      "Completed conversation turns.",
	}, []string{"kind"})

	// ToolInvocations counts tool executions by tool name.
	ToolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "petvoz",
		Name:      "tool_invocations_total",
		Help:      "Tool handler executions.",
	}, []string{"tool"})

	// STTFallbacks counts transcriptions served by the local
	// recognition model after the primary provider failed.
	STTFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "petvoz",
		Name:      "stt_fallbacks_total",
		Help:      "Speech-to-text calls answered by the fallback model.",
	})

	// TTSFallbacks counts syntheses served by the alternate voice
	// after the primary provider failed.
	TTSFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "petvoz",
		Name:      "tts_fallbacks_total",
		Help:      "Text-to-speech calls answered by the fallback voice.",
	})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Hooks counts tool invocations as they happen. Plug it into the
// runner via RunnerParams.Hooks.
type Hooks struct {
	agent.NoOpRunHooks
}

func (Hooks) OnToolStart(_ context.Context, tool *agent.FunctionTool) error {
	ToolInvocations.WithLabelValues(tool.Name).Inc()
	return nil
}
