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
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultEdgeVoice is the fallback neural voice.
const DefaultEdgeVoice = "es-ES-AlvaroNeural"

const (
	edgeTrustedClientToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	edgeSynthesisURL       = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1?TrustedClientToken=" + edgeTrustedClientToken
	edgeOutputFormat       = "audio-24khz-48kbitrate-mono-mp3"
)

// EdgeSynthesizer streams speech from the Edge read-aloud websocket
// service. It needs no API key, which makes it the free fallback
// voice.
type EdgeSynthesizer struct {
	url    string
	voice  string
	dialer *websocket.Dialer
}

type EdgeSynthesizerParams struct {
	// Optional service URL, overridable for testing.
	URL string

	// Optional voice name. Defaults to DefaultEdgeVoice.
	Voice string

	// Optional websocket dialer. Defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

func NewEdgeSynthesizer(params EdgeSynthesizerParams) *EdgeSynthesizer {
	dialer := params.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &EdgeSynthesizer{
		url:    cmp.Or(params.URL, edgeSynthesisURL),
		voice:  cmp.Or(params.Voice, DefaultEdgeVoice),
		dialer: dialer,
	}
}

func (e *EdgeSynthesizer) Run(ctx context.Context, text string) SynthesisResult {
	conn, _, err := e.dialer.DialContext(ctx, e.url, nil) //nolint:bodyclose // gorilla keeps the hijacked body inside conn
	if err != nil {
		return &edgeSynthesisResult{err: fmt.Errorf("error connecting to synthesis service: %w", err)}
	}

	timestamp := edgeTimestamp()
	config := "X-Timestamp:" + timestamp + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" +
		`{"context":{"synthesis":{"audio":{"metadataoptions":` +
		`{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},` +
		`"outputFormat":"` + edgeOutputFormat + `"}}}}`
	if err = conn.WriteMessage(websocket.TextMessage, []byte(config)); err != nil {
		_ = conn.Close()
		return &edgeSynthesisResult{err: fmt.Errorf("error sending synthesis config: %w", err)}
	}

	requestID := strings.ReplaceAll(uuid.NewString(), "-", "")
	ssml := "X-RequestId:" + requestID + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"X-Timestamp:" + timestamp + "\r\n" +
		"Path:ssml\r\n\r\n" +
		"<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='es-ES'>" +
		"<voice name='" + e.voice + "'>" + escapeSSML(text) + "</voice></speak>"
	if err = conn.WriteMessage(websocket.TextMessage, []byte(ssml)); err != nil {
		_ = conn.Close()
		return &edgeSynthesisResult{err: fmt.Errorf("error sending synthesis request: %w", err)}
	}

	return &edgeSynthesisResult{ctx: ctx, conn: conn}
}

type edgeSynthesisResult struct {
	ctx  context.Context
	conn *websocket.Conn
	err  error
}

func (r *edgeSynthesisResult) Seq() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if r.err != nil {
			return
		}
		// The read loop must not outlive the caller's deadline: a
		// stalled service would otherwise block the turn forever.
		// Closing the connection unblocks ReadMessage.
		stop := context.AfterFunc(r.ctx, func() { _ = r.conn.Close() })
		defer func() {
			if !stop() {
				r.err = errors.Join(r.err, r.ctx.Err())
				return
			}
			if err := r.conn.Close(); err != nil {
				r.err = errors.Join(r.err, fmt.Errorf("error closing synthesis connection: %w", err))
			}
		}()

		for {
			messageType, message, err := r.conn.ReadMessage()
			if err != nil {
				r.err = fmt.Errorf("error reading synthesis message: %w", err)
				return
			}

			switch messageType {
			case websocket.TextMessage:
				if strings.Contains(string(message), "Path:turn.end") {
					return
				}
			case websocket.BinaryMessage:
				audio, ok := edgeAudioPayload(message)
				if !ok {
					continue
				}
				if !yield(audio) {
					return
				}
			}
		}
	}
}

func (r *edgeSynthesisResult) Error() error { return r.err }

// edgeAudioPayload extracts the audio bytes from a binary frame:
// a big-endian header length, the header itself, then the payload.
// Only frames whose path is exactly "audio" carry speech; the service
// also sends audio.metadata frames whose JSON payload must be skipped.
func edgeAudioPayload(message []byte) ([]byte, bool) {
	if len(message) < 2 {
		return nil, false
	}
	headerLen := int(binary.BigEndian.Uint16(message[:2]))
	if len(message) < 2+headerLen {
		return nil, false
	}
	header := string(message[2 : 2+headerLen])
	if !edgeHeaderHasPath(header, "audio") {
		return nil, false
	}
	payload := message[2+headerLen:]
	if len(payload) == 0 {
		return nil, false
	}
	return payload, true
}

func edgeHeaderHasPath(header, path string) bool {
	for _, line := range strings.Split(header, "\r\n") {
		if strings.TrimSpace(line) == "Path:"+path {
			return true
		}
	}
	return false
}

func edgeTimestamp() string {
	return time.Now().UTC().Format("Mon Jan 02 2006 15:04:05") + " GMT+0000 (Coordinated Universal Time)"
}

var ssmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
)

func escapeSSML(s string) string {
	return ssmlEscaper.Replace(s)
}
