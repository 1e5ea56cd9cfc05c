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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	DefaultAudioSampleRate = 24000
	DefaultAudioChannels   = 1

	audioSampleWidth = 2 // PCM16
)

// writeSeekerBuffer is a byte buffer satisfying io.WriteSeeker, which
// the WAV encoder needs to patch chunk sizes after writing.
type writeSeekerBuffer struct {
	b []byte
	i int64
}

func (b *writeSeekerBuffer) Bytes() []byte { return b.b }

func (b *writeSeekerBuffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	end := b.i + int64(len(p))
	if n := end - int64(cap(b.b)); n > 0 {
		b.b = slices.Grow(b.b, int(n))
	}
	if end > int64(len(b.b)) {
		b.b = b.b[:end]
	}
	copy(b.b[b.i:end], p)
	b.i = end
	return len(p), nil
}

func (b *writeSeekerBuffer) Seek(offset int64, whence int) (int64, error) {
	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = b.i + offset
	case io.SeekEnd:
		newOffset = int64(len(b.b)) + offset
	default:
		return 0, errors.New("writeSeekerBuffer.Seek: invalid whence")
	}
	if newOffset < 0 {
		return 0, errors.New("writeSeekerBuffer.Seek: negative position")
	}
	b.i = newOffset
	return newOffset, nil
}

// pcm16ToWAV wraps raw little-endian PCM16 samples in a WAV container
// so speech providers accept them.
func pcm16ToWAV(data []byte, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultAudioSampleRate
	}
	if channels <= 0 {
		channels = DefaultAudioChannels
	}

	var wavBuf writeSeekerBuffer
	enc := wav.NewEncoder(
		&wavBuf,
		sampleRate,
		8*audioSampleWidth,
		channels,
		1, // PCM
	)

	intData := make([]int, len(data)/audioSampleWidth)
	for i := range intData {
		intData[i] = int(int16(binary.LittleEndian.Uint16(data[i*audioSampleWidth:])))
	}

	err := enc.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           intData,
		SourceBitDepth: 8 * audioSampleWidth,
	})
	if err != nil {
		return nil, fmt.Errorf("error writing WAV data: %w", err)
	}
	if err = enc.Close(); err != nil {
		return nil, fmt.Errorf("error closing WAV data: %w", err)
	}
	return wavBuf.Bytes(), nil
}

// containerExt recognizes the audio containers browsers typically
// record in. Empty means the payload looks like raw PCM.
func containerExt(data []byte) string {
	switch {
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return ".wav"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("OggS")):
		return ".ogg"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x1A, 0x45, 0xDF, 0xA3}): // EBML (webm/mkv)
		return ".webm"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("fLaC")):
		return ".flac"
	case len(data) >= 3 && bytes.Equal(data[:3], []byte("ID3")):
		return ".mp3"
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0: // MPEG frame sync
		return ".mp3"
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")): // MP4/M4A
		return ".m4a"
	default:
		return ""
	}
}
