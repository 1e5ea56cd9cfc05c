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
	"fmt"
	"os/exec"
	"strings"
)

// WhisperCommand runs a whisper.cpp style executable for offline
// transcription.
type WhisperCommand struct {
	// Path to the executable.
	BinPath string

	// Optional model file, passed via -m.
	ModelPath string
}

func (w *WhisperCommand) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	if w.BinPath == "" {
		return "", errors.New("no recognition executable configured")
	}

	args := []string{"-f", audioPath, "-l", language, "-nt", "-np"}
	if w.ModelPath != "" {
		args = append(args, "-m", w.ModelPath)
	}

	out, err := exec.CommandContext(ctx, w.BinPath, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("recognition command failed: %w: %s", err, exitErr.Stderr)
		}
		return "", fmt.Errorf("recognition command failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
