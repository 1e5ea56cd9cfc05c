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

// Command petvoz runs the pet shop voice assistant: a websocket
// endpoint for voice and chat turns, a REST surface over the
// inventory, and a Prometheus scrape endpoint, all on one address.
//
// Configuration is environment driven:
//
//	OPENAI_API_KEY       primary engine and speech provider key (optional)
//	PETVOZ_ADDR          listen address (default :8001)
//	PETVOZ_MODEL         chat model override
//	PETVOZ_DB            SQLite data source name (default in-memory)
//	PETVOZ_DB_URL        PostgreSQL connection string (overrides PETVOZ_DB)
//	PETVOZ_WHISPER_BIN   local recognition executable for STT fallback
//	PETVOZ_WHISPER_MODEL model file for the local recognition executable
//	PETVOZ_EDGE_VOICE    fallback synthesis voice override
//	PETVOZ_MAX_SESSIONS  session memory bound (default unbounded)
package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"golang.org/x/crypto/bcrypt"

	"github.com/petvoz/petvoz/agent"
	"github.com/petvoz/petvoz/httpapi"
	"github.com/petvoz/petvoz/inventory"
	"github.com/petvoz/petvoz/logging"
	"github.com/petvoz/petvoz/memory"
	"github.com/petvoz/petvoz/metrics"
	"github.com/petvoz/petvoz/server"
	"github.com/petvoz/petvoz/store"
	"github.com/petvoz/petvoz/voice"
)

const shutdownTimeout = 10 * time.Second

func main() {
	verbose := flag.Bool("v", false, "enable verbose logging")
	createAdmin := flag.Bool("create-admin", false, "create or reset the admin user and exit")
	flag.Parse()

	if *verbose {
		logging.EnableVerboseLogging()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *createAdmin); err != nil {
		logging.Logger().Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, createAdmin bool) (err error) {
	st, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if e := st.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("failed to close store: %w", e))
		}
	}()

	if createAdmin {
		return resetAdmin(ctx, st)
	}

	var client *openai.Client
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		c := openai.NewClient(option.WithAPIKey(apiKey))
		client = &c
	} else {
		logging.Logger().Warn("OPENAI_API_KEY is not set: turns will report the missing key and speech relies on local fallbacks")
	}

	var engine agent.Engine
	if client != nil {
		engine = agent.NewOpenAIEngine(agent.OpenAIEngineParams{
			Client: client,
			Model:  shared.ChatModel(os.Getenv("PETVOZ_MODEL")),
		})
	}

	runner, err := agent.NewRunner(agent.RunnerParams{
		Engine: engine,
		Tools:  inventory.NewToolset(st).Tools(),
		Memory: memory.NewInMemoryStore(memory.InMemoryStoreParams{
			MaxSessions: envInt("PETVOZ_MAX_SESSIONS", 0),
		}),
		Hooks: metrics.Hooks{},
	})
	if err != nil {
		return fmt.Errorf("failed to build runner: %w", err)
	}

	transcriber := voice.NewTranscriber(voice.TranscriberParams{
		Client:      client,
		NewFallback: newLocalRecognition,
	})

	var primary voice.StreamSynthesizer
	if client != nil {
		primary = voice.NewOpenAISynthesizer(voice.OpenAISynthesizerParams{Client: client})
	}
	synthesizer := voice.NewSynthesizer(voice.SynthesizerParams{
		Primary: primary,
		Fallback: voice.NewEdgeSynthesizer(voice.EdgeSynthesizerParams{
			Voice: os.Getenv("PETVOZ_EDGE_VOICE"),
		}),
	})

	mux := chi.NewRouter()
	mux.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"message": "Pet Shop Inventory API",
			"version": "2.0.0",
		})
	})
	mux.Handle("/ws", server.New(server.Params{
		Runner:      runner,
		Transcriber: transcriber,
		Synthesizer: synthesizer,
	}))
	mux.Handle("/metrics", metrics.Handler())
	httpapi.New(st).Register(mux)

	addr := cmp.Or(os.Getenv("PETVOZ_ADDR"), ":8001")
	httpServer := &http.Server{
		Addr:    addr,
		Handler: httpapi.CORS(mux),
	}

	serveErr := make(chan error, 1)
	go func() {
		logging.Logger().Info("listening", slog.String("addr", addr))
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logging.Logger().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context) (store.Store, error) {
	if connString := os.Getenv("PETVOZ_DB_URL"); connString != "" {
		return store.NewPgStore(ctx, store.PgStoreParams{ConnectionString: connString})
	}
	return store.NewSQLiteStore(ctx, store.SQLiteStoreParams{
		DBDataSourceName: os.Getenv("PETVOZ_DB"),
	})
}

func newLocalRecognition() (voice.RecognitionModel, error) {
	binPath := os.Getenv("PETVOZ_WHISPER_BIN")
	if binPath == "" {
		return nil, errors.New("PETVOZ_WHISPER_BIN is not set")
	}
	return &voice.WhisperCommand{
		BinPath:   binPath,
		ModelPath: os.Getenv("PETVOZ_WHISPER_MODEL"),
	}, nil
}

// resetAdmin creates the admin account, or resets its password when it
// already exists.
func resetAdmin(ctx context.Context, st store.Store) error {
	email := cmp.Or(os.Getenv("PETVOZ_ADMIN_EMAIL"), "admin@tienda.com")
	password := cmp.Or(os.Getenv("PETVOZ_ADMIN_PASSWORD"), "1234")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	existing, err := st.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		hashStr := string(hash)
		if _, err := st.UpdateUser(ctx, existing.ID, store.UserUpdate{HashedPassword: &hashStr}); err != nil {
			return fmt.Errorf("failed to update admin: %w", err)
		}
		logging.Logger().Info("admin password reset", slog.String("email", email))
		return nil
	case errors.Is(err, store.ErrUserNotFound):
		user := &store.User{
			Nombre:         "Admin Tienda",
			Email:          email,
			HashedPassword: string(hash),
			Role:           "admin",
			IsActive:       true,
			IsAdmin:        true,
		}
		if err := st.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		logging.Logger().Info("admin user created", slog.String("email", email))
		return nil
	default:
		return fmt.Errorf("failed to look up admin: %w", err)
	}
}

func envInt(name string, def int) int {
	s := os.Getenv(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		logging.Logger().Warn("ignoring invalid integer env var", slog.String("name", name))
		return def
	}
	return n
}
