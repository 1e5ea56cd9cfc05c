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

package memory

import (
	"sync"
	"time"
)

// InMemoryStore is a process-scoped Store implementation.
//
// Sessions live only as long as the process. When MaxSessions is set,
// creating a session beyond the bound evicts the least recently active
// one; an unbounded store never evicts.
type InMemoryStore struct {
	mu          sync.Mutex
	maxSessions int
	sessions    map[string]*session
}

type session struct {
	messages   []Message
	lastActive time.Time
}

type InMemoryStoreParams struct {
	// Optional maximum number of sessions kept at once.
	// Zero or negative means unbounded.
	MaxSessions int
}

// NewInMemoryStore creates an empty session store.
func NewInMemoryStore(params InMemoryStoreParams) *InMemoryStore {
	return &InMemoryStore{
		maxSessions: params.MaxSessions,
		sessions:    make(map[string]*session),
	}
}

func (s *InMemoryStore) Append(sessionKey string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionKey]
	if !ok {
		s.evictLocked()
		sess = &session{}
		s.sessions[sessionKey] = sess
	}
	sess.messages = append(sess.messages, msg)
	sess.lastActive = time.Now()
}

func (s *InMemoryStore) History(sessionKey string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionKey]
	if !ok {
		return []Message{}
	}
	out := make([]Message, len(sess.messages))
	copy(out, sess.messages)
	return out
}

// Len returns the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// evictLocked makes room for one more session when the bound is reached.
func (s *InMemoryStore) evictLocked() {
	if s.maxSessions <= 0 || len(s.sessions) < s.maxSessions {
		return
	}
	var (
		oldestKey  string
		oldestTime time.Time
	)
	for key, sess := range s.sessions {
		if oldestKey == "" || sess.lastActive.Before(oldestTime) {
			oldestKey = key
			oldestTime = sess.lastActive
		}
	}
	delete(s.sessions, oldestKey)
}
