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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryStore_UnknownKey(t *testing.T) {
	store := NewInMemoryStore(InMemoryStoreParams{})
	history := store.History("nope")
	assert.NotNil(t, history, "unknown keys get a caller-owned empty slice")
	assert.Empty(t, history)
}

func TestInMemoryStore_AppendOrder(t *testing.T) {
	store := NewInMemoryStore(InMemoryStoreParams{})

	store.Append("s1", Message{Role: RoleUser, Content: "Quiero añadir un producto"})
	store.Append("s1", Message{Role: RoleAssistant, Content: "He abierto el formulario."})
	store.Append("s2", Message{Role: RoleUser, Content: "Lista los productos"})

	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "Quiero añadir un producto"},
		{Role: RoleAssistant, Content: "He abierto el formulario."},
	}, store.History("s1"))
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "Lista los productos"},
	}, store.History("s2"))
}

func TestInMemoryStore_HistoryIsACopy(t *testing.T) {
	store := NewInMemoryStore(InMemoryStoreParams{})
	store.Append("s1", Message{Role: RoleUser, Content: "hola"})

	history := store.History("s1")
	history[0].Content = "mutated"

	assert.Equal(t, "hola", store.History("s1")[0].Content)
}

func TestInMemoryStore_Eviction(t *testing.T) {
	store := NewInMemoryStore(InMemoryStoreParams{MaxSessions: 2})

	store.Append("a", Message{Role: RoleUser, Content: "1"})
	store.Append("b", Message{Role: RoleUser, Content: "2"})
	store.Append("a", Message{Role: RoleUser, Content: "3"}) // refresh a
	store.Append("c", Message{Role: RoleUser, Content: "4"}) // evicts b

	assert.Equal(t, 2, store.Len())
	assert.Empty(t, store.History("b"))
	assert.Len(t, store.History("a"), 2)
	assert.Len(t, store.History("c"), 1)
}
