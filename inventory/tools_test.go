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

package inventory

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petvoz/petvoz/actions"
	"github.com/petvoz/petvoz/agent"
	"github.com/petvoz/petvoz/store"
)

func newTestToolset(t *testing.T) (*Toolset, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(t.Context(), store.SQLiteStoreParams{
		DBDataSourceName: filepath.Join(t.TempDir(), "petvoz.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return NewToolset(s), s
}

func invoke(t *testing.T, tool *agent.FunctionTool, arguments string) actions.Action {
	t.Helper()
	out, err := tool.OnInvokeTool(t.Context(), arguments)
	require.NoError(t, err)
	action, ok := actions.Decode(out)
	require.True(t, ok, "tool output is not an action: %s", out)
	return action
}

func TestToolset_TenTools(t *testing.T) {
	ts, _ := newTestToolset(t)
	tools := ts.Tools()
	require.Len(t, tools, 10)

	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	assert.Equal(t, []string{
		"update_form", "submit_form", "crear_producto", "listar_productos",
		"actualizar_producto", "eliminar_producto", "abrir_formulario_producto",
		"cerrar_formulario_producto", "login_user", "logout_user",
	}, names)
}

func TestUpdateForm_LowercasesField(t *testing.T) {
	ts, _ := newTestToolset(t)
	action := invoke(t, ts.UpdateForm(), `{"field":"Nombre","value":"Pienso Royal Canin"}`)
	assert.Equal(t, actions.UpdateForm{Field: "nombre", Value: "Pienso Royal Canin"}, action)
}

func TestCrearProducto(t *testing.T) {
	ts, s := newTestToolset(t)

	action := invoke(t, ts.CrearProducto(),
		`{"nombre":"Pienso Royal Canin","categoria":"ALIMENTACION","ubicacion":"Pasillo 3"}`)

	created, ok := action.(actions.ProductCreated)
	require.True(t, ok)
	assert.Equal(t, "Pienso Royal Canin", created.Name)

	p, err := s.GetProduct(t.Context(), created.ProductID)
	require.NoError(t, err)
	assert.Equal(t, store.CategoryAlimentacion, p.Categoria, "mixed case category must normalize")
	assert.Equal(t, 1, p.Cantidad, "quantity defaults to 1")
	assert.Equal(t, VoiceSystemUserID, p.RegistradoPor)
}

func TestCrearProducto_UnknownCategoryCoerces(t *testing.T) {
	ts, s := newTestToolset(t)

	action := invoke(t, ts.CrearProducto(),
		`{"nombre":"Cosa rara","categoria":"electronica","ubicacion":"Almacén"}`)

	created := action.(actions.ProductCreated)
	p, err := s.GetProduct(t.Context(), created.ProductID)
	require.NoError(t, err)
	assert.Equal(t, store.CategoryOtros, p.Categoria)
}

func TestListarProductos(t *testing.T) {
	ts, s := newTestToolset(t)
	ctx := t.Context()

	for i := range 12 {
		require.NoError(t, s.CreateProduct(ctx, &store.Product{
			Nombre:    fmt.Sprintf("Producto %d", i),
			Categoria: store.CategoryJuguetes,
			Ubicacion: "Pasillo 1",
		}))
	}
	require.NoError(t, s.CreateProduct(ctx, &store.Product{
		Nombre:    "Pienso",
		Categoria: store.CategoryAlimentacion,
		Ubicacion: "Pasillo 2",
	}))

	t.Run("caps at ten", func(t *testing.T) {
		listed := invoke(t, ts.ListarProductos(), `{}`).(actions.ProductsListed)
		assert.Equal(t, 10, listed.Count)
		assert.Len(t, listed.Products, 10)
	})

	t.Run("category filter", func(t *testing.T) {
		listed := invoke(t, ts.ListarProductos(), `{"categoria":"alimentacion"}`).(actions.ProductsListed)
		require.Equal(t, 1, listed.Count)
		assert.Equal(t, "Pienso", listed.Products[0].Nombre)
	})

	t.Run("invalid filter is ignored", func(t *testing.T) {
		listed := invoke(t, ts.ListarProductos(), `{"categoria":"electronica"}`).(actions.ProductsListed)
		assert.Equal(t, 10, listed.Count)
	})
}

func TestActualizarProducto(t *testing.T) {
	ts, s := newTestToolset(t)
	ctx := t.Context()

	p := &store.Product{Nombre: "Collar", Categoria: store.CategoryAccesorios, Ubicacion: "Pasillo 1", Cantidad: 2}
	require.NoError(t, s.CreateProduct(ctx, p))

	t.Run("quantity parses from string", func(t *testing.T) {
		action := invoke(t, ts.ActualizarProducto(),
			fmt.Sprintf(`{"producto_id":%d,"campo":"cantidad","nuevo_valor":"7"}`, p.ID))
		assert.Equal(t, actions.ProductUpdated{ProductID: p.ID, Field: "cantidad"}, action)

		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, got.Cantidad)
	})

	t.Run("non-numeric quantity", func(t *testing.T) {
		action := invoke(t, ts.ActualizarProducto(),
			fmt.Sprintf(`{"producto_id":%d,"campo":"cantidad","nuevo_valor":"siete"}`, p.ID))
		errAction, ok := action.(actions.Error)
		require.True(t, ok)
		assert.Contains(t, errAction.Message, "Cantidad inválida")
	})

	t.Run("invalid category", func(t *testing.T) {
		action := invoke(t, ts.ActualizarProducto(),
			fmt.Sprintf(`{"producto_id":%d,"campo":"categoria","nuevo_valor":"electronica"}`, p.ID))
		errAction, ok := action.(actions.Error)
		require.True(t, ok)
		assert.Contains(t, errAction.Message, "Categoría inválida")
	})

	t.Run("unknown field is ignored but still reports", func(t *testing.T) {
		action := invoke(t, ts.ActualizarProducto(),
			fmt.Sprintf(`{"producto_id":%d,"campo":"precio","nuevo_valor":"9.99"}`, p.ID))
		assert.Equal(t, actions.ProductUpdated{ProductID: p.ID, Field: "precio"}, action)

		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Collar", got.Nombre)
	})

	t.Run("missing product", func(t *testing.T) {
		action := invoke(t, ts.ActualizarProducto(),
			`{"producto_id":999,"campo":"nombre","nuevo_valor":"X"}`)
		errAction, ok := action.(actions.Error)
		require.True(t, ok)
		assert.Equal(t, "Producto no encontrado", errAction.Message)
	})
}

func TestEliminarProducto(t *testing.T) {
	ts, s := newTestToolset(t)
	ctx := t.Context()

	p := &store.Product{Nombre: "Pelota", Categoria: store.CategoryJuguetes, Ubicacion: "Pasillo 2"}
	require.NoError(t, s.CreateProduct(ctx, p))

	action := invoke(t, ts.EliminarProducto(), fmt.Sprintf(`{"producto_id":%d}`, p.ID))
	assert.Equal(t, actions.ProductDeleted{ProductID: p.ID, Name: "Pelota"}, action)

	_, err := s.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrProductNotFound)
}

func TestEliminarProducto_Missing(t *testing.T) {
	ts, _ := newTestToolset(t)

	action := invoke(t, ts.EliminarProducto(), `{"producto_id":999}`)
	errAction, ok := action.(actions.Error)
	require.True(t, ok)
	assert.Equal(t, "Producto no encontrado", errAction.Message)
}

func TestFormAndSessionTools(t *testing.T) {
	ts, _ := newTestToolset(t)

	assert.Equal(t, actions.OpenProductForm{}, invoke(t, ts.AbrirFormularioProducto(), `{}`))
	assert.Equal(t, actions.CloseProductForm{}, invoke(t, ts.CerrarFormularioProducto(), `{}`))
	assert.Equal(t, actions.SubmitForm{}, invoke(t, ts.SubmitForm(), `{}`))
	assert.Equal(t, actions.Logout{}, invoke(t, ts.LogoutUser(), `{}`))
	assert.Equal(t,
		actions.Login{Email: "ana@example.com", Password: "secreto"},
		invoke(t, ts.LoginUser(), `{"email":"ana@example.com","password":"secreto"}`))
}
