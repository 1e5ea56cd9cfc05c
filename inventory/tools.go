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

// Package inventory binds the shop's action handlers to a product
// store. Each handler returns an action encoded as JSON: the engine
// reads it as the tool result, and the interceptor turns it into a UI
// action. Handler faults become error actions, never Go errors.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/petvoz/petvoz/actions"
	"github.com/petvoz/petvoz/agent"
	"github.com/petvoz/petvoz/store"
)

// VoiceSystemUserID is recorded as the registrant of products created
// by voice, standing in for the authenticated user.
const VoiceSystemUserID int64 = 1

// ListLimit caps how many products a listing reads out.
const ListLimit = 10

// Toolset builds the function tools exposed to the engine.
type Toolset struct {
	store store.Store
}

func NewToolset(s store.Store) *Toolset {
	return &Toolset{store: s}
}

// Tools returns all handlers in declaration order.
func (t *Toolset) Tools() []*agent.FunctionTool {
	return []*agent.FunctionTool{
		t.UpdateForm(),
		t.SubmitForm(),
		t.CrearProducto(),
		t.ListarProductos(),
		t.ActualizarProducto(),
		t.EliminarProducto(),
		t.AbrirFormularioProducto(),
		t.CerrarFormularioProducto(),
		t.LoginUser(),
		t.LogoutUser(),
	}
}

func encode(a actions.Action) (string, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func errorAction(message string) (string, error) {
	return encode(actions.Error{Message: message})
}

func faultMessage(err error) string {
	if errors.Is(err, store.ErrProductNotFound) {
		return "Producto no encontrado"
	}
	return err.Error()
}

func emptyObjectSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// UpdateForm fills one field of the on-screen form.
func (t *Toolset) UpdateForm() *agent.FunctionTool {
	type args struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	return &agent.FunctionTool{
		Name:        "update_form",
		Description: "Actualiza un campo del formulario visual (nombre, categoria, ubicacion, cantidad, descripcion).",
		ParamsJSONSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"field": map[string]any{
					"type":        "string",
					"description": "Nombre del campo a rellenar.",
				},
				"value": map[string]any{
					"type":        "string",
					"description": "Valor a asignar.",
				},
			},
			"required": []string{"field", "value"},
		},
		OnInvokeTool: func(_ context.Context, arguments string) (string, error) {
			var a args
			if err := json.Unmarshal([]byte(arguments), &a); err != nil {
				return errorAction(err.Error())
			}
			return encode(actions.UpdateForm{
				Field: strings.ToLower(a.Field),
				Value: a.Value,
			})
		},
	}
}

// SubmitForm submits the current form.
func (t *Toolset) SubmitForm() *agent.FunctionTool {
	return &agent.FunctionTool{
		Name:             "submit_form",
		Description:      "Envía el formulario actual. Úsalo cuando el usuario diga guardar, enviar o terminar.",
		ParamsJSONSchema: emptyObjectSchema(),
		OnInvokeTool: func(context.Context, string) (string, error) {
			return encode(actions.SubmitForm{})
		},
	}
}

// CrearProducto persists a new product record.
func (t *Toolset) CrearProducto() *agent.FunctionTool {
	type args struct {
		Nombre      string `json:"nombre"`
		Categoria   string `json:"categoria"`
		Ubicacion   string `json:"ubicacion"`
		Cantidad    int    `json:"cantidad"`
		Descripcion string `json:"descripcion"`
	}
	return &agent.FunctionTool{
		Name:        "crear_producto",
		Description: "Crea un nuevo producto en la base de datos de la tienda.",
		ParamsJSONSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"nombre": map[string]any{
					"type":        "string",
					"description": "Nombre del producto (ej: \"Pienso perro adulto\").",
				},
				"categoria": map[string]any{
					"type":        "string",
					"description": "Categoría (alimentacion, juguetes, accesorios, salud, higiene, otros).",
				},
				"ubicacion": map[string]any{
					"type":        "string",
					"description": "Ubicación física (ej: \"Estantería A1\", \"Almacén\").",
				},
				"cantidad": map[string]any{
					"type":        "integer",
					"description": "Cantidad de stock (por defecto 1).",
				},
				"descripcion": map[string]any{
					"type":        "string",
					"description": "Descripción opcional del producto.",
				},
			},
			"required": []string{"nombre", "categoria", "ubicacion"},
		},
		OnInvokeTool: func(ctx context.Context, arguments string) (string, error) {
			var a args
			if err := json.Unmarshal([]byte(arguments), &a); err != nil {
				return errorAction(err.Error())
			}
			if a.Cantidad <= 0 {
				a.Cantidad = 1
			}
			product := &store.Product{
				Nombre:        a.Nombre,
				Descripcion:   a.Descripcion,
				Categoria:     store.CoerceCategory(a.Categoria),
				Ubicacion:     a.Ubicacion,
				Cantidad:      a.Cantidad,
				RegistradoPor: VoiceSystemUserID,
			}
			if err := t.store.CreateProduct(ctx, product); err != nil {
				return errorAction(faultMessage(err))
			}
			return encode(actions.ProductCreated{
				ProductID: product.ID,
				Name:      product.Nombre,
			})
		},
	}
}

// ListarProductos reads out up to ListLimit products, optionally
// filtered by category. An invalid category filter is ignored rather
// than failing the listing.
func (t *Toolset) ListarProductos() *agent.FunctionTool {
	type args struct {
		Categoria string `json:"categoria"`
	}
	return &agent.FunctionTool{
		Name:        "listar_productos",
		Description: "Lista los productos, opcionalmente filtrados por categoría.",
		ParamsJSONSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"categoria": map[string]any{
					"type":        "string",
					"description": "Categoría para filtrar (alimentacion, juguetes, etc.).",
				},
			},
		},
		OnInvokeTool: func(ctx context.Context, arguments string) (string, error) {
			var a args
			if err := json.Unmarshal([]byte(arguments), &a); err != nil {
				return errorAction(err.Error())
			}
			filter := store.ProductFilter{Limit: ListLimit}
			if a.Categoria != "" {
				if c, ok := store.ParseCategory(a.Categoria); ok {
					filter.Categoria = c
				}
			}
			products, err := t.store.ListProducts(ctx, filter)
			if err != nil {
				return errorAction(faultMessage(err))
			}
			listed := actions.ProductsListed{
				Count:    len(products),
				Products: make([]actions.ProductSummary, 0, len(products)),
			}
			for _, p := range products {
				listed.Products = append(listed.Products, actions.ProductSummary{
					ID:        p.ID,
					Nombre:    p.Nombre,
					Categoria: string(p.Categoria),
					Ubicacion: p.Ubicacion,
					Cantidad:  p.Cantidad,
				})
			}
			return encode(listed)
		},
	}
}

// ActualizarProducto mutates one field of an existing product. Only
// nombre, ubicacion, descripcion, cantidad and categoria are mutable;
// any other field name is ignored.
func (t *Toolset) ActualizarProducto() *agent.FunctionTool {
	type args struct {
		ProductoID int64  `json:"producto_id"`
		Campo      string `json:"campo"`
		NuevoValor string `json:"nuevo_valor"`
	}
	return &agent.FunctionTool{
		Name:        "actualizar_producto",
		Description: "Actualiza un campo de un producto existente.",
		ParamsJSONSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"producto_id": map[string]any{
					"type":        "integer",
					"description": "ID del producto a actualizar.",
				},
				"campo": map[string]any{
					"type":        "string",
					"description": "Campo a modificar (nombre, ubicacion, descripcion, cantidad, categoria).",
				},
				"nuevo_valor": map[string]any{
					"type":        "string",
					"description": "Nuevo valor para el campo.",
				},
			},
			"required": []string{"producto_id", "campo", "nuevo_valor"},
		},
		OnInvokeTool: func(ctx context.Context, arguments string) (string, error) {
			var a args
			if err := json.Unmarshal([]byte(arguments), &a); err != nil {
				return errorAction(err.Error())
			}

			var upd store.ProductUpdate
			switch a.Campo {
			case "cantidad":
				n, err := strconv.Atoi(strings.TrimSpace(a.NuevoValor))
				if err != nil {
					return errorAction("Cantidad inválida: " + a.NuevoValor)
				}
				upd.Cantidad = &n
			case "categoria":
				c, ok := store.ParseCategory(a.NuevoValor)
				if !ok {
					return errorAction("Categoría inválida: " + a.NuevoValor)
				}
				upd.Categoria = &c
			case "nombre":
				upd.Nombre = &a.NuevoValor
			case "ubicacion":
				upd.Ubicacion = &a.NuevoValor
			case "descripcion":
				upd.Descripcion = &a.NuevoValor
			}

			if _, err := t.store.UpdateProduct(ctx, a.ProductoID, upd); err != nil {
				return errorAction(faultMessage(err))
			}
			return encode(actions.ProductUpdated{
				ProductID: a.ProductoID,
				Field:     a.Campo,
			})
		},
	}
}

// EliminarProducto removes a product record.
func (t *Toolset) EliminarProducto() *agent.FunctionTool {
	type args struct {
		ProductoID int64 `json:"producto_id"`
	}
	return &agent.FunctionTool{
		Name:        "eliminar_producto",
		Description: "Elimina un producto de la base de datos.",
		ParamsJSONSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"producto_id": map[string]any{
					"type":        "integer",
					"description": "ID del producto a eliminar.",
				},
			},
			"required": []string{"producto_id"},
		},
		OnInvokeTool: func(ctx context.Context, arguments string) (string, error) {
			var a args
			if err := json.Unmarshal([]byte(arguments), &a); err != nil {
				return errorAction(err.Error())
			}
			deleted, err := t.store.DeleteProduct(ctx, a.ProductoID)
			if err != nil {
				return errorAction(faultMessage(err))
			}
			return encode(actions.ProductDeleted{
				ProductID: a.ProductoID,
				Name:      deleted.Nombre,
			})
		},
	}
}

// AbrirFormularioProducto opens the product creation form in the UI.
func (t *Toolset) AbrirFormularioProducto() *agent.FunctionTool {
	return &agent.FunctionTool{
		Name:             "abrir_formulario_producto",
		Description:      "Abre el formulario de creación de producto en la interfaz visual. Úsalo cuando el usuario exprese intención de añadir o registrar un nuevo producto.",
		ParamsJSONSchema: emptyObjectSchema(),
		OnInvokeTool: func(context.Context, string) (string, error) {
			return encode(actions.OpenProductForm{})
		},
	}
}

// CerrarFormularioProducto closes the product creation form.
func (t *Toolset) CerrarFormularioProducto() *agent.FunctionTool {
	return &agent.FunctionTool{
		Name:             "cerrar_formulario_producto",
		Description:      "Cierra el formulario de creación de producto. Úsalo cuando el usuario quiera cancelar.",
		ParamsJSONSchema: emptyObjectSchema(),
		OnInvokeTool: func(context.Context, string) (string, error) {
			return encode(actions.CloseProductForm{})
		},
	}
}

// LoginUser forwards a session start request to the UI. Credential
// verification happens at the HTTP layer, not here.
func (t *Toolset) LoginUser() *agent.FunctionTool {
	type args struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	return &agent.FunctionTool{
		Name:        "login_user",
		Description: "Inicia sesión en el sistema.",
		ParamsJSONSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"email": map[string]any{
					"type":        "string",
					"description": "Correo electrónico del usuario.",
				},
				"password": map[string]any{
					"type":        "string",
					"description": "Contraseña del usuario.",
				},
			},
			"required": []string{"email", "password"},
		},
		OnInvokeTool: func(_ context.Context, arguments string) (string, error) {
			var a args
			if err := json.Unmarshal([]byte(arguments), &a); err != nil {
				return errorAction(err.Error())
			}
			return encode(actions.Login{Email: a.Email, Password: a.Password})
		},
	}
}

// LogoutUser forwards a session end request to the UI.
func (t *Toolset) LogoutUser() *agent.FunctionTool {
	return &agent.FunctionTool{
		Name:             "logout_user",
		Description:      "Cierra la sesión del usuario actual.",
		ParamsJSONSchema: emptyObjectSchema(),
		OnInvokeTool: func(context.Context, string) (string, error) {
			return encode(actions.Logout{})
		},
	}
}
