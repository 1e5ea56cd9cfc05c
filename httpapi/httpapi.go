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

// Package httpapi is the REST surface over the product and user
// records. Handlers are unauthenticated; token issuance and validation
// are out of scope for this service.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/petvoz/petvoz/logging"
	"github.com/petvoz/petvoz/store"
)

type API struct {
	store store.Store
}

func New(s store.Store) *API {
	return &API{store: s}
}

// Handler builds a standalone router serving only the REST routes.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	a.Register(r)
	return CORS(r)
}

// Register mounts the REST routes on an existing router.
func (a *API) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", a.createProduct)
		r.Get("/", a.listProducts)
		r.Get("/{productID}", a.getProduct)
		r.Put("/{productID}", a.updateProduct)
		r.Delete("/{productID}", a.deleteProduct)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", a.createUser)
		r.Get("/", a.listUsers)
		r.Get("/{userID}", a.getUser)
		r.Put("/{userID}", a.updateUser)
		r.Delete("/{userID}", a.deleteUser)
	})
}

// CORS is wide open: the browser client is served from another origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type productCreate struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	Categoria   string `json:"categoria"`
	Ubicacion   string `json:"ubicacion"`
	Cantidad    int    `json:"cantidad"`
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	var body productCreate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Cuerpo de petición inválido")
		return
	}
	if body.Nombre == "" || body.Ubicacion == "" {
		writeError(w, http.StatusBadRequest, "nombre y ubicacion son obligatorios")
		return
	}
	// Unlike the voice path, the REST surface rejects bad categories
	// instead of coercing them.
	categoria, ok := store.ParseCategory(body.Categoria)
	if !ok {
		writeError(w, http.StatusBadRequest, "Categoría inválida: "+body.Categoria)
		return
	}
	if body.Cantidad <= 0 {
		body.Cantidad = 1
	}

	product := &store.Product{
		Nombre:      body.Nombre,
		Descripcion: body.Descripcion,
		Categoria:   categoria,
		Ubicacion:   body.Ubicacion,
		Cantidad:    body.Cantidad,
	}
	if err := a.store.CreateProduct(r.Context(), product); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.ProductFilter{
		Offset: queryInt(query.Get("skip"), 0),
		Limit:  queryInt(query.Get("limit"), 100),
	}
	if categoria := query.Get("categoria"); categoria != "" {
		// Invalid filters are ignored, matching the voice listing.
		if c, ok := store.ParseCategory(categoria); ok {
			filter.Categoria = c
		}
	}
	filter.Ubicacion = query.Get("ubicacion")

	products, err := a.store.ListProducts(r.Context(), filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if products == nil {
		products = []*store.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *API) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	product, err := a.store.GetProduct(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

type productUpdate struct {
	Nombre      *string `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	Categoria   *string `json:"categoria"`
	Ubicacion   *string `json:"ubicacion"`
	Cantidad    *int    `json:"cantidad"`
}

func (a *API) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	var body productUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Cuerpo de petición inválido")
		return
	}

	upd := store.ProductUpdate{
		Nombre:      body.Nombre,
		Descripcion: body.Descripcion,
		Ubicacion:   body.Ubicacion,
		Cantidad:    body.Cantidad,
	}
	if body.Categoria != nil {
		categoria, ok := store.ParseCategory(*body.Categoria)
		if !ok {
			writeError(w, http.StatusBadRequest, "Categoría inválida: "+*body.Categoria)
			return
		}
		upd.Categoria = &categoria
	}

	product, err := a.store.UpdateProduct(r.Context(), id, upd)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (a *API) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	if _, err := a.store.DeleteProduct(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type userCreate struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	IsAdmin  bool   `json:"is_admin"`
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var body userCreate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Cuerpo de petición inválido")
		return
	}
	if body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "email y password son obligatorios")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error interno")
		return
	}

	user := &store.User{
		Nombre:         body.Nombre,
		Email:          body.Email,
		HashedPassword: string(hash),
		Role:           body.Role,
		IsActive:       true,
		IsAdmin:        body.IsAdmin,
	}
	if err := a.store.CreateUser(r.Context(), user); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	users, err := a.store.ListUsers(r.Context(),
		queryInt(query.Get("skip"), 0),
		queryInt(query.Get("limit"), 100))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if users == nil {
		users = []*store.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	user, err := a.store.GetUser(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type userUpdate struct {
	Nombre *string `json:"nombre"`
	Role   *string `json:"role"`
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var body userUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Cuerpo de petición inválido")
		return
	}

	user, err := a.store.UpdateUser(r.Context(), id, store.UserUpdate{
		Nombre: body.Nombre,
		Role:   body.Role,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := a.store.DeleteUser(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Identificador inválido")
		return 0, false
	}
	return id, true
}

func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "Producto no encontrado")
	case errors.Is(err, store.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "Usuario no encontrado")
	default:
		logging.Logger().Error("storage failure", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "error interno")
	}
}
