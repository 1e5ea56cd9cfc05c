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

// Package store persists the shop's product and user records.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Category is the closed set of shop sections a product may belong to.
type Category string

const (
	CategoryAlimentacion Category = "alimentacion"
	CategoryJuguetes     Category = "juguetes"
	CategoryAccesorios   Category = "accesorios"
	CategorySalud        Category = "salud"
	CategoryHigiene      Category = "higiene"
	CategoryOtros        Category = "otros"
)

// DefaultCategory is assigned when a value does not match any category.
const DefaultCategory = CategoryOtros

// Categories returns every valid category.
func Categories() []Category {
	return []Category{
		CategoryAlimentacion,
		CategoryJuguetes,
		CategoryAccesorios,
		CategorySalud,
		CategoryHigiene,
		CategoryOtros,
	}
}

// ParseCategory matches a value against the category set, ignoring case
// and surrounding space.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// CoerceCategory parses a value, falling back to DefaultCategory when it
// does not match. Silent coercion on creation is documented business
// behavior.
func CoerceCategory(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return DefaultCategory
}

// Product is one inventory record.
type Product struct {
	ID            int64     `json:"id"`
	Nombre        string    `json:"nombre"`
	Descripcion   string    `json:"descripcion"`
	Categoria     Category  `json:"categoria"`
	Ubicacion     string    `json:"ubicacion"`
	Cantidad      int       `json:"cantidad"`
	FechaRegistro time.Time `json:"fecha_registro"`
	RegistradoPor int64     `json:"registrado_por"`
}

// User is one account record.
type User struct {
	ID             int64     `json:"id"`
	Nombre         string    `json:"nombre"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Role           string    `json:"role"`
	FechaAlta      time.Time `json:"fecha_alta"`
	IsActive       bool      `json:"is_active"`
	IsAdmin        bool      `json:"is_admin"`
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	// Optional category; empty matches all.
	Categoria Category

	// Optional location substring.
	Ubicacion string

	Offset int

	// Limit caps the number of rows. Zero or negative means no cap.
	Limit int
}

// ProductUpdate carries the fields to change; nil fields are untouched.
type ProductUpdate struct {
	Nombre      *string
	Descripcion *string
	Categoria   *Category
	Ubicacion   *string
	Cantidad    *int
}

// UserUpdate carries the fields to change; nil fields are untouched.
type UserUpdate struct {
	Nombre         *string
	Role           *string
	HashedPassword *string
}

var (
	ErrProductNotFound = errors.New("producto no encontrado")
	ErrUserNotFound    = errors.New("usuario no encontrado")
)

// Store is the storage collaborator used by the action handlers and the
// REST surface. Each call is one logical unit of work; implementations
// release whatever resources they acquire before returning.
type Store interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]*Product, error)
	UpdateProduct(ctx context.Context, id int64, upd ProductUpdate) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) (*Product, error)

	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]*User, error)
	UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*User, error)
	DeleteUser(ctx context.Context, id int64) error

	Close() error
}
