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

package store

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a SQLite-based implementation of Store.
//
// By default, uses an in-memory database that is lost when the process
// ends. For persistent storage, provide a file path.
type SQLiteStore struct {
	dbDSN         string
	productsTable string
	usersTable    string
	db            *sql.DB
	mu            sync.Mutex
}

type SQLiteStoreParams struct {
	// Optional database data source name.
	// Defaults to "file::memory:?cache=shared" (in-memory database).
	DBDataSourceName string

	// Optional name of the table holding product records.
	// Defaults to "productos".
	ProductsTable string

	// Optional name of the table holding user records.
	// Defaults to "users".
	UsersTable string
}

// NewSQLiteStore initializes the SQLite store.
func NewSQLiteStore(ctx context.Context, params SQLiteStoreParams) (_ *SQLiteStore, err error) {
	s := &SQLiteStore{
		dbDSN:         cmp.Or(params.DBDataSourceName, "file::memory:?cache=shared"),
		productsTable: cmp.Or(params.ProductsTable, "productos"),
		usersTable:    cmp.Or(params.UsersTable, "users"),
	}

	defer func() {
		if err != nil {
			if e := s.Close(); e != nil {
				err = errors.Join(err, e)
			}
		}
	}()

	s.db, err = sql.Open("sqlite3", s.dbDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite3 database: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `PRAGMA journal_mode=WAL`)
	if err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	err = s.initDB(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initDB(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s" (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nombre TEXT NOT NULL,
			descripcion TEXT NOT NULL DEFAULT '',
			categoria TEXT NOT NULL,
			ubicacion TEXT NOT NULL,
			cantidad INTEGER NOT NULL DEFAULT 1,
			fecha_registro TIMESTAMP NOT NULL,
			registrado_por INTEGER NOT NULL DEFAULT 0
		)
	`, s.productsTable))
	if err != nil {
		return fmt.Errorf("failed to create products table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s" (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nombre TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'staff',
			fecha_alta TIMESTAMP NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			is_admin INTEGER NOT NULL DEFAULT 0
		)
	`, s.usersTable))
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateProduct(ctx context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.FechaRegistro.IsZero() {
		p.FechaRegistro = time.Now().UTC()
	}
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO "%s" (nombre, descripcion, categoria, ubicacion, cantidad, fecha_registro, registrado_por)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.productsTable),
		p.Nombre, p.Descripcion, string(p.Categoria), p.Ubicacion, p.Cantidad, p.FechaRegistro, p.RegistradoPor)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	p.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted product id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetProduct(ctx context.Context, id int64) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getProductLocked(ctx, id)
}

func (s *SQLiteStore) getProductLocked(ctx context.Context, id int64) (*Product, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, nombre, descripcion, categoria, ubicacion, cantidad, fecha_registro, registrado_por
		FROM "%s" WHERE id = ?
	`, s.productsTable), id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProducts(ctx context.Context, f ProductFilter) (_ []*Product, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := fmt.Sprintf(`
		SELECT id, nombre, descripcion, categoria, ubicacion, cantidad, fecha_registro, registrado_por
		FROM "%s" WHERE 1=1
	`, s.productsTable)
	var args []any

	if f.Categoria != "" {
		query += ` AND categoria = ?`
		args = append(args, string(f.Categoria))
	}
	if f.Ubicacion != "" {
		query += ` AND ubicacion LIKE '%' || ? || '%'`
		args = append(args, f.Ubicacion)
	}
	query += ` ORDER BY id ASC`

	limit := f.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no cap
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, max(f.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() {
		if e := rows.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("failed to close rows: %w", e))
		}
	}()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

func (s *SQLiteStore) UpdateProduct(ctx context.Context, id int64, upd ProductUpdate) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.getProductLocked(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Nombre != nil {
		p.Nombre = *upd.Nombre
	}
	if upd.Descripcion != nil {
		p.Descripcion = *upd.Descripcion
	}
	if upd.Categoria != nil {
		p.Categoria = *upd.Categoria
	}
	if upd.Ubicacion != nil {
		p.Ubicacion = *upd.Ubicacion
	}
	if upd.Cantidad != nil {
		p.Cantidad = *upd.Cantidad
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE "%s" SET nombre = ?, descripcion = ?, categoria = ?, ubicacion = ?, cantidad = ?
		WHERE id = ?
	`, s.productsTable),
		p.Nombre, p.Descripcion, string(p.Categoria), p.Ubicacion, p.Cantidad, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) DeleteProduct(ctx context.Context, id int64) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.getProductLocked(ctx, id)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM "%s" WHERE id = ?
	`, s.productsTable), id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.FechaAlta.IsZero() {
		u.FechaAlta = time.Now().UTC()
	}
	if u.Role == "" {
		u.Role = "staff"
	}
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO "%s" (nombre, email, hashed_password, role, fecha_alta, is_active, is_admin)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.usersTable),
		u.Nombre, u.Email, u.HashedPassword, u.Role, u.FechaAlta, u.IsActive, u.IsAdmin)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	u.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted user id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getUserLocked(ctx, fmt.Sprintf(`
		SELECT id, nombre, email, hashed_password, role, fecha_alta, is_active, is_admin
		FROM "%s" WHERE id = ?
	`, s.usersTable), id)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getUserLocked(ctx, fmt.Sprintf(`
		SELECT id, nombre, email, hashed_password, role, fecha_alta, is_active, is_admin
		FROM "%s" WHERE email = ?
	`, s.usersTable), email)
}

func (s *SQLiteStore) getUserLocked(ctx context.Context, query string, arg any) (*User, error) {
	row := s.db.QueryRowContext(ctx, query, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context, offset, limit int) (_ []*User, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, nombre, email, hashed_password, role, fecha_alta, is_active, is_admin
		FROM "%s" ORDER BY id ASC LIMIT ? OFFSET ?
	`, s.usersTable), limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() {
		if e := rows.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("failed to close rows: %w", e))
		}
	}()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.getUserLocked(ctx, fmt.Sprintf(`
		SELECT id, nombre, email, hashed_password, role, fecha_alta, is_active, is_admin
		FROM "%s" WHERE id = ?
	`, s.usersTable), id)
	if err != nil {
		return nil, err
	}

	if upd.Nombre != nil {
		u.Nombre = *upd.Nombre
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.HashedPassword != nil {
		u.HashedPassword = *upd.HashedPassword
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE "%s" SET nombre = ?, role = ?, hashed_password = ? WHERE id = ?
	`, s.usersTable), u.Nombre, u.Role, u.HashedPassword, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM "%s" WHERE id = ?
	`, s.usersTable), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close sqlite3 database: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p         Product
		categoria string
	)
	err := row.Scan(&p.ID, &p.Nombre, &p.Descripcion, &categoria, &p.Ubicacion, &p.Cantidad, &p.FechaRegistro, &p.RegistradoPor)
	if err != nil {
		return nil, err
	}
	p.Categoria = Category(categoria)
	return &p, nil
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Nombre, &u.Email, &u.HashedPassword, &u.Role, &u.FechaAlta, &u.IsActive, &u.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
