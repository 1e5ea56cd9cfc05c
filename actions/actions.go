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

// Package actions defines the closed set of structured side effects a
// conversational turn may produce. Each action is an immutable tagged
// record: its JSON form carries the tag in an "action" field, which is
// also the wire format the frontend consumes.
package actions

import "encoding/json"

// Kind is the tag that discriminates action variants.
type Kind string

const (
	KindUpdateForm       Kind = "update_form"
	KindSubmitForm       Kind = "submit_form"
	KindProductCreated   Kind = "product_created"
	KindProductsListed   Kind = "products_listed"
	KindProductUpdated   Kind = "product_updated"
	KindProductDeleted   Kind = "product_deleted"
	KindOpenProductForm  Kind = "open_product_form"
	KindCloseProductForm Kind = "close_product_form"
	KindLogin            Kind = "login"
	KindLogout           Kind = "logout"
	KindError            Kind = "error"
)

// Action is a tagged, serializable record of one structured side effect
// or query outcome produced during a turn.
type Action interface {
	json.Marshaler
	Kind() Kind

	isAction()
}

// UpdateForm fills one field of the product form on the client.
type UpdateForm struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SubmitForm asks the client to submit the current form.
type SubmitForm struct{}

// ProductCreated reports a product persisted to storage.
type ProductCreated struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
}

// ProductSummary is the per-product payload of a ProductsListed action.
type ProductSummary struct {
	ID        int64  `json:"id"`
	Nombre    string `json:"nombre"`
	Categoria string `json:"categoria"`
	Ubicacion string `json:"ubicacion"`
	Cantidad  int    `json:"cantidad"`
}

// ProductsListed reports the outcome of an inventory listing.
type ProductsListed struct {
	Count    int              `json:"count"`
	Products []ProductSummary `json:"products"`
}

// ProductUpdated reports one field of a product changed in storage.
type ProductUpdated struct {
	ProductID int64  `json:"product_id"`
	Field     string `json:"field"`
}

// ProductDeleted reports a product removed from storage.
type ProductDeleted struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
}

// OpenProductForm asks the client to open the product creation form.
type OpenProductForm struct{}

// CloseProductForm asks the client to dismiss the product creation form.
type CloseProductForm struct{}

// Login asks the client to start a session with the given credentials.
// It is forwarded to the client as-is, without server-side checks.
type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Logout asks the client to end the current session.
type Logout struct{}

// Error reports a fault inside an action handler.
type Error struct {
	Message string `json:"message"`
}

func (UpdateForm) Kind() Kind       { return KindUpdateForm }
func (SubmitForm) Kind() Kind       { return KindSubmitForm }
func (ProductCreated) Kind() Kind   { return KindProductCreated }
func (ProductsListed) Kind() Kind   { return KindProductsListed }
func (ProductUpdated) Kind() Kind   { return KindProductUpdated }
func (ProductDeleted) Kind() Kind   { return KindProductDeleted }
func (OpenProductForm) Kind() Kind  { return KindOpenProductForm }
func (CloseProductForm) Kind() Kind { return KindCloseProductForm }
func (Login) Kind() Kind            { return KindLogin }
func (Logout) Kind() Kind           { return KindLogout }
func (Error) Kind() Kind            { return KindError }

func (UpdateForm) isAction()       {}
func (SubmitForm) isAction()       {}
func (ProductCreated) isAction()   {}
func (ProductsListed) isAction()   {}
func (ProductUpdated) isAction()   {}
func (ProductDeleted) isAction()   {}
func (OpenProductForm) isAction()  {}
func (CloseProductForm) isAction() {}
func (Login) isAction()            {}
func (Logout) isAction()           {}
func (Error) isAction()            {}

func (a UpdateForm) MarshalJSON() ([]byte, error) {
	type alias UpdateForm
	return json.Marshal(struct {
		Action Kind `json:"action"`
		alias
	}{KindUpdateForm, alias(a)})
}

func (a SubmitForm) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Action Kind `json:"action"`
	}{KindSubmitForm})
}

func (a ProductCreated) MarshalJSON() ([]byte, error) {
	type alias ProductCreated
	return json.Marshal(struct {
		Action Kind `json:"action"`
		alias
	}{KindProductCreated, alias(a)})
}

func (a ProductsListed) MarshalJSON() ([]byte, error) {
	type alias ProductsListed
	return json.Marshal(struct {
		Action Kind `json:"action"`
		alias
	}{KindProductsListed, alias(a)})
}

func (a ProductUpdated) MarshalJSON() ([]byte, error) {
	type alias ProductUpdated
	return json.Marshal(struct {
		Action Kind `json:"action"`
		alias
	}{KindProductUpdated, alias(a)})
}

func (a ProductDeleted) MarshalJSON() ([]byte, error) {
	type alias ProductDeleted
	return json.Marshal(struct {
		Action Kind `json:"action"`
		alias
	}{KindProductDeleted, alias(a)})
}

func (a OpenProductForm) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Action Kind `json:"action"`
	}{KindOpenProductForm})
}

func (a CloseProductForm) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Action Kind `json:"action"`
	}{KindCloseProductForm})
}

func (a Login) MarshalJSON() ([]byte, error) {
	type alias Login
	return json.Marshal(struct {
		Action Kind `json:"action"`
		alias
	}{KindLogin, alias(a)})
}

func (a Logout) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Action Kind `json:"action"`
	}{KindLogout})
}

func (a Error) MarshalJSON() ([]byte, error) {
	type alias Error
	return json.Marshal(struct {
		Action Kind `json:"action"`
		alias
	}{KindError, alias(a)})
}

// Decode attempts to parse a raw handler result as an action.
//
// The second return value is false when the input is not valid JSON, does
// not carry a recognized tag, or its payload does not decode. Callers must
// treat that as "no action produced", never as an error: malformed handler
// output must not abort a turn.
func Decode(raw string) (Action, bool) {
	var probe struct {
		Action Kind `json:"action"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, false
	}

	switch probe.Action {
	case KindUpdateForm:
		return decodeAs[UpdateForm](raw)
	case KindSubmitForm:
		return decodeAs[SubmitForm](raw)
	case KindProductCreated:
		return decodeAs[ProductCreated](raw)
	case KindProductsListed:
		return decodeAs[ProductsListed](raw)
	case KindProductUpdated:
		return decodeAs[ProductUpdated](raw)
	case KindProductDeleted:
		return decodeAs[ProductDeleted](raw)
	case KindOpenProductForm:
		return decodeAs[OpenProductForm](raw)
	case KindCloseProductForm:
		return decodeAs[CloseProductForm](raw)
	case KindLogin:
		return decodeAs[Login](raw)
	case KindLogout:
		return decodeAs[Logout](raw)
	case KindError:
		return decodeAs[Error](raw)
	default:
		return nil, false
	}
}

func decodeAs[T Action](raw string) (Action, bool) {
	var a T
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, false
	}
	return a, true
}
