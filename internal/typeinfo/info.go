// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"fmt"
	"reflect"
)

// Role is the declared classification of a query field. It decides how the
// field value ends up in the generated SQL.
type Role int

const (
	// Parameter fields are bound as a single query parameter.
	Parameter Role = iota
	// ListParameter fields hold a slice or array; every item is bound as its
	// own parameter and the markers are parenthesised.
	ListParameter
	// NonParameter fields are written into the SQL text as they are.
	NonParameter
	// Nested fields hold another query which is translated in place.
	Nested
)

func (r Role) String() string {
	switch r {
	case Parameter:
		return "parameter"
	case ListParameter:
		return "list"
	case NonParameter:
		return "nonparam"
	case Nested:
		return "nested"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Query is implemented by every query type. Template returns the SQL template
// containing {name} placeholders.
type Query interface {
	Template() string
}

// Describer is implemented by queries which supply their own resolved field
// list instead of having it derived from struct tags.
type Describer interface {
	Query
	Fields() ([]Field, error)
}

// Field is a query field resolved against a query value.
type Field struct {
	Name  string
	Role  Role
	Value any
}

// Member represents a single tagged field from a query struct type.
type Member struct {
	// Name is the placeholder name taken from the "sql" tag.
	Name string

	// FieldName is the name of the struct field.
	FieldName string

	// Index of this field in the structure.
	Index int

	// Type is the declared type of the struct field.
	Type reflect.Type

	Role Role

	// addr is set for nested members whose type only implements Query
	// through a pointer receiver.
	addr bool
}

// Info represents reflected information about a query struct type.
type Info struct {
	Type reflect.Type

	// Members in declaration order.
	Members []Member
}
