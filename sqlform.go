// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlform

import (
	"fmt"
	"strings"

	"github.com/canonical/sqlform/internal/template"
	"github.com/canonical/sqlform/internal/translate"
	"github.com/canonical/sqlform/internal/typeinfo"
)

// Query is implemented by every query type. Template returns the SQL text of
// the query with "{name}" placeholders for its fields.
type Query = typeinfo.Query

// Role says how a field of a query is written into the SQL.
type Role = typeinfo.Role

const (
	// Parameter fields are bound as a single driver parameter.
	Parameter = typeinfo.Parameter
	// ListParameter fields are bound as a parenthesised list of parameters,
	// one per item.
	ListParameter = typeinfo.ListParameter
	// NonParameter fields are written straight into the SQL text.
	NonParameter = typeinfo.NonParameter
	// Nested fields hold another query which is translated in place.
	Nested = typeinfo.Nested
)

// Field is a named query field along with its role and value.
type Field = typeinfo.Field

var (
	ErrDeclaration    = typeinfo.ErrDeclaration
	ErrTypeMismatch   = typeinfo.ErrTypeMismatch
	ErrInvalidValue   = typeinfo.ErrInvalidValue
	ErrMissingBinding = template.ErrMissingBinding
)

// Record is a query built at run time from a template and a list of fields,
// for when declaring a struct type is not convenient.
//
//	q := sqlform.NewRecord(`SELECT * FROM {table} WHERE id IN {ids}`,
//		sqlform.Raw("table", "person"),
//		sqlform.List("ids", []int{1, 2, 3}),
//	)
type Record struct {
	template string
	fields   []Field
}

// NewRecord returns a query with the given template and fields.
func NewRecord(template string, fields ...Field) *Record {
	return &Record{template: template, fields: fields}
}

// With returns a copy of the record with the fields added.
func (r *Record) With(fields ...Field) *Record {
	all := make([]Field, 0, len(r.fields)+len(fields))
	all = append(all, r.fields...)
	all = append(all, fields...)
	return &Record{template: r.template, fields: all}
}

// Template implements Query.
func (r *Record) Template() string {
	return r.template
}

// Fields returns the fields of the record in the order they were given.
func (r *Record) Fields() ([]Field, error) {
	return r.fields, nil
}

// Param returns a Parameter field.
func Param(name string, value any) Field {
	return Field{Name: name, Role: Parameter, Value: value}
}

// List returns a ListParameter field. The value must be a slice or an array.
func List(name string, values any) Field {
	return Field{Name: name, Role: ListParameter, Value: values}
}

// Raw returns a NonParameter field. Its value is written into the SQL without
// any quoting and must never come from untrusted input.
func Raw(name string, value any) Field {
	return Field{Name: name, Role: NonParameter, Value: value}
}

// Sub returns a Nested field.
func Sub(name string, q Query) Field {
	return Field{Name: name, Role: Nested, Value: q}
}

// Statement is a translated query ready to be passed to a database driver.
type Statement struct {
	SQL    string
	Params []any
}

// String returns the SQL followed by the parameters, if there are any.
func (s *Statement) String() string {
	if len(s.Params) == 0 {
		return s.SQL
	}
	return fmt.Sprintf("%s %v", s.SQL, s.Params)
}

func newStatement(res *translate.Result) *Statement {
	return &Statement{SQL: res.SQL, Params: res.Params}
}

// ToPositional translates the query into SQL with a "?" marker for each
// parameter.
func ToPositional(q Query) (*Statement, error) {
	res, err := translate.Positional{}.Translate(q)
	if err != nil {
		return nil, err
	}
	return newStatement(res), nil
}

// ToPercent translates the query into SQL with a "%s" marker for each
// parameter. Percent signs in the SQL are doubled, unless the statement has no
// parameters at all.
func ToPercent(q Query) (*Statement, error) {
	res, err := translate.Percent{}.Translate(q)
	if err != nil {
		return nil, err
	}
	return newStatement(res), nil
}

// ToMySQL translates the query for MySQL drivers using "%s" markers. The
// output is the same as [ToPercent].
func ToMySQL(q Query) (*Statement, error) {
	return ToPercent(q)
}

// ToPlainText renders the query as SQL with all values written inline. The
// result is meant to be read by people, not executed: quotes inside string
// values are not escaped.
func ToPlainText(q Query) (string, error) {
	res, err := translate.PlainText{}.Translate(q)
	if err != nil {
		return "", err
	}
	return res.SQL, nil
}

// MustPlainText is the same as [ToPlainText] except that it panics on error.
func MustPlainText(q Query) string {
	s, err := ToPlainText(q)
	if err != nil {
		panic(err)
	}
	return s
}

// Dialect selects the form of the translated SQL.
type Dialect int

const (
	Positional Dialect = iota
	Percent
	MySQL
	PlainText
)

var dialectNames = map[Dialect]string{
	Positional: "positional",
	Percent:    "percent",
	MySQL:      "mysql",
	PlainText:  "plain",
}

var dialectAliases = map[string]Dialect{
	"positional": Positional,
	"qmark":      Positional,
	"sqlite":     Positional,
	"odbc":       Positional,
	"percent":    Percent,
	"format":     Percent,
	"psycopg":    Percent,
	"mysql":      MySQL,
	"plain":      PlainText,
	"plaintext":  PlainText,
	"text":       PlainText,
}

var translators = map[Dialect]translate.Translator{
	Positional: translate.Positional{},
	Percent:    translate.Percent{},
	MySQL:      translate.Percent{},
	PlainText:  translate.PlainText{},
}

func (d Dialect) String() string {
	if name, ok := dialectNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

// ParseDialect returns the dialect with the given name. Names are case
// insensitive.
func ParseDialect(name string) (Dialect, error) {
	d, ok := dialectAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown dialect %q", name)
	}
	return d, nil
}

// Translate translates the query into the given dialect. Statements in the
// PlainText dialect have no parameters.
func Translate(d Dialect, q Query) (*Statement, error) {
	t, ok := translators[d]
	if !ok {
		return nil, fmt.Errorf("cannot translate query: unknown dialect %s", d)
	}
	res, err := t.Translate(q)
	if err != nil {
		return nil, err
	}
	return newStatement(res), nil
}
