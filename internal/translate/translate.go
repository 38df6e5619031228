// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package translate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/canonical/sqlform/internal/template"
	"github.com/canonical/sqlform/internal/typeinfo"
)

// Result is a translated query.
type Result struct {
	SQL    string
	Params []any
}

// Translator turns a query value into SQL. Translators hold no state between
// calls and are safe for concurrent use.
type Translator interface {
	Translate(q any) (*Result, error)
}

// dialect decides how each kind of field value is written.
type dialect interface {
	// escape is applied to template text and non parameter values.
	escape(text string) string
	// scalar writes a single parameter value.
	scalar(acc *template.Accumulator, value any) error
	// list writes the items of a list parameter.
	list(acc *template.Accumulator, items []any) error
}

// translate expands the query into the accumulator. Nested queries are
// expanded into the same accumulator when their placeholder is reached.
func translate(d dialect, acc *template.Accumulator, q any) error {
	tmpl, fields, err := typeinfo.Describe(q)
	if err != nil {
		return err
	}

	bindings := make(template.Bindings, len(fields))
	for _, f := range fields {
		bindings[f.Name] = &fieldBinding{dialect: d, field: f}
	}
	return template.Parse(tmpl).Format(acc, bindings, d.escape)
}

// fieldBinding resolves the placeholder of a single query field.
type fieldBinding struct {
	dialect dialect
	field   typeinfo.Field
}

// Bind implements template.Binding.
func (b *fieldBinding) Bind(acc *template.Accumulator) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("field %q: %w", b.field.Name, err)
		}
	}()

	switch b.field.Role {
	case typeinfo.Nested:
		return translate(b.dialect, acc, b.field.Value)
	case typeinfo.NonParameter:
		text, err := rawText(b.field.Value)
		if err != nil {
			return err
		}
		acc.WriteString(b.dialect.escape(text))
		return nil
	case typeinfo.ListParameter:
		items, err := listItems(b.field.Value)
		if err != nil {
			return err
		}
		return b.dialect.list(acc, items)
	}
	// Parameter, and any role this package does not know about.
	return b.dialect.scalar(acc, b.field.Value)
}

// rawText returns the text of a non parameter value.
func rawText(value any) (string, error) {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	if !v.IsValid() || v.Kind() == reflect.Pointer {
		return "", fmt.Errorf("%w: non parameter value is nil", typeinfo.ErrInvalidValue)
	}
	if v.Kind() == reflect.String {
		return v.String(), nil
	}
	return fmt.Sprint(v.Interface()), nil
}

// listItems returns the items of a list parameter value.
func listItems(value any) ([]any, error) {
	v := reflect.Indirect(reflect.ValueOf(value))
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
	case reflect.Invalid:
		return nil, fmt.Errorf("%w: need slice or array for list, got nil", typeinfo.ErrTypeMismatch)
	default:
		return nil, fmt.Errorf("%w: need slice or array for list, got %s", typeinfo.ErrTypeMismatch, v.Kind())
	}
	items := make([]any, v.Len())
	for i := range items {
		items[i] = v.Index(i).Interface()
	}
	return items, nil
}

// writeList writes the items surrounded by parentheses and separated by
// commas.
func writeList(acc *template.Accumulator, items []any, item func(any) (string, error)) error {
	var sb strings.Builder
	sb.WriteString("(")
	for i, it := range items {
		if i > 0 {
			sb.WriteString(",")
		}
		s, err := item(it)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		sb.WriteString(s)
	}
	sb.WriteString(")")
	acc.WriteString(sb.String())
	return nil
}
