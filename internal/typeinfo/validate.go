// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"fmt"
	"reflect"
)

// Describe takes a query value and returns its template along with its fields
// in declaration order. Values implementing [Describer] supply their own
// fields, all other queries must be structs (or pointers to structs) with
// "sql" tagged fields.
func Describe(q any) (string, []Field, error) {
	v := reflect.ValueOf(q)
	if isInvalidNil(v) {
		return "", nil, fmt.Errorf("%w: need query, got nil", ErrInvalidValue)
	}

	if d, ok := q.(Describer); ok {
		fields, err := d.Fields()
		if err != nil {
			return "", nil, err
		}
		if err := validateFields(fields); err != nil {
			return "", nil, err
		}
		return d.Template(), fields, nil
	}

	query, ok := q.(Query)
	if !ok {
		return "", nil, fmt.Errorf("%w: %T does not implement Query", ErrTypeMismatch, q)
	}

	info, err := GetTypeInfo(v.Type())
	if err != nil {
		return "", nil, err
	}

	v = reflect.Indirect(v)
	fields := make([]Field, 0, len(info.Members))
	for _, m := range info.Members {
		fv := v.Field(m.Index)
		value := fv.Interface()
		if m.addr {
			// The query methods live on the pointer type; hand out a
			// pointer to a copy so the query value is never touched.
			ptr := reflect.New(m.Type)
			ptr.Elem().Set(fv)
			value = ptr.Interface()
		}
		fields = append(fields, Field{Name: m.Name, Role: m.Role, Value: value})
	}
	return query.Template(), fields, nil
}

// validateFields checks descriptor supplied fields the same way struct tags
// are checked when a query type is reflected.
func validateFields(fields []Field) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !validNameRx.MatchString(f.Name) {
			return fmt.Errorf("%w: invalid field name %q", ErrDeclaration, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: field name %q used more than once", ErrDeclaration, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

func isInvalidNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Pointer, reflect.Map, reflect.Interface, reflect.Slice:
		return v.IsNil()
	}
	return false
}
