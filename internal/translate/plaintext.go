// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package translate

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"

	"github.com/canonical/sqlform/internal/template"
	"github.com/canonical/sqlform/internal/typeinfo"
)

// PlainText translates queries into SQL with every value written inline. The
// output is meant for display and debugging, it has no parameters.
//
// String values are quoted but quotes inside them are not escaped.
type PlainText struct{}

// Translate implements Translator. The Params of the result are always nil.
func (PlainText) Translate(q any) (res *Result, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot translate query: %w", err)
		}
	}()

	var acc template.Accumulator
	if err := translate(literals{}, &acc, q); err != nil {
		return nil, err
	}
	return &Result{SQL: acc.String()}, nil
}

// literals is the dialect of PlainText.
type literals struct{}

func (literals) escape(text string) string {
	return text
}

func (literals) scalar(acc *template.Accumulator, value any) error {
	s, err := Literal(value)
	if err != nil {
		return err
	}
	acc.WriteString(s)
	return nil
}

func (literals) list(acc *template.Accumulator, items []any) error {
	return writeList(acc, items, Literal)
}

// Literal renders a value as SQL text. Numbers are written bare, booleans as
// TRUE or FALSE, nil as NULL, and anything else as its text surrounded by
// single quotes. A byte slice is quoted as the text it holds. Pointers are
// followed and driver.Valuer values are rendered through their Value.
func Literal(value any) (string, error) {
	if valuer, ok := value.(driver.Valuer); ok {
		v := reflect.ValueOf(valuer)
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return "NULL", nil
		}
		dv, err := valuer.Value()
		if err != nil {
			return "", fmt.Errorf("%w: %s", typeinfo.ErrInvalidValue, err)
		}
		value = dv
	}

	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "NULL", nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Invalid:
		return "NULL", nil
	case reflect.Bool:
		if v.Bool() {
			return "TRUE", nil
		}
		return "FALSE", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return "'" + string(v.Bytes()) + "'", nil
		}
	}
	return "'" + fmt.Sprint(v.Interface()) + "'", nil
}
