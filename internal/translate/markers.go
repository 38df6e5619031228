// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package translate

import (
	"fmt"
	"strings"

	"github.com/canonical/sqlform/internal/template"
)

// markers is the dialect of drivers which take the parameters separately
// from the SQL, with a fixed marker for every parameter.
type markers struct {
	marker string
	// doublePercent is set for drivers which treat % as the start of a
	// marker in the SQL text.
	doublePercent bool
}

func (m markers) escape(text string) string {
	if m.doublePercent {
		return strings.ReplaceAll(text, "%", "%%")
	}
	return text
}

func (m markers) scalar(acc *template.Accumulator, value any) error {
	acc.WriteString(m.marker)
	acc.AddParams(value)
	return nil
}

func (m markers) list(acc *template.Accumulator, items []any) error {
	err := writeList(acc, items, func(any) (string, error) {
		return m.marker, nil
	})
	if err != nil {
		return err
	}
	acc.AddParams(items...)
	return nil
}

// Positional translates queries for drivers using "?" markers, such as
// SQLite, MySQL and ODBC drivers.
type Positional struct{}

// Translate implements Translator.
func (Positional) Translate(q any) (res *Result, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot translate query: %w", err)
		}
	}()

	var acc template.Accumulator
	if err := translate(markers{marker: "?"}, &acc, q); err != nil {
		return nil, err
	}
	return &Result{SQL: acc.String(), Params: acc.Params()}, nil
}

// Percent translates queries for drivers using "%s" markers. Literal "%"
// characters in the template and in non parameter values are doubled so the
// driver does not mistake them for markers.
type Percent struct{}

// Translate implements Translator.
func (Percent) Translate(q any) (res *Result, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot translate query: %w", err)
		}
	}()

	var acc template.Accumulator
	if err := translate(markers{marker: "%s", doublePercent: true}, &acc, q); err != nil {
		return nil, err
	}

	sql := acc.String()
	// Drivers only undo the doubling when they interpolate parameters. With
	// none to bind the SQL is sent as it is, so the doubling is undone here.
	// This is only done once the outermost query is complete.
	if len(acc.Params()) == 0 {
		sql = strings.ReplaceAll(sql, "%%", "%")
	}
	return &Result{SQL: sql, Params: acc.Params()}, nil
}
