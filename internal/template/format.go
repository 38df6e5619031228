// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package template

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrMissingBinding is returned when a template references a name which has
// no binding.
var ErrMissingBinding = errors.New("missing binding")

// Parsed is the representation of a parsed template.
type Parsed struct {
	parts []part
}

// String returns a textual representation of the parts for debugging and
// testing purposes.
func (pt *Parsed) String() string {
	var out bytes.Buffer
	out.WriteString("[")
	for i, p := range pt.parts {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(p.String())
	}
	out.WriteString("]")
	return out.String()
}

// Names returns the distinct placeholder names in order of first occurrence.
func (pt *Parsed) Names() []string {
	var names []string
	seen := make(map[string]bool)
	for _, p := range pt.parts {
		if ph, ok := p.(*placeholder); ok && !seen[ph.name] {
			seen[ph.name] = true
			names = append(names, ph.name)
		}
	}
	return names
}

// Binding resolves a single placeholder occurrence.
type Binding interface {
	// Bind writes the text for the placeholder, and any parameters it
	// stands for, to the accumulator.
	Bind(acc *Accumulator) error
}

// Bindings relates placeholder names to their bindings.
type Bindings map[string]Binding

// Format expands the template into the accumulator. The text between
// placeholders is passed through escape, if not nil, before being written.
func (pt *Parsed) Format(acc *Accumulator, bindings Bindings, escape func(string) string) error {
	for _, p := range pt.parts {
		switch p := p.(type) {
		case *bypass:
			if escape != nil {
				acc.WriteString(escape(p.chunk))
			} else {
				acc.WriteString(p.chunk)
			}
		case *placeholder:
			b, ok := bindings[p.name]
			if !ok {
				return fmt.Errorf("%w: template references unknown field %q", ErrMissingBinding, p.name)
			}
			if err := b.Bind(acc); err != nil {
				return err
			}
		default:
			return fmt.Errorf("internal error: unknown template part type %T", p)
		}
	}
	return nil
}

// Accumulator collects the generated text and parameters of one top level
// translation. It is threaded through every nested expansion.
type Accumulator struct {
	buf    bytes.Buffer
	params []any
}

// WriteString appends text to the output.
func (acc *Accumulator) WriteString(s string) {
	acc.buf.WriteString(s)
}

// AddParams appends parameters to the parameter list.
func (acc *Accumulator) AddParams(params ...any) {
	acc.params = append(acc.params, params...)
}

// String returns the text generated so far.
func (acc *Accumulator) String() string {
	return acc.buf.String()
}

// Params returns the parameters collected so far.
func (acc *Accumulator) Params() []any {
	return acc.params
}
