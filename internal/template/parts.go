// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package template

// A part represents a section of a parsed template. The parsed template is
// represented as a list of parts.
type part interface {
	// String returns a string representation of the part for debugging and
	// testing purposes.
	String() string

	// part is a marker method.
	part()
}

// placeholder represents a {name} reference to a query field.
type placeholder struct {
	name string
}

func (p *placeholder) String() string {
	return "Placeholder[" + p.name + "]"
}

// Marker function for part.
func (p *placeholder) part() {}

// bypass represents template text which is copied to the output. Brace
// escapes have already been resolved.
type bypass struct {
	chunk string
}

func (p *bypass) String() string {
	return "Bypass[" + p.chunk + "]"
}

// Marker function for part.
func (p *bypass) part() {}
