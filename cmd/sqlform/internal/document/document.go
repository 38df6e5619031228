// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package document decodes queries written as YAML documents:
//
//	template: SELECT * FROM "{table}" WHERE id IN {ids} AND {cond}
//	fields:
//	  - {name: table, role: nonparam, value: person}
//	  - {name: ids, role: list, value: [1, 2]}
//	  - name: cond
//	    query:
//	      template: team = {team}
//	      fields:
//	        - {name: team, value: engineering}
//
// Fields without a role are parameters. A field holding a query is nested.
package document

import (
	"errors"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/canonical/sqlform"
	"github.com/canonical/sqlform/internal/template"
)

// ErrInvalidDocument is returned for documents that do not describe a query.
var ErrInvalidDocument = errors.New("invalid document")

// Document is a query along with the values of its fields.
type Document struct {
	Template string  `yaml:"template"`
	Fields   []Field `yaml:"fields"`
}

// Field is a single field of a Document.
type Field struct {
	Name  string    `yaml:"name"`
	Role  string    `yaml:"role,omitempty"`
	Value any       `yaml:"value,omitempty"`
	Query *Document `yaml:"query,omitempty"`
}

// Parse decodes a document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, err)
	}
	return &doc, nil
}

var roles = map[string]sqlform.Role{
	"":          sqlform.Parameter,
	"param":     sqlform.Parameter,
	"parameter": sqlform.Parameter,
	"list":      sqlform.ListParameter,
	"nonparam":  sqlform.NonParameter,
	"raw":       sqlform.NonParameter,
	"nested":    sqlform.Nested,
	"query":     sqlform.Nested,
}

// Query returns the query described by the document.
func (d *Document) Query() (*sqlform.Record, error) {
	if strings.TrimSpace(d.Template) == "" {
		return nil, fmt.Errorf("%w: no template", ErrInvalidDocument)
	}

	fields := make([]sqlform.Field, 0, len(d.Fields))
	for i, f := range d.Fields {
		role, ok := roles[strings.ToLower(f.Role)]
		if !ok {
			return nil, fmt.Errorf("%w: field %d (%s): unknown role %q", ErrInvalidDocument, i, f.Name, f.Role)
		}
		if f.Query != nil && f.Role == "" {
			role = sqlform.Nested
		}

		switch {
		case role == sqlform.Nested && f.Query == nil:
			return nil, fmt.Errorf("%w: field %d (%s): nested field has no query", ErrInvalidDocument, i, f.Name)
		case role != sqlform.Nested && f.Query != nil:
			return nil, fmt.Errorf("%w: field %d (%s): query given for %s field", ErrInvalidDocument, i, f.Name, role)
		case role == sqlform.Nested:
			sub, err := f.Query.Query()
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			fields = append(fields, sqlform.Sub(f.Name, sub))
		default:
			fields = append(fields, sqlform.Field{Name: f.Name, Role: role, Value: f.Value})
		}
	}
	return sqlform.NewRecord(d.Template, fields...), nil
}

// Unreferenced returns the names of the fields that the template of their
// document never refers to, in this document and the queries nested in it.
// Names in nested documents are prefixed with the path of fields leading to
// them, e.g. "cond.team".
func (d *Document) Unreferenced() []string {
	referenced := make(map[string]bool)
	for _, name := range template.Parse(d.Template).Names() {
		referenced[name] = true
	}
	var unused []string
	for _, f := range d.Fields {
		if !referenced[f.Name] {
			unused = append(unused, f.Name)
			continue
		}
		if f.Query != nil {
			for _, name := range f.Query.Unreferenced() {
				unused = append(unused, f.Name+"."+name)
			}
		}
	}
	return unused
}
