// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrDeclaration is returned for malformed query types, for example an
	// invalid "sql" tag.
	ErrDeclaration = errors.New("invalid query declaration")

	// ErrTypeMismatch is returned when a field value does not have the shape
	// its role requires.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidValue is returned when a query or field value cannot be read.
	ErrInvalidValue = errors.New("invalid value")
)

// cacheSize bounds the number of query types kept in the cache.
const cacheSize = 1024

var cache *lru.Cache[reflect.Type, *Info]

func init() {
	var err error
	cache, err = lru.New[reflect.Type, *Info](cacheSize)
	if err != nil {
		panic(err)
	}
}

var queryInterface = reflect.TypeOf((*Query)(nil)).Elem()

// GetTypeInfo returns the Info of the query struct type t, generating and
// caching it as required. Pointer types are dereferenced.
func GetTypeInfo(t reflect.Type) (*Info, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: cannot reflect nil type", ErrInvalidValue)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if info, found := cache.Get(t); found {
		return info, nil
	}

	info, err := generate(t)
	if err != nil {
		return nil, err
	}
	cache.Add(t, info)
	return info, nil
}

// generate produces the reflection information for the query struct type t.
func generate(t reflect.Type) (*Info, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: need struct, got %s", ErrDeclaration, t.Kind())
	}

	info := Info{Type: t}
	seen := make(map[string]string)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		// Fields without a "sql" tag are outside of sqlform's remit.
		tag, ok := field.Tag.Lookup("sql")
		if !ok {
			continue
		}
		name, flag, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s.%s: %s", ErrDeclaration, t.Name(), field.Name, err)
		}
		if !field.IsExported() {
			return nil, fmt.Errorf("%w: field %s.%s is tagged but not exported", ErrDeclaration, t.Name(), field.Name)
		}
		if other, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: fields %s.%s and %s.%s both use name %q", ErrDeclaration, t.Name(), other, t.Name(), field.Name, name)
		}
		seen[name] = field.Name

		m := Member{
			Name:      name,
			FieldName: field.Name,
			Index:     i,
			Type:      field.Type,
		}
		m.Role, m.addr, err = classify(field.Type, flag)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s.%s: %s", ErrDeclaration, t.Name(), field.Name, err)
		}
		info.Members = append(info.Members, m)
	}

	return &info, nil
}

// classify decides the role of a field from its declared type and tag flag.
// The nested query check comes first so that a query typed field is never
// bound as a parameter, whatever its flag.
func classify(t reflect.Type, flag string) (role Role, addr bool, err error) {
	if t.Implements(queryInterface) {
		return Nested, false, nil
	}
	if t.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(queryInterface) {
		return Nested, true, nil
	}

	switch flag {
	case flagList:
		switch t.Kind() {
		case reflect.Slice, reflect.Array, reflect.Interface:
		default:
			return 0, false, fmt.Errorf("list field must be a slice or array, got %s", t.Kind())
		}
		return ListParameter, false, nil
	case flagNonParam:
		return NonParameter, false, nil
	}
	return Parameter, false, nil
}

const (
	flagList     = "list"
	flagNonParam = "nonparam"
)

// This expression should be aligned with the chars accepted for placeholder
// names by the template parser.
var validNameRx = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z_0-9]*$`)

// parseTag parses the input tag string and returns its name and the optional
// role flag.
func parseTag(tag string) (string, string, error) {
	options := strings.Split(tag, ",")

	// Refuse to parse if there are more than 2 items.
	if len(options) > 2 {
		return "", "", fmt.Errorf("too many options in 'sql' tag")
	}

	var flag string
	if len(options) == 2 {
		flag = strings.ToLower(strings.TrimSpace(options[1]))
		if flag != flagList && flag != flagNonParam {
			return "", "", fmt.Errorf("unexpected tag value %q", options[1])
		}
	}

	name := options[0]
	if len(name) == 0 {
		return "", "", fmt.Errorf("empty sql tag")
	}
	if !validNameRx.MatchString(name) {
		return "", "", fmt.Errorf("invalid name %q in 'sql' tag", name)
	}

	return name, flag, nil
}
