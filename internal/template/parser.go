// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package template

import (
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheSize bounds the number of parsed templates kept in the cache.
const cacheSize = 1024

var cache *lru.Cache[string, *Parsed]

func init() {
	var err error
	cache, err = lru.New[string, *Parsed](cacheSize)
	if err != nil {
		panic(err)
	}
}

// Parse returns the parsed form of the template, parsing and caching it as
// required. Parsing never fails: text which is not a placeholder or a brace
// escape is kept as it is.
func Parse(input string) *Parsed {
	if parsed, ok := cache.Get(input); ok {
		return parsed
	}
	parsed := NewParser().Parse(input)
	cache.Add(input, parsed)
	return parsed
}

func NewParser() *Parser {
	return &Parser{}
}

// Parser splits a template into bypass chunks and {name} placeholders.
type Parser struct {
	input string
	pos   int
	// nextPos is start of the next char.
	nextPos int
	// char is the rune starting at pos. char is set to 0 when pos reaches the
	// end of input.
	char rune
	// chunk holds the unescaped text seen since the last placeholder.
	chunk strings.Builder
	// parts are the output of the parser. Parts are added as they are
	// parsed.
	parts []part
}

// Parse takes a template string and returns a Parsed template.
func (p *Parser) Parse(input string) *Parsed {
	p.init(input)

	for p.pos < len(p.input) {
		switch p.char {
		case '{':
			if p.skipString("{{") {
				p.chunk.WriteByte('{')
				continue
			}
			if name, ok := p.parsePlaceholder(); ok {
				p.add(&placeholder{name: name})
				continue
			}
		case '}':
			if p.skipString("}}") {
				p.chunk.WriteByte('}')
				continue
			}
		}
		p.chunk.WriteRune(p.char)
		p.advanceChar()
	}

	// Add any remaining text.
	p.add(nil)
	return &Parsed{parts: p.parts}
}

// init resets the state of the parser and sets the input string.
func (p *Parser) init(input string) {
	p.input = input
	p.pos = 0
	p.nextPos = 0
	p.char = 0
	p.chunk.Reset()
	p.parts = []part{}
	p.advanceChar()
}

// advanceChar moves the parser to the next character in the input.
func (p *Parser) advanceChar() bool {
	if p.nextPos >= len(p.input) {
		p.char = 0
		p.pos = p.nextPos
		return false
	}
	var size int
	p.char, size = utf8.DecodeRuneInString(p.input[p.nextPos:])
	p.pos = p.nextPos
	p.nextPos += size
	return true
}

// add pushes the pending bypass chunk, if any, followed by the part.
func (p *Parser) add(pt part) {
	if p.chunk.Len() > 0 {
		p.parts = append(p.parts, &bypass{chunk: p.chunk.String()})
		p.chunk.Reset()
	}
	if pt != nil {
		p.parts = append(p.parts, pt)
	}
}

// skipString jumps over s if the input at the current position starts with it.
func (p *Parser) skipString(s string) bool {
	if strings.HasPrefix(p.input[p.pos:], s) {
		p.nextPos = p.pos + len(s)
		p.advanceChar()
		return true
	}
	return false
}

// parsePlaceholder parses "{name}" at the current position. If the input
// there is not a placeholder the parser is left unchanged.
func (p *Parser) parsePlaceholder() (string, bool) {
	pos, nextPos, char := p.pos, p.nextPos, p.char
	restore := func() {
		p.pos, p.nextPos, p.char = pos, nextPos, char
	}

	if p.char != '{' {
		return "", false
	}
	p.advanceChar()
	start := p.pos
	if p.pos >= len(p.input) || !isInitialNameChar(p.char) {
		restore()
		return "", false
	}
	for p.pos < len(p.input) && isNameChar(p.char) {
		p.advanceChar()
	}
	name := p.input[start:p.pos]
	if p.pos >= len(p.input) || p.char != '}' {
		restore()
		return "", false
	}
	p.advanceChar()
	return name, true
}

// isNameChar returns true if the given char can be part of a name.
func isNameChar(c rune) bool {
	return isInitialNameChar(c) || ('0' <= c && c <= '9')
}

// isInitialNameChar returns true if the given char can appear at the start of
// a name. Only ASCII names are accepted, the same as in "sql" tags.
func isInitialNameChar(c rune) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}
