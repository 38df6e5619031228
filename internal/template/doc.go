// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package template parses query templates and expands them.

A template is SQL text with {name} placeholders. Names start with a letter or
an underscore followed by letters, digits or underscores. "{{" and "}}" are
escapes for literal braces. Any other brace is copied to the output as it is.

Expansion is a single left to right pass. Each placeholder occurrence is
resolved by its [Binding], which writes text and parameters to the
[Accumulator] shared by the whole translation, so the parameters are always
in the order their markers appear in the final text.
*/
package template
