// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package translate renders query values into SQL for a given dialect.

Every translator walks the query the same way. The template is expanded left
to right; at each placeholder the field it names is resolved according to its
declared role:

  - a nested query is translated in place by the same translator, its text and
    parameters going into the parent output;
  - a non parameter value is written as text;
  - a list parameter is written as a parenthesised, comma separated list;
  - a parameter is written as a single marker or literal.

The dialect only decides the text written for each case. One accumulator is
owned by each top level call and shared by all nested expansions, so the
parameters always follow the order of the markers in the output.
*/
package translate
