// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package typeinfo contains code relating to Go query types and their processing
in sqlform. As much as possible, reflection code is limited to this package.

A query type is a struct that implements [Query]. Its fields tagged with
`sql:"name"` are the query fields, each referenced by name from the template.
The role of every field is decided once, from the declared type and the tag,
when the type is first seen, and cached alongside the field description. The
translators only ever read the resolved [Field] list returned by [Describe].
*/
package typeinfo
