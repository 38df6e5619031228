/*
Sqlform translates query values into SQL for database drivers.

A query is a Go value carrying an SQL template with {name} placeholders along
with the values that fill them. The placeholders are filled in according to
the role of the field they name, and the same query can be translated into the
forms expected by different drivers.

# Basics

Query types are structs implementing [Query]. Their fields are tagged with the
name used in the template:

	type PersonByTeam struct {
		Table string `sql:"table,nonparam"`
		Team  string `sql:"team"`
	}

	func (PersonByTeam) Template() string {
		return `SELECT name FROM {table} WHERE team = {team}`
	}

Translating a value of the query with [ToPositional]:

	s, err := sqlform.ToPositional(PersonByTeam{Table: "person", Team: "engineering"})
	// s.SQL    => SELECT name FROM person WHERE team = ?
	// s.Params => [engineering]

The template is never parsed as SQL. Only the placeholders are replaced, even
those inside quotes. A literal brace is written as {{ or }}.

# Roles

The role of a field decides what replaces its placeholder:

 1. Parameter, the default.
    - A single marker is written and the value is added to the parameters.

 2. ListParameter, tagged with "list".
    - The value must be a slice or an array. A marker is written for each item
      in the form (?,?,?) and each item is added to the parameters.

 3. NonParameter, tagged with "nonparam".
    - The value is written into the SQL as it is. This is meant for table and
      column names and must never be used with untrusted input.

 4. Nested, for fields whose declared type implements Query.
    - The query held by the field is translated in place and its parameters
      are added where its placeholder occurs.

Only the declared type of a field makes it Nested. A query stored in a field
declared as any is a Parameter.

# Dialects

[ToPositional] writes ? markers, as used by SQLite, MySQL and ODBC drivers.
[ToPercent] and [ToMySQL] write %s markers and double any literal percent sign
in the SQL. When the final statement has no parameters the doubling is undone.
[ToPlainText] writes every value inline, for logging and debugging.

Parameters always appear in the order their markers appear in the SQL, across
all nesting levels.

# Records

Queries can also be built at run time with [NewRecord]:

	q := sqlform.NewRecord(`SELECT * FROM person WHERE id IN {ids}`,
		sqlform.List("ids", []int{1, 2, 3}),
	)

# Databases

[DB] wraps a [database/sql.DB], translating queries into the dialect of its
driver and caching the prepared statements.
*/
package sqlform
