// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlform

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"runtime"
)

// ErrUnsupportedDriver is returned by [NewDB] when the dialect of the driver
// cannot be worked out or is not one that queries can be translated into.
var ErrUnsupportedDriver = errors.New("unsupported driver")

var ErrNoRows = sql.ErrNoRows

// driverDialects maps the package path of a database driver to the dialect
// it expects.
var driverDialects = map[string]Dialect{
	"github.com/mattn/go-sqlite3":           Positional,
	"modernc.org/sqlite":                    Positional,
	"github.com/go-sql-driver/mysql":        Positional,
	"github.com/canonical/go-dqlite/driver": Positional,
	"github.com/alexbrainman/odbc":          Positional,
}

// DB runs translated queries on a [sql.DB]. Translated SQL is prepared on the
// database the first time it is seen and the prepared statement is reused
// from then on.
type DB struct {
	sqldb   *sql.DB
	dialect Dialect
	cache   *statementCache
}

// NewDB creates a new [DB] from a [sql.DB]. The dialect is chosen from the
// driver of the database. Drivers that number their parameters, such as the
// PostgreSQL drivers, are not supported.
func NewDB(sqldb *sql.DB) (*DB, error) {
	if sqldb == nil {
		return nil, fmt.Errorf("cannot create DB: nil database")
	}
	d, err := driverDialect(sqldb)
	if err != nil {
		return nil, fmt.Errorf("cannot create DB: %w", err)
	}
	return newDB(sqldb, d)
}

// NewDBWithDialect creates a new [DB] from a [sql.DB] that translates queries
// into the given dialect. PlainText cannot be used as it has no parameters.
func NewDBWithDialect(sqldb *sql.DB, d Dialect) (*DB, error) {
	if sqldb == nil {
		return nil, fmt.Errorf("cannot create DB: nil database")
	}
	if _, ok := translators[d]; !ok || d == PlainText {
		return nil, fmt.Errorf("cannot create DB: dialect %s cannot be run on a database", d)
	}
	return newDB(sqldb, d)
}

func newDB(sqldb *sql.DB, d Dialect) (*DB, error) {
	cache, err := newStatementCache(stmtCacheSize)
	if err != nil {
		return nil, fmt.Errorf("cannot create DB: %w", err)
	}
	db := &DB{sqldb: sqldb, dialect: d, cache: cache}
	// The statements are closed once the DB is unreachable. The sql.DB is
	// left open, it belongs to the caller.
	runtime.SetFinalizer(db, func(db *DB) {
		db.cache.purge()
	})
	return db, nil
}

// driverDialect returns the dialect of the driver behind the database.
func driverDialect(sqldb *sql.DB) (Dialect, error) {
	drv := sqldb.Driver()
	if drv == nil {
		return 0, fmt.Errorf("%w: no driver", ErrUnsupportedDriver)
	}
	t := reflect.TypeOf(drv)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	d, ok := driverDialects[t.PkgPath()]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedDriver, t)
	}
	return d, nil
}

// Dialect returns the dialect queries are translated into.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// PlainDB returns the underlying database object.
func (db *DB) PlainDB() *sql.DB {
	return db.sqldb
}

// ClearCache closes all the statements prepared by the DB. Statements that
// are running a query are closed when the query returns.
func (db *DB) ClearCache() {
	db.cache.purge()
}

// prepare translates the query and returns its prepared statement along with
// the parameters to run it with. The statement must be released once it has
// been run.
func (db *DB) prepare(ctx context.Context, q Query) (*cachedStmt, []any, error) {
	s, err := Translate(db.dialect, q)
	if err != nil {
		return nil, nil, err
	}
	stmt, err := db.cache.prepareStmt(ctx, db.sqldb, s.SQL)
	if err != nil {
		return nil, nil, err
	}
	return stmt, s.Params, nil
}

// Query translates the query and runs it on the database, returning the rows.
// A nil context is replaced with [context.Background].
func (db *DB) Query(ctx context.Context, q Query) (*sql.Rows, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cs, params, err := db.prepare(ctx, q)
	if err != nil {
		return nil, err
	}
	// Open rows keep the statement alive after it is closed.
	defer cs.release()
	return cs.stmt.QueryContext(ctx, params...)
}

// Row is the result of [DB.QueryRow].
type Row struct {
	row *sql.Row
	err error
}

// Scan copies the columns of the row into the values pointed at by dest. If
// the query could not be run its error is returned. If the query returned no
// rows Scan returns [ErrNoRows].
func (r *Row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return r.row.Scan(dest...)
}

// Err returns the error, if any, that was encountered running the query.
func (r *Row) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.row.Err()
}

// QueryRow translates the query and runs it on the database, returning at
// most one row. Errors are deferred until [Row.Scan] is called.
func (db *DB) QueryRow(ctx context.Context, q Query) *Row {
	if ctx == nil {
		ctx = context.Background()
	}
	cs, params, err := db.prepare(ctx, q)
	if err != nil {
		return &Row{err: err}
	}
	defer cs.release()
	return &Row{row: cs.stmt.QueryRowContext(ctx, params...)}
}

// Exec translates the query and runs it on the database without returning
// any rows.
func (db *DB) Exec(ctx context.Context, q Query) (sql.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cs, params, err := db.prepare(ctx, q)
	if err != nil {
		return nil, err
	}
	defer cs.release()
	return cs.stmt.ExecContext(ctx, params...)
}
