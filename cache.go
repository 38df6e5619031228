// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlform

import (
	"context"
	"database/sql"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// stmtCacheSize is the number of prepared statements kept for each DB.
var stmtCacheSize = 256

// cachedStmt is a prepared statement along with the number of callers
// currently running it. An evicted statement is closed once its last caller
// releases it.
type cachedStmt struct {
	stmt *sql.Stmt

	mu      sync.Mutex
	users   int
	evicted bool
}

// acquire marks the statement as in use. It reports false if the statement
// has already been evicted.
func (cs *cachedStmt) acquire() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.evicted {
		return false
	}
	cs.users++
	return true
}

// release is called when a caller is done with the statement.
func (cs *cachedStmt) release() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.users--
	if cs.evicted && cs.users == 0 {
		cs.stmt.Close()
	}
}

func (cs *cachedStmt) evict() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.evicted = true
	if cs.users == 0 {
		cs.stmt.Close()
	}
}

// statementCache holds the driver prepared statements of a single DB, keyed by
// the translated SQL. Two queries translating to the same SQL share a
// statement. Statements are closed when they are evicted or the cache is
// purged, but not before every caller holding them has released them.
type statementCache struct {
	stmts *lru.Cache[string, *cachedStmt]
}

func newStatementCache(size int) (*statementCache, error) {
	stmts, err := lru.NewWithEvict[string, *cachedStmt](size, func(_ string, cs *cachedStmt) {
		cs.evict()
	})
	if err != nil {
		return nil, err
	}
	return &statementCache{stmts: stmts}, nil
}

// prepareSubstrate is an object that queries can be prepared on, e.g. a sql.DB
// or sql.Conn.
type prepareSubstrate interface {
	PrepareContext(context.Context, string) (*sql.Stmt, error)
}

// prepareStmt returns the statement for the SQL, preparing it on the
// substrate if it is not in the cache. The statement is acquired for the
// caller, who must release it once the query has been run.
func (sc *statementCache) prepareStmt(ctx context.Context, ps prepareSubstrate, query string) (*cachedStmt, error) {
	if cs, ok := sc.stmts.Get(query); ok && cs.acquire() {
		return cs, nil
	}
	stmt, err := ps.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	cs := &cachedStmt{stmt: stmt, users: 1}
	// Someone else may have prepared the same SQL since we last checked.
	if prev, ok, _ := sc.stmts.PeekOrAdd(query, cs); ok {
		if prev.acquire() {
			stmt.Close()
			return prev, nil
		}
		// The cached statement is on its way out. Ours is used once and
		// closed on release.
		cs.evicted = true
	}
	return cs, nil
}

// len returns the number of cached statements.
func (sc *statementCache) len() int {
	return sc.stmts.Len()
}

// purge removes all cached statements, closing those not in use.
func (sc *statementCache) purge() {
	sc.stmts.Purge()
}
