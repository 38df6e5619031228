// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlform

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	gc "gopkg.in/check.v1"
)

// The check package is not dot imported here as its List would clash with
// the List of this package.

type CacheSuite struct{}

var _ = gc.Suite(&CacheSuite{})

func (s *CacheSuite) TearDownSuite(_ *gc.C) {
	registry.reset()
}

type countQuery struct {
	Table string `sql:"table,nonparam"`
	Min   int    `sql:"min"`
}

func (countQuery) Template() string {
	return `SELECT count(*) FROM {table} WHERE n >= {min}`
}

func (s *CacheSuite) openDB(c *gc.C) *DB {
	sqldb, err := sql.Open("sqlite3_stmtTracked", "file:"+c.TestName()+"?cache=shared&mode=memory&testName="+c.TestName())
	c.Assert(err, gc.IsNil)
	// A single connection keeps the driver statements one per SQL.
	sqldb.SetMaxOpenConns(1)
	_, err = sqldb.Exec(`CREATE TABLE IF NOT EXISTS nums (n integer)`)
	c.Assert(err, gc.IsNil)
	_, err = sqldb.Exec(`INSERT INTO nums VALUES (1), (2), (3)`)
	c.Assert(err, gc.IsNil)

	db, err := NewDBWithDialect(sqldb, Positional)
	c.Assert(err, gc.IsNil)
	return db
}

func (s *CacheSuite) closeDB(c *gc.C, db *DB) {
	db.ClearCache()
	c.Check(db.PlainDB().Close(), gc.IsNil)
	opened, closed, _ := registry.counts(c.TestName())
	c.Check(closed, gc.Equals, opened)
}

func (s *CacheSuite) count(c *gc.C, db *DB, q Query) int {
	var n int
	err := db.QueryRow(nil, q).Scan(&n)
	c.Assert(err, gc.IsNil)
	return n
}

func (s *CacheSuite) TestPreparedStatementReuse(c *gc.C) {
	db := s.openDB(c)
	defer s.closeDB(c, db)

	c.Check(s.count(c, db, countQuery{"nums", 1}), gc.Equals, 3)
	c.Check(s.count(c, db, countQuery{"nums", 2}), gc.Equals, 2)
	c.Check(s.count(c, db, countQuery{"nums", 3}), gc.Equals, 1)

	opened, closed, queries := registry.counts(c.TestName())
	c.Check(opened, gc.Equals, 1)
	c.Check(closed, gc.Equals, 0)
	c.Check(queries, gc.Equals, 3)
	c.Check(db.CachedStmts(), gc.Equals, 1)
	c.Check(registry.openedSQL(c.TestName()), gc.DeepEquals, []string{"SELECT count(*) FROM nums WHERE n >= ?"})
}

func (s *CacheSuite) TestStatementSharedBetweenQueries(c *gc.C) {
	db := s.openDB(c)
	defer s.closeDB(c, db)

	rec := NewRecord(`SELECT count(*) FROM {table} WHERE n >= {min}`, Raw("table", "nums"), Param("min", 2))
	c.Check(s.count(c, db, countQuery{"nums", 1}), gc.Equals, 3)
	c.Check(s.count(c, db, rec), gc.Equals, 2)

	opened, _, queries := registry.counts(c.TestName())
	c.Check(opened, gc.Equals, 1)
	c.Check(queries, gc.Equals, 2)
}

func (s *CacheSuite) TestStatementEvicted(c *gc.C) {
	defer SetStmtCacheSize(2)()
	db := s.openDB(c)
	defer s.closeDB(c, db)

	s.count(c, db, countQuery{"nums", 1})
	s.count(c, db, NewRecord(`SELECT count(*) FROM nums WHERE n < {max}`, Param("max", 3)))
	c.Check(db.CachedStmts(), gc.Equals, 2)

	s.count(c, db, NewRecord(`SELECT count(*) FROM nums WHERE n IN {ns}`, List("ns", []int{1, 2})))
	c.Check(db.CachedStmts(), gc.Equals, 2)

	opened, closed, _ := registry.counts(c.TestName())
	c.Check(opened, gc.Equals, 3)
	c.Check(closed, gc.Equals, 1)
}

func (s *CacheSuite) TestEvictedStatementInUse(c *gc.C) {
	defer SetStmtCacheSize(1)()
	db := s.openDB(c)
	defer s.closeDB(c, db)

	cs, params, err := db.prepare(context.Background(), countQuery{"nums", 1})
	c.Assert(err, gc.IsNil)

	// Another query pushes the first statement out of the cache while it is
	// still held.
	c.Check(s.count(c, db, NewRecord(`SELECT count(*) FROM nums WHERE n < {max}`, Param("max", 3))), gc.Equals, 2)
	opened, closed, _ := registry.counts(c.TestName())
	c.Check(opened, gc.Equals, 2)
	c.Check(closed, gc.Equals, 0)

	var n int
	c.Assert(cs.stmt.QueryRow(params...).Scan(&n), gc.IsNil)
	c.Check(n, gc.Equals, 3)

	cs.release()
	opened, closed, _ = registry.counts(c.TestName())
	c.Check(opened, gc.Equals, 2)
	c.Check(closed, gc.Equals, 1)

	// Released statements are not handed out again.
	c.Check(s.count(c, db, countQuery{"nums", 1}), gc.Equals, 3)
	opened, _, _ = registry.counts(c.TestName())
	c.Check(opened, gc.Equals, 3)
}

func (s *CacheSuite) TestClearCacheWithOpenRows(c *gc.C) {
	db := s.openDB(c)
	defer s.closeDB(c, db)

	rows, err := db.Query(nil, NewRecord(`SELECT n FROM nums ORDER BY n`))
	c.Assert(err, gc.IsNil)
	db.ClearCache()

	var ns []int
	for rows.Next() {
		var n int
		c.Assert(rows.Scan(&n), gc.IsNil)
		ns = append(ns, n)
	}
	c.Check(rows.Err(), gc.IsNil)
	c.Check(rows.Close(), gc.IsNil)
	c.Check(ns, gc.DeepEquals, []int{1, 2, 3})
}

func (s *CacheSuite) TestConcurrentEviction(c *gc.C) {
	defer SetStmtCacheSize(1)()
	db := s.openDB(c)
	defer s.closeDB(c, db)

	// Each query has its own SQL so they keep evicting each other.
	queries := make([]Query, 4)
	for k := range queries {
		queries[k] = NewRecord(fmt.Sprintf(`SELECT count(*) FROM nums WHERE n >= {min} AND %d = %d`, k, k), Param("min", 1))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := map[string]int{}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				var n int
				if err := db.QueryRow(nil, queries[(i+j)%len(queries)]).Scan(&n); err != nil {
					mu.Lock()
					failures[err.Error()]++
					mu.Unlock()
				}
				if j%50 == 0 {
					db.ClearCache()
				}
			}
		}(i)
	}
	wg.Wait()
	c.Check(failures, gc.HasLen, 0)
}

func (s *CacheSuite) TestListLengthChangesStatement(c *gc.C) {
	db := s.openDB(c)
	defer s.closeDB(c, db)

	q := func(ns ...int) Query {
		return NewRecord(`SELECT count(*) FROM nums WHERE n IN {ns}`, List("ns", ns))
	}
	c.Check(s.count(c, db, q(1)), gc.Equals, 1)
	c.Check(s.count(c, db, q(1, 2)), gc.Equals, 2)
	c.Check(s.count(c, db, q(3, 2)), gc.Equals, 2)
	c.Check(db.CachedStmts(), gc.Equals, 2)
}

func (s *CacheSuite) TestClearCache(c *gc.C) {
	db := s.openDB(c)
	defer s.closeDB(c, db)

	s.count(c, db, countQuery{"nums", 1})
	db.ClearCache()
	c.Check(db.CachedStmts(), gc.Equals, 0)
	opened, closed, _ := registry.counts(c.TestName())
	c.Check(opened, gc.Equals, 1)
	c.Check(closed, gc.Equals, 1)

	// The statement is prepared again on the next use.
	s.count(c, db, countQuery{"nums", 1})
	opened, _, _ = registry.counts(c.TestName())
	c.Check(opened, gc.Equals, 2)
}

func (s *CacheSuite) TestPrepareErrorNotCached(c *gc.C) {
	db := s.openDB(c)
	defer s.closeDB(c, db)

	_, err := db.Exec(nil, countQuery{"no_such_table", 1})
	c.Assert(err, gc.ErrorMatches, "no such table: no_such_table")
	c.Check(db.CachedStmts(), gc.Equals, 0)
}

func (s *CacheSuite) TestConcurrentQueries(c *gc.C) {
	db := s.openDB(c)
	defer s.closeDB(c, db)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var n int
			errs[i] = db.QueryRow(nil, countQuery{"nums", 1}).Scan(&n)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		c.Check(err, gc.IsNil, gc.Commentf("query %d", i))
	}

	c.Check(db.CachedStmts(), gc.Equals, 1)
	opened, closed, _ := registry.counts(c.TestName())
	c.Check(opened-closed, gc.Equals, 1)
}
