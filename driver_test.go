// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlform

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
)

// This file contains a wrapper sql.Driver over the SQLite driver which
// records the preparing and closing of statements so the tests can check the
// statement cache for leaks.

// stmtRegistry stores the statements prepared and closed, along with the
// number of queries run on statements, indexed by test name.
type stmtRegistry struct {
	mu          sync.Mutex
	opened      map[string]map[*trackedStmt]string
	closed      map[string]map[*trackedStmt]bool
	stmtQueries map[string]int
}

var registry = &stmtRegistry{}

func (r *stmtRegistry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = map[string]map[*trackedStmt]string{}
	r.closed = map[string]map[*trackedStmt]bool{}
	r.stmtQueries = map[string]int{}
}

func (r *stmtRegistry) open(s *trackedStmt, query string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opened[s.testName] == nil {
		r.opened[s.testName] = map[*trackedStmt]string{}
	}
	r.opened[s.testName][s] = query
}

func (r *stmtRegistry) close(s *trackedStmt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed[s.testName] == nil {
		r.closed[s.testName] = map[*trackedStmt]bool{}
	}
	r.closed[s.testName][s] = true
}

func (r *stmtRegistry) query(testName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stmtQueries[testName]++
}

// counts returns the number of statements opened and closed, and the number
// of queries run on statements, for the test.
func (r *stmtRegistry) counts(testName string) (opened, closed, queries int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.opened[testName]), len(r.closed[testName]), r.stmtQueries[testName]
}

// openedSQL returns the SQL of the statements opened for the test.
func (r *stmtRegistry) openedSQL(testName string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var qs []string
	for _, q := range r.opened[testName] {
		qs = append(qs, q)
	}
	return qs
}

type trackingDriver struct {
	*sqlite3.SQLiteDriver
}

type trackedConn struct {
	testName string
	*sqlite3.SQLiteConn
}

type trackedStmt struct {
	testName string
	*sqlite3.SQLiteStmt
}

func (s *trackedStmt) Close() error {
	registry.close(s)
	return s.SQLiteStmt.Close()
}

func (s *trackedStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	rows, err := s.SQLiteStmt.QueryContext(ctx, args)
	if err == nil {
		registry.query(s.testName)
	}
	return rows, err
}

func (s *trackedStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	res, err := s.SQLiteStmt.ExecContext(ctx, args)
	if err == nil {
		registry.query(s.testName)
	}
	return res, err
}

func (c *trackedConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	s, err := c.SQLiteConn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	sm, ok := s.(*sqlite3.SQLiteStmt)
	if !ok {
		panic(fmt.Sprintf("internal error: base driver is not SQLite, got %T", s))
	}
	ts := &trackedStmt{SQLiteStmt: sm, testName: c.testName}
	registry.open(ts, query)
	return ts, nil
}

func (c *trackedConn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

const testNameTag = "testName"

// Open expects the DSN to contain the test name using the testNameTag
// attribute.
func (d *trackingDriver) Open(name string) (driver.Conn, error) {
	var testName string
	if _, params, ok := strings.Cut(name, "?"); ok {
		for _, p := range strings.Split(params, "&") {
			if v, ok := strings.CutPrefix(p, testNameTag+"="); ok {
				testName = v
			}
		}
	}
	if testName == "" {
		panic("internal error: testName is not found in the db DSN")
	}

	baseConn, err := d.SQLiteDriver.Open(name)
	if err != nil {
		return nil, err
	}
	sc, ok := baseConn.(*sqlite3.SQLiteConn)
	if !ok {
		panic("internal error: base driver is not SQLite")
	}
	return &trackedConn{SQLiteConn: sc, testName: testName}, nil
}

func init() {
	registry.reset()
	sql.Register("sqlite3_stmtTracked", &trackingDriver{&sqlite3.SQLiteDriver{}})
}
