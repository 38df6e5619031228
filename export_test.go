package sqlform

// SetStmtCacheSize sets the size of the statement cache of new DBs and
// returns a function restoring the previous size.
func SetStmtCacheSize(n int) (restore func()) {
	old := stmtCacheSize
	stmtCacheSize = n
	return func() { stmtCacheSize = old }
}

func (db *DB) CachedStmts() int {
	return db.cache.len()
}
