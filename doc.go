// Package sequel is a dialect-aware SQL query builder and execution
// runtime. A Client resolves a Config into a registered dialect (pg,
// mysql, sqlite, mssql, and their aliases), opens a pooled connection, and
// exposes query.Builder as the fluent entry point for SELECT/INSERT/
// UPDATE/DELETE statements, RETURNING, CTEs, joins, set operations, and
// scoped or manually-managed transactions with nested savepoints.
//
//	c, err := sequel.New(sequel.Config{Client: "pg", Connection: dsn})
//	b := query.Select("id", "name").From("users").Where("active", true)
//	res, err := c.Exec(ctx, b)
package sequel
