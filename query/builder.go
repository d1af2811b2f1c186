package query

import "errors"

// Builder is the fluent AST-assembly surface spec.md §4.1 describes. It
// owns a *Statement and nothing else: no dialect, no connection. Every
// chainable method mutates and returns the same Builder, matching the
// teacher's receiver-mutates-and-returns style (select.go, insert.go);
// Clone/Freeze are the escape hatch for invariant 5 in spec.md §3.
type Builder struct {
	stmt *Statement
	err  error
}

// Err returns the first error recorded while assembling the chain, if any.
func (b *Builder) Err() error { return b.err }

// Statement returns the underlying AST. Callers that need to inspect or
// compile it (the compile package) use this; Builder itself never compiles.
func (b *Builder) Statement() *Statement { return b.stmt }

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// newBuilder wraps a fresh Statement of the given kind.
func newBuilder(kind Kind) *Builder {
	return &Builder{stmt: &Statement{Kind: kind}}
}

// Select starts a SELECT statement projecting the given columns. Matches
// the teacher's package-level Select(...) entry point (select.go).
func Select(columns ...string) *Builder {
	b := newBuilder(KindSelect)
	return b.Column(columns...)
}

// Table starts a SELECT rooted at table, knex-style `Table(x)`. Insert,
// Update and Del do not change the statement kind, so INSERT/UPDATE/DELETE
// chains start from InsertInto, UpdateTable or DeleteFrom.
func Table(table string) *Builder {
	b := newBuilder(KindSelect)
	return b.From(table)
}

// InsertInto starts an INSERT statement targeting table.
func InsertInto(table string) *Builder {
	if table == "" {
		return newBuilder(KindInsert).fail(errors.New("query: InsertInto requires a table name"))
	}
	b := newBuilder(KindInsert)
	b.stmt.Table = table
	return b
}

// UpdateTable starts an UPDATE statement targeting table.
func UpdateTable(table string) *Builder {
	if table == "" {
		return newBuilder(KindUpdate).fail(errors.New("query: Update requires a table name"))
	}
	b := newBuilder(KindUpdate)
	b.stmt.Table = table
	return b
}

// DeleteFrom starts a DELETE statement targeting table.
func DeleteFrom(table string) *Builder {
	if table == "" {
		return newBuilder(KindDelete).fail(errors.New("query: Delete requires a table name"))
	}
	b := newBuilder(KindDelete)
	b.stmt.Table = table
	return b
}

// RawQuery wraps an opaque SQL string as a Statement with method "raw".
func RawQuery(sql string, bindings ...interface{}) *Builder {
	b := newBuilder(KindRaw)
	b.stmt.RawSQL = sql
	b.stmt.RawBindings = bindings
	return b
}

// From sets the principal table for a SELECT (or the join target list);
// a repeated call replaces it, per spec.md §4.1 "Targeting".
func (b *Builder) From(table string) *Builder {
	b.stmt.Table = table
	return b
}

// Into is an alias for From used on INSERT-shaped chains for readability.
func (b *Builder) Into(table string) *Builder {
	b.stmt.Table = table
	return b
}

// WithSchema sets a default schema for unqualified references within this
// query only (spec.md §4.1).
func (b *Builder) WithSchema(schema string) *Builder {
	b.stmt.Schema = schema
	return b
}

// As sets an alias for the principal table.
func (b *Builder) As(alias string) *Builder {
	b.stmt.TableAlias = alias
	return b
}

// Column appends projection columns. Selecting "*" yields a wildcard node.
func (b *Builder) Column(columns ...string) *Builder {
	if len(columns) == 0 {
		return b.fail(errors.New("query: Column requires at least one column"))
	}
	for _, c := range columns {
		b.stmt.Columns = append(b.stmt.Columns, Col(c))
	}
	return b
}

// Select is an alias for Column, matching spec.md's `select(...cols)`.
func (b *Builder) Select(columns ...string) *Builder { return b.Column(columns...) }

// SelectAs appends an aliased projection: {alias: source}.
func (b *Builder) SelectAs(alias map[string]string) *Builder {
	for alias, source := range alias {
		b.stmt.Columns = append(b.stmt.Columns, AliasedCol(alias, source))
	}
	return b
}

// SelectRaw appends a raw projection fragment.
func (b *Builder) SelectRaw(sql string, bindings ...interface{}) *Builder {
	raw := Raw(sql, bindings...)
	b.stmt.Columns = append(b.stmt.Columns, ColumnExpr{Raw: &raw})
	return b
}

// Distinct marks the statement DISTINCT.
func (b *Builder) Distinct() *Builder {
	b.stmt.Distinct = true
	return b
}

// DistinctOn marks the statement DISTINCT ON (columns...).
func (b *Builder) DistinctOn(columns ...string) *Builder {
	b.stmt.Distinct = true
	for _, c := range columns {
		b.stmt.DistinctOn = append(b.stmt.DistinctOn, Col(c))
	}
	return b
}

// Clone returns a Builder wrapping a deep-enough copy of the Statement, so
// continuing to chain on the clone never mutates a value already returned
// to a caller (spec.md §3 invariant 5).
func (b *Builder) Clone() *Builder {
	return &Builder{stmt: b.stmt.Clone(), err: b.err}
}

// Freeze marks the Statement immutable: a further call to a mutator that
// checks the guard (predicates, joins, grouping, ordering, limit/offset,
// locking, CTEs, set operations, aggregates, the INSERT/UPDATE/upsert
// methods) records an error on the chain instead of touching the AST.
// From, Into, WithSchema, As, Column/Select, SelectAs, SelectRaw,
// Distinct, DistinctOn, SkipBinding, Timeout and the Clear* methods do not
// check it and still modify the Statement. This is the explicit
// opt-in spec.md §9's open question recommends in place of memoizing ToSQL.
func (b *Builder) Freeze() *Builder {
	b.stmt.frozen = true
	return b
}

func (b *Builder) checkMutable() error {
	if b.stmt.frozen {
		return errors.New("query: builder is frozen, Clone() before further mutation")
	}
	return nil
}

// guard reports whether b is safe to mutate further, recording a frozen
// error on the chain (and short-circuiting) if not.
func (b *Builder) guard() bool {
	if b.err != nil {
		return false
	}
	if err := b.checkMutable(); err != nil {
		b.err = err
		return false
	}
	return true
}
