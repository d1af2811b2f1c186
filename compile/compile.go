// Package compile walks the query AST (package query) in the fixed clause
// order spec.md §3 invariant 4 requires and renders it to dialect-specific
// SQL text plus an ordered binding list (spec.md §4.3). It never touches a
// connection; Compile is a pure function of (Statement, Dialect).
package compile

import (
	"fmt"
	"strings"

	"github.com/mgutz/str"

	"github.com/sqlkit/sequel/dialect"
	sqlerr "github.com/sqlkit/sequel/errors"
	"github.com/sqlkit/sequel/query"
)

// Compiled is the immutable result of a compile: spec.md §3's
// `{sql, bindings, method, returning?, context}` tuple.
type Compiled struct {
	SQL       string
	Bindings  []interface{}
	Method    string
	Returning []string
	// ReturningEmulated is true when the caller asked for RETURNING but the
	// dialect can't emit it (spec.md §4.3 point 6) — the runner fabricates
	// a result from LastInsertId/RowsAffected instead.
	ReturningEmulated bool
}

// compiler accumulates SQL text and bindings for a single Compile call
// (including any nested subqueries it recurses into).
type compiler struct {
	d   dialect.Dialect
	buf strings.Builder
	// bound holds every value this compiler (and its recursive children)
	// has bound so far, in the order the driver will see them.
	bound []interface{}
}

// Compile renders stmt to SQL text and an ordered binding list under d.
// Invariant 1 in spec.md §3 (`len(bindings) == count_placeholders(sql)`)
// holds by construction: every placeholder this package emits is paired
// with exactly one append to c.bound at the call site that wrote it.
func Compile(stmt *query.Statement, d dialect.Dialect) (*Compiled, error) {
	if stmt == nil {
		return nil, sqlerr.New(sqlerr.Config, "compile: nil statement")
	}
	if d == nil {
		return nil, sqlerr.New(sqlerr.Config, "compile: nil dialect")
	}
	c := &compiler{d: d}
	compiled, err := c.compileStatement(stmt)
	if err != nil {
		return nil, err
	}
	compiled.SQL = str.Clean(compiled.SQL)
	return compiled, nil
}

// compileStatement dispatches on Kind and renders into c.buf, returning a
// Compiled that shares c's accumulated bindings.
func (c *compiler) compileStatement(stmt *query.Statement) (*Compiled, error) {
	if stmt.Kind == query.KindRaw {
		return c.compileRawStatement(stmt)
	}

	if err := c.renderWith(stmt.With); err != nil {
		return nil, err
	}

	var method string
	var returning []string
	var emulated bool
	var err error

	switch stmt.Kind {
	case query.KindSelect:
		method = "select"
		err = c.renderSelect(stmt)
	case query.KindInsert:
		method = "insert"
		returning, emulated, err = c.renderInsert(stmt)
	case query.KindUpdate:
		method = "update"
		returning, emulated, err = c.renderUpdate(stmt)
	case query.KindDelete:
		method = "del"
		returning, emulated, err = c.renderDelete(stmt)
	default:
		return nil, sqlerr.New(sqlerr.Config, "compile: unknown statement kind %d", stmt.Kind)
	}
	if err != nil {
		return nil, err
	}

	if len(stmt.SetOps) > 0 {
		if err := c.renderSetOps(stmt.SetOps); err != nil {
			return nil, err
		}
	}

	return &Compiled{
		SQL:               c.buf.String(),
		Bindings:          c.bound,
		Method:            method,
		Returning:         returning,
		ReturningEmulated: emulated,
	}, nil
}

func (c *compiler) compileRawStatement(stmt *query.Statement) (*Compiled, error) {
	raw := query.Raw(stmt.RawSQL, stmt.RawBindings...)
	c.writeRaw(&raw)
	return &Compiled{SQL: c.buf.String(), Bindings: c.bound, Method: "raw"}, nil
}

// subcompile renders a nested statement (subquery, CTE body, set operand)
// sharing the parent compiler's binding sequence, so a single running
// placeholder counter spans the whole query (required for $N dialects).
func (c *compiler) subcompile(stmt *query.Statement) (string, error) {
	child := &compiler{d: c.d, bound: c.bound}
	compiled, err := child.compileStatement(stmt)
	if err != nil {
		return "", err
	}
	c.bound = child.bound
	return compiled.SQL, nil
}

// bind appends v to the binding list and returns the placeholder text for
// its position.
func (c *compiler) bind(v interface{}) string {
	c.bound = append(c.bound, v)
	return c.d.Placeholder(len(c.bound), "")
}

// quoteRef renders a (possibly dotted) identifier string, applying the
// statement's default schema when the reference is unqualified at the
// table level. r.Table == "" && r.Schema == "" means a bare column name.
func (c *compiler) quoteRef(r *query.Ref, defaultSchema string) string {
	var b strings.Builder
	schema := r.Schema
	if schema == "" {
		schema = defaultSchema
	}
	if schema != "" {
		b.WriteString(c.d.QuoteIdentifier(schema))
		b.WriteByte('.')
	}
	if r.Table != "" {
		b.WriteString(c.d.QuoteIdentifier(r.Table))
		b.WriteByte('.')
	}
	if r.Column == "*" {
		b.WriteByte('*')
	} else {
		b.WriteString(c.d.QuoteIdentifier(r.Column))
	}
	return b.String()
}

// quoteColumn quotes a bare or dotted column-name string (as used by
// Predicate.Column, join and UPDATE FROM targets, etc.), independent of
// ColumnExpr.
func (c *compiler) quoteColumn(name string, defaultSchema string) string {
	return c.quoteRef(parseColumnString(name), defaultSchema)
}

// parseColumnString is ref.go's parseRef, re-exposed for compile's use via
// a package-level round trip through query.Col (no alias parsing needed
// here since Predicate.Column never carries an inline alias).
func parseColumnString(name string) *query.Ref {
	ce := query.Col(name)
	if ce.Ref != nil {
		return ce.Ref
	}
	return &query.Ref{Column: name}
}

func (c *compiler) writeRaw(raw *query.RawFragment) {
	c.buf.WriteString(c.renderRaw(raw))
}

// renderRaw scans a raw fragment's SQL for unescaped `?` markers (escaped
// as `\?`), consuming one binding per marker and rewriting it into this
// compiler's placeholder style (spec.md §4.3 "Raw placeholder rewriting").
// A marker left without a matching binding is emitted verbatim, defensively.
func (c *compiler) renderRaw(raw *query.RawFragment) string {
	var out strings.Builder
	bi := 0
	s := raw.SQL
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\\' && i+1 < len(s) && s[i+1] == '?' {
			out.WriteByte('?')
			i++
			continue
		}
		if ch == '?' {
			if bi < len(raw.Bindings) {
				out.WriteString(c.bind(raw.Bindings[bi]))
				bi++
				continue
			}
			out.WriteByte('?')
			continue
		}
		out.WriteByte(ch)
	}
	return out.String()
}

func fail(format string, args ...interface{}) error {
	return fmt.Errorf("compile: "+format, args...)
}
