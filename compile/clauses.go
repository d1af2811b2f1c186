package compile

import (
	"fmt"
	"strings"

	sqlerr "github.com/sqlkit/sequel/errors"
	"github.com/sqlkit/sequel/query"
)

// renderWith emits the WITH clause, the first thing spec.md §3's canonical
// clause order lists. WITH RECURSIVE is a single clause-level flag in
// standard SQL, not per-CTE, so one recursive entry promotes the whole list.
func (c *compiler) renderWith(ctes []query.CTE) error {
	if len(ctes) == 0 {
		return nil
	}
	if !c.d.Features().SupportsCTE {
		return sqlerr.New(sqlerr.Unsupported, "%s does not support WITH/CTEs", c.d.Name())
	}
	recursive := false
	for _, cte := range ctes {
		if cte.Recursive {
			recursive = true
		}
		if cte.Recursive && !c.d.Features().SupportsRecursiveCTE {
			return sqlerr.New(sqlerr.Unsupported, "%s does not support recursive CTEs", c.d.Name())
		}
	}

	c.buf.WriteString("with ")
	if recursive {
		c.buf.WriteString("recursive ")
	}
	for i, cte := range ctes {
		if i > 0 {
			c.buf.WriteString(", ")
		}
		c.buf.WriteString(c.d.QuoteIdentifier(cte.Alias))
		if len(cte.Columns) > 0 {
			quoted := make([]string, len(cte.Columns))
			for j, col := range cte.Columns {
				quoted[j] = c.d.QuoteIdentifier(col)
			}
			fmt.Fprintf(&c.buf, " (%s)", strings.Join(quoted, ", "))
		}
		c.buf.WriteString(" as ")
		if cte.Materialized != nil && c.d.Features().SupportsMaterializedCTE {
			if *cte.Materialized {
				c.buf.WriteString("materialized ")
			} else {
				c.buf.WriteString("not materialized ")
			}
		}
		c.buf.WriteString("(")
		if cte.BodyRaw != nil {
			c.writeRaw(cte.BodyRaw)
		} else {
			sub, err := c.subcompile(cte.Body)
			if err != nil {
				return err
			}
			c.buf.WriteString(sub)
		}
		c.buf.WriteString(")")
	}
	c.buf.WriteString(" ")
	return nil
}

// renderJoins emits the JOIN clauses between FROM and WHERE (spec.md §4.3
// point 4): multi-table joins compose left-to-right in call order,
// cross joins emit no ON.
func (c *compiler) renderJoins(joins []query.Join, defaultSchema string) error {
	for _, j := range joins {
		keyword := joinKeyword(j.Kind)
		c.buf.WriteString(" ")
		c.buf.WriteString(keyword)
		c.buf.WriteString(" ")

		switch {
		case j.TargetRaw != nil:
			c.writeRaw(j.TargetRaw)
		case j.TargetSub != nil:
			sub, err := c.subcompile(j.TargetSub)
			if err != nil {
				return err
			}
			c.buf.WriteString("(")
			c.buf.WriteString(sub)
			c.buf.WriteString(")")
		default:
			c.buf.WriteString(c.quoteColumn(j.Target, defaultSchema))
		}
		if j.Alias != "" {
			c.buf.WriteString(" as ")
			c.buf.WriteString(c.d.QuoteIdentifier(j.Alias))
		}

		if j.Kind == query.CrossJoin {
			continue
		}
		if len(j.Using) > 0 {
			quoted := make([]string, len(j.Using))
			for i, col := range j.Using {
				quoted[i] = c.d.QuoteIdentifier(col)
			}
			fmt.Fprintf(&c.buf, " using (%s)", strings.Join(quoted, ", "))
			continue
		}
		if len(j.On) > 0 {
			rendered, err := c.renderPredicateList(j.On, defaultSchema)
			if err != nil {
				return err
			}
			c.buf.WriteString(" on ")
			c.buf.WriteString(rendered)
		}
	}
	return nil
}

func joinKeyword(kind query.JoinKind) string {
	switch kind {
	case query.LeftJoin:
		return "left join"
	case query.RightJoin:
		return "right join"
	case query.FullOuterJoin:
		return "full outer join"
	case query.CrossJoin:
		return "cross join"
	default:
		return "inner join"
	}
}

// renderGroupBy emits GROUP BY, combining structured columns and raw
// fragments in the order the builder appended them (raw entries always
// trail, since GroupBy/GroupByRaw are tracked in separate slots).
func (c *compiler) renderGroupBy(stmt *query.Statement) error {
	if len(stmt.GroupBy) == 0 && len(stmt.GroupByRaw) == 0 {
		return nil
	}
	parts := make([]string, 0, len(stmt.GroupBy)+len(stmt.GroupByRaw))
	for _, ce := range stmt.GroupBy {
		rendered, err := c.renderColumnExpr(ce, stmt.Schema)
		if err != nil {
			return err
		}
		parts = append(parts, rendered)
	}
	for _, raw := range stmt.GroupByRaw {
		parts = append(parts, c.renderRaw(&raw))
	}
	c.buf.WriteString(" group by ")
	c.buf.WriteString(strings.Join(parts, ", "))
	return nil
}

// renderOrderBy emits ORDER BY. A bare Raw entry is distinguished from a
// structured one by OrderTerm.Raw being non-nil.
func (c *compiler) renderOrderBy(stmt *query.Statement) error {
	if len(stmt.OrderBy) == 0 {
		return nil
	}
	parts := make([]string, len(stmt.OrderBy))
	for i, t := range stmt.OrderBy {
		var core string
		if t.Raw != nil {
			core = c.renderRaw(t.Raw)
		} else {
			rendered, err := c.renderColumnExpr(t.Expr, stmt.Schema)
			if err != nil {
				return err
			}
			core = rendered
			if t.Desc {
				core += " desc"
			} else {
				core += " asc"
			}
			switch t.Nulls {
			case query.NullsFirst:
				core += " nulls first"
			case query.NullsLast:
				core += " nulls last"
			}
		}
		parts[i] = core
	}
	c.buf.WriteString(" order by ")
	c.buf.WriteString(strings.Join(parts, ", "))
	return nil
}

// renderLimitOffset emits LIMIT/OFFSET, deferring to the dialect's rewrite
// hook first (MSSQL/Oracle's OFFSET...FETCH form, spec.md §4.2).
func (c *compiler) renderLimitOffset(stmt *query.Statement) {
	if stmt.Limit == nil && stmt.Offset == nil {
		return
	}
	if rewritten, ok := c.d.RewriteLimitOffset(stmt.Limit, stmt.Offset); ok {
		c.buf.WriteString(" ")
		c.buf.WriteString(rewritten)
		return
	}
	if stmt.Limit != nil {
		c.buf.WriteString(" limit ")
		c.buf.WriteString(c.renderCount(*stmt.Limit, stmt.SkipBinding))
	}
	if stmt.Offset != nil {
		c.buf.WriteString(" offset ")
		c.buf.WriteString(c.renderCount(*stmt.Offset, stmt.SkipBinding))
	}
}

func (c *compiler) renderCount(n uint64, skipBinding bool) string {
	if skipBinding {
		return fmt.Sprintf("%d", n)
	}
	return c.bind(n)
}

// renderLocking emits FOR UPDATE/SHARE/NO KEY UPDATE/KEY SHARE and its
// SKIP LOCKED/NOWAIT modifiers, gated on dialect support.
func (c *compiler) renderLocking(l *query.Locking) error {
	if l == nil {
		return nil
	}
	c.buf.WriteString(" for ")
	c.buf.WriteString(strings.ToLower(l.Mode))
	if len(l.OfTables) > 0 {
		if !c.d.Features().SupportsForUpdateOfTables {
			return sqlerr.New(sqlerr.Unsupported, "%s does not support FOR UPDATE OF", c.d.Name())
		}
		quoted := make([]string, len(l.OfTables))
		for i, t := range l.OfTables {
			quoted[i] = c.d.QuoteIdentifier(t)
		}
		c.buf.WriteString(" of ")
		c.buf.WriteString(strings.Join(quoted, ", "))
	}
	if l.SkipLocked {
		if !c.d.Features().SupportsSkipLocked {
			return sqlerr.New(sqlerr.Unsupported, "%s does not support SKIP LOCKED", c.d.Name())
		}
		c.buf.WriteString(" skip locked")
	}
	if l.NoWait {
		c.buf.WriteString(" nowait")
	}
	return nil
}

// renderSetOps appends the UNION/INTERSECT/EXCEPT family after the
// statement body has been fully rendered.
func (c *compiler) renderSetOps(ops []query.SetOp) error {
	for _, op := range ops {
		c.buf.WriteString(" ")
		c.buf.WriteString(setOpKeyword(op.Kind))
		c.buf.WriteString(" ")
		var body string
		if op.Raw != nil {
			body = c.renderRaw(op.Raw)
		} else {
			sub, err := c.subcompile(op.Operand)
			if err != nil {
				return err
			}
			body = sub
		}
		if op.Wrap {
			body = "(" + body + ")"
		}
		c.buf.WriteString(body)
	}
	return nil
}

func setOpKeyword(kind query.SetOpKind) string {
	switch kind {
	case query.UnionAll:
		return "union all"
	case query.Intersect:
		return "intersect"
	case query.Except:
		return "except"
	default:
		return "union"
	}
}
