package compile

import (
	"strings"

	sqlerr "github.com/sqlkit/sequel/errors"
	"github.com/sqlkit/sequel/query"
)

// renderSelect renders a KindSelect Statement in the canonical clause
// order spec.md §3 lists: SELECT, FROM, JOIN, WHERE, GROUP BY, HAVING,
// ORDER BY, LIMIT, OFFSET (WITH and set-ops are handled by the caller).
func (c *compiler) renderSelect(stmt *query.Statement) error {
	c.buf.WriteString("select ")
	if stmt.Distinct {
		if len(stmt.DistinctOn) > 0 {
			if !c.d.Features().SupportsDistinctOn {
				return sqlerr.New(sqlerr.Unsupported, "%s does not support DISTINCT ON", c.d.Name())
			}
			rendered, err := c.renderColumnExprList(stmt.DistinctOn, stmt.Schema)
			if err != nil {
				return err
			}
			c.buf.WriteString("distinct on (" + rendered + ") ")
		} else {
			c.buf.WriteString("distinct ")
		}
	}

	cols := stmt.Columns
	if len(cols) == 0 {
		cols = []query.ColumnExpr{{Wildcard: true}}
	}
	rendered, err := c.renderColumnExprList(cols, stmt.Schema)
	if err != nil {
		return err
	}
	c.buf.WriteString(rendered)

	if stmt.Table != "" {
		c.buf.WriteString(" from ")
		c.buf.WriteString(c.quoteTableName(stmt.Table, stmt.Schema))
		if stmt.TableAlias != "" {
			c.buf.WriteString(" as ")
			c.buf.WriteString(c.d.QuoteIdentifier(stmt.TableAlias))
		}
	}

	if err := c.renderJoins(stmt.Joins, stmt.Schema); err != nil {
		return err
	}

	if len(stmt.Where) > 0 {
		rendered, err := c.renderPredicateList(stmt.Where, stmt.Schema)
		if err != nil {
			return err
		}
		c.buf.WriteString(" where ")
		c.buf.WriteString(rendered)
	}

	if err := c.renderGroupBy(stmt); err != nil {
		return err
	}

	if len(stmt.Having) > 0 {
		rendered, err := c.renderPredicateList(stmt.Having, stmt.Schema)
		if err != nil {
			return err
		}
		c.buf.WriteString(" having ")
		c.buf.WriteString(rendered)
	}

	if err := c.renderOrderBy(stmt); err != nil {
		return err
	}

	c.renderLimitOffset(stmt)

	if err := c.renderLocking(stmt.Locking); err != nil {
		return err
	}

	return nil
}

// quoteTableName quotes a (possibly dotted) table reference, applying the
// statement's default schema to an unqualified name.
func (c *compiler) quoteTableName(table, defaultSchema string) string {
	if strings.Contains(table, ".") {
		return c.quoteColumn(table, "")
	}
	if defaultSchema != "" {
		return c.d.QuoteIdentifier(defaultSchema) + "." + c.d.QuoteIdentifier(table)
	}
	return c.d.QuoteIdentifier(table)
}
