package compile

import (
	"strings"

	sqlerr "github.com/sqlkit/sequel/errors"
	"github.com/sqlkit/sequel/query"
)

// renderInsert renders INSERT INTO table (cols) VALUES (...), ... plus an
// optional ON CONFLICT clause and RETURNING. It returns the requested
// RETURNING columns and whether the dialect can't actually emit RETURNING
// (spec.md §4.3 point 6 — the runner then fabricates a result).
func (c *compiler) renderInsert(stmt *query.Statement) ([]string, bool, error) {
	cols, err := c.insertColumns(stmt)
	if err != nil {
		return nil, false, err
	}
	rows, err := c.insertRows(stmt, cols)
	if err != nil {
		return nil, false, err
	}

	c.buf.WriteString("insert into ")
	c.buf.WriteString(c.quoteTableName(stmt.Table, stmt.Schema))

	if len(cols) == 0 {
		c.buf.WriteString(" default values")
	} else {
		quoted := make([]string, len(cols))
		for i, col := range cols {
			quoted[i] = c.d.QuoteIdentifier(col)
		}
		c.buf.WriteString(" (" + strings.Join(quoted, ", ") + ") values ")
		rendered := make([]string, len(rows))
		for i, row := range rows {
			placeholders := make([]string, len(row))
			for j, v := range row {
				rendered2, err := c.renderOperand(v)
				if err != nil {
					return nil, false, err
				}
				placeholders[j] = rendered2
			}
			rendered[i] = "(" + strings.Join(placeholders, ", ") + ")"
		}
		c.buf.WriteString(strings.Join(rendered, ", "))
	}

	if stmt.OnConflict != nil {
		if err := c.renderOnConflict(stmt.OnConflict, cols); err != nil {
			return nil, false, err
		}
	}

	return c.renderReturning(stmt)
}

func (c *compiler) insertColumns(stmt *query.Statement) ([]string, error) {
	cols, err := stmt.ResolvedInsertColumns()
	if err != nil {
		return nil, sqlerr.Wrap(sqlerr.Config, err, "insert: resolving columns")
	}
	return cols, nil
}

// insertRows resolves every queued row (positional RowValues, map-derived
// InsertVals, or Record()-backed struct values) to a plain [][]interface{}
// aligned with cols.
func (c *compiler) insertRows(stmt *query.Statement, cols []string) ([][]interface{}, error) {
	rows := make([][]interface{}, 0, len(stmt.InsertVals)+len(stmt.Records))
	rows = append(rows, stmt.InsertVals...)
	if len(stmt.Records) > 0 {
		recordRows, err := query.RecordValues(stmt.Records, cols)
		if err != nil {
			return nil, err
		}
		rows = append(rows, recordRows...)
	}
	return rows, nil
}

// renderOnConflict renders ON CONFLICT (col) [WHERE pred] DO UPDATE SET ...
// / DO NOTHING, or its MySQL ON DUPLICATE KEY UPDATE equivalent.
func (c *compiler) renderOnConflict(oc *query.OnConflict, insertCols []string) error {
	if !c.d.Features().SupportsOnConflict {
		return sqlerr.New(sqlerr.Unsupported, "%s does not support ON CONFLICT/upsert", c.d.Name())
	}

	if c.d.Name() == "mysql" || c.d.Name() == "mysql2" {
		if oc.DoNothing {
			// Emulated as a harmless no-op assignment; MySQL has no DO
			// NOTHING conflict action.
			c.buf.WriteString(" on duplicate key update ")
			quoted := c.d.QuoteIdentifier(insertCols[0])
			c.buf.WriteString(quoted + " = " + quoted)
			return nil
		}
		c.buf.WriteString(" on duplicate key update ")
		return c.renderAssignments(oc.Assignments)
	}

	c.buf.WriteString(" on conflict ")
	switch {
	case oc.Constraint != "":
		c.buf.WriteString("on constraint " + c.d.QuoteIdentifier(oc.Constraint) + " ")
	case oc.Column != "":
		cols := strings.Split(oc.Column, ",")
		quoted := make([]string, len(cols))
		for i, col := range cols {
			quoted[i] = c.d.QuoteIdentifier(strings.TrimSpace(col))
		}
		c.buf.WriteString("(" + strings.Join(quoted, ", ") + ") ")
		if oc.IndexPredicate != "" {
			c.buf.WriteString("where " + c.quoteColumn(oc.IndexPredicate, "") + " ")
		}
	}
	if oc.DoNothing {
		c.buf.WriteString("do nothing")
		return nil
	}
	c.buf.WriteString("do update set ")
	if err := c.renderAssignments(oc.Assignments); err != nil {
		return err
	}
	if len(oc.Where) > 0 {
		rendered, err := c.renderPredicateList(oc.Where, "")
		if err != nil {
			return err
		}
		c.buf.WriteString(" where " + rendered)
	}
	return nil
}

func (c *compiler) renderAssignments(assignments []query.Assignment) error {
	parts := make([]string, len(assignments))
	for i, a := range assignments {
		lhs := c.d.QuoteIdentifier(a.Column)
		var rhs string
		switch {
		case a.Raw != nil:
			rhs = c.renderRaw(a.Raw)
		default:
			rendered, err := c.renderOperand(a.Value)
			if err != nil {
				return err
			}
			rhs = rendered
		}
		parts[i] = lhs + " = " + rhs
	}
	c.buf.WriteString(strings.Join(parts, ", "))
	return nil
}

// renderUpdate renders UPDATE table SET ... [FROM ...] [WHERE ...] [RETURNING ...].
func (c *compiler) renderUpdate(stmt *query.Statement) ([]string, bool, error) {
	c.buf.WriteString("update ")
	c.buf.WriteString(c.quoteTableName(stmt.Table, stmt.Schema))
	if stmt.TableAlias != "" {
		c.buf.WriteString(" as " + c.d.QuoteIdentifier(stmt.TableAlias))
	}
	c.buf.WriteString(" set ")
	if err := c.renderAssignments(stmt.Assignments); err != nil {
		return nil, false, err
	}

	if len(stmt.UpdateFrom) > 0 {
		if !c.d.Features().SupportsUpdateFrom {
			return nil, false, sqlerr.New(sqlerr.Unsupported, "%s does not support UPDATE ... FROM", c.d.Name())
		}
		c.buf.WriteString(" from ")
		for i, j := range stmt.UpdateFrom {
			if i > 0 {
				c.buf.WriteString(", ")
			}
			c.buf.WriteString(c.quoteColumn(j.Target, stmt.Schema))
		}
		for _, j := range stmt.UpdateFrom {
			if len(j.On) > 0 {
				rendered, err := c.renderPredicateList(j.On, stmt.Schema)
				if err != nil {
					return nil, false, err
				}
				// Each join's ON tree ANDs into WHERE alongside the caller's own
				// predicates and every other join's — never just the first.
				stmt.Where = append(stmt.Where, query.Predicate{Kind: query.PredRaw, Raw: &query.RawFragment{SQL: rendered}})
			}
		}
	}

	if len(stmt.Where) > 0 {
		rendered, err := c.renderPredicateList(stmt.Where, stmt.Schema)
		if err != nil {
			return nil, false, err
		}
		c.buf.WriteString(" where " + rendered)
	}

	return c.renderReturning(stmt)
}

// renderDelete renders DELETE FROM table [WHERE ...] [RETURNING ...].
func (c *compiler) renderDelete(stmt *query.Statement) ([]string, bool, error) {
	c.buf.WriteString("delete from ")
	c.buf.WriteString(c.quoteTableName(stmt.Table, stmt.Schema))

	if len(stmt.Where) > 0 {
		rendered, err := c.renderPredicateList(stmt.Where, stmt.Schema)
		if err != nil {
			return nil, false, err
		}
		c.buf.WriteString(" where " + rendered)
	}

	return c.renderReturning(stmt)
}

// renderReturning emits RETURNING when the dialect supports it; otherwise
// it reports the requested columns with emulated=true so the runner knows
// to fabricate a result from LastInsertId/RowsAffected (spec.md §4.3.6).
func (c *compiler) renderReturning(stmt *query.Statement) ([]string, bool, error) {
	if len(stmt.Returning) == 0 {
		return nil, false, nil
	}
	names := make([]string, len(stmt.Returning))
	for i, ce := range stmt.Returning {
		if ce.Wildcard {
			names[i] = "*"
			continue
		}
		if ce.Ref != nil {
			names[i] = ce.Ref.Column
		}
	}
	if !c.d.Features().SupportsReturning {
		return names, true, nil
	}
	rendered, err := c.renderColumnExprList(stmt.Returning, stmt.Schema)
	if err != nil {
		return nil, false, err
	}
	c.buf.WriteString(" returning " + rendered)
	return names, false, nil
}
