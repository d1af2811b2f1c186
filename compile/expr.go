package compile

import (
	"strings"

	"github.com/sqlkit/sequel/query"
)

// renderColumnExpr renders one SELECT/GROUP BY/ORDER BY/RETURNING entry:
// a wildcard, a Ref, a raw fragment, an aggregate call, or a scalar
// subquery, each optionally aliased.
func (c *compiler) renderColumnExpr(ce query.ColumnExpr, defaultSchema string) (string, error) {
	var core string
	switch {
	case ce.Wildcard:
		if ce.WildcardTable != "" {
			core = c.d.QuoteIdentifier(ce.WildcardTable) + ".*"
		} else {
			core = "*"
		}
	case ce.Ref != nil:
		core = c.quoteRef(ce.Ref, defaultSchema)
		if ce.Ref.Alias != "" && ce.Alias == "" {
			ce.Alias = ce.Ref.Alias
		}
	case ce.Raw != nil:
		core = c.renderRaw(ce.Raw)
	case ce.Agg != nil:
		rendered, err := c.renderAggregate(ce.Agg)
		if err != nil {
			return "", err
		}
		core = rendered
	case ce.Sub != nil:
		sub, err := c.subcompile(ce.Sub)
		if err != nil {
			return "", err
		}
		core = "(" + sub + ")"
	default:
		return "", fail("empty column expression")
	}
	if ce.Alias != "" {
		core += " as " + c.d.QuoteIdentifier(ce.Alias)
	}
	return core, nil
}

// renderAggregate renders `fn([distinct] columns...)`. count(distinct a, b)
// is rewritten to count(distinct concat(a, b)) on dialects that can't take
// a multi-column DISTINCT argument to count (spec.md §4.3 point 5).
func (c *compiler) renderAggregate(agg *query.Aggregate) (string, error) {
	cols := make([]string, len(agg.Columns))
	for i, col := range agg.Columns {
		if col == "*" {
			cols[i] = "*"
			continue
		}
		cols[i] = c.quoteColumn(col, "")
	}

	if !agg.Distinct {
		return agg.Func + "(" + strings.Join(cols, ", ") + ")", nil
	}

	if len(cols) <= 1 || c.d.Name() == "pg" || c.d.Name() == "redshift" || c.d.Name() == "cockroachdb" {
		return agg.Func + "(distinct " + strings.Join(cols, ", ") + ")", nil
	}
	// MySQL/SQLite/MSSQL/Oracle: count(distinct a, b) isn't portable SQL in
	// the multi-column form dat's callers sometimes reach for; concat the
	// columns so DISTINCT still dedupes on the full tuple.
	return agg.Func + "(distinct concat(" + strings.Join(cols, ", ") + "))", nil
}

// renderColumnExprList renders a comma-joined list of column expressions.
func (c *compiler) renderColumnExprList(cols []query.ColumnExpr, defaultSchema string) (string, error) {
	parts := make([]string, len(cols))
	for i, ce := range cols {
		rendered, err := c.renderColumnExpr(ce, defaultSchema)
		if err != nil {
			return "", err
		}
		parts[i] = rendered
	}
	return strings.Join(parts, ", "), nil
}
