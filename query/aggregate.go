package query

// aggregate appends an aggregate projection; alias is optional ("" for none).
func (b *Builder) aggregate(fn string, distinct bool, alias string, columns ...string) *Builder {
	if !b.guard() {
		return b
	}
	b.stmt.Columns = append(b.stmt.Columns, ColumnExpr{
		Agg:   &Aggregate{Func: fn, Columns: columns, Distinct: distinct},
		Alias: alias,
	})
	return b
}

// Count appends count(column) (or count(*) when column is "" or omitted).
func (b *Builder) Count(column ...string) *Builder {
	col := "*"
	if len(column) > 0 {
		col = column[0]
	}
	return b.aggregate("count", false, "", col)
}

// CountAs appends count(column) aliased.
func (b *Builder) CountAs(alias, column string) *Builder {
	return b.aggregate("count", false, alias, column)
}

// CountDistinct appends count(distinct columns...).
func (b *Builder) CountDistinct(columns ...string) *Builder {
	return b.aggregate("count", true, "", columns...)
}

// Min appends min(column).
func (b *Builder) Min(column string) *Builder { return b.aggregate("min", false, "", column) }

// MinAs appends min(column) aliased.
func (b *Builder) MinAs(alias, column string) *Builder { return b.aggregate("min", false, alias, column) }

// Max appends max(column).
func (b *Builder) Max(column string) *Builder { return b.aggregate("max", false, "", column) }

// MaxAs appends max(column) aliased.
func (b *Builder) MaxAs(alias, column string) *Builder { return b.aggregate("max", false, alias, column) }

// Sum appends sum(column).
func (b *Builder) Sum(column string) *Builder { return b.aggregate("sum", false, "", column) }

// SumAs appends sum(column) aliased.
func (b *Builder) SumAs(alias, column string) *Builder { return b.aggregate("sum", false, alias, column) }

// SumDistinct appends sum(distinct column).
func (b *Builder) SumDistinct(column string) *Builder { return b.aggregate("sum", true, "", column) }

// Avg appends avg(column).
func (b *Builder) Avg(column string) *Builder { return b.aggregate("avg", false, "", column) }

// AvgAs appends avg(column) aliased.
func (b *Builder) AvgAs(alias, column string) *Builder { return b.aggregate("avg", false, alias, column) }

// AvgDistinct appends avg(distinct column).
func (b *Builder) AvgDistinct(column string) *Builder { return b.aggregate("avg", true, "", column) }
