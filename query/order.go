package query

// GroupBy appends a column to GROUP BY.
func (b *Builder) GroupBy(columns ...string) *Builder {
	if !b.guard() {
		return b
	}
	for _, c := range columns {
		b.stmt.GroupBy = append(b.stmt.GroupBy, Col(c))
	}
	return b
}

// GroupByRaw appends a raw GROUP BY fragment.
func (b *Builder) GroupByRaw(sql string, bindings ...interface{}) *Builder {
	if !b.guard() {
		return b
	}
	b.stmt.GroupByRaw = append(b.stmt.GroupByRaw, Raw(sql, bindings...))
	return b
}

// OrderBy appends an ORDER BY term. dir is "asc" or "desc" (case
// insensitive, default "asc"); nulls is "first", "last", or "" for the
// dialect default.
func (b *Builder) OrderBy(column, dir, nulls string) *Builder {
	if !b.guard() {
		return b
	}
	term := OrderTerm{Expr: Col(column), Desc: isDesc(dir), Nulls: parseNulls(nulls)}
	b.stmt.OrderBy = append(b.stmt.OrderBy, term)
	return b
}

// OrderByRaw appends a raw ORDER BY fragment.
func (b *Builder) OrderByRaw(sql string, bindings ...interface{}) *Builder {
	if !b.guard() {
		return b
	}
	raw := Raw(sql, bindings...)
	b.stmt.OrderBy = append(b.stmt.OrderBy, OrderTerm{Raw: &raw})
	return b
}

func isDesc(dir string) bool {
	switch dir {
	case "desc", "DESC", "Desc":
		return true
	default:
		return false
	}
}

func parseNulls(nulls string) NullsOrder {
	switch nulls {
	case "first", "FIRST":
		return NullsFirst
	case "last", "LAST":
		return NullsLast
	default:
		return NullsDefault
	}
}

// Limit sets LIMIT, overriding any existing value.
func (b *Builder) Limit(n uint64) *Builder {
	if !b.guard() {
		return b
	}
	b.stmt.Limit = &n
	return b
}

// Offset sets OFFSET, overriding any existing value.
func (b *Builder) Offset(n uint64) *Builder {
	if !b.guard() {
		return b
	}
	b.stmt.Offset = &n
	return b
}

// SkipBinding inlines LIMIT/OFFSET as literals instead of bound
// placeholders, for dialects that reject a placeholder in that position.
func (b *Builder) SkipBinding() *Builder {
	b.stmt.SkipBinding = true
	return b
}

// Paginate sets LIMIT/OFFSET from a 1-indexed page number and page size.
func (b *Builder) Paginate(page, perPage uint64) *Builder {
	if page < 1 {
		page = 1
	}
	return b.Limit(perPage).Offset((page - 1) * perPage)
}
