package query

// ClearSelect resets the projection clause.
func (b *Builder) ClearSelect() *Builder {
	b.stmt.Columns = nil
	b.stmt.Distinct = false
	b.stmt.DistinctOn = nil
	return b
}

// ClearWhere resets the WHERE clause.
func (b *Builder) ClearWhere() *Builder {
	b.stmt.Where = nil
	return b
}

// ClearGroup resets the GROUP BY clause.
func (b *Builder) ClearGroup() *Builder {
	b.stmt.GroupBy = nil
	b.stmt.GroupByRaw = nil
	return b
}

// ClearOrder resets the ORDER BY clause.
func (b *Builder) ClearOrder() *Builder {
	b.stmt.OrderBy = nil
	return b
}

// ClearHaving resets the HAVING clause.
func (b *Builder) ClearHaving() *Builder {
	b.stmt.Having = nil
	return b
}

// ClearCounters resets LIMIT and OFFSET.
func (b *Builder) ClearCounters() *Builder {
	b.stmt.Limit = nil
	b.stmt.Offset = nil
	return b
}

// Clear resets an arbitrary named clause slot, matching spec.md's
// `clear(slotName)` escape hatch alongside the named Clear* methods.
func (b *Builder) Clear(slot string) *Builder {
	switch slot {
	case "select", "columns":
		return b.ClearSelect()
	case "where":
		return b.ClearWhere()
	case "group":
		return b.ClearGroup()
	case "order":
		return b.ClearOrder()
	case "having":
		return b.ClearHaving()
	case "counters", "limit", "offset":
		return b.ClearCounters()
	case "joins":
		b.stmt.Joins = nil
		return b
	case "with":
		b.stmt.With = nil
		return b
	case "union":
		b.stmt.SetOps = nil
		return b
	default:
		return b.fail(errValue("clear: unknown slot %q", slot))
	}
}
