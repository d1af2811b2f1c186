package query

// withBody normalizes the body argument of a With-family call: a
// sub-builder, a raw fragment, or a nested callback.
func withBody(body interface{}) (*Statement, *RawFragment, error) {
	switch t := body.(type) {
	case *Builder:
		return t.stmt, nil, nil
	case func(*Builder):
		sub := newBuilder(KindSelect)
		t(sub)
		return sub.stmt, nil, nil
	case RawFragment:
		return nil, &t, nil
	default:
		return nil, nil, errValue("with: unsupported body type %T", body)
	}
}

func (b *Builder) with(alias string, columns []string, body interface{}, recursive bool, materialized *bool) *Builder {
	if !b.guard() {
		return b
	}
	stmt, raw, err := withBody(body)
	if err != nil {
		return b.fail(err)
	}
	b.stmt.With = append(b.stmt.With, CTE{
		Alias:        alias,
		Columns:      columns,
		Body:         stmt,
		BodyRaw:      raw,
		Recursive:    recursive,
		Materialized: materialized,
	})
	return b
}

// With appends a non-recursive CTE.
func (b *Builder) With(alias string, body interface{}, columns ...string) *Builder {
	return b.with(alias, columns, body, false, nil)
}

// WithRecursive appends a recursive CTE.
func (b *Builder) WithRecursive(alias string, body interface{}, columns ...string) *Builder {
	return b.with(alias, columns, body, true, nil)
}

// WithMaterialized appends a CTE with an explicit MATERIALIZED hint.
func (b *Builder) WithMaterialized(alias string, body interface{}, columns ...string) *Builder {
	t := true
	return b.with(alias, columns, body, false, &t)
}

// WithNotMaterialized appends a CTE with an explicit NOT MATERIALIZED hint.
func (b *Builder) WithNotMaterialized(alias string, body interface{}, columns ...string) *Builder {
	f := false
	return b.with(alias, columns, body, false, &f)
}

// WithRaw appends a CTE whose body is an opaque SQL fragment.
func (b *Builder) WithRaw(alias, sql string, bindings ...interface{}) *Builder {
	raw := Raw(sql, bindings...)
	return b.with(alias, nil, raw, false, nil)
}
