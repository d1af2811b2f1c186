package query

// OnBuilder assembles the ON-clause tree of a JOIN, accepting the same
// on/andOn/orOn/onIn/onBetween/onExists/onNull/onVal/using family spec.md
// §4.1 lists. It reuses Predicate so the compiler renders ON and WHERE
// trees with the same code path.
type OnBuilder struct {
	preds []Predicate
	using []string
}

// On appends an AND on-predicate comparing two columns (or a column and a
// literal when onVal is used instead).
func (o *OnBuilder) On(left, op, right string) *OnBuilder {
	o.preds = append(o.preds, Predicate{Kind: PredBinary, Conj: And, Column: left, Op: op, Value: ColumnRefValue(right)})
	return o
}

// AndOn is an alias for On.
func (o *OnBuilder) AndOn(left, op, right string) *OnBuilder { return o.On(left, op, right) }

// OrOn appends an OR on-predicate comparing two columns.
func (o *OnBuilder) OrOn(left, op, right string) *OnBuilder {
	o.preds = append(o.preds, Predicate{Kind: PredBinary, Conj: Or, Column: left, Op: op, Value: ColumnRefValue(right)})
	return o
}

// OnVal appends a column-to-literal-value predicate (as opposed to On,
// which compares two columns).
func (o *OnBuilder) OnVal(column, op string, value interface{}) *OnBuilder {
	o.preds = append(o.preds, Predicate{Kind: PredBinary, Conj: And, Column: column, Op: op, Value: value})
	return o
}

// OnIn appends a column IN (values...) on-predicate.
func (o *OnBuilder) OnIn(column string, values []interface{}) *OnBuilder {
	o.preds = append(o.preds, Predicate{Kind: PredInList, Conj: And, Column: column, Op: "in", Values: values})
	return o
}

// OnBetween appends a column BETWEEN low AND high on-predicate.
func (o *OnBuilder) OnBetween(column string, low, high interface{}) *OnBuilder {
	o.preds = append(o.preds, Predicate{Kind: PredBetween, Conj: And, Column: column, Low: low, High: high})
	return o
}

// OnExists appends an EXISTS (subquery) on-predicate.
func (o *OnBuilder) OnExists(cb func(*Builder)) *OnBuilder {
	sub := newBuilder(KindSelect)
	cb(sub)
	o.preds = append(o.preds, Predicate{Kind: PredExists, Conj: And, Sub: sub.stmt})
	return o
}

// OnNull appends a column IS NULL on-predicate.
func (o *OnBuilder) OnNull(column string) *OnBuilder {
	o.preds = append(o.preds, Predicate{Kind: PredNullTest, Conj: And, Column: column, Op: "is"})
	return o
}

// Using appends a USING (columns...) clause in place of an ON tree.
func (o *OnBuilder) Using(columns ...string) *OnBuilder {
	o.using = append(o.using, columns...)
	return o
}

// refMarker wraps a string to tell the compiler "this is a column
// reference, not a bound literal" when it appears as a Predicate.Value.
type refMarker string

// ColumnRefValue marks a string as a column reference rather than a bound
// literal value, for use inside ON-clause comparisons (a.id = b.a_id).
func ColumnRefValue(column string) interface{} { return refMarker(column) }

// AsColumnRef reports whether v was produced by ColumnRefValue, returning
// the wrapped column name. The compile package uses this to tell a literal
// string value apart from an identifier that must be quoted, not bound.
func AsColumnRef(v interface{}) (string, bool) {
	r, ok := v.(refMarker)
	return string(r), ok
}

// buildJoin assembles a Join from the same polymorphic ON-argument forms
// every join variant (and UpdateFrom) accepts: no args (cross join, or a
// join-then-On()-callback form), a single *OnBuilder callback or Eq map, or
// the three-arg column/op/column shorthand.
func buildJoin(kind JoinKind, target string, on ...interface{}) (Join, error) {
	j := Join{Kind: kind, Target: target}
	switch len(on) {
	case 0:
		// cross join or join-then-On()-callback form
	case 1:
		if cb, ok := on[0].(func(*OnBuilder)); ok {
			ob := &OnBuilder{}
			cb(ob)
			j.On = ob.preds
			j.Using = ob.using
		} else if eq, ok := on[0].(Eq); ok {
			for col, val := range eq {
				j.On = append(j.On, Predicate{Kind: PredBinary, Conj: And, Column: col, Op: "=", Value: val})
			}
		}
	case 3:
		left, _ := on[0].(string)
		op, _ := on[1].(string)
		right, _ := on[2].(string)
		j.On = []Predicate{{Kind: PredBinary, Conj: And, Column: left, Op: op, Value: ColumnRefValue(right)}}
	default:
		return Join{}, errValue("join: unsupported ON arguments")
	}
	return j, nil
}

func (b *Builder) implJoin(kind JoinKind, target string, on ...interface{}) *Builder {
	if !b.guard() {
		return b
	}
	j, err := buildJoin(kind, target, on...)
	if err != nil {
		return b.fail(err)
	}
	b.stmt.Joins = append(b.stmt.Joins, j)
	return b
}

// UpdateFrom appends an additional table (with a join condition) to an
// UPDATE statement's FROM clause, the same polymorphic ON forms Join
// accepts (three-arg column/op/column, an Eq map, or an *OnBuilder
// callback). Rejected at compile time on dialects whose
// Features().SupportsUpdateFrom is false.
func (b *Builder) UpdateFrom(target string, on ...interface{}) *Builder {
	if !b.guard() {
		return b
	}
	j, err := buildJoin(InnerJoin, target, on...)
	if err != nil {
		return b.fail(err)
	}
	b.stmt.UpdateFrom = append(b.stmt.UpdateFrom, j)
	return b
}

// Join appends an INNER JOIN.
func (b *Builder) Join(target string, on ...interface{}) *Builder {
	return b.implJoin(InnerJoin, target, on...)
}

// InnerJoin is an explicit alias for Join.
func (b *Builder) InnerJoin(target string, on ...interface{}) *Builder {
	return b.implJoin(InnerJoin, target, on...)
}

// LeftJoin appends a LEFT JOIN.
func (b *Builder) LeftJoin(target string, on ...interface{}) *Builder {
	return b.implJoin(LeftJoin, target, on...)
}

// RightJoin appends a RIGHT JOIN.
func (b *Builder) RightJoin(target string, on ...interface{}) *Builder {
	return b.implJoin(RightJoin, target, on...)
}

// FullOuterJoin appends a FULL OUTER JOIN.
func (b *Builder) FullOuterJoin(target string, on ...interface{}) *Builder {
	return b.implJoin(FullOuterJoin, target, on...)
}

// CrossJoin appends a CROSS JOIN, which emits no ON clause.
func (b *Builder) CrossJoin(target string) *Builder {
	return b.implJoin(CrossJoin, target)
}
