package query

import "fmt"

// validOps is the closed set spec.md §4.1 names for (column, op, value)
// predicates. Anything outside it is still emitted verbatim — the caller's
// responsibility, per spec — but Eq/Gt/... helpers only ever produce these.
var validOps = map[string]bool{
	"=": true, ">": true, ">=": true, "<": true, "<=": true,
	"<>": true, "!=": true, "like": true, "ilike": true,
	"in": true, "not in": true, "between": true, "is": true, "is not": true,
}

// Eq is a map of column/value pairs that Where and friends expand into an
// AND-conjunction of equality predicates, matching the teacher's map-form
// Where (select.go: `Where(whereSQLOrMap interface{}, ...)`).
type Eq map[string]interface{}

func (b *Builder) appendWhere(p Predicate) *Builder {
	if !b.guard() {
		return b
	}
	b.stmt.Where = append(b.stmt.Where, p)
	return b
}

func (b *Builder) appendHaving(p Predicate) *Builder {
	if !b.guard() {
		return b
	}
	b.stmt.Having = append(b.stmt.Having, p)
	return b
}

// eqPredicates expands an Eq map into binary-equality (or IN, for slice
// values) predicates, each joined to the chain with conj.
func eqPredicates(m Eq, conj Conjunction) []Predicate {
	preds := make([]Predicate, 0, len(m))
	for col, val := range m {
		p := Predicate{Conj: conj, Column: col}
		if vals, ok := asSlice(val); ok {
			p.Kind = PredInList
			p.Op = "in"
			p.Values = vals
		} else if val == nil {
			p.Kind = PredNullTest
			p.Op = "is"
		} else {
			p.Kind = PredBinary
			p.Op = "="
			p.Value = val
		}
		preds = append(preds, p)
	}
	return preds
}

func asSlice(v interface{}) ([]interface{}, bool) {
	switch t := v.(type) {
	case []interface{}:
		return t, true
	case []int:
		out := make([]interface{}, len(t))
		for i, x := range t {
			out[i] = x
		}
		return out, true
	case []string:
		out := make([]interface{}, len(t))
		for i, x := range t {
			out[i] = x
		}
		return out, true
	case []int64:
		out := make([]interface{}, len(t))
		for i, x := range t {
			out[i] = x
		}
		return out, true
	default:
		return nil, false
	}
}

// wherePredicate is the common dispatcher behind Where/WhereNot/OrWhere and
// their Having counterparts: it accepts (column, value), (column, op,
// value), an Eq/map[string]interface{} for an equality conjunction, a
// nested *Builder callback result (parenthesized group), or a RawFragment.
func wherePredicate(conj Conjunction, negate bool, args []interface{}) ([]Predicate, error) {
	if len(args) == 0 {
		return nil, errValue("where: at least one argument required")
	}
	switch first := args[0].(type) {
	case Eq:
		preds := eqPredicates(first, conj)
		for i := range preds {
			preds[i].Negate = negate
		}
		return preds, nil
	case map[string]interface{}:
		preds := eqPredicates(Eq(first), conj)
		for i := range preds {
			preds[i].Negate = negate
		}
		return preds, nil
	case RawFragment:
		return []Predicate{{Kind: PredRaw, Conj: conj, Negate: negate, Raw: &first}}, nil
	case func(*Builder):
		sub := newBuilder(KindSelect)
		first(sub)
		return []Predicate{{Kind: PredGroup, Conj: conj, Negate: negate, Children: sub.stmt.Where}}, nil
	case string:
		return bindWhereString(conj, negate, first, args[1:])
	default:
		return nil, errValue("where: unsupported predicate form %T", first)
	}
}

// bindWhereString handles the (column), (column, value), and
// (column, op, value) string-led forms.
func bindWhereString(conj Conjunction, negate bool, column string, rest []interface{}) ([]Predicate, error) {
	switch len(rest) {
	case 0:
		// bare SQL fragment with no bindings, e.g. Where("a = b")
		return []Predicate{{Kind: PredRaw, Conj: conj, Negate: negate, Raw: &RawFragment{SQL: column}}}, nil
	case 1:
		val := rest[0]
		if vals, ok := asSlice(val); ok {
			return []Predicate{{Kind: PredInList, Conj: conj, Negate: negate, Column: column, Op: "in", Values: vals}}, nil
		}
		return []Predicate{{Kind: PredBinary, Conj: conj, Negate: negate, Column: column, Op: "=", Value: val}}, nil
	case 2:
		op, _ := rest[0].(string)
		return []Predicate{{Kind: PredBinary, Conj: conj, Negate: negate, Column: column, Op: op, Value: rest[1]}}, nil
	default:
		// column is actually a raw fragment with positional bindings
		return []Predicate{{Kind: PredRaw, Conj: conj, Negate: negate, Raw: &RawFragment{SQL: column, Bindings: rest}}}, nil
	}
}

// Where appends an AND predicate in any of the forms spec.md §4.1 lists.
func (b *Builder) Where(args ...interface{}) *Builder {
	preds, err := wherePredicate(And, false, args)
	if err != nil {
		return b.fail(err)
	}
	for _, p := range preds {
		b = b.appendWhere(p)
	}
	return b
}

// WhereNot appends a negated AND predicate.
func (b *Builder) WhereNot(args ...interface{}) *Builder {
	preds, err := wherePredicate(And, true, args)
	if err != nil {
		return b.fail(err)
	}
	for _, p := range preds {
		b = b.appendWhere(p)
	}
	return b
}

// OrWhere appends an OR predicate.
func (b *Builder) OrWhere(args ...interface{}) *Builder {
	preds, err := wherePredicate(Or, false, args)
	if err != nil {
		return b.fail(err)
	}
	for _, p := range preds {
		b = b.appendWhere(p)
	}
	return b
}

// WhereIn appends a column IN (values...) predicate.
func (b *Builder) WhereIn(column string, values []interface{}) *Builder {
	return b.appendWhere(Predicate{Kind: PredInList, Conj: And, Column: column, Op: "in", Values: values})
}

// WhereNotIn appends a column NOT IN (values...) predicate.
func (b *Builder) WhereNotIn(column string, values []interface{}) *Builder {
	return b.appendWhere(Predicate{Kind: PredInList, Conj: And, Negate: true, Column: column, Op: "in", Values: values})
}

// WhereBetween appends a column BETWEEN low AND high predicate.
func (b *Builder) WhereBetween(column string, low, high interface{}) *Builder {
	return b.appendWhere(Predicate{Kind: PredBetween, Conj: And, Column: column, Low: low, High: high})
}

// WhereNotBetween appends a negated BETWEEN predicate.
func (b *Builder) WhereNotBetween(column string, low, high interface{}) *Builder {
	return b.appendWhere(Predicate{Kind: PredBetween, Conj: And, Negate: true, Column: column, Low: low, High: high})
}

// WhereNull appends a column IS NULL predicate.
func (b *Builder) WhereNull(column string) *Builder {
	return b.appendWhere(Predicate{Kind: PredNullTest, Conj: And, Column: column, Op: "is"})
}

// WhereNotNull appends a column IS NOT NULL predicate.
func (b *Builder) WhereNotNull(column string) *Builder {
	return b.appendWhere(Predicate{Kind: PredNullTest, Conj: And, Negate: true, Column: column, Op: "is"})
}

// WhereLike appends a column LIKE pattern predicate.
func (b *Builder) WhereLike(column, pattern string) *Builder {
	return b.appendWhere(Predicate{Kind: PredBinary, Conj: And, Column: column, Op: "like", Value: pattern})
}

// WhereILike appends a case-insensitive LIKE predicate; the compiler
// rewrites it per-dialect when the backend lacks native ILIKE.
func (b *Builder) WhereILike(column, pattern string) *Builder {
	return b.appendWhere(Predicate{Kind: PredBinary, Conj: And, Column: column, Op: "ilike", Value: pattern})
}

// WhereRaw appends an opaque raw predicate fragment.
func (b *Builder) WhereRaw(sql string, bindings ...interface{}) *Builder {
	raw := Raw(sql, bindings...)
	return b.appendWhere(Predicate{Kind: PredRaw, Conj: And, Raw: &raw})
}

// WhereExists appends an EXISTS (subquery) predicate built by cb.
func (b *Builder) WhereExists(cb func(*Builder)) *Builder {
	sub := newBuilder(KindSelect)
	cb(sub)
	return b.appendWhere(Predicate{Kind: PredExists, Conj: And, Sub: sub.stmt})
}

// WhereNotExists appends a NOT EXISTS (subquery) predicate.
func (b *Builder) WhereNotExists(cb func(*Builder)) *Builder {
	sub := newBuilder(KindSelect)
	cb(sub)
	return b.appendWhere(Predicate{Kind: PredExists, Conj: And, Negate: true, Sub: sub.stmt})
}

// WhereJSONPath appends a JSON path-extraction comparison: column #>> path = value.
func (b *Builder) WhereJSONPath(column string, path []string, value interface{}) *Builder {
	return b.appendWhere(Predicate{Kind: PredJSONPath, Conj: And, Column: column, JSONOp: "#>>", JSONPath: path, Value: value})
}

// WhereJSONObject appends a JSON-object equality predicate: column = value::jsonb.
func (b *Builder) WhereJSONObject(column string, value interface{}) *Builder {
	return b.appendWhere(Predicate{Kind: PredJSONPath, Conj: And, Column: column, JSONOp: "=", Value: value})
}

// WhereJSONSupersetOf appends a "column @> value" JSON containment predicate.
func (b *Builder) WhereJSONSupersetOf(column string, value interface{}) *Builder {
	return b.appendWhere(Predicate{Kind: PredJSONPath, Conj: And, Column: column, JSONOp: "@>", Value: value})
}

// WhereJSONSubsetOf appends a "column <@ value" JSON containment predicate.
func (b *Builder) WhereJSONSubsetOf(column string, value interface{}) *Builder {
	return b.appendWhere(Predicate{Kind: PredJSONPath, Conj: And, Column: column, JSONOp: "<@", Value: value})
}

// Having family mirrors Where exactly (spec.md §4.1 "the having family mirrors where").

// Having appends an AND predicate to the HAVING clause.
func (b *Builder) Having(args ...interface{}) *Builder {
	preds, err := wherePredicate(And, false, args)
	if err != nil {
		return b.fail(err)
	}
	for _, p := range preds {
		b = b.appendHaving(p)
	}
	return b
}

// OrHaving appends an OR predicate to the HAVING clause.
func (b *Builder) OrHaving(args ...interface{}) *Builder {
	preds, err := wherePredicate(Or, false, args)
	if err != nil {
		return b.fail(err)
	}
	for _, p := range preds {
		b = b.appendHaving(p)
	}
	return b
}

// HavingRaw appends a raw HAVING fragment.
func (b *Builder) HavingRaw(sql string, bindings ...interface{}) *Builder {
	raw := Raw(sql, bindings...)
	return b.appendHaving(Predicate{Kind: PredRaw, Conj: And, Raw: &raw})
}

func errValue(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
