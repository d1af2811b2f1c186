// Package query implements the in-memory query AST and the fluent builder
// that assembles it (spec.md §4.1). A Builder never touches a dialect, a
// connection, or SQL text — it only ever mutates a Statement, the tagged
// record spec.md §3 describes. Rendering that record to SQL text is the
// compile package's job; running it is the runner package's.
package query

// Kind tags which top-level statement shape a Statement represents.
type Kind int

const (
	KindSelect Kind = iota
	KindInsert
	KindUpdate
	KindDelete
	KindRaw
)

// Conjunction joins predicates within a clause slot.
type Conjunction int

const (
	And Conjunction = iota
	Or
)

// JoinKind enumerates the supported join strategies.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
	FullOuterJoin
	CrossJoin
)

// NullsOrder controls NULLS FIRST/LAST placement in ORDER BY.
type NullsOrder int

const (
	NullsDefault NullsOrder = iota
	NullsFirst
	NullsLast
)

// SetOpKind enumerates the set-operation family.
type SetOpKind int

const (
	Union SetOpKind = iota
	UnionAll
	Intersect
	Except
)

// Ref is a column identifier carrying an optional schema, table, column,
// and alias (spec.md §3 "Reference (Ref)").
type Ref struct {
	Schema string
	Table  string
	Column string
	Alias  string
}

// RawFragment is an opaque SQL string plus a positional binding list. It
// can appear anywhere a column, table, or predicate can (spec.md §3).
type RawFragment struct {
	SQL      string
	Bindings []interface{}
}

// Raw builds a RawFragment, mirroring the teacher's package-level Expr().
func Raw(sql string, bindings ...interface{}) RawFragment {
	return RawFragment{SQL: sql, Bindings: bindings}
}

// Aggregate wraps a column (or columns) in a SQL aggregate function call.
type Aggregate struct {
	Func     string // "count", "sum", "avg", "min", "max"
	Columns  []string
	Distinct bool
	Alias    string
}

// ColumnExpr is a single projected/grouped/ordered expression: a wildcard,
// a Ref, a Raw fragment, or an Aggregate, optionally aliased.
type ColumnExpr struct {
	Wildcard      bool
	WildcardTable string // for "a.*"
	Ref           *Ref
	Raw           *RawFragment
	Agg           *Aggregate
	Sub           *Statement // scalar subquery expression
	Alias         string
}

// Col builds a plain column ColumnExpr from a bare name (possibly dotted).
func Col(name string) ColumnExpr {
	if name == "*" {
		return ColumnExpr{Wildcard: true}
	}
	return ColumnExpr{Ref: parseRef(name)}
}

// AliasedCol builds a ColumnExpr aliasing source to alias.
func AliasedCol(alias, source string) ColumnExpr {
	c := Col(source)
	c.Alias = alias
	return c
}

// Predicate is a tagged node in a WHERE/HAVING/ON tree.
type PredicateKind int

const (
	PredBinary PredicateKind = iota
	PredInList
	PredBetween
	PredNullTest
	PredExists
	PredRaw
	PredGroup
	PredJSONPath
)

// Predicate is one entry in a predicate tree (spec.md §3 "predicates").
type Predicate struct {
	Kind   PredicateKind
	Conj   Conjunction
	Negate bool

	Column string // bare or dotted identifier
	Op     string // "=", ">", "in", "between", "is", ...
	Value  interface{}
	Values []interface{} // IN-list
	Low    interface{}   // BETWEEN lower bound
	High   interface{}   // BETWEEN upper bound

	Sub *Statement // EXISTS / IN subquery

	Raw *RawFragment

	Children []Predicate // nested group, parenthesized

	// JSON-path specific fields (PredJSONPath)
	JSONOp   string // "@>", "<@", "#>>"
	JSONPath []string
}

// Join describes one JOIN clause.
type Join struct {
	Kind JoinKind

	Target    string
	TargetSub *Statement
	TargetRaw *RawFragment
	Alias     string

	On    []Predicate
	Using []string
}

// OrderTerm is one ORDER BY entry.
type OrderTerm struct {
	Expr  ColumnExpr
	Raw   *RawFragment
	Desc  bool
	Nulls NullsOrder
}

// CTE is one WITH-clause entry.
type CTE struct {
	Alias        string
	Columns      []string
	Body         *Statement
	BodyRaw      *RawFragment
	Recursive    bool
	Materialized *bool // nil = dialect default, true/false = explicit hint
}

// SetOp is one operand of a UNION/INTERSECT/EXCEPT family.
type SetOp struct {
	Kind    SetOpKind
	Operand *Statement
	Raw     *RawFragment
	Wrap    bool
}

// Assignment is one column=value pair for UPDATE SET / ON CONFLICT DO UPDATE.
type Assignment struct {
	Column string
	Value  interface{}
	Raw    *RawFragment
}

// OnConflict models an INSERT ... ON CONFLICT clause.
type OnConflict struct {
	Column         string
	Constraint     string
	IndexPredicate string
	DoNothing      bool
	Assignments    []Assignment
	Where          []Predicate
}

// Locking models a row-locking clause (FOR UPDATE/SHARE/...).
type Locking struct {
	Mode       string // "UPDATE", "SHARE", "NO KEY UPDATE", "KEY SHARE"
	OfTables   []string
	SkipLocked bool
	NoWait     bool
}

// Statement is the single tagged-record AST spec.md §3 describes: one kind
// tag plus every clause slot a query might use, each an ordered sequence.
type Statement struct {
	Kind Kind

	Schema      string // withSchema default for unqualified refs
	Table       string
	TableAlias  string

	With []CTE

	Distinct       bool
	DistinctOn     []ColumnExpr
	Columns        []ColumnExpr
	Joins          []Join
	Where          []Predicate
	GroupBy        []ColumnExpr
	GroupByRaw     []RawFragment
	Having         []Predicate
	OrderBy        []OrderTerm
	Limit          *uint64
	Offset         *uint64
	SkipBinding    bool // inline LIMIT/OFFSET as literals
	Locking        *Locking
	SetOps         []SetOp

	// INSERT
	InsertCols  []string
	InsertVals  [][]interface{}
	Records     []interface{}
	Blacklist   bool
	OnConflict  *OnConflict

	// UPDATE
	Assignments []Assignment
	UpdateFrom  []Join

	// INSERT/UPDATE/DELETE
	Returning []ColumnExpr

	// raw escape hatch (method = "raw")
	RawSQL      string
	RawBindings []interface{}

	// caller-assigned timeout, consumed by the runner
	TimeoutMS    int
	CancelOnStop bool

	frozen bool
}

// Clone returns a deep-enough copy: every slice is re-sliced so appending
// to the clone never perturbs the original (spec.md §3 invariant 5).
func (s *Statement) Clone() *Statement {
	if s == nil {
		return nil
	}
	cp := *s
	cp.With = append([]CTE(nil), s.With...)
	cp.DistinctOn = append([]ColumnExpr(nil), s.DistinctOn...)
	cp.Columns = append([]ColumnExpr(nil), s.Columns...)
	cp.Joins = append([]Join(nil), s.Joins...)
	cp.Where = append([]Predicate(nil), s.Where...)
	cp.GroupBy = append([]ColumnExpr(nil), s.GroupBy...)
	cp.GroupByRaw = append([]RawFragment(nil), s.GroupByRaw...)
	cp.Having = append([]Predicate(nil), s.Having...)
	cp.OrderBy = append([]OrderTerm(nil), s.OrderBy...)
	cp.SetOps = append([]SetOp(nil), s.SetOps...)
	cp.InsertCols = append([]string(nil), s.InsertCols...)
	cp.InsertVals = append([][]interface{}(nil), s.InsertVals...)
	cp.Records = append([]interface{}(nil), s.Records...)
	cp.Assignments = append([]Assignment(nil), s.Assignments...)
	cp.UpdateFrom = append([]Join(nil), s.UpdateFrom...)
	cp.Returning = append([]ColumnExpr(nil), s.Returning...)
	if s.Limit != nil {
		l := *s.Limit
		cp.Limit = &l
	}
	if s.Offset != nil {
		o := *s.Offset
		cp.Offset = &o
	}
	if s.Locking != nil {
		loc := *s.Locking
		cp.Locking = &loc
	}
	if s.OnConflict != nil {
		oc := *s.OnConflict
		cp.OnConflict = &oc
	}
	cp.frozen = false
	return &cp
}
