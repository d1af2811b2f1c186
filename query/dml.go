package query

import (
	"reflect"

	"github.com/sqlkit/sequel/value"
)

// Columns restricts which columns a Record() call projects (a whitelist).
func (b *Builder) Columns(columns ...string) *Builder {
	if !b.guard() {
		return b
	}
	b.stmt.InsertCols = columns
	return b
}

// Whitelist is an explicit alias for Columns.
func (b *Builder) Whitelist(columns ...string) *Builder { return b.Columns(columns...) }

// Blacklist marks InsertCols as columns to exclude, only valid with Record.
func (b *Builder) Blacklist(columns ...string) *Builder {
	if !b.guard() {
		return b
	}
	b.stmt.Blacklist = true
	b.stmt.InsertCols = columns
	return b
}

// RowValues appends one row of positional values, aligned with InsertCols.
func (b *Builder) RowValues(vals ...interface{}) *Builder {
	if !b.guard() {
		return b
	}
	b.stmt.InsertVals = append(b.stmt.InsertVals, vals)
	return b
}

// Record queues a struct (or pointer-to-struct) whose "db"-tagged fields
// supply columns and values, matching the teacher's Record() (insert.go).
func (b *Builder) Record(record interface{}) *Builder {
	if !b.guard() {
		return b
	}
	b.stmt.Records = append(b.stmt.Records, record)
	return b
}

// Pair adds a single column/value pair, usable instead of RowValues for
// one-row inserts built up incrementally.
func (b *Builder) Pair(column string, value interface{}) *Builder {
	if !b.guard() {
		return b
	}
	b.stmt.InsertCols = append(b.stmt.InsertCols, column)
	if len(b.stmt.InsertVals) == 0 {
		b.stmt.InsertVals = [][]interface{}{{value}}
	} else if len(b.stmt.InsertVals) == 1 {
		b.stmt.InsertVals[0] = append(b.stmt.InsertVals[0], value)
	} else {
		return b.fail(errValue("pair: only one record may be built with Pair"))
	}
	return b
}

// Insert is sugar over Columns/RowValues/Record/Returning, accepting a single
// map, a slice of maps (bulk insert), a struct record, or a slice of
// struct records, exactly as spec.md §4.1 `insert(data, returning?)`.
func (b *Builder) Insert(data interface{}, returning ...string) *Builder {
	if !b.guard() {
		return b
	}
	if err := insertData(b, data); err != nil {
		return b.fail(err)
	}
	if len(returning) > 0 {
		b.Returning(returning...)
	}
	return b
}

func insertData(b *Builder, data interface{}) error {
	switch t := data.(type) {
	case map[string]interface{}:
		return insertMap(b, t)
	case []map[string]interface{}:
		for _, m := range t {
			if err := insertMap(b, m); err != nil {
				return err
			}
		}
		return nil
	default:
		rv := reflect.Indirect(reflect.ValueOf(data))
		if rv.Kind() == reflect.Slice {
			for i := 0; i < rv.Len(); i++ {
				b.Record(rv.Index(i).Interface())
			}
			return nil
		}
		b.Record(data)
		return nil
	}
}

func insertMap(b *Builder, m map[string]interface{}) error {
	if len(b.stmt.InsertCols) == 0 {
		cols := make([]string, 0, len(m))
		for c := range m {
			cols = append(cols, c)
		}
		b.stmt.InsertCols = cols
	}
	vals := make([]interface{}, len(b.stmt.InsertCols))
	for i, c := range b.stmt.InsertCols {
		vals[i] = m[c]
	}
	b.stmt.InsertVals = append(b.stmt.InsertVals, vals)
	return nil
}

// ResolvedInsertColumns computes the final column list for compilation,
// expanding Record()-backed rows and the Blacklist flag via the value
// package's reflection helpers. The compile package calls this rather than
// reading Statement.InsertCols directly so Record()/Blacklist resolution
// lives in one place.
func (s *Statement) ResolvedInsertColumns() ([]string, error) {
	cols := s.InsertCols
	if len(s.Records) == 0 {
		return cols, nil
	}
	if s.Blacklist {
		return value.ExcludeColumns(s.Records[0], cols), nil
	}
	if len(cols) > 0 && cols[0] == "*" {
		return value.Columns(s.Records[0]), nil
	}
	return cols, nil
}

// RecordValues extracts, in cols order, one row per Record()-queued struct
// (or pointer-to-struct). The compile package calls this once it has
// resolved cols via ResolvedInsertColumns.
func RecordValues(records []interface{}, cols []string) ([][]interface{}, error) {
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		vals, err := value.ValuesFor(r, cols)
		if err != nil {
			return nil, err
		}
		rows[i] = vals
	}
	return rows, nil
}

// Returning sets the RETURNING column list ("*" for all columns).
func (b *Builder) Returning(columns ...string) *Builder {
	if !b.guard() {
		return b
	}
	for _, c := range columns {
		b.stmt.Returning = append(b.stmt.Returning, Col(c))
	}
	return b
}

// Set appends a column=value assignment to an UPDATE statement, or — when
// called after OnConflict — to the DO UPDATE SET clause of an upsert.
func (b *Builder) Set(column string, value interface{}) *Builder {
	if !b.guard() {
		return b
	}
	if b.stmt.OnConflict != nil {
		b.stmt.OnConflict.Assignments = append(b.stmt.OnConflict.Assignments, Assignment{Column: column, Value: value})
		return b
	}
	b.stmt.Assignments = append(b.stmt.Assignments, Assignment{Column: column, Value: value})
	return b
}

// SetMap appends one assignment per map entry.
func (b *Builder) SetMap(values map[string]interface{}) *Builder {
	for col, val := range values {
		b = b.Set(col, val)
	}
	return b
}

// SetRaw appends a raw column=expr assignment.
func (b *Builder) SetRaw(column, sql string, bindings ...interface{}) *Builder {
	if !b.guard() {
		return b
	}
	raw := Raw(sql, bindings...)
	a := Assignment{Column: column, Raw: &raw}
	if b.stmt.OnConflict != nil {
		b.stmt.OnConflict.Assignments = append(b.stmt.OnConflict.Assignments, a)
		return b
	}
	b.stmt.Assignments = append(b.stmt.Assignments, a)
	return b
}

// Update is sugar for SetMap on a statement started with UpdateTable.
func (b *Builder) Update(values map[string]interface{}, returning ...string) *Builder {
	b = b.SetMap(values)
	if len(returning) > 0 {
		b.Returning(returning...)
	}
	return b
}

// Del marks the DELETE's optional RETURNING columns; Kind is already
// KindDelete from DeleteFrom.
func (b *Builder) Del(returning ...string) *Builder {
	if len(returning) > 0 {
		b.Returning(returning...)
	}
	return b
}

// onConflictTarget starts (or returns the existing) ON CONFLICT clause.
func (b *Builder) onConflictTarget() *OnConflict {
	if b.stmt.OnConflict == nil {
		b.stmt.OnConflict = &OnConflict{}
	}
	return b.stmt.OnConflict
}

// OnConflictColumn starts an ON CONFLICT (column) clause, returning a
// handle whose .Merge()/.Ignore() pick the conflict_action.
func (b *Builder) OnConflictColumn(column string) *Builder {
	if !b.guard() {
		return b
	}
	b.onConflictTarget().Column = column
	return b
}

// OnConflictConstraint starts an ON CONFLICT ON CONSTRAINT name clause.
func (b *Builder) OnConflictConstraint(constraint string) *Builder {
	if !b.guard() {
		return b
	}
	b.onConflictTarget().Constraint = constraint
	return b
}

// OnConflictWhere narrows the conflict target with a partial-index predicate.
func (b *Builder) OnConflictWhere(column, indexPredicate string) *Builder {
	if !b.guard() {
		return b
	}
	target := b.onConflictTarget()
	target.Column = column
	target.IndexPredicate = indexPredicate
	return b
}

// Merge selects DO UPDATE SET as the conflict_action. When cols is empty,
// every InsertCols entry, the conflict column included, is merged from
// EXCLUDED/VALUES.
func (b *Builder) Merge(cols ...string) *Builder {
	if !b.guard() {
		return b
	}
	target := b.onConflictTarget()
	target.DoNothing = false
	if len(cols) == 0 {
		cols = b.stmt.InsertCols
	}
	for _, c := range cols {
		target.Assignments = append(target.Assignments, Assignment{Column: c, Value: excludedRef(c)})
	}
	return b
}

// Ignore selects DO NOTHING as the conflict_action.
func (b *Builder) Ignore() *Builder {
	if !b.guard() {
		return b
	}
	b.onConflictTarget().DoNothing = true
	return b
}

// excludedRef marks a value as "take it from the proposed/EXCLUDED row",
// for dialect-specific rendering of DO UPDATE SET col = EXCLUDED.col.
type excludedColumn string

func excludedRef(column string) interface{} { return excludedColumn(column) }

// AsExcludedColumn reports whether v was produced by excludedRef (i.e. a
// Merge()-populated assignment), returning the wrapped column name.
func AsExcludedColumn(v interface{}) (string, bool) {
	c, ok := v.(excludedColumn)
	return string(c), ok
}

// Upsert is sugar combining Insert with an immediately-following
// OnConflictColumn(...).Merge() against the given conflict columns.
func (b *Builder) Upsert(data interface{}, conflictColumns []string, returning ...string) *Builder {
	b = b.Insert(data)
	if !b.guard() {
		return b
	}
	b.onConflictTarget().Column = joinCols(conflictColumns)
	return b.Merge().thenReturning(returning)
}

func (b *Builder) thenReturning(returning []string) *Builder {
	if len(returning) > 0 {
		b.Returning(returning...)
	}
	return b
}

func joinCols(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ","
		}
		out += c
	}
	return out
}
