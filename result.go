package sequel

import sqlerr "github.com/sqlkit/sequel/errors"

// First returns r's first row, or an error if the query returned none —
// the project-single half of spec.md §4.1's `first()` sugar (the `limit(1)`
// half is the caller's: `client.Exec(ctx, b.Limit(1))`).
func (r *Result) First() (map[string]interface{}, error) {
	if len(r.Rows) == 0 {
		return nil, sqlerr.New(sqlerr.Syntax, "result: no rows")
	}
	return r.Rows[0], nil
}

// Pluck projects a single column's values across every row, matching
// spec.md §4.1's `pluck(col)`.
func (r *Result) Pluck(column string) []interface{} {
	out := make([]interface{}, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row[column]
	}
	return out
}

// Scalar returns a column value from the first row, the common shape for
// `count(*)`-style single-column aggregate queries. Rows are maps, so when
// the row has several columns which one is returned is not defined.
func (r *Result) Scalar() (interface{}, error) {
	row, err := r.First()
	if err != nil {
		return nil, err
	}
	for _, v := range row {
		return v, nil
	}
	return nil, sqlerr.New(sqlerr.Syntax, "result: row has no columns")
}

// InsertID returns the dialect-native last-insert-id (spec.md §8 scenario
// 4: "insert(...) on a dialect without RETURNING... post-process returns
// [lastInsertRowid]").
func (r *Result) InsertID() (int64, bool) {
	return r.LastInsertID, r.HasInsertID
}
