package value

import (
	"database/sql"
	"fmt"
	"reflect"
)

// ScanRows drains rows into one map per row, keyed by column name, closing
// rows before returning. This is the generic shape every terminal query
// method (select, RETURNING) post-processes further (pluck a column, take
// the first row, or hand the slice straight back).
func ScanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			row[c] = normalizeScanned(raw[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalizeScanned unwraps the []byte values database/sql hands back for
// TEXT-ish columns when no destination type narrows them, matching the
// common convention of surfacing those as Go strings in a map[string]any.
func normalizeScanned(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// ScanRowsInto scans rows directly into dest, a pointer to a slice of
// db-tagged structs (or struct pointers) — the same "db" tag convention
// Columns/ValuesFor read. Unlike ScanRows, which collapses every column
// to interface{}, this lets a caller declare NULL-aware destinations
// (NullString, NullInt64, NullFloat64, NullBool, NullTime) that round-trip
// a SQL NULL the way the teacher's struct-scan layer fed its own Null*
// fields, instead of losing nullability in a bare map. Columns with no
// matching tagged field are scanned and discarded.
func ScanRowsInto(rows *sql.Rows, dest interface{}) error {
	defer rows.Close()

	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("value: ScanRowsInto requires a pointer to a slice, got %T", dest)
	}
	slice := dv.Elem()
	elemType := slice.Type().Elem()
	ptrElem := elemType.Kind() == reflect.Ptr
	structType := elemType
	if ptrElem {
		structType = structType.Elem()
	}

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	fieldIdx := make([]int, len(cols))
	for i, col := range cols {
		fieldIdx[i] = -1
		for f := 0; f < structType.NumField(); f++ {
			if name, ok := fieldColumn(structType.Field(f)); ok && name == col {
				fieldIdx[i] = f
				break
			}
		}
	}

	for rows.Next() {
		elem := reflect.New(structType)
		var discard interface{}
		ptrs := make([]interface{}, len(cols))
		for i := range cols {
			if fieldIdx[i] == -1 {
				ptrs[i] = &discard
				continue
			}
			ptrs[i] = elem.Elem().Field(fieldIdx[i]).Addr().Interface()
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		if ptrElem {
			slice.Set(reflect.Append(slice, elem))
		} else {
			slice.Set(reflect.Append(slice, elem.Elem()))
		}
	}
	return rows.Err()
}

// Pluck extracts a single column's values across every row, as
// query.Builder.Pluck-style helpers do in the originating system.
func Pluck(rows []map[string]interface{}, column string) []interface{} {
	out := make([]interface{}, len(rows))
	for i, r := range rows {
		out[i] = r[column]
	}
	return out
}
