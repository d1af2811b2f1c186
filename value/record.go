package value

import (
	"fmt"
	"reflect"
	"strings"
)

// dbTag is the struct tag sequel reads to map a Go field to a column name,
// matching the teacher's Record()/Columns() convention.
const dbTag = "db"

// Columns returns the ordered "db"-tagged column names of a struct or
// pointer-to-struct, in field declaration order. Fields without a "db" tag
// are skipped; a tag of "-" excludes the field explicitly.
func Columns(record interface{}) []string {
	t := indirectType(reflect.TypeOf(record))
	cols := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if name, ok := fieldColumn(t.Field(i)); ok {
			cols = append(cols, name)
		}
	}
	return cols
}

// ExcludeColumns returns Columns(record) minus the given blacklist.
func ExcludeColumns(record interface{}, blacklist []string) []string {
	excluded := make(map[string]bool, len(blacklist))
	for _, c := range blacklist {
		excluded[c] = true
	}
	all := Columns(record)
	cols := make([]string, 0, len(all))
	for _, c := range all {
		if !excluded[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// ValuesFor extracts, in order, the value bound to each requested column
// name from a struct or pointer-to-struct record.
func ValuesFor(record interface{}, cols []string) ([]interface{}, error) {
	v := indirectValue(reflect.ValueOf(record))
	t := v.Type()

	byCol := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if name, ok := fieldColumn(t.Field(i)); ok {
			byCol[name] = i
		}
	}

	vals := make([]interface{}, len(cols))
	for i, c := range cols {
		idx, ok := byCol[c]
		if !ok {
			return nil, fmt.Errorf("value: record has no field tagged db:%q", c)
		}
		vals[i] = v.Field(idx).Interface()
	}
	return vals, nil
}

func fieldColumn(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get(dbTag)
	if tag == "" || tag == "-" {
		return "", false
	}
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	return tag, true
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func indirectValue(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v
}
