// Package value defines the typed value variants a compiled query binds,
// plus the nullable wrapper types a caller uses to round-trip NULLs through
// encoding/json the way the teacher's types.go does for Postgres. They are
// real sql.Scanner destinations: ScanRowsInto (scan.go) scans a result set
// straight into a caller's db-tagged struct, so a field typed NullString,
// NullInt64, NullFloat64, NullBool, or NullTime gets its Valid flag set (or
// not) directly off the driver, the way the teacher's own struct-scan layer
// used these types.
package value

import (
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
)

// NullString is a string that can be null, JSON-marshaling to `null`
// instead of an empty string when unset.
type NullString struct{ sql.NullString }

// NullFloat64 is a float64 that can be null.
type NullFloat64 struct{ sql.NullFloat64 }

// NullInt64 is an int64 that can be null.
type NullInt64 struct{ sql.NullInt64 }

// NullBool is a bool that can be null.
type NullBool struct{ sql.NullBool }

// NullTime is a time.Time that can be null, timezone-aware via pq.NullTime.
type NullTime struct{ pq.NullTime }

var jsonNull = []byte("null")

// MarshalJSON serializes a NullString to JSON, `null` when unset.
func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return json.Marshal(n.String)
}

// MarshalJSON serializes a NullFloat64 to JSON, `null` when unset.
func (n NullFloat64) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return json.Marshal(n.Float64)
}

// MarshalJSON serializes a NullInt64 to JSON, `null` when unset.
func (n NullInt64) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return json.Marshal(n.Int64)
}

// MarshalJSON serializes a NullBool to JSON, `null` when unset.
func (n NullBool) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return json.Marshal(n.Bool)
}

// MarshalJSON serializes a NullTime to JSON, `null` when unset.
func (n NullTime) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return json.Marshal(n.Time)
}

// NullStringFrom wraps a string as a valid NullString.
func NullStringFrom(v string) NullString { return NullString{sql.NullString{String: v, Valid: true}} }

// NullIfString returns an invalid NullString when v == ifEmpty, else a valid one.
func NullIfString(v, ifEmpty string) NullString {
	if v == ifEmpty {
		return NullString{}
	}
	return NullStringFrom(v)
}

// NullFloat64From wraps a float64 as a valid NullFloat64.
func NullFloat64From(v float64) NullFloat64 {
	return NullFloat64{sql.NullFloat64{Float64: v, Valid: true}}
}

// NullInt64From wraps an int64 as a valid NullInt64.
func NullInt64From(v int64) NullInt64 { return NullInt64{sql.NullInt64{Int64: v, Valid: true}} }

// NullBoolFrom wraps a bool as a valid NullBool.
func NullBoolFrom(v bool) NullBool { return NullBool{sql.NullBool{Bool: v, Valid: true}} }
