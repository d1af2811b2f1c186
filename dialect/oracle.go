package dialect

import (
	"fmt"
	"strconv"
	"strings"

	sqlerr "github.com/sqlkit/sequel/errors"
)

// oracleDialect implements Dialect for Oracle. No first-party Go Oracle
// driver is part of this module's domain stack (see DESIGN.md); error
// normalization is therefore left as the generic adapter hook spec.md §9
// calls out rather than a code-table lookup like postgres.go/mysql.go have.
type oracleDialect struct {
	quoteIdent func(string) string
}

func newOracle(_ string) *oracleDialect {
	return &oracleDialect{quoteIdent: quoteWith('"', '"')}
}

func (d *oracleDialect) Name() string       { return "oracle" }
func (d *oracleDialect) DriverName() string { return "oracle" }

func (d *oracleDialect) QuoteIdentifier(segment string) string { return d.quoteIdent(segment) }

func (d *oracleDialect) PlaceholderStyle() PlaceholderStyle { return Colon }

func (d *oracleDialect) Placeholder(pos int, name string) string {
	if name != "" {
		return ":" + name
	}
	return ":" + strconv.Itoa(pos)
}

func (d *oracleDialect) EscapeLiteral(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if t {
			return "1"
		}
		return "0"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func (d *oracleDialect) Features() Features {
	return Features{
		SupportsReturning:         true, // RETURNING ... INTO
		SupportsCTE:               true,
		SupportsRecursiveCTE:      true,
		SupportsMaterializedCTE:   true,
		SupportsJSONPath:          true,
		SupportsOnConflict:        false, // caller uses MERGE directly
		SupportsUpdateFrom:        false,
		SupportsForUpdateOfTables: true,
		SupportsSkipLocked:        true,
		SupportsDistinctOn:        false,
		SupportsILIKE:             false,
		SupportsBoolean:           false, // NUMBER(1)
	}
}

func (d *oracleDialect) ColumnDecl(spec ColumnSpec) (string, error) {
	switch spec.Kind {
	case Increments, BigIncrements, Integer, TinyInt, SmallInt, MediumInt, BigInteger:
		return "number(19,0)", nil
	case Text, Enum, JSON, JSONB:
		return "clob", nil
	case VarString:
		if spec.Length > 0 {
			return fmt.Sprintf("varchar2(%d)", spec.Length), nil
		}
		return "varchar2(255)", nil
	case Float, Double:
		return "binary_double", nil
	case Decimal:
		return fmt.Sprintf("number(%d,%d)", spec.Precision, spec.Scale), nil
	case Boolean:
		return "number(1)", nil
	case Date, DateTime, Timestamp:
		return "timestamp", nil
	case Time:
		return "varchar2(8)", nil // Oracle has no time-only type
	case Geometry, Geography, Point:
		return "sdo_geometry", nil
	case Binary:
		return "blob", nil
	case UUID:
		return "varchar2(36)", nil
	default:
		return "", sqlerr.New(sqlerr.Config, "oracle: unknown logical column kind %d", spec.Kind)
	}
}

// RewriteLimitOffset emits Oracle 12c+'s OFFSET/FETCH form; callers on
// older Oracle must wrap manually with ROWNUM, which this module doesn't do.
func (d *oracleDialect) RewriteLimitOffset(limit, offset *uint64) (string, bool) {
	var b strings.Builder
	off := uint64(0)
	if offset != nil {
		off = *offset
	}
	fmt.Fprintf(&b, "OFFSET %d ROWS", off)
	if limit != nil {
		fmt.Fprintf(&b, " FETCH NEXT %d ROWS ONLY", *limit)
	}
	return b.String(), true
}

func (d *oracleDialect) TranslateError(err error) *sqlerr.Error {
	if err == nil {
		return nil
	}
	return sqlerr.Wrap(sqlerr.Syntax, err, "%s", err.Error())
}
