package dialect

import (
	"fmt"
	"strconv"
	"strings"

	mssql "github.com/denisenkom/go-mssqldb"
	sqlerr "github.com/sqlkit/sequel/errors"
)

// mssqlDialect implements Dialect for Microsoft SQL Server.
type mssqlDialect struct {
	quoteIdent func(string) string
}

func newMSSQL(_ string) *mssqlDialect {
	return &mssqlDialect{quoteIdent: quoteWith('[', ']')}
}

func (d *mssqlDialect) Name() string       { return "mssql" }
func (d *mssqlDialect) DriverName() string { return "sqlserver" }

func (d *mssqlDialect) QuoteIdentifier(segment string) string { return d.quoteIdent(segment) }

func (d *mssqlDialect) PlaceholderStyle() PlaceholderStyle { return AtP }

func (d *mssqlDialect) Placeholder(pos int, _ string) string {
	return "@p" + strconv.Itoa(pos)
}

func (d *mssqlDialect) EscapeLiteral(v interface{}) string {
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

func (d *mssqlDialect) Features() Features {
	return Features{
		SupportsReturning:         true, // emitted as OUTPUT inserted.*
		SupportsCTE:               true,
		SupportsRecursiveCTE:      true,
		SupportsMaterializedCTE:   false,
		SupportsJSONPath:          true,
		SupportsOnConflict:        false, // no ON CONFLICT; caller uses MERGE directly
		SupportsUpdateFrom:        true,
		SupportsForUpdateOfTables: false,
		SupportsSkipLocked:        true, // WITH (READPAST)
		SupportsDistinctOn:        false,
		SupportsILIKE:             false, // default collations are already case-insensitive
		SupportsBoolean:           false, // BIT, 0/1
	}
}

func (d *mssqlDialect) ColumnDecl(spec ColumnSpec) (string, error) {
	switch spec.Kind {
	case Increments:
		return "int identity(1,1) primary key", nil
	case BigIncrements:
		return "bigint identity(1,1) primary key", nil
	case Integer:
		return "int", nil
	case TinyInt:
		return "tinyint", nil
	case SmallInt:
		return "smallint", nil
	case MediumInt:
		return "int", nil
	case BigInteger:
		return "bigint", nil
	case Text:
		return "nvarchar(max)", nil
	case VarString:
		if spec.Length > 0 {
			return fmt.Sprintf("nvarchar(%d)", spec.Length), nil
		}
		return "nvarchar(255)", nil
	case Float:
		return "real", nil
	case Double:
		return "float", nil
	case Decimal:
		return fmt.Sprintf("decimal(%d,%d)", spec.Precision, spec.Scale), nil
	case Boolean:
		return "bit", nil
	case Date:
		return "date", nil
	case DateTime, Timestamp:
		return "datetime2", nil
	case Time:
		return "time", nil
	case Geometry:
		return "geometry", nil
	case Geography:
		return "geography", nil
	case Point:
		return "geometry", nil
	case Binary:
		if spec.Length > 0 {
			return fmt.Sprintf("varbinary(%d)", spec.Length), nil
		}
		return "varbinary(max)", nil
	case Enum:
		return "nvarchar(255)", nil // emulated via CHECK constraint
	case JSON, JSONB:
		return "nvarchar(max)", nil // MSSQL has no native JSON column type
	case UUID:
		return "uniqueidentifier", nil
	default:
		return "", sqlerr.New(sqlerr.Config, "mssql: unknown logical column kind %d", spec.Kind)
	}
}

// RewriteLimitOffset emits MSSQL's OFFSET/FETCH form, which requires an
// ORDER BY and cannot take LIMIT without OFFSET.
func (d *mssqlDialect) RewriteLimitOffset(limit, offset *uint64) (string, bool) {
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

// mssqlConstraintNumbers maps a handful of common SQL Server error numbers
// to the canonical taxonomy.
var mssqlConstraintNumbers = map[int32]sqlerr.Kind{
	2627: sqlerr.Constraint, // unique/PK violation
	2601: sqlerr.Constraint, // duplicate key on unique index
	547:  sqlerr.Constraint, // FK/CHECK violation
	515:  sqlerr.Constraint, // NOT NULL violation
	102:  sqlerr.Syntax,     // incorrect syntax near
}

func (d *mssqlDialect) TranslateError(err error) *sqlerr.Error {
	if err == nil {
		return nil
	}
	if me, ok := err.(mssql.Error); ok {
		if kind, ok := mssqlConstraintNumbers[me.Number]; ok {
			return sqlerr.Wrap(kind, err, "%s", me.Message)
		}
	}
	return sqlerr.Wrap(sqlerr.Syntax, err, "%s", err.Error())
}
