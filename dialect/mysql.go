package dialect

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	sqlerr "github.com/sqlkit/sequel/errors"
)

// mysqlDialect implements Dialect for MySQL and MySQL-compatible forks
// registered under "mysql2" (a distinct JS driver name upstream, same wire
// protocol here).
type mysqlDialect struct {
	name       string
	quoteIdent func(string) string
}

func newMySQL(name string) *mysqlDialect {
	return &mysqlDialect{name: name, quoteIdent: quoteWith('`', '`')}
}

func (d *mysqlDialect) Name() string       { return d.name }
func (d *mysqlDialect) DriverName() string { return "mysql" }

func (d *mysqlDialect) QuoteIdentifier(segment string) string { return d.quoteIdent(segment) }

func (d *mysqlDialect) PlaceholderStyle() PlaceholderStyle { return Question }

func (d *mysqlDialect) Placeholder(_ int, _ string) string { return "?" }

func (d *mysqlDialect) EscapeLiteral(v interface{}) string {
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

func (d *mysqlDialect) Features() Features {
	return Features{
		SupportsReturning:         false,
		SupportsCTE:               true,
		SupportsRecursiveCTE:      true,
		SupportsMaterializedCTE:   false,
		SupportsJSONPath:          true,
		SupportsOnConflict:        true, // emitted as ON DUPLICATE KEY UPDATE
		SupportsUpdateFrom:        false,
		SupportsForUpdateOfTables: false,
		SupportsSkipLocked:        true,
		SupportsDistinctOn:        false,
		SupportsILIKE:             false, // emulated: LOWER(col) LIKE LOWER(pattern)
		SupportsBoolean:           false, // booleans are emulated as TINYINT(1)
		InsertsUndefinedAsNull:    false,
	}
}

func (d *mysqlDialect) ColumnDecl(spec ColumnSpec) (string, error) {
	switch spec.Kind {
	case Increments:
		return "int unsigned auto_increment primary key", nil
	case BigIncrements:
		return "bigint unsigned auto_increment primary key", nil
	case Integer:
		return "int", nil
	case TinyInt:
		return "tinyint", nil
	case SmallInt:
		return "smallint", nil
	case MediumInt:
		return "mediumint", nil
	case BigInteger:
		return "bigint", nil
	case Text:
		return "text", nil
	case VarString:
		if spec.Length > 0 {
			return fmt.Sprintf("varchar(%d)", spec.Length), nil
		}
		return "varchar(255)", nil
	case Float:
		return "float", nil
	case Double:
		return "double", nil
	case Decimal:
		return fmt.Sprintf("decimal(%d,%d)", spec.Precision, spec.Scale), nil
	case Boolean:
		return "tinyint(1)", nil
	case Date:
		return "date", nil
	case DateTime:
		return "datetime", nil
	case Timestamp:
		return "timestamp", nil
	case Time:
		return "time", nil
	case Geometry:
		return "geometry", nil
	case Geography:
		return "geometry", nil
	case Point:
		return "point", nil
	case Binary:
		if spec.Length > 0 {
			return fmt.Sprintf("varbinary(%d)", spec.Length), nil
		}
		return "blob", nil
	case Enum:
		return "enum(" + quotedEnumList(spec.EnumValues) + ")", nil
	case JSON, JSONB:
		return "json", nil
	case UUID:
		return "char(36)", nil
	default:
		return "", sqlerr.New(sqlerr.Config, "mysql: unknown logical column kind %d", spec.Kind)
	}
}

func (d *mysqlDialect) RewriteLimitOffset(_, _ *uint64) (string, bool) {
	return "", false // MySQL also uses native LIMIT n OFFSET m
}

func quotedEnumList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return strings.Join(quoted, ",")
}

// mysqlConstraintNumbers maps driver-reported MySQL error numbers to the
// canonical taxonomy (see https://dev.mysql.com/doc/mysql-errors/8.0/en/).
var mysqlConstraintNumbers = map[uint16]sqlerr.Kind{
	1048: sqlerr.Constraint, // ER_BAD_NULL_ERROR
	1062: sqlerr.Constraint, // ER_DUP_ENTRY
	1451: sqlerr.Constraint, // ER_ROW_IS_REFERENCED_2
	1452: sqlerr.Constraint, // ER_NO_REFERENCED_ROW_2
	3819: sqlerr.Constraint, // ER_CHECK_CONSTRAINT_VIOLATED
	1064: sqlerr.Syntax,     // ER_PARSE_ERROR
	2013: sqlerr.Connection, // CR_SERVER_LOST
	1040: sqlerr.Connection, // ER_CON_COUNT_ERROR
}

func (d *mysqlDialect) TranslateError(err error) *sqlerr.Error {
	if err == nil {
		return nil
	}
	if myErr, ok := err.(*mysql.MySQLError); ok {
		if kind, ok := mysqlConstraintNumbers[myErr.Number]; ok {
			return sqlerr.Wrap(kind, err, "%s", myErr.Message)
		}
	}
	return sqlerr.Wrap(sqlerr.Syntax, err, "%s", err.Error())
}
