package dialect

import (
	"fmt"
	"strings"

	sqlerr "github.com/sqlkit/sequel/errors"
	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// sqliteDialect implements Dialect for SQLite via the pure-Go modernc.org
// driver, registered under its three caller-facing names from spec.md §4.2
// ("sqlite", "better-sqlite", "node-sqlite" — distinct JS client libraries
// upstream, identical SQL surface here).
type sqliteDialect struct {
	name       string
	quoteIdent func(string) string
}

func newSQLite(name string) *sqliteDialect {
	return &sqliteDialect{name: name, quoteIdent: quoteWith('"', '"')}
}

func (d *sqliteDialect) Name() string       { return d.name }
func (d *sqliteDialect) DriverName() string { return "sqlite" }

func (d *sqliteDialect) QuoteIdentifier(segment string) string { return d.quoteIdent(segment) }

func (d *sqliteDialect) PlaceholderStyle() PlaceholderStyle { return Question }

func (d *sqliteDialect) Placeholder(_ int, _ string) string { return "?" }

func (d *sqliteDialect) EscapeLiteral(v interface{}) string {
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

func (d *sqliteDialect) Features() Features {
	return Features{
		SupportsReturning:         true, // RETURNING landed in SQLite 3.35
		SupportsCTE:               true,
		SupportsRecursiveCTE:      true,
		SupportsMaterializedCTE:   false,
		SupportsJSONPath:          true,
		SupportsOnConflict:        true,
		SupportsUpdateFrom:        false,
		SupportsForUpdateOfTables: false,
		SupportsSkipLocked:        false, // no row-level locking
		SupportsDistinctOn:        false,
		SupportsILIKE:             false, // emulated: LOWER(col) LIKE LOWER(pattern)
		SupportsBoolean:           false, // stored as INTEGER 0/1
		InsertsUndefinedAsNull:    true,  // spec.md §6 useNullAsDefault
	}
}

func (d *sqliteDialect) ColumnDecl(spec ColumnSpec) (string, error) {
	switch spec.Kind {
	case Increments, BigIncrements:
		return "integer primary key autoincrement", nil
	case Integer, TinyInt, SmallInt, MediumInt, BigInteger:
		return "integer", nil
	case Text, VarString, Enum, Geometry, Geography, Point, UUID:
		return "text", nil
	case Float, Double, Decimal:
		return "real", nil
	case Boolean:
		return "integer", nil
	case Date, DateTime, Timestamp, Time:
		return "text", nil // ISO-8601 text, SQLite has no native temporal type
	case Binary:
		return "blob", nil
	case JSON, JSONB:
		return "text", nil
	default:
		return "", sqlerr.New(sqlerr.Config, "sqlite: unknown logical column kind %d", spec.Kind)
	}
}

func (d *sqliteDialect) RewriteLimitOffset(_, _ *uint64) (string, bool) {
	return "", false
}

func (d *sqliteDialect) TranslateError(err error) *sqlerr.Error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*sqlite3.Error); ok {
		switch se.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT,
			sqlite3lib.SQLITE_CONSTRAINT_UNIQUE,
			sqlite3lib.SQLITE_CONSTRAINT_NOTNULL,
			sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY,
			sqlite3lib.SQLITE_CONSTRAINT_CHECK,
			sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return sqlerr.Wrap(sqlerr.Constraint, err, "%s", err.Error())
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return sqlerr.Wrap(sqlerr.Connection, err, "%s", err.Error())
		}
	}
	return sqlerr.Wrap(sqlerr.Syntax, err, "%s", err.Error())
}
