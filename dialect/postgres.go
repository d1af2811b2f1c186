package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	sqlerr "github.com/sqlkit/sequel/errors"
)

// postgres implements Dialect for PostgreSQL and its wire-compatible forks
// (Redshift, CockroachDB), matching the teacher's own dialect (mgutz/dat
// only ever targeted Postgres; types.go wraps pq.NullTime directly).
type postgres struct {
	name        string
	isRedshift  bool
	isCockroach bool
	quoteIdent  func(string) string
}

func newPostgres(name string) *postgres {
	return &postgres{
		name:        name,
		isRedshift:  name == "redshift",
		isCockroach: name == "cockroachdb",
		quoteIdent:  quoteWith('"', '"'),
	}
}

func (p *postgres) Name() string       { return p.name }
func (p *postgres) DriverName() string { return "postgres" }

func (p *postgres) QuoteIdentifier(segment string) string { return p.quoteIdent(segment) }

func (p *postgres) PlaceholderStyle() PlaceholderStyle { return Dollar }

func (p *postgres) Placeholder(pos int, _ string) string {
	return "$" + strconv.Itoa(pos)
}

func (p *postgres) EscapeLiteral(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func (p *postgres) Features() Features {
	f := Features{
		SupportsReturning:         true,
		SupportsCTE:               true,
		SupportsRecursiveCTE:      true,
		SupportsMaterializedCTE:   true,
		SupportsJSONPath:          true,
		SupportsOnConflict:        true,
		SupportsUpdateFrom:        true,
		SupportsForUpdateOfTables: true,
		SupportsSkipLocked:        true,
		SupportsDistinctOn:        true,
		SupportsILIKE:             true,
		SupportsBoolean:           true,
	}
	if p.isRedshift {
		// Redshift never got MATERIALIZED/NOT MATERIALIZED CTE hints, nor
		// SKIP LOCKED (no row-level lock cursors on a columnar store).
		f.SupportsMaterializedCTE = false
		f.SupportsSkipLocked = false
	}
	return f
}

func (p *postgres) ColumnDecl(spec ColumnSpec) (string, error) {
	switch spec.Kind {
	case Increments:
		return "serial primary key", nil
	case BigIncrements:
		return "bigserial primary key", nil
	case Integer:
		return "integer", nil
	case TinyInt:
		return "smallint", nil
	case SmallInt:
		return "smallint", nil
	case MediumInt:
		return "integer", nil
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
		return "real", nil
	case Double:
		return "double precision", nil
	case Decimal:
		return fmt.Sprintf("decimal(%d,%d)", spec.Precision, spec.Scale), nil
	case Boolean:
		return "boolean", nil
	case Date:
		return "date", nil
	case DateTime, Timestamp:
		return "timestamptz", nil
	case Time:
		return "time", nil
	case Geometry:
		return "geometry", nil
	case Geography:
		return "geography", nil
	case Point:
		return "point", nil
	case Binary:
		return "bytea", nil
	case Enum:
		return "text", nil // emulated via CHECK constraint, not a native type
	case JSON:
		return "json", nil
	case JSONB:
		return "jsonb", nil
	case UUID:
		return "uuid", nil
	default:
		return "", sqlerr.New(sqlerr.Config, "postgres: unknown logical column kind %d", spec.Kind)
	}
}

func (p *postgres) RewriteLimitOffset(_, _ *uint64) (string, bool) {
	return "", false // native LIMIT/OFFSET, no rewrite needed
}

// pqConstraintClasses maps the leading two digits of a Postgres SQLSTATE to
// the taxonomy kind, per https://www.postgresql.org/docs/current/errcodes-appendix.html.
var pqConstraintClasses = map[string]sqlerr.Kind{
	"23": sqlerr.Constraint, // integrity_constraint_violation
	"42": sqlerr.Syntax,     // syntax_error_or_access_rule_violation
	"08": sqlerr.Connection, // connection_exception
	"57": sqlerr.Connection, // operator_intervention (admin shutdown, etc.)
}

func (p *postgres) TranslateError(err error) *sqlerr.Error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		code := string(pqErr.Code)
		if kind, ok := pqConstraintClasses[code[:2]]; ok {
			return sqlerr.Wrap(kind, err, "%s (%s)", pqErr.Message, pqErr.Code)
		}
	}
	return sqlerr.Wrap(sqlerr.Syntax, err, "%s", err.Error())
}
