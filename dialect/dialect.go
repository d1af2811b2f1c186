// Package dialect captures every backend-specific behavior the compiler and
// runner need: identifier quoting, placeholder style, feature gating, type
// mapping, and driver error normalization. A Dialect is a pure value — no
// connection, no I/O — so it can be shared freely across concurrent chains.
package dialect

import (
	"fmt"
	"strings"
	"sync"

	sqlerr "github.com/sqlkit/sequel/errors"
)

// PlaceholderStyle identifies how a dialect renders bound-parameter markers.
type PlaceholderStyle int

const (
	// Question renders `?` for every placeholder (MySQL, SQLite).
	Question PlaceholderStyle = iota
	// Dollar renders `$1`, `$2`, ... (PostgreSQL, Redshift, CockroachDB).
	Dollar
	// AtP renders `@p1`, `@p2`, ... (MSSQL).
	AtP
	// Colon renders `:1`, `:2`, ... (Oracle).
	Colon
)

// Features gates which clauses the compiler may emit for a dialect.
type Features struct {
	SupportsReturning         bool
	SupportsCTE               bool
	SupportsRecursiveCTE      bool
	SupportsMaterializedCTE   bool
	SupportsJSONPath          bool
	SupportsOnConflict        bool
	SupportsUpdateFrom        bool
	SupportsForUpdateOfTables bool
	SupportsSkipLocked        bool
	SupportsDistinctOn        bool
	SupportsILIKE             bool
	SupportsBoolean           bool
	InsertsUndefinedAsNull    bool
}

// LogicalKind is the closed set of column types spec.md §4.2 names.
type LogicalKind int

const (
	Increments LogicalKind = iota
	BigIncrements
	Integer
	TinyInt
	SmallInt
	MediumInt
	BigInteger
	Text
	VarString
	Float
	Double
	Decimal
	Boolean
	Date
	DateTime
	Time
	Timestamp
	Geometry
	Geography
	Point
	Binary
	Enum
	JSON
	JSONB
	UUID
)

// ColumnSpec describes a logical column declaration independent of dialect.
type ColumnSpec struct {
	Kind       LogicalKind
	Length     int      // string(n), binary(n)
	Precision  int      // decimal(p,s)
	Scale      int      // decimal(p,s)
	EnumValues []string // enum
}

// Dialect is the strategy object spec.md §4.2 describes. Implementations
// must be stateless and safe for concurrent use.
type Dialect interface {
	// Name is the registry key this dialect was resolved under.
	Name() string
	// DriverName is the database/sql driver name used by driver.Open.
	DriverName() string
	// QuoteIdentifier quotes a single already-split identifier segment.
	QuoteIdentifier(segment string) string
	// PlaceholderStyle reports how bound parameters are rendered.
	PlaceholderStyle() PlaceholderStyle
	// Placeholder renders the Nth (1-indexed) placeholder in this dialect's
	// style, optionally carrying a name for :name-style dialects.
	Placeholder(pos int, name string) string
	// EscapeLiteral renders v as a SQL literal for debug/format purposes
	// only — never used for actual parameter binding.
	EscapeLiteral(v interface{}) string
	// Features reports which clauses/behaviors this dialect supports.
	Features() Features
	// ColumnDecl renders a logical column spec to dialect DDL text.
	ColumnDecl(spec ColumnSpec) (string, error)
	// RewriteLimitOffset lets dialects that can't bind LIMIT/OFFSET as
	// placeholders (or that use FETCH/TOP) override rendering. ok=false
	// means "use the default LIMIT n OFFSET m form".
	RewriteLimitOffset(limit, offset *uint64) (sql string, ok bool)
	// TranslateError maps a raw driver error to the canonical taxonomy.
	TranslateError(err error) *sqlerr.Error
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Dialect{}
)

// Register adds a dialect (or a named alias of one) to the process-global
// registry. Intended to be called from package init() only; no runtime
// mutation is expected once a Client has resolved a name (spec.md §9).
func Register(name string, d Dialect) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = d
}

// Get resolves a registered dialect name, failing fast with a ConfigError
// for anything unknown (spec.md §4.2 "Dialect registry").
func Get(name string) (Dialect, error) {
	registryMu.RLock()
	d, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, sqlerr.New(sqlerr.Config, "unknown dialect %q", name)
	}
	return d, nil
}

// QuoteQualified splits a dotted reference (schema.table.column) and quotes
// each segment independently, satisfying spec.md §3 invariant 3.
func QuoteQualified(d Dialect, ref string) string {
	parts := strings.Split(ref, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = d.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func init() {
	pg := newPostgres("pg")
	Register("pg", pg)
	Register("redshift", newPostgres("redshift"))
	Register("cockroachdb", newPostgres("cockroachdb"))

	my := newMySQL("mysql")
	Register("mysql", my)
	Register("mysql2", newMySQL("mysql2"))

	lite := newSQLite("sqlite")
	Register("sqlite", lite)
	Register("better-sqlite", newSQLite("better-sqlite"))
	Register("node-sqlite", newSQLite("node-sqlite"))

	Register("mssql", newMSSQL("mssql"))
	Register("oracle", newOracle("oracle"))
}

func unsupported(name, feature string) *sqlerr.Error {
	return sqlerr.New(sqlerr.Unsupported, "%s does not support %s", name, feature)
}

func quoteWith(open, close byte) func(string) string {
	return func(segment string) string {
		escaped := strings.ReplaceAll(segment, string(close), string(close)+string(close))
		return fmt.Sprintf("%c%s%c", open, escaped, close)
	}
}
