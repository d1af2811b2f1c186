package dialect

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var folder = cases.Fold()

// FoldCase case-folds s the Unicode-correct way (not just strings.ToLower),
// which matters for identifiers and literal patterns containing non-ASCII
// text. Dialects without a native ILIKE (MySQL, SQLite) use it when
// emulating case-insensitive LIKE against a compile-time literal pattern;
// bound parameters are folded server-side by the emitted LOWER(...) call
// instead, since the compiler never sees their runtime value.
func FoldCase(s string) string {
	return folder.String(s)
}

// SupportsLocale reports whether tag parses as a well-formed BCP 47 tag;
// exposed mainly so callers can validate a configured collation tag before
// wiring it into a dialect-specific COLLATE clause.
func SupportsLocale(tag string) bool {
	_, err := language.Parse(tag)
	return err == nil
}
