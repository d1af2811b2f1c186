package query

import "strings"

// parseRef splits a dotted or aliased column reference ("a.b.c as x", or
// "a.b.c x") into a Ref. The compiler is responsible for quoting each
// segment independently (spec.md §3 invariant 3) — parseRef only
// structures the text.
func parseRef(name string) *Ref {
	name, alias := splitAlias(name)
	parts := strings.Split(name, ".")
	r := &Ref{Alias: alias}
	switch len(parts) {
	case 1:
		r.Column = parts[0]
	case 2:
		r.Table, r.Column = parts[0], parts[1]
	default:
		r.Schema, r.Table, r.Column = parts[0], parts[1], strings.Join(parts[2:], ".")
	}
	return r
}

// splitAlias recognizes "expr as alias" and "expr alias" forms.
func splitAlias(s string) (expr, alias string) {
	lower := strings.ToLower(s)
	if i := strings.LastIndex(lower, " as "); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+4:])
	}
	fields := strings.Fields(s)
	if len(fields) == 2 {
		return fields[0], fields[1]
	}
	return s, ""
}
