package compile

import (
	"strings"

	"github.com/sqlkit/sequel/dialect"
	sqlerr "github.com/sqlkit/sequel/errors"
	"github.com/sqlkit/sequel/query"
)

// renderPredicateList renders a WHERE/HAVING/ON clause body: predicates are
// joined by each entry's own conjunction (the first entry's conjunction is
// never emitted), matching spec.md §4.3 point 3 — an AND sequence at the
// outermost level needs no wrapping; only an explicit nested group (built
// via a callback) is parenthesized.
func (c *compiler) renderPredicateList(preds []query.Predicate, defaultSchema string) (string, error) {
	parts := make([]string, 0, len(preds))
	for i, p := range preds {
		rendered, err := c.renderPredicate(p, defaultSchema)
		if err != nil {
			return "", err
		}
		if i == 0 {
			parts = append(parts, rendered)
			continue
		}
		joiner := "and"
		if p.Conj == query.Or {
			joiner = "or"
		}
		parts = append(parts, joiner+" "+rendered)
	}
	return strings.Join(parts, " "), nil
}

func (c *compiler) renderPredicate(p query.Predicate, defaultSchema string) (string, error) {
	switch p.Kind {
	case query.PredBinary:
		return c.renderBinary(p, defaultSchema)
	case query.PredInList:
		return c.renderInList(p, defaultSchema)
	case query.PredBetween:
		return c.renderBetween(p, defaultSchema)
	case query.PredNullTest:
		op := "is null"
		if p.Negate {
			op = "is not null"
		}
		return c.quoteColumn(p.Column, defaultSchema) + " " + op, nil
	case query.PredExists:
		return c.renderExists(p)
	case query.PredRaw:
		rendered := c.renderRaw(p.Raw)
		if p.Negate {
			rendered = "not (" + rendered + ")"
		}
		return rendered, nil
	case query.PredGroup:
		inner, err := c.renderPredicateList(p.Children, defaultSchema)
		if err != nil {
			return "", err
		}
		if p.Negate {
			return "not (" + inner + ")", nil
		}
		return "(" + inner + ")", nil
	case query.PredJSONPath:
		if !c.d.Features().SupportsJSONPath {
			return "", sqlerr.New(sqlerr.Unsupported, "%s does not support JSON path predicates", c.d.Name())
		}
		return c.renderJSONPath(p, defaultSchema)
	default:
		return "", fail("unknown predicate kind %d", p.Kind)
	}
}

func (c *compiler) renderBinary(p query.Predicate, defaultSchema string) (string, error) {
	op := p.Op
	if op == "" {
		op = "="
	}
	if op == "ilike" && !c.d.Features().SupportsILIKE {
		return c.renderILikeEmulated(p, defaultSchema)
	}
	lhs := c.quoteColumn(p.Column, defaultSchema)
	rhs, err := c.renderOperand(p.Value)
	if err != nil {
		return "", err
	}
	rendered := lhs + " " + op + " " + rhs
	if p.Negate {
		rendered = "not (" + rendered + ")"
	}
	return rendered, nil
}

// renderILikeEmulated rewrites `col ilike pattern` to
// `lower(col) like lower(pattern)` for dialects lacking native ILIKE
// (spec.md §4.2 "Rewrite hooks").
func (c *compiler) renderILikeEmulated(p query.Predicate, defaultSchema string) (string, error) {
	lhs := "lower(" + c.quoteColumn(p.Column, defaultSchema) + ")"
	var rhs string
	if lit, ok := p.Value.(string); ok {
		rhs = "lower(" + c.bind(dialect.FoldCase(lit)) + ")"
	} else {
		operand, err := c.renderOperand(p.Value)
		if err != nil {
			return "", err
		}
		rhs = "lower(" + operand + ")"
	}
	rendered := lhs + " like " + rhs
	if p.Negate {
		rendered = "not (" + rendered + ")"
	}
	return rendered, nil
}

// renderOperand renders a Predicate.Value: a column reference marker
// (unquoted-as-identifier), an excluded-column marker (upsert), a raw
// fragment, or an ordinary bound literal.
func (c *compiler) renderOperand(v interface{}) (string, error) {
	if col, ok := query.AsColumnRef(v); ok {
		return c.quoteColumn(col, ""), nil
	}
	if col, ok := query.AsExcludedColumn(v); ok {
		return c.excludedColumnRef(col), nil
	}
	if raw, ok := v.(query.RawFragment); ok {
		return c.renderRaw(&raw), nil
	}
	return c.bind(v), nil
}

// excludedColumnRef renders the dialect-specific "value from the proposed
// insert row" reference used in ON CONFLICT DO UPDATE SET.
func (c *compiler) excludedColumnRef(column string) string {
	quoted := c.d.QuoteIdentifier(column)
	switch c.d.Name() {
	case "mysql", "mysql2":
		return "values(" + quoted + ")"
	default:
		return "excluded." + quoted
	}
}

func (c *compiler) renderInList(p query.Predicate, defaultSchema string) (string, error) {
	lhs := c.quoteColumn(p.Column, defaultSchema)
	keyword := "in"
	if p.Negate {
		keyword = "not in"
	}
	if p.Sub != nil {
		sub, err := c.subcompile(p.Sub)
		if err != nil {
			return "", err
		}
		return lhs + " " + keyword + " (" + sub + ")", nil
	}
	if len(p.Values) == 0 {
		// An empty IN-list is never satisfiable; NOT IN over nothing is
		// always true. Keep the clause valid SQL instead of emitting `()`.
		if p.Negate {
			return "1 = 1", nil
		}
		return "1 = 0", nil
	}
	placeholders := make([]string, len(p.Values))
	for i, v := range p.Values {
		rendered, err := c.renderOperand(v)
		if err != nil {
			return "", err
		}
		placeholders[i] = rendered
	}
	return lhs + " " + keyword + " (" + strings.Join(placeholders, ", ") + ")", nil
}

func (c *compiler) renderBetween(p query.Predicate, defaultSchema string) (string, error) {
	lhs := c.quoteColumn(p.Column, defaultSchema)
	keyword := "between"
	if p.Negate {
		keyword = "not between"
	}
	low, err := c.renderOperand(p.Low)
	if err != nil {
		return "", err
	}
	high, err := c.renderOperand(p.High)
	if err != nil {
		return "", err
	}
	return lhs + " " + keyword + " " + low + " and " + high, nil
}

func (c *compiler) renderExists(p query.Predicate) (string, error) {
	sub, err := c.subcompile(p.Sub)
	if err != nil {
		return "", err
	}
	keyword := "exists"
	if p.Negate {
		keyword = "not exists"
	}
	return keyword + " (" + sub + ")", nil
}

// renderJSONPath renders the Postgres-flavored JSON predicates spec.md
// §4.1 lists (whereJsonPath/whereJsonObject/whereJsonSupersetOf/Subset).
// Dialects without JSON path support reject it as an UnsupportedError at
// the Compile call site (checked by the caller before dispatching here).
func (c *compiler) renderJSONPath(p query.Predicate, defaultSchema string) (string, error) {
	lhs := c.quoteColumn(p.Column, defaultSchema)
	switch p.JSONOp {
	case "#>>":
		path := make([]string, len(p.JSONPath))
		copy(path, p.JSONPath)
		literal := "'{" + strings.Join(path, ",") + "}'"
		rhs, err := c.renderOperand(p.Value)
		if err != nil {
			return "", err
		}
		return lhs + " #>> " + literal + " = " + rhs, nil
	case "@>", "<@":
		rhs, err := c.renderOperand(p.Value)
		if err != nil {
			return "", err
		}
		return lhs + " " + p.JSONOp + " " + rhs + "::jsonb", nil
	default: // "="
		rhs, err := c.renderOperand(p.Value)
		if err != nil {
			return "", err
		}
		return lhs + " = " + rhs + "::jsonb", nil
	}
}
