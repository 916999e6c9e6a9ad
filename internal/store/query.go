package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pagination bounds. Requests above maxPerPage are clamped, never rejected.
const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// conditions accumulates WHERE predicates with positional args. Empty or
// absent filter values never append a predicate, so unknown request
// parameters simply have no effect on the query.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) eq(col string, v string) {
	if v == "" {
		return
	}
	c.clauses = append(c.clauses, fmt.Sprintf("%s = $%d", col, len(c.args)+1))
	c.args = append(c.args, v)
}

func (c *conditions) eqUUID(col string, id *uuid.UUID) {
	if id == nil {
		return
	}
	c.clauses = append(c.clauses, fmt.Sprintf("%s = $%d", col, len(c.args)+1))
	c.args = append(c.args, *id)
}

// in matches any of the comma-separated values. A single value degrades to
// equality; surrounding whitespace and empty segments are dropped.
func (c *conditions) in(col string, csv string) {
	var vals []string
	for _, v := range strings.Split(csv, ",") {
		if v = strings.TrimSpace(v); v != "" {
			vals = append(vals, v)
		}
	}
	switch len(vals) {
	case 0:
		return
	case 1:
		c.eq(col, vals[0])
	default:
		c.clauses = append(c.clauses, fmt.Sprintf("%s = ANY($%d)", col, len(c.args)+1))
		c.args = append(c.args, vals)
	}
}

// search appends a case-insensitive OR substring match across cols.
func (c *conditions) search(term string, cols ...string) {
	if term == "" {
		return
	}
	arg := len(c.args) + 1
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, arg)
	}
	c.clauses = append(c.clauses, "("+strings.Join(parts, " OR ")+")")
	c.args = append(c.args, "%"+escapeLike(term)+"%")
}

// gte/lte form inclusive range bounds; zero times are ignored.
func (c *conditions) gte(col string, t time.Time) {
	if t.IsZero() {
		return
	}
	c.clauses = append(c.clauses, fmt.Sprintf("%s >= $%d", col, len(c.args)+1))
	c.args = append(c.args, t)
}

func (c *conditions) lte(col string, t time.Time) {
	if t.IsZero() {
		return
	}
	c.clauses = append(c.clauses, fmt.Sprintf("%s <= $%d", col, len(c.args)+1))
	c.args = append(c.args, t)
}

func (c *conditions) raw(clause string) {
	c.clauses = append(c.clauses, clause)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return "TRUE"
	}
	return strings.Join(c.clauses, " AND ")
}

// nextArg returns the positional index the next appended arg would take.
func (c *conditions) nextArg() int {
	return len(c.args) + 1
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

// orderBy validates the requested sort field against the entity's allow-list
// and falls back to created_at DESC for anything unrecognized. The id column
// is always appended as a tiebreaker so pagination order is stable.
func orderBy(allowed map[string]bool, sortBy, dir string) string {
	if !allowed[sortBy] {
		sortBy = "created_at"
		dir = "desc"
	}
	if dir != "asc" && dir != "desc" {
		dir = "desc"
	}
	return fmt.Sprintf("ORDER BY %s %s, id", sortBy, strings.ToUpper(dir))
}

// ClampPage normalizes raw pagination inputs to the effective page and
// page size, for echoing back in response metadata.
func ClampPage(page, perPage int) (int, int) {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	if page <= 0 {
		page = 1
	}
	return page, perPage
}

// clampPage normalizes pagination inputs and returns limit and offset.
func clampPage(p ListParams) (limit, offset int) {
	page, perPage := ClampPage(p.Page, p.PerPage)
	return perPage, (page - 1) * perPage
}
