package filter

import (
	"strings"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// sortColumns maps the accepted sort keys to cache columns. Anything else
// falls back to the default ordering.
var sortColumns = map[string]string{
	"posting_date":   "posting_date",
	"apply_until":    "apply_until",
	"title":          "title",
	"agency":         "agency_short",
	"confidence":     "classification_confidence",
	"days_remaining": "days_remaining",
}

// Query selects a page of cached postings. Every non-empty predicate maps to
// one indexed column, except Search which matches title or description.
type Query struct {
	Category string
	Agency   string
	Status   string
	Country  string
	Grade    string
	Search   string
	Sort     string // one of the keys in sortColumns
	Desc     bool
	Page     int // 1-based
	Limit    int
}

// Clause is the SQL rendering of a Query.
type Clause struct {
	Where   string // empty or "WHERE ..."
	Args    []any
	OrderBy string
	Limit   int
	Offset  int
}

// Build renders q into SQL fragments with positional arguments. Values are
// never interpolated into the SQL text.
func Build(q Query) Clause {
	var conds []string
	var args []any

	add := func(column, value string) {
		if v := strings.TrimSpace(value); v != "" {
			conds = append(conds, column+" = ?")
			args = append(args, v)
		}
	}
	add("primary_category", q.Category)
	add("agency_short", q.Agency)
	add("status", q.Status)
	add("duty_country", q.Country)
	add("grade", q.Grade)

	if s := strings.TrimSpace(q.Search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		conds = append(conds, `(lower(title) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	c := Clause{Args: args}
	if len(conds) > 0 {
		c.Where = "WHERE " + strings.Join(conds, " AND ")
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	if col, ok := sortColumns[q.Sort]; ok {
		c.OrderBy = "ORDER BY " + col + " " + dir + ", id ASC"
	} else {
		c.OrderBy = "ORDER BY posting_date DESC, id ASC"
	}

	c.Limit = q.Limit
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.Limit > MaxLimit {
		c.Limit = MaxLimit
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	c.Offset = (page - 1) * c.Limit

	return c
}

// SortKeys returns the accepted sort keys.
func SortKeys() []string {
	return []string{"posting_date", "apply_until", "title", "agency", "confidence", "days_remaining"}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
