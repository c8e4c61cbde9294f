package grader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/capitan"
)

// MaxFilterLimit caps the number of rows a filtered search returns.
const MaxFilterLimit = 100

// FilterQuery describes a range search. Years is required. Empty Makes or
// Models mean no restriction. Nil score bounds are open.
type FilterQuery struct {
	Years    YearRange
	Makes    []string
	Models   []string
	MinScore *float64
	MaxScore *float64
	Limit    int
}

// EffectiveLimit returns the limit actually applied: 0 means MaxFilterLimit,
// anything else is clamped to [1, MaxFilterLimit].
func (q FilterQuery) EffectiveLimit() int {
	switch {
	case q.Limit == 0:
		return MaxFilterLimit
	case q.Limit < 1:
		return 1
	case q.Limit > MaxFilterLimit:
		return MaxFilterLimit
	default:
		return q.Limit
	}
}

// Statement is a rendered query with its bound arguments.
type Statement struct {
	Query string
	Args  []any
}

// predicate is one WHERE condition. Its clause is assembled only from column
// constants and placeholders; every value travels in args.
type predicate struct {
	clause string
	args   []any
}

func between(col column, lo, hi any) predicate {
	return predicate{clause: string(col) + " BETWEEN ? AND ?", args: []any{lo, hi}}
}

func atLeast(col column, v any) predicate {
	return predicate{clause: string(col) + " >= ?", args: []any{v}}
}

func atMost(col column, v any) predicate {
	return predicate{clause: string(col) + " <= ?", args: []any{v}}
}

// in matches col against a non-empty list. The single placeholder is expanded
// to one slot per value by sqlx.In.
func in(col column, values []string) predicate {
	return predicate{clause: string(col) + " IN (?)", args: []any{values}}
}

// scoreBound returns the score predicate for the bounds present, if any.
func scoreBound(lo, hi *float64) (predicate, bool) {
	switch {
	case lo != nil && hi != nil:
		a, b := *lo, *hi
		if a > b {
			a, b = b, a
		}
		return between(colScore, a, b), true
	case lo != nil:
		return atLeast(colScore, *lo), true
	case hi != nil:
		return atMost(colScore, *hi), true
	default:
		return predicate{}, false
	}
}

// distinctValues drops blanks and duplicates, keeping first-seen order.
func distinctValues(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// predicates assembles the WHERE conditions for q.
func (q FilterQuery) predicates() []predicate {
	years := NewYearRange(q.Years.Min, q.Years.Max)
	preds := []predicate{between(colYear, years.Min, years.Max)}
	if makes := distinctValues(q.Makes); len(makes) > 0 {
		preds = append(preds, in(colMake, makes))
	}
	if models := distinctValues(q.Models); len(models) > 0 {
		preds = append(preds, in(colModel, models))
	}
	if p, ok := scoreBound(q.MinScore, q.MaxScore); ok {
		preds = append(preds, p)
	}
	return preds
}

// BuildFilter renders the filtered search for q against the catalog's table.
// The shape of the statement varies with q; its text never contains q's values.
func (c *Catalog) BuildFilter(q FilterQuery) (Statement, error) {
	if q.Years.Min == 0 && q.Years.Max == 0 {
		return Statement{}, &ValidationError{Field: "year range", Reason: "required"}
	}

	preds := q.predicates()
	clauses := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds)+1)
	for _, p := range preds {
		clauses = append(clauses, p.clause)
		args = append(args, p.args...)
	}
	args = append(args, q.EffectiveLimit())

	text := fmt.Sprintf(`SELECT %[1]s AS year, %[2]s AS make, %[3]s AS model, MAX(%[4]s) AS score
FROM %[5]s
WHERE %[6]s
GROUP BY %[1]s, %[2]s, %[3]s
ORDER BY (MAX(%[4]s) IS NULL), MAX(%[4]s) DESC, year DESC, make ASC, model ASC
LIMIT ?`, colYear, colMake, colModel, colScore, c.ident, strings.Join(clauses, " AND "))

	expanded, expandedArgs, err := sqlx.In(text, args...)
	if err != nil {
		return Statement{}, fmt.Errorf("grader: expand filter: %w", err)
	}
	return Statement{Query: c.db.Rebind(expanded), Args: expandedArgs}, nil
}

// Filter runs a filtered search and reports whether the cap truncated it.
func (c *Catalog) Filter(ctx context.Context, q FilterQuery) (*FilterResult, error) {
	start := time.Now()

	stmt, err := c.BuildFilter(q)
	if err != nil {
		return nil, err
	}

	limit := q.EffectiveLimit()
	rows := make([]FilterRow, 0, limit)
	if err := sqlx.SelectContext(ctx, c.db, &rows, stmt.Query, stmt.Args...); err != nil {
		storeErr := &StoreError{Op: "filter", Err: err}
		capitan.Emit(ctx, FilterFailed,
			FieldError.Field(storeErr),
			FieldLimit.Field(limit),
			FieldDuration.Field(time.Since(start)),
		)
		return nil, storeErr
	}
	for i := range rows {
		rows[i].Score = round1Ptr(rows[i].Score)
	}

	result := &FilterResult{
		Rows:   rows,
		Capped: len(rows) >= limit,
		Limit:  limit,
	}

	capitan.Emit(ctx, FilterCompleted,
		FieldCount.Field(len(rows)),
		FieldLimit.Field(limit),
		FieldCapped.Field(result.Capped),
		FieldDuration.Field(time.Since(start)),
	)
	return result, nil
}
