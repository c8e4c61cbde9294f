package grader

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/capitan"
)

// Catalog answers read-only questions about vehicle records: single-vehicle
// grades, filtered searches and the year/make/model selectors.
//
// The db parameter accepts sqlx.ExtContext, which is satisfied by both *sqlx.DB
// and *sqlx.Tx. Each call issues its own statements; no transaction is held
// between calls.
type Catalog struct {
	db    sqlx.ExtContext
	table string
	ident string
}

// NewCatalog creates a Catalog over db.
// Returns a *ValidationError if the configured table name is not a plain identifier.
func NewCatalog(db sqlx.ExtContext, opts ...CatalogOption) (*Catalog, error) {
	c := &Catalog{
		db:    db,
		table: DefaultTable,
	}
	for _, opt := range opts {
		opt(c)
	}
	ident, err := quoteIdent(c.table)
	if err != nil {
		return nil, err
	}
	c.ident = ident
	return c, nil
}

// Table returns the table name this catalog reads.
func (c *Catalog) Table() string {
	return c.table
}

// ResolveGroup returns the canonical GroupID for a vehicle.
// Returns ErrNotFound if no row matches the tuple.
func (c *Catalog) ResolveGroup(ctx context.Context, v Vehicle) (string, error) {
	row, err := c.resolve(ctx, v)
	if err != nil {
		return "", err
	}
	return groupKey(row.GroupID), nil
}

// Score returns the rounded grade and certainty for a vehicle.
// Returns ErrNotFound if no row matches the tuple.
func (c *Catalog) Score(ctx context.Context, v Vehicle) (*ScoreResult, error) {
	row, err := c.resolve(ctx, v)
	if err != nil {
		return nil, err
	}
	return scoreResult(row), nil
}

// Details returns the grade plus complaint statistics for a vehicle.
// ComplaintCount sums every row sharing the resolved GroupID.
func (c *Catalog) Details(ctx context.Context, v Vehicle) (*DetailResult, error) {
	row, err := c.resolve(ctx, v)
	if err != nil {
		return nil, err
	}

	q := c.db.Rebind(fmt.Sprintf(`SELECT COALESCE(SUM(%s), 0) FROM %s WHERE %s = ?`, colCount, c.ident, colGroupID))
	var total int64
	if err := sqlx.GetContext(ctx, c.db, &total, q, row.GroupID); err != nil {
		return nil, &StoreError{Op: "sum complaints", Key: groupKey(row.GroupID), Err: err}
	}

	rel := nullFloat(row.RelRatio)
	y, dir := Magnitude(rel)
	return &DetailResult{
		Vehicle:        v,
		ScoreResult:    *scoreResult(row),
		ComplaintCount: total,
		RelRatio:       rel,
		YValue:         y,
		Direction:      dir,
	}, nil
}

// Years returns the distinct model years present, ascending.
func (c *Catalog) Years(ctx context.Context) ([]int, error) {
	q := fmt.Sprintf(`SELECT DISTINCT %s AS y FROM %s WHERE %s IS NOT NULL AND TRIM(%s) <> '' ORDER BY y`,
		colYear, c.ident, colRawYear, colRawYear)
	years := []int{}
	if err := sqlx.SelectContext(ctx, c.db, &years, q); err != nil {
		return nil, &StoreError{Op: "list years", Err: err}
	}
	return years, nil
}

// Makes returns the distinct makes for a model year, ascending.
func (c *Catalog) Makes(ctx context.Context, year int) ([]string, error) {
	q := c.db.Rebind(fmt.Sprintf(`SELECT DISTINCT %s FROM %s WHERE %s = ? AND %s IS NOT NULL ORDER BY %s`,
		colMake, c.ident, colYear, colMake, colMake))
	makes := []string{}
	if err := sqlx.SelectContext(ctx, c.db, &makes, q, year); err != nil {
		return nil, &StoreError{Op: "list makes", Err: err}
	}
	return makes, nil
}

// Models returns the distinct models for a model year and make, ascending.
func (c *Catalog) Models(ctx context.Context, year int, mk string) ([]string, error) {
	mk, err := RequireText("make", mk)
	if err != nil {
		return nil, err
	}
	q := c.db.Rebind(fmt.Sprintf(`SELECT DISTINCT %s FROM %s WHERE %s = ? AND %s = ? AND %s IS NOT NULL ORDER BY %s`,
		colModel, c.ident, colYear, colMake, colModel, colModel))
	models := []string{}
	if err := sqlx.SelectContext(ctx, c.db, &models, q, year, mk); err != nil {
		return nil, &StoreError{Op: "list models", Err: err}
	}
	return models, nil
}

// Health reports whether the vehicle table exists and how much of it is graded.
// A missing table is reported with OK false rather than as an error.
func (c *Catalog) Health(ctx context.Context) (*Health, error) {
	h := &Health{Table: c.table}

	var n int64
	q := c.db.Rebind(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`)
	if err := sqlx.GetContext(ctx, c.db, &n, q, c.table); err != nil {
		return nil, &StoreError{Op: "health", Err: err}
	}
	if n == 0 {
		return h, nil
	}
	h.TableExists = true

	q = fmt.Sprintf(`SELECT COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN %s IS NOT NULL AND %s IS NOT NULL THEN 1 ELSE 0 END), 0) AS scored,
		COUNT(DISTINCT %s) AS years
		FROM %s`, colScore, colCertainty, colYear, c.ident)
	var counts struct {
		Total  int64 `db:"total"`
		Scored int64 `db:"scored"`
		Years  int64 `db:"years"`
	}
	if err := sqlx.GetContext(ctx, c.db, &counts, q); err != nil {
		return nil, &StoreError{Op: "health", Err: err}
	}
	h.Rows = counts.Total
	h.RowsScored = counts.Scored
	h.Years = counts.Years
	h.OK = true
	return h, nil
}

// resolve loads every candidate row for the tuple and picks the canonical one.
func (c *Catalog) resolve(ctx context.Context, v Vehicle) (*groupRow, error) {
	start := time.Now()

	q := c.db.Rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND %s = ? AND %s = ? AND %s IS NOT NULL`,
		selectList[groupRow](), c.ident, colYear, colMake, colModel, colGroupID))

	var rows []groupRow
	if err := sqlx.SelectContext(ctx, c.db, &rows, q, v.Year, v.Make, v.Model); err != nil {
		storeErr := &StoreError{Op: "resolve", Key: v.String(), Err: err}
		capitan.Emit(ctx, ResolveFailed,
			FieldKey.Field(v.String()),
			FieldError.Field(storeErr),
			FieldDuration.Field(time.Since(start)),
		)
		return nil, storeErr
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, v)
	}

	best := slices.MinFunc(rows, compareGroupRows)

	capitan.Emit(ctx, ResolveCompleted,
		FieldKey.Field(v.String()),
		FieldGroupID.Field(groupKey(best.GroupID)),
		FieldCount.Field(len(rows)),
		FieldDuration.Field(time.Since(start)),
	)
	return &best, nil
}

func scoreResult(row *groupRow) *ScoreResult {
	return &ScoreResult{
		Score:     round1Ptr(nullFloat(row.Score)),
		Certainty: round1Ptr(nullFloat(row.Certainty)),
		GroupID:   groupKey(row.GroupID),
	}
}
