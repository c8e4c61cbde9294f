package grader

import (
	"cmp"
	"database/sql"
)

// compareNullDesc orders nullable scores with present values first, highest
// first; absent values sort last. It returns a negative number when a sorts
// before b.
func compareNullDesc(a, b sql.NullFloat64) int {
	switch {
	case a.Valid && !b.Valid:
		return -1
	case !a.Valid && b.Valid:
		return 1
	case !a.Valid && !b.Valid:
		return 0
	}
	return cmp.Compare(b.Float64, a.Float64)
}

// compareGroupRows is the total order used to pick the canonical group for a
// vehicle: scored rows first, highest score first, then GroupID ascending.
func compareGroupRows(a, b groupRow) int {
	if c := compareNullDesc(a.Score, b.Score); c != 0 {
		return c
	}
	return cmp.Compare(groupKey(a.GroupID), groupKey(b.GroupID))
}

// compareFilterRows mirrors the ORDER BY of the filter statement: null scores
// last, score desc, year desc, make asc, model asc.
func compareFilterRows(a, b FilterRow) int {
	if c := compareNullDesc(toNull(a.Score), toNull(b.Score)); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Year, a.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Make, b.Make); c != 0 {
		return c
	}
	return cmp.Compare(a.Model, b.Model)
}

func toNull(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
