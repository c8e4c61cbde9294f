package grader

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zoobzio/sentinel"
)

func init() {
	sentinel.Tag("db")
}

// column is an SQL expression over the vehicle table. Values of this type are
// only ever declared as package constants, so query text built from columns and
// placeholders never contains request data.
type column string

// Columns of the vehicle table. ModelYear may be stored as padded text, so it
// is always read through a trim-and-cast.
const (
	colYear      column = `CAST(TRIM("ModelYear") AS INTEGER)`
	colRawYear   column = `"ModelYear"`
	colMake      column = `"Make"`
	colModel     column = `"Model"`
	colGroupID   column = `"GroupID"`
	colScore     column = `"Score"`
	colCertainty column = `"Certainty"`
	colCount     column = `"ComplaintCount"`
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteIdent validates and double-quotes a table name.
func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", &ValidationError{Field: "table", Reason: "not a plain identifier: " + strconv.Quote(name)}
	}
	return `"` + name + `"`, nil
}

// groupRow is one candidate row for a (year, make, model) lookup.
// Its db tags are the stored column names.
type groupRow struct {
	GroupID        any             `db:"GroupID"`
	Score          sql.NullFloat64 `db:"Score"`
	Certainty      sql.NullFloat64 `db:"Certainty"`
	RelRatio       sql.NullFloat64 `db:"RelRatio"`
	ComplaintCount sql.NullInt64   `db:"ComplaintCount"`
}

// selectList renders the quoted db-tagged columns of T for a SELECT clause.
func selectList[T any]() string {
	meta := sentinel.Inspect[T]()
	cols := make([]string, 0, len(meta.Fields))
	for _, field := range meta.Fields {
		col := field.Tags["db"]
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, `"`+col+`"`)
	}
	return strings.Join(cols, ", ")
}

// groupKey renders a stored GroupID as the opaque string used for blob keys.
func groupKey(v any) string {
	switch g := v.(type) {
	case nil:
		return ""
	case string:
		return g
	case []byte:
		return string(g)
	case int64:
		return strconv.FormatInt(g, 10)
	case float64:
		if g == float64(int64(g)) {
			return strconv.FormatInt(int64(g), 10)
		}
		return strconv.FormatFloat(g, 'f', -1, 64)
	default:
		return fmt.Sprint(g)
	}
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// ScoreResult is the formatted grade for a single vehicle.
type ScoreResult struct {
	Score     *float64 `json:"score"`
	Certainty *float64 `json:"certainty"`
	GroupID   string   `json:"group_id"`
}

// DetailResult extends ScoreResult with complaint statistics and the derived
// failure factor.
type DetailResult struct {
	Vehicle
	ScoreResult
	ComplaintCount int64      `json:"complaint_count"`
	RelRatio       *float64   `json:"rel_ratio"`
	YValue         *float64   `json:"y_value"`
	Direction      *Direction `json:"direction"`
}

// FilterRow is one distinct (year, make, model) match of a filtered search.
type FilterRow struct {
	Year  int      `db:"year" json:"year"`
	Make  string   `db:"make" json:"make"`
	Model string   `db:"model" json:"model"`
	Score *float64 `db:"score" json:"score"`
}

// FilterResult holds filtered rows and whether the cap truncated them.
type FilterResult struct {
	Rows   []FilterRow `json:"rows"`
	Capped bool        `json:"capped"`
	Limit  int         `json:"limit"`
}

// Health summarizes the state of the vehicle table.
type Health struct {
	OK          bool   `json:"ok"`
	Table       string `json:"table"`
	TableExists bool   `json:"table_exists"`
	Rows        int64  `json:"rows"`
	RowsScored  int64  `json:"rows_scored"`
	Years       int64  `json:"years"`
}
