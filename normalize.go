package grader

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// YearRange is an inclusive model-year range with Min <= Max.
type YearRange struct {
	Min int
	Max int
}

// NewYearRange builds an inclusive range, swapping the bounds when inverted.
func NewYearRange(a, b int) YearRange {
	if a > b {
		a, b = b, a
	}
	return YearRange{Min: a, Max: b}
}

// ParseYear normalizes a raw year parameter to an integer.
// Strings are trimmed before parsing ("2015 " is accepted). Integer kinds and
// integral floats are accepted as-is. Anything else is a *ValidationError.
func ParseYear(raw any) (int, error) {
	return parseYearField("year", raw)
}

// ParseYearRange normalizes both bounds of a year range. Both are required.
// An inverted range is swapped rather than rejected.
func ParseYearRange(minRaw, maxRaw any) (YearRange, error) {
	lo, err := parseYearField("min_year", minRaw)
	if err != nil {
		return YearRange{}, err
	}
	hi, err := parseYearField("max_year", maxRaw)
	if err != nil {
		return YearRange{}, err
	}
	return NewYearRange(lo, hi), nil
}

// RequireText trims value and rejects it when empty.
// Case is preserved; stored make/model text is matched exactly.
func RequireText(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", &ValidationError{Field: field, Reason: "required"}
	}
	return v, nil
}

// Vehicle is a normalized (year, make, model) tuple.
type Vehicle struct {
	Year  int    `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

func (v Vehicle) String() string {
	return fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model)
}

// NewVehicle validates and normalizes a raw (year, make, model) tuple.
func NewVehicle(year any, mk, model string) (Vehicle, error) {
	y, err := ParseYear(year)
	if err != nil {
		return Vehicle{}, err
	}
	mk, err = RequireText("make", mk)
	if err != nil {
		return Vehicle{}, err
	}
	model, err = RequireText("model", model)
	if err != nil {
		return Vehicle{}, err
	}
	return Vehicle{Year: y, Make: mk, Model: model}, nil
}

func parseYearField(field string, raw any) (int, error) {
	switch v := raw.(type) {
	case nil:
		return 0, &ValidationError{Field: field, Reason: "required"}
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, &ValidationError{Field: field, Reason: "required"}
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, &ValidationError{Field: field, Reason: "not an integer: " + strconv.Quote(v)}
		}
		return n, nil
	case *string:
		if v == nil {
			return 0, &ValidationError{Field: field, Reason: "required"}
		}
		return parseYearField(field, *v)
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil //nolint:gosec // model years are small
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return int(v), nil //nolint:gosec // model years are small
	case float32:
		return integralFloat(field, float64(v))
	case float64:
		return integralFloat(field, v)
	default:
		return 0, &ValidationError{Field: field, Reason: "unsupported type"}
	}
}

func integralFloat(field string, f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, &ValidationError{Field: field, Reason: "not an integer"}
	}
	return int(f), nil
}
