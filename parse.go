package grader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
)

// SummaryBoilerplate is the generated preamble stripped from component summaries.
const SummaryBoilerplate = "Here is a two-sentence summary of the data:"

// field describes one logical CSV column: the header names that identify it
// and its position when the file has no header.
type field struct {
	aliases []string
	pos     int
}

var (
	topFields = map[string]field{
		"component": {aliases: []string{"component", "components", "name"}, pos: 0},
		"percent":   {aliases: []string{"percent", "pct", "percentage", "share"}, pos: 1},
	}
	trimFields = map[string]field{
		"name":       {aliases: []string{"trim", "name", "ymmt", "series"}, pos: 0},
		"count":      {aliases: []string{"count", "complaints", "complaintcount"}, pos: 1},
		"percentage": {aliases: []string{"percentage", "percent", "pct"}, pos: 2},
	}
	historyFields = map[string]field{
		"year":     {aliases: []string{"year", "modelyear", "complaintyear"}, pos: 0},
		"actual":   {aliases: []string{"actual", "complaints", "count"}, pos: 1},
		"expected": {aliases: []string{"expected", "baseline"}, pos: 2},
	}
)

// table is a parsed CSV blob with its columns resolved to logical fields.
type table struct {
	index map[string]int
	rows  [][]string
}

// cell returns the trimmed value of a logical field in row, or "".
func (t table) cell(row []string, name string) string {
	i, ok := t.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// readTable parses data as CSV. If the first record names any of the fields it
// is treated as a header and used to locate columns; otherwise columns are
// positional. Records the CSV reader rejects are skipped.
func readTable(data []byte, fields map[string]field) table {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue
			}
			break
		}
		records = append(records, rec)
	}

	t := table{index: make(map[string]int, len(fields))}
	if len(records) > 0 {
		if idx, ok := headerIndex(records[0], fields); ok {
			t.index = idx
			t.rows = records[1:]
			return t
		}
	}
	for name, f := range fields {
		t.index[name] = f.pos
	}
	t.rows = records
	return t
}

func headerIndex(header []string, fields map[string]field) (map[string]int, bool) {
	idx := make(map[string]int, len(fields))
	for i, h := range header {
		norm := normalizeHeader(h)
		for name, f := range fields {
			if _, taken := idx[name]; taken {
				continue
			}
			for _, alias := range f.aliases {
				if norm == alias {
					idx[name] = i
					break
				}
			}
		}
	}
	return idx, len(idx) > 0
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "", "%", "").Replace(h)
}

// parseNumber reads a finite number, tolerating a trailing percent sign.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// floatOr returns the parsed cell or def.
func floatOr(s string, def float64) float64 {
	if f, ok := parseNumber(s); ok {
		return f
	}
	return def
}

// floatPtrOf returns the parsed cell or nil.
func floatPtrOf(s string) *float64 {
	if f, ok := parseNumber(s); ok {
		return &f
	}
	return nil
}

// intOr returns the parsed integral cell or def. "12.0" reads as 12.
func intOr(s string, def int64) int64 {
	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return n
	}
	if f, ok := parseNumber(s); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return def
}

// cleanSummary strips the generated preamble (any case) and surrounding space.
// Returns nil when nothing substantive remains.
func cleanSummary(raw []byte) *string {
	s := strings.TrimSpace(string(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))))
	if n := len(SummaryBoilerplate); len(s) >= n && strings.EqualFold(s[:n], SummaryBoilerplate) {
		s = strings.TrimSpace(s[n:])
	}
	if s == "" {
		return nil
	}
	return &s
}
