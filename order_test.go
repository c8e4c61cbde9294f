package grader

import (
	"database/sql"
	"slices"
	"testing"
)

func TestCompareNullDesc(t *testing.T) {
	valid := func(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }
	null := sql.NullFloat64{}

	tests := []struct {
		name string
		a, b sql.NullFloat64
		want int
	}{
		{"higher first", valid(90), valid(80), -1},
		{"lower second", valid(80), valid(90), 1},
		{"equal", valid(80), valid(80), 0},
		{"value before null", valid(0), null, -1},
		{"null after value", null, valid(0), 1},
		{"both null", null, null, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareNullDesc(tt.a, tt.b)
			if sign(got) != tt.want {
				t.Errorf("got %d, want sign %d", got, tt.want)
			}
		})
	}
}

func TestCompareGroupRows(t *testing.T) {
	rows := []groupRow{
		{GroupID: "A", Score: sql.NullFloat64{Float64: 80, Valid: true}},
		{GroupID: "B"},
		{GroupID: "C", Score: sql.NullFloat64{Float64: 90, Valid: true}},
		{GroupID: int64(7), Score: sql.NullFloat64{Float64: 90, Valid: true}},
	}
	slices.SortFunc(rows, compareGroupRows)

	var got []string
	for _, r := range rows {
		got = append(got, groupKey(r.GroupID))
	}
	want := []string{"7", "C", "A", "B"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCompareFilterRows(t *testing.T) {
	score := func(v float64) *float64 { return &v }
	rows := []FilterRow{
		{Year: 2019, Make: "Toyota", Model: "Camry"},
		{Year: 2020, Make: "Honda", Model: "Civic", Score: score(90)},
		{Year: 2021, Make: "Honda", Model: "Civic", Score: score(90)},
		{Year: 2021, Make: "Acura", Model: "TLX", Score: score(90)},
		{Year: 2021, Make: "Acura", Model: "ILX", Score: score(90)},
		{Year: 2022, Make: "Kia", Model: "Soul", Score: score(95)},
	}
	slices.SortFunc(rows, compareFilterRows)

	want := []string{
		"2022 Kia Soul",
		"2021 Acura ILX",
		"2021 Acura TLX",
		"2021 Honda Civic",
		"2020 Honda Civic",
		"2019 Toyota Camry",
	}
	for i, r := range rows {
		if got := (Vehicle{Year: r.Year, Make: r.Make, Model: r.Model}).String(); got != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got, want[i])
		}
	}
}

func TestGroupKey(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"G-1", "G-1"},
		{[]byte("G-2"), "G-2"},
		{int64(42), "42"},
		{float64(42), "42"},
		{1.5, "1.5"},
	}
	for _, tt := range tests {
		if got := groupKey(tt.in); got != tt.want {
			t.Errorf("groupKey(%v): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSelectList(t *testing.T) {
	want := `"GroupID", "Score", "Certainty", "RelRatio", "ComplaintCount"`
	if got := selectList[groupRow](); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
