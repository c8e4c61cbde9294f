package mockdb

import (
	"context"
	"errors"
	"testing"
)

func TestNew_RecordsQueries(t *testing.T) {
	db, capture := New()
	ctx := context.Background()

	rows, err := db.QueryContext(ctx, "SELECT 1 WHERE a = ?", "x")
	if err != nil {
		t.Fatalf("QueryContext failed: %v", err)
	}
	if rows.Next() {
		t.Error("expected no rows")
	}
	_ = rows.Close()

	last, ok := capture.Last()
	if !ok {
		t.Fatal("expected a captured query")
	}
	if last.Query != "SELECT 1 WHERE a = ?" {
		t.Errorf("unexpected query: %q", last.Query)
	}
	if len(last.Args) != 1 || last.Args[0] != "x" {
		t.Errorf("unexpected args: %v", last.Args)
	}
}

func TestNew_Isolated(t *testing.T) {
	db1, capture1 := New()
	_, capture2 := New()

	if _, err := db1.QueryContext(context.Background(), "SELECT 1"); err != nil {
		t.Fatalf("QueryContext failed: %v", err)
	}
	if capture1.Len() != 1 {
		t.Errorf("expected 1 query on first instance, got %d", capture1.Len())
	}
	if capture2.Len() != 0 {
		t.Errorf("expected 0 queries on second instance, got %d", capture2.Len())
	}
}

func TestWithQueryErr(t *testing.T) {
	boom := errors.New("boom")
	db, capture := New(WithQueryErr(boom))

	_, err := db.QueryContext(context.Background(), "SELECT 1")
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if capture.Len() != 1 {
		t.Errorf("failed query should still be recorded, got %d", capture.Len())
	}
}

func TestWithRows(t *testing.T) {
	db, _ := New(WithRows([]string{"name", "n"},
		[]any{"a", int64(1)},
		[]any{"b", int64(2)},
	))

	var got []struct {
		Name string `db:"name"`
		N    int64  `db:"n"`
	}
	if err := db.SelectContext(context.Background(), &got, "SELECT name, n FROM t"); err != nil {
		t.Fatalf("SelectContext failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Name != "a" || got[1].N != 2 {
		t.Errorf("unexpected rows: %+v", got)
	}
}

func TestCapture_Reset(t *testing.T) {
	db, capture := New()
	_, _ = db.QueryContext(context.Background(), "SELECT 1")
	capture.Reset()

	if _, ok := capture.Last(); ok {
		t.Error("expected empty capture after Reset")
	}
	if len(capture.Queries()) != 0 {
		t.Error("expected no queries after Reset")
	}
}

func TestDriver_UnknownInstance(t *testing.T) {
	if _, err := (Driver{}).Open("missing"); err == nil {
		t.Error("expected error for unknown instance")
	}
}
