package gradertest

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// VehicleSchema creates the vehicle table with the stored column names.
// ModelYear is TEXT so fixtures can carry padded years.
const VehicleSchema = `CREATE TABLE IF NOT EXISTS %s (
	ModelYear      TEXT,
	Make           TEXT,
	Model          TEXT,
	GroupID        TEXT,
	Score          REAL,
	Certainty      REAL,
	RelRatio       REAL,
	ComplaintCount INTEGER NOT NULL DEFAULT 0
)`

// Vehicle is one fixture row. Nil pointers are stored as NULL.
type Vehicle struct {
	Year       any
	Make       string
	Model      string
	GroupID    any
	Score      *float64
	Certainty  *float64
	RelRatio   *float64
	Complaints int64
}

// Float returns a pointer to v for fixture literals.
func Float(v float64) *float64 {
	return &v
}

// NewCatalogDB opens a private in-memory SQLite database holding table
// seeded with rows. The database is closed when the test ends.
func NewCatalogDB(tb testing.TB, table string, rows ...Vehicle) *sqlx.DB {
	tb.Helper()

	db, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		tb.Fatalf("failed to open sqlite: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = db.Close() })

	if err := Seed(context.Background(), db, table, rows...); err != nil {
		tb.Fatalf("failed to seed %s: %v", table, err)
	}
	return db
}

// Seed creates table if needed and inserts rows.
func Seed(ctx context.Context, db *sqlx.DB, table string, rows ...Vehicle) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(VehicleSchema, table)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	insert := fmt.Sprintf(`INSERT INTO %s
		(ModelYear, Make, Model, GroupID, Score, Certainty, RelRatio, ComplaintCount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, table)
	for _, r := range rows {
		if _, err := db.ExecContext(ctx, insert,
			r.Year, r.Make, r.Model, r.GroupID, nullable(r.Score), nullable(r.Certainty), nullable(r.RelRatio), r.Complaints,
		); err != nil {
			return fmt.Errorf("insert %v %s %s: %w", r.Year, r.Make, r.Model, err)
		}
	}
	return nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
