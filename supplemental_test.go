package grader_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zoobzio/grader"
	"github.com/zoobzio/grader/gradertest"
)

func seededBucket() *gradertest.MemoryBucket {
	b := gradertest.NewMemoryBucket()
	b.PutString("ResourceFiles/123/123_top3.csv", "Component,Percent\nBRAKES/ABS,20\nENGINE,45.5%\nSEATS,10\n")
	b.PutString("ResourceFiles/123/BRAKES_ABS_llamasum.txt", "Here is a two-sentence summary of the data:\nPads wear early. Rotors warp.")
	b.PutString("ResourceFiles/123/ENGINE_llamasum.txt", "Oil consumption is high.")
	b.PutString("ResourceFiles/123/123_ymmtscount.csv", "LX,30\nEX,10\nSport,abc\nTouring,10\n")
	b.PutString("ResourceFiles/123/123_cby.csv", "year,actual,expected\n2021,5,4.5\n2019,,3\n2020,x,2\n")
	b.PutString("ResourceFiles/456/456_ymmtscount.csv", "trim,count,percentage\nBase,3,12.5\nLimited,1,\n")
	return b
}

func TestSupplements_TopComplaints(t *testing.T) {
	s := grader.NewSupplements(seededBucket())

	got, err := s.TopComplaints(context.Background(), "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		component string
		percent   float64
		summary   *string
	}{
		{"ENGINE", 45.5, strOf("Oil consumption is high.")},
		{"BRAKES/ABS", 20, strOf("Pads wear early. Rotors warp.")},
		{"SEATS", 10, nil},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Component != w.component || got[i].Percent != w.percent {
			t.Errorf("item %d: got %s %v, want %s %v", i, got[i].Component, got[i].Percent, w.component, w.percent)
		}
		if !equalPtr(got[i].Summary, w.summary) {
			t.Errorf("item %d summary: got %v, want %v", i, got[i].Summary, w.summary)
		}
	}
}

func TestSupplements_TopComplaints_SerialFetch(t *testing.T) {
	b := seededBucket()
	s := grader.NewSupplements(b, grader.WithFetchConcurrency(1))

	got, err := s.TopComplaints(context.Background(), "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if n := b.Gets(); n != 4 {
		t.Errorf("expected 4 blob reads, got %d", n)
	}
}

func TestSupplements_Trims(t *testing.T) {
	s := grader.NewSupplements(seededBucket())
	ctx := context.Background()

	tests := []struct {
		group string
		want  []grader.TrimItem
	}{
		{
			group: "123",
			want: []grader.TrimItem{
				{Name: "LX", Count: 30, Percentage: 60},
				{Name: "EX", Count: 10, Percentage: 20},
				{Name: "Touring", Count: 10, Percentage: 20},
				{Name: "Sport", Count: 0, Percentage: 0},
			},
		},
		{
			group: "456",
			want: []grader.TrimItem{
				{Name: "Base", Count: 3, Percentage: 12.5},
				{Name: "Limited", Count: 1, Percentage: 25},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			got, err := s.Trims(ctx, tt.group)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d items, got %+v", len(tt.want), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("item %d: got %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSupplements_History(t *testing.T) {
	s := grader.NewSupplements(seededBucket())

	got, err := s.History(context.Background(), "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []grader.HistoryPoint{
		{Year: 2019, Actual: nil, Expected: f(3)},
		{Year: 2020, Actual: nil, Expected: f(2)},
		{Year: 2021, Actual: f(5), Expected: f(4.5)},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %+v", len(want), got)
	}
	for i, w := range want {
		if got[i].Year != w.Year || !equalPtr(got[i].Actual, w.Actual) || !equalPtr(got[i].Expected, w.Expected) {
			t.Errorf("point %d: got %+v, want %+v", i, got[i], w)
		}
	}
}

func TestSupplements_MissingGroup(t *testing.T) {
	s := grader.NewSupplements(seededBucket())
	ctx := context.Background()

	capture := gradertest.NewEventCapture()
	stop := capture.Listen(grader.FetchMissing)

	top, err := s.TopComplaints(ctx, "999")
	if err != nil || top == nil || len(top) != 0 {
		t.Errorf("top: got %#v, %v", top, err)
	}
	trims, err := s.Trims(ctx, "999")
	if err != nil || trims == nil || len(trims) != 0 {
		t.Errorf("trims: got %#v, %v", trims, err)
	}
	history, err := s.History(ctx, "999")
	if err != nil || history == nil || len(history) != 0 {
		t.Errorf("history: got %#v, %v", history, err)
	}
	files, err := s.Files(ctx, "999")
	if err != nil || files == nil || len(files) != 0 {
		t.Errorf("files: got %#v, %v", files, err)
	}
	stop()

	missing := 0
	for _, e := range capture.EventsBySignal(grader.FetchMissing) {
		if grader.FieldGroupID.ExtractFromFields(e.Fields) == "999" {
			missing++
		}
	}
	if missing != 3 {
		t.Errorf("expected 3 missing events for group 999, got %d", missing)
	}
}

func TestSupplements_StoreError(t *testing.T) {
	b := seededBucket()
	b.SetErr(errors.New("connection reset"))
	s := grader.NewSupplements(b)
	ctx := context.Background()

	capture := gradertest.NewEventCapture()
	stop := capture.Listen(grader.FetchFailed)

	calls := map[string]func() error{
		"top":     func() error { _, err := s.TopComplaints(ctx, "123"); return err },
		"trims":   func() error { _, err := s.Trims(ctx, "123"); return err },
		"history": func() error { _, err := s.History(ctx, "123"); return err },
		"files":   func() error { _, err := s.Files(ctx, "123"); return err },
	}
	for name, call := range calls {
		err := call()
		if !errors.Is(err, grader.ErrStore) {
			t.Errorf("%s: expected ErrStore, got %v", name, err)
		}
		if errors.Is(err, grader.ErrNotFound) {
			t.Errorf("%s: store failure must not read as not found", name)
		}
	}
	stop()

	failed := 0
	for _, e := range capture.EventsBySignal(grader.FetchFailed) {
		if grader.FieldGroupID.ExtractFromFields(e.Fields) == "123" {
			failed++
		}
	}
	if failed != 3 {
		t.Errorf("expected 3 failed events, got %d", failed)
	}
}

func TestSupplements_SummaryError(t *testing.T) {
	b := &summaryFailingBucket{MemoryBucket: seededBucket()}
	s := grader.NewSupplements(b)

	_, err := s.TopComplaints(context.Background(), "123")
	if !errors.Is(err, grader.ErrStore) {
		t.Errorf("expected ErrStore, got %v", err)
	}
}

func TestSupplements_InvalidGroupID(t *testing.T) {
	b := seededBucket()
	s := grader.NewSupplements(b)
	ctx := context.Background()

	for _, id := range []string{"", "  ", "..", "../123", `a\b`} {
		if _, err := s.Trims(ctx, id); !errors.Is(err, grader.ErrValidation) {
			t.Errorf("%q: expected ErrValidation, got %v", id, err)
		}
	}
	if n := b.Gets(); n != 0 {
		t.Errorf("invalid ids must not reach the store, got %d reads", n)
	}
}

func TestSupplements_Files(t *testing.T) {
	s := grader.NewSupplements(seededBucket())

	got, err := s.Files(context.Background(), "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 files, got %d", len(got))
	}
	if got[0].Key != "ResourceFiles/123/123_cby.csv" {
		t.Errorf("first key: got %q", got[0].Key)
	}
	for _, info := range got {
		if info.Size == 0 {
			t.Errorf("%s: expected non-zero size", info.Key)
		}
	}
}

func TestSupplements_ResourcePrefix(t *testing.T) {
	b := gradertest.NewMemoryBucket()
	b.PutString("alt/9/9_cby.csv", "2020,1,2\n")
	s := grader.NewSupplements(b, grader.WithResourcePrefix("alt"))

	got, err := s.History(context.Background(), "9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Year != 2020 {
		t.Errorf("got %+v", got)
	}
}

// summaryFailingBucket fails every summary read.
type summaryFailingBucket struct {
	*gradertest.MemoryBucket
}

func (b *summaryFailingBucket) Get(ctx context.Context, key string) ([]byte, *grader.ObjectInfo, error) {
	if strings.HasSuffix(key, "_llamasum.txt") {
		return nil, nil, errors.New("throttled")
	}
	return b.MemoryBucket.Get(ctx, key)
}

func strOf(s string) *string {
	return &s
}
