package grader

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/zoobzio/capitan"
	"golang.org/x/sync/errgroup"
)

// TopComplaintItem is one of a group's most complained-about components.
type TopComplaintItem struct {
	Component string  `json:"component"`
	Percent   float64 `json:"percent"`
	Summary   *string `json:"summary"`
}

// TrimItem is the complaint count for one trim of a group.
type TrimItem struct {
	Name       string  `json:"name"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// HistoryPoint is the actual and expected complaint level for one year.
type HistoryPoint struct {
	Year     int      `json:"year"`
	Actual   *float64 `json:"actual"`
	Expected *float64 `json:"expected"`
}

// Supplements reads per-group detail files from a blob store.
// A missing file is an empty result; any other provider failure is a *StoreError.
type Supplements struct {
	provider    BucketProvider
	prefix      string
	concurrency int
}

// NewSupplements creates Supplements backed by the given provider.
func NewSupplements(provider BucketProvider, opts ...SupplementsOption) *Supplements {
	s := &Supplements{
		provider:    provider,
		prefix:      DefaultResourcePrefix,
		concurrency: DefaultFetchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency < 1 {
		s.concurrency = DefaultFetchConcurrency
	}
	return s
}

// TopComplaints returns the group's top complaint components, highest percent
// first, each with its summary when one exists.
func (s *Supplements) TopComplaints(ctx context.Context, groupID string) ([]TopComplaintItem, error) {
	keys, err := s.keys(groupID)
	if err != nil {
		return nil, err
	}

	data, ok, err := s.fetch(ctx, keys, keys.topComplaints())
	if err != nil {
		return nil, err
	}
	items := []TopComplaintItem{}
	if !ok {
		return items, nil
	}

	t := readTable(data, topFields)
	for _, row := range t.rows {
		component := t.cell(row, "component")
		if component == "" {
			continue
		}
		items = append(items, TopComplaintItem{
			Component: component,
			Percent:   floatOr(t.cell(row, "percent"), 0),
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range items {
		g.Go(func() error {
			summary, found, err := s.fetch(gctx, keys, keys.summary(items[i].Component))
			if err != nil {
				return err
			}
			if found {
				items[i].Summary = cleanSummary(summary)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(items, func(a, b TopComplaintItem) int {
		return cmp.Compare(b.Percent, a.Percent)
	})
	return items, nil
}

// Trims returns the group's per-trim complaint counts, largest first.
// Percentages come from the file when present, otherwise from the counts.
func (s *Supplements) Trims(ctx context.Context, groupID string) ([]TrimItem, error) {
	keys, err := s.keys(groupID)
	if err != nil {
		return nil, err
	}

	data, ok, err := s.fetch(ctx, keys, keys.trims())
	if err != nil {
		return nil, err
	}
	items := []TrimItem{}
	if !ok {
		return items, nil
	}

	t := readTable(data, trimFields)
	var total int64
	given := make([]*float64, 0, len(t.rows))
	for _, row := range t.rows {
		name := t.cell(row, "name")
		if name == "" {
			continue
		}
		count := intOr(t.cell(row, "count"), 0)
		total += count
		items = append(items, TrimItem{Name: name, Count: count})
		given = append(given, floatPtrOf(t.cell(row, "percentage")))
	}
	for i := range items {
		switch {
		case given[i] != nil:
			items[i].Percentage = *given[i]
		case total > 0:
			items[i].Percentage = Round1(float64(items[i].Count) / float64(total) * 100)
		}
	}

	slices.SortStableFunc(items, func(a, b TrimItem) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return items, nil
}

// History returns the group's yearly complaint history, oldest first.
func (s *Supplements) History(ctx context.Context, groupID string) ([]HistoryPoint, error) {
	keys, err := s.keys(groupID)
	if err != nil {
		return nil, err
	}

	data, ok, err := s.fetch(ctx, keys, keys.history())
	if err != nil {
		return nil, err
	}
	points := []HistoryPoint{}
	if !ok {
		return points, nil
	}

	t := readTable(data, historyFields)
	for _, row := range t.rows {
		year := t.cell(row, "year")
		if year == "" {
			continue
		}
		points = append(points, HistoryPoint{
			Year:     int(intOr(year, 0)),
			Actual:   floatPtrOf(t.cell(row, "actual")),
			Expected: floatPtrOf(t.cell(row, "expected")),
		})
	}

	slices.SortStableFunc(points, func(a, b HistoryPoint) int {
		return cmp.Compare(a.Year, b.Year)
	})
	return points, nil
}

// Files lists the objects stored for a group.
func (s *Supplements) Files(ctx context.Context, groupID string) ([]ObjectInfo, error) {
	keys, err := s.keys(groupID)
	if err != nil {
		return nil, err
	}
	infos, err := s.provider.List(ctx, keys.dir(), 0)
	if err != nil {
		return nil, &StoreError{Op: "list", Key: keys.dir(), Err: err}
	}
	if infos == nil {
		infos = []ObjectInfo{}
	}
	return infos, nil
}

func (s *Supplements) keys(groupID string) (groupKeys, error) {
	g, err := validGroupID(groupID)
	if err != nil {
		return groupKeys{}, err
	}
	return groupKeys{prefix: s.prefix, groupID: g}, nil
}

// fetch reads one blob. A missing key reports found=false with no error.
func (s *Supplements) fetch(ctx context.Context, keys groupKeys, key string) ([]byte, bool, error) {
	start := time.Now()

	data, _, err := s.provider.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			capitan.Emit(ctx, FetchMissing,
				FieldKey.Field(key),
				FieldGroupID.Field(keys.groupID),
				FieldDuration.Field(time.Since(start)),
			)
			return nil, false, nil
		}
		storeErr := &StoreError{Op: "get", Key: key, Err: err}
		capitan.Emit(ctx, FetchFailed,
			FieldKey.Field(key),
			FieldGroupID.Field(keys.groupID),
			FieldError.Field(storeErr),
			FieldDuration.Field(time.Since(start)),
		)
		return nil, false, storeErr
	}

	capitan.Emit(ctx, FetchCompleted,
		FieldKey.Field(key),
		FieldGroupID.Field(keys.groupID),
		FieldCount.Field(len(data)),
		FieldDuration.Field(time.Since(start)),
	)
	return data, true, nil
}
