package record

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// TimeRange filters records to a window ending now.
type TimeRange string

const (
	TimeRangeAll   TimeRange = "all"
	TimeRangeHour  TimeRange = "hour"
	TimeRangeDay   TimeRange = "day"
	TimeRangeWeek  TimeRange = "week"
	TimeRangeMonth TimeRange = "month"
	TimeRangeYear  TimeRange = "year"
)

// DateRange filters records to the current calendar period.
type DateRange string

const (
	DateRangeAll      DateRange = "all"
	DateRangeDaily    DateRange = "daily"
	DateRangeMonthly  DateRange = "monthly"
	DateRangeAnnually DateRange = "annually"
)

// SortKey selects the ordering of a query result.
type SortKey string

const (
	SortDateAsc    SortKey = "date-asc"
	SortDateDesc   SortKey = "date-desc"
	SortAmountAsc  SortKey = "amount-asc"
	SortAmountDesc SortKey = "amount-desc"
	SortNameAsc    SortKey = "name-asc"
	SortNameDesc   SortKey = "name-desc"
)

func ParseTimeRange(s string) (TimeRange, bool) {
	switch tr := TimeRange(strings.ToLower(strings.TrimSpace(s))); tr {
	case TimeRangeAll, TimeRangeHour, TimeRangeDay, TimeRangeWeek, TimeRangeMonth, TimeRangeYear:
		return tr, true
	}

	return "", false
}

func ParseDateRange(s string) (DateRange, bool) {
	switch dr := DateRange(strings.ToLower(strings.TrimSpace(s))); dr {
	case DateRangeAll, DateRangeDaily, DateRangeMonthly, DateRangeAnnually:
		return dr, true
	}

	return "", false
}

func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortDateAsc, SortDateDesc, SortAmountAsc, SortAmountDesc, SortNameAsc, SortNameDesc:
		return k, true
	}

	return "", false
}

// Criteria captures one complete filter/sort selection. All active
// predicates must pass for a record to survive; zero values mean
// "not active".
type Criteria struct {
	Search    string
	Status    Status
	TimeRange TimeRange
	DateRange DateRange
	Sort      SortKey
}

// Engine evaluates Criteria against in-memory record snapshots. It
// holds no per-query state and is safe for concurrent use; the clock is
// injected so tests can pin "now" and assert exact boundary behavior.
type Engine struct {
	now func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a query engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		now: time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Query filters and sorts a snapshot of records. The input slice is
// never mutated; the result is a fresh, ordered subset. Records whose
// business timestamp is missing are excluded from any active time
// predicate (never silently included) and logged so data-quality
// problems stay visible.
func (e *Engine) Query(records []*Record, c Criteria) ([]*Record, error) {
	cutoff, hasCutoff := e.rangeCutoff(c.TimeRange)
	// The relative window and the calendar bucket are independent
	// predicates: when both are set, both must pass.
	start, end, hasBucket := e.dateBucket(c.DateRange)
	term := strings.ToLower(strings.TrimSpace(c.Search))

	out := make([]*Record, 0, len(records))
	undated := 0

	for _, r := range records {
		if c.Status != "" && r.Status != c.Status {
			continue
		}

		if hasCutoff || hasBucket {
			if r.CreatedAt.IsZero() {
				undated++
				continue
			}

			if hasCutoff && r.CreatedAt.Before(cutoff) {
				continue
			}

			if hasBucket && (r.CreatedAt.Before(start) || r.CreatedAt.After(end)) {
				continue
			}
		}

		if term != "" && !matchesSearch(r, term) {
			continue
		}

		out = append(out, r)
	}

	// One line per query, not per record: imported backlogs can hold
	// thousands of undated rows.
	if undated > 0 {
		slog.Warn("records with no usable timestamp excluded from date filtering",
			"count", undated)
	}

	if err := e.sortRecords(out, c.Sort); err != nil {
		return nil, err
	}

	return out, nil
}

// rangeCutoff computes the inclusive lower bound for a relative time
// range. Month and year use calendar arithmetic, not fixed-day
// multiples.
func (e *Engine) rangeCutoff(tr TimeRange) (time.Time, bool) {
	now := e.now()

	switch tr {
	case "", TimeRangeAll:
		return time.Time{}, false
	case TimeRangeHour:
		return now.Add(-time.Hour), true
	case TimeRangeDay:
		return now.AddDate(0, 0, -1), true
	case TimeRangeWeek:
		return now.AddDate(0, 0, -7), true
	case TimeRangeMonth:
		return now.AddDate(0, -1, 0), true
	case TimeRangeYear:
		return now.AddDate(-1, 0, 0), true
	}

	slog.Warn("unrecognized time range, skipping filter", "time_range", tr)

	return time.Time{}, false
}

// dateBucket computes the inclusive bounds of the current calendar day,
// month, or year.
func (e *Engine) dateBucket(dr DateRange) (start, end time.Time, ok bool) {
	now := e.now()

	switch dr {
	case "", DateRangeAll:
		return time.Time{}, time.Time{}, false
	case DateRangeDaily:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond), true
	case DateRangeMonthly:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond), true
	case DateRangeAnnually:
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(1, 0, 0).Add(-time.Nanosecond), true
	}

	slog.Warn("unrecognized date range, skipping filter", "date_range", dr)

	return time.Time{}, time.Time{}, false
}

func matchesSearch(r *Record, term string) bool {
	for _, field := range r.searchFields() {
		if field == "" {
			continue
		}

		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}

	return false
}

// sortRecords stable-sorts in place. Records with equal keys keep their
// input order. An empty or unrecognized key behaves as date-desc.
func (e *Engine) sortRecords(records []*Record, key SortKey) error {
	switch key {
	case SortDateAsc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		})

	case SortAmountAsc, SortAmountDesc:
		asc := key == SortAmountAsc

		sort.SliceStable(records, func(i, j int) bool {
			cmp := records[i].amountOrZero().Cmp(records[j].amountOrZero())
			if asc {
				return cmp < 0
			}

			return cmp > 0
		})

	case SortNameAsc, SortNameDesc:
		// Validate up front: comparing against an empty designated name
		// would produce an arbitrary but silent ordering.
		for _, r := range records {
			if _, ok := r.sortName(); !ok {
				return fmt.Errorf("record %s (%s): %w", r.ID, r.Kind, ErrMissingSortField)
			}
		}

		asc := key == SortNameAsc
		// Collators buffer internally and are not safe to share across
		// goroutines, so each sort gets its own.
		collator := collate.New(language.Und, collate.Loose)

		sort.SliceStable(records, func(i, j int) bool {
			a, _ := records[i].sortName()
			b, _ := records[j].sortName()

			cmp := collator.CompareString(a, b)
			if asc {
				return cmp < 0
			}

			return cmp > 0
		})

	default:
		if key != "" && key != SortDateDesc {
			slog.Warn("unrecognized sort key, falling back to date-desc", "sort", key)
		}

		sort.SliceStable(records, func(i, j int) bool {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		})
	}

	return nil
}
