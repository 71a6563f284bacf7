package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	// DataKey holds the month's day records.
	DataKey = "trackerData"
	// MonthKey marks which month DataKey belongs to.
	MonthKey = "trackerMonth"

	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"
)

// ErrInvalidCount is returned for negative checklist counts.
var ErrInvalidCount = errors.New("completed count must not be negative")

// DayRecord is the checklist result of one day.
type DayRecord struct {
	Date           string `json:"date"`
	CompletedCount int    `json:"completedCount"`
}

// Month is the checklist of the current month.
type Month struct {
	Month      string      `json:"month"`
	Days       []DayRecord `json:"days"`
	Total      int         `json:"total"`
	ActiveDays int         `json:"activeDays"`
	// Rolled is set when this read discarded the records of a previous month.
	Rolled bool `json:"rolled,omitempty"`
}

// Tracker is the daily checklist over a Store. Records are scoped to one calendar month
// and dropped when the month changes.
type Tracker struct {
	store Store
	now   func() time.Time
}

// New returns a tracker using now as its clock (time.Now when nil).
func New(store Store, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{store: store, now: now}
}

// Current returns the current month, rolling over if the stored month is stale.
func (t *Tracker) Current(ctx context.Context) (Month, error) {
	days, rolled, err := t.load(ctx)
	if err != nil {
		return Month{}, err
	}
	return summarize(t.now().Format(monthLayout), days, rolled), nil
}

// Tick adds n completions to today.
func (t *Tracker) Tick(ctx context.Context, n int) (DayRecord, error) {
	if n < 0 {
		return DayRecord{}, ErrInvalidCount
	}
	today := t.now().Format(dayLayout)
	days, _, err := t.load(ctx)
	if err != nil {
		return DayRecord{}, err
	}
	var rec DayRecord
	days, rec = upsert(days, today, func(r DayRecord) DayRecord {
		r.CompletedCount += n
		return r
	})
	if err := t.save(ctx, days); err != nil {
		return DayRecord{}, err
	}
	return rec, nil
}

// Set overwrites the count of a day in the current month.
func (t *Tracker) Set(ctx context.Context, date time.Time, count int) (DayRecord, error) {
	if count < 0 {
		return DayRecord{}, ErrInvalidCount
	}
	if date.Format(monthLayout) != t.now().Format(monthLayout) {
		return DayRecord{}, fmt.Errorf("date %s is outside the current month", date.Format(dayLayout))
	}
	days, _, err := t.load(ctx)
	if err != nil {
		return DayRecord{}, err
	}
	var rec DayRecord
	days, rec = upsert(days, date.Format(dayLayout), func(r DayRecord) DayRecord {
		r.CompletedCount = count
		return r
	})
	if err := t.save(ctx, days); err != nil {
		return DayRecord{}, err
	}
	return rec, nil
}

func (t *Tracker) load(ctx context.Context) ([]DayRecord, bool, error) {
	current := t.now().Format(monthLayout)

	rawMonth, ok, err := t.store.Get(ctx, MonthKey)
	if err != nil {
		return nil, false, err
	}
	var stored string
	if ok {
		if err := json.Unmarshal(rawMonth, &stored); err != nil {
			stored = ""
		}
	}
	if stored != current {
		if err := t.save(ctx, nil); err != nil {
			return nil, false, err
		}
		return nil, ok, nil
	}

	raw, ok, err := t.store.Get(ctx, DataKey)
	if err != nil || !ok {
		return nil, false, err
	}
	var days []DayRecord
	if err := json.Unmarshal(raw, &days); err != nil {
		// A corrupt cache is treated as empty.
		return nil, false, nil
	}
	return days, false, nil
}

func (t *Tracker) save(ctx context.Context, days []DayRecord) error {
	if days == nil {
		days = []DayRecord{}
	}
	data, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("encode tracker data: %w", err)
	}
	month, err := json.Marshal(t.now().Format(monthLayout))
	if err != nil {
		return fmt.Errorf("encode tracker month: %w", err)
	}
	if err := t.store.Put(ctx, DataKey, data); err != nil {
		return err
	}
	return t.store.Put(ctx, MonthKey, month)
}

func upsert(days []DayRecord, date string, fn func(DayRecord) DayRecord) ([]DayRecord, DayRecord) {
	out := append([]DayRecord(nil), days...)
	for i := range out {
		if out[i].Date == date {
			out[i] = fn(out[i])
			return out, out[i]
		}
	}
	rec := fn(DayRecord{Date: date})
	out = append(out, rec)
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, rec
}

func summarize(month string, days []DayRecord, rolled bool) Month {
	m := Month{Month: month, Days: days, Rolled: rolled}
	if m.Days == nil {
		m.Days = []DayRecord{}
	}
	for _, d := range days {
		m.Total += d.CompletedCount
		if d.CompletedCount > 0 {
			m.ActiveDays++
		}
	}
	return m
}
