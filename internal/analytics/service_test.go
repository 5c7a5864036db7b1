package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatsStore struct {
	lastSince time.Time
	lastLimit int
	lastYear  int
}

func (f *fakeStatsStore) Dashboard(context.Context, time.Time) (*Dashboard, error) {
	return &Dashboard{}, nil
}

func (f *fakeStatsStore) MostBorrowed(_ context.Context, since time.Time, limit int) ([]MostBorrowedEntry, error) {
	f.lastSince = since
	f.lastLimit = limit
	return []MostBorrowedEntry{}, nil
}

func (f *fakeStatsStore) UserCategories(context.Context) ([]UserCategoryStat, error) {
	return []UserCategoryStat{}, nil
}

func (f *fakeStatsStore) ReadingPatterns(context.Context) ([]MonthPattern, error) {
	return []MonthPattern{}, nil
}

func (f *fakeStatsStore) MonthlyReport(_ context.Context, year int) (*MonthlyReport, error) {
	f.lastYear = year
	return &MonthlyReport{Year: year, Months: make([]MonthlyReportRow, 12)}, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestService(store *fakeStatsStore, now time.Time) *Service {
	return &Service{store: store, clock: fixedClock{t: now}}
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		period string
		want   time.Time
	}{
		{"", time.Time{}},
		{PeriodAll, time.Time{}},
		{PeriodWeek, now.AddDate(0, 0, -7)},
		{PeriodMonth, now.AddDate(0, -1, 0)},
		{PeriodYear, now.AddDate(-1, 0, 0)},
	}
	for _, tc := range cases {
		got, err := periodStart(now, tc.period)
		require.NoError(t, err, tc.period)
		assert.Equal(t, tc.want, got, tc.period)
	}

	_, err := periodStart(now, "fortnight")
	require.Error(t, err)
	assert.Equal(t, CodeValidation, err.(*APIError).Code)
}

func TestMostBorrowedLimitClamps(t *testing.T) {
	store := &fakeStatsStore{}
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	_, err := svc.MostBorrowed(context.Background(), PeriodWeek, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, store.lastLimit)
	assert.Equal(t, now.AddDate(0, 0, -7), store.lastSince)

	_, err = svc.MostBorrowed(context.Background(), PeriodAll, 5000)
	require.NoError(t, err)
	assert.Equal(t, 100, store.lastLimit)
	assert.True(t, store.lastSince.IsZero())

	_, err = svc.MostBorrowed(context.Background(), "fortnight", 10)
	require.Error(t, err)
}

func TestMonthlyReportYearDefaultsAndBounds(t *testing.T) {
	store := &fakeStatsStore{}
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	report, err := svc.MonthlyReport(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2026, report.Year)
	assert.Equal(t, 2026, store.lastYear)

	_, err = svc.MonthlyReport(context.Background(), 1969)
	require.Error(t, err)
	assert.Equal(t, CodeValidation, err.(*APIError).Code)

	_, err = svc.MonthlyReport(context.Background(), 2030)
	require.Error(t, err)

	// Next year is allowed for pre-provisioned reports.
	_, err = svc.MonthlyReport(context.Background(), 2027)
	require.NoError(t, err)
}
