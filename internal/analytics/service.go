package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Code string

const (
	CodeValidation Code = "VALIDATION_ERROR"
	CodeInternal   Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrValidation(msg string) *APIError {
	return &APIError{Code: CodeValidation, Message: msg}
}

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) && api.Code == CodeValidation {
		return 400
	}
	return 500
}

// Period selects the reporting window for most-borrowed rankings.
const (
	PeriodAll   = "all"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

type StatsStore interface {
	Dashboard(ctx context.Context, now time.Time) (*Dashboard, error)
	MostBorrowed(ctx context.Context, since time.Time, limit int) ([]MostBorrowedEntry, error)
	UserCategories(ctx context.Context) ([]UserCategoryStat, error)
	ReadingPatterns(ctx context.Context) ([]MonthPattern, error)
	MonthlyReport(ctx context.Context, year int) (*MonthlyReport, error)
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type Service struct {
	store StatsStore
	clock Clock
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db), clock: realClock{}}
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	return s.store.Dashboard(ctx, s.clock.Now())
}

func (s *Service) MostBorrowed(ctx context.Context, period string, limit int) ([]MostBorrowedEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	since, err := periodStart(s.clock.Now(), period)
	if err != nil {
		return nil, err
	}
	return s.store.MostBorrowed(ctx, since, limit)
}

func (s *Service) UserCategories(ctx context.Context) ([]UserCategoryStat, error) {
	return s.store.UserCategories(ctx)
}

func (s *Service) ReadingPatterns(ctx context.Context) ([]MonthPattern, error) {
	return s.store.ReadingPatterns(ctx)
}

func (s *Service) MonthlyReport(ctx context.Context, year int) (*MonthlyReport, error) {
	if year == 0 {
		year = s.clock.Now().Year()
	}
	if year < 1970 || year > s.clock.Now().Year()+1 {
		return nil, ErrValidation("year is out of range")
	}
	return s.store.MonthlyReport(ctx, year)
}

// periodStart maps a period keyword to the start of its reporting window.
// The zero time means no lower bound.
func periodStart(now time.Time, period string) (time.Time, error) {
	switch period {
	case "", PeriodAll:
		return time.Time{}, nil
	case PeriodWeek:
		return now.AddDate(0, 0, -7), nil
	case PeriodMonth:
		return now.AddDate(0, -1, 0), nil
	case PeriodYear:
		return now.AddDate(-1, 0, 0), nil
	default:
		return time.Time{}, ErrValidation("period must be one of all, week, month, year")
	}
}
