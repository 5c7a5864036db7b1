package lending

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Shabex007/epcet-smartlibrary/internal/platform/metrics"
)

// ===== Injectable collaborators =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Policy carries the configured lending rules.
type Policy struct {
	FineRatePerDay     int64
	DefaultLoanDays    int
	DefaultRenewalDays int
	MaxRenewals        int
}

// ===== Service =====

type Service struct {
	store  Store
	clock  Clock
	id     IDGen
	policy Policy
}

func NewService(conn *sql.DB, p Policy) *Service {
	return &Service{
		store:  NewStore(conn),
		clock:  realClock{},
		id:     ulidGen{},
		policy: p,
	}
}

// Borrow issues a new loan: one atomic unit spanning the patron check, the
// inventory decrement and the ledger insert.
func (s *Service) Borrow(ctx context.Context, req BorrowRequest) (*TransactionResponse, error) {
	var violations []string
	if req.BookID <= 0 {
		violations = append(violations, "bookId must be a positive integer")
	}
	if req.UserID <= 0 {
		violations = append(violations, "userId must be a positive integer")
	}
	days := s.policy.DefaultLoanDays
	if req.Days != nil {
		if *req.Days <= 0 {
			violations = append(violations, "days must be a positive integer")
		} else {
			days = *req.Days
		}
	}
	if len(violations) > 0 {
		return nil, ErrValidation(violations)
	}

	idStr, err := s.id.New()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	t := &Transaction{
		ULID:       idStr,
		BookID:     req.BookID,
		UserID:     req.UserID,
		BorrowDate: now,
		DueDate:    now.AddDate(0, 0, days),
		Status:     StatusBorrowed,
	}

	if err := s.store.ExecBorrow(ctx, t); err != nil {
		metrics.BorrowsTotal.WithLabelValues(opResult(err)).Inc()
		return nil, err
	}
	metrics.BorrowsTotal.WithLabelValues(metrics.ResultOK).Inc()

	resp := buildTransactionResponse(t, now)
	return &resp, nil
}

// Return closes a loan, computes the fine and restores availability.
func (s *Service) Return(ctx context.Context, req ReturnRequest) (*TransactionResponse, error) {
	if req.TransactionID == "" {
		return nil, ErrValidation([]string{"transactionId is required"})
	}

	now := s.clock.Now().UTC()
	t, err := s.store.ExecReturn(ctx, req.TransactionID, now, s.policy.FineRatePerDay)
	if err != nil {
		metrics.ReturnsTotal.WithLabelValues(opResult(err)).Inc()
		return nil, err
	}
	metrics.ReturnsTotal.WithLabelValues(metrics.ResultOK).Inc()
	if t.FineAmount > 0 {
		metrics.FinesAssessedTotal.Add(float64(t.FineAmount))
	}

	resp := buildTransactionResponse(t, now)
	return &resp, nil
}

// Renew extends a still-borrowed loan's due date, capped by policy. The copy is
// already out, so availability is not re-checked. Entries the sweeper has
// flipped to overdue must be returned, not renewed.
func (s *Service) Renew(ctx context.Context, req RenewRequest) (*TransactionResponse, error) {
	var violations []string
	if req.TransactionID == "" {
		violations = append(violations, "transactionId is required")
	}
	days := s.policy.DefaultRenewalDays
	if req.AdditionalDays != nil {
		if *req.AdditionalDays <= 0 {
			violations = append(violations, "additionalDays must be a positive integer")
		} else {
			days = *req.AdditionalDays
		}
	}
	if len(violations) > 0 {
		return nil, ErrValidation(violations)
	}

	t, err := s.store.ExecRenew(ctx, req.TransactionID, days, s.policy.MaxRenewals)
	if err != nil {
		metrics.RenewalsTotal.WithLabelValues(opResult(err)).Inc()
		return nil, err
	}
	metrics.RenewalsTotal.WithLabelValues(metrics.ResultOK).Inc()

	resp := buildTransactionResponse(t, s.clock.Now().UTC())
	return &resp, nil
}

// SweepOverdue reclassifies stale borrowed entries and reports the count.
func (s *Service) SweepOverdue(ctx context.Context) (int64, error) {
	n, err := s.store.SweepOverdue(ctx, s.clock.Now().UTC())
	if err != nil {
		return 0, err
	}
	metrics.OverdueSweptTotal.Add(float64(n))
	return n, nil
}

// Get fetches a single resolved transaction by its external ID.
func (s *Service) Get(ctx context.Context, transactionID string) (*TransactionResponse, error) {
	if transactionID == "" {
		return nil, ErrValidation([]string{"transactionId is required"})
	}
	t, err := s.store.GetByULID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	resp := buildTransactionResponse(t, s.clock.Now().UTC())
	return &resp, nil
}

// List returns resolved transactions with an optional status filter.
func (s *Service) List(ctx context.Context, statusStr string, p Page) ([]TransactionResponse, int64, error) {
	var f TransactionFilter
	if statusStr != "" {
		if !ValidStatus(statusStr) {
			return nil, 0, ErrValidation([]string{fmt.Sprintf("status must be one of borrowed, returned, overdue (got %q)", statusStr)})
		}
		st := Status(statusStr)
		f.Status = &st
	}

	items, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}

	now := s.clock.Now().UTC()
	out := make([]TransactionResponse, 0, len(items))
	for i := range items {
		out = append(out, buildTransactionResponse(&items[i], now))
	}
	return out, total, nil
}

// ListOverdue returns every open entry past due with the computed overdue days,
// including ones the sweeper has not flipped yet.
func (s *Service) ListOverdue(ctx context.Context) ([]TransactionResponse, error) {
	now := s.clock.Now().UTC()
	items, err := s.store.ListOverdue(ctx, now)
	if err != nil {
		return nil, err
	}
	out := make([]TransactionResponse, 0, len(items))
	for i := range items {
		out = append(out, buildTransactionResponse(&items[i], now))
	}
	return out, nil
}

func opResult(err error) string {
	if IsBusinessError(err) {
		return metrics.ResultRejected
	}
	return metrics.ResultError
}
