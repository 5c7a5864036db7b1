package lending

import (
	"database/sql"
	"time"
)

type Status string

const (
	StatusBorrowed Status = "borrowed"
	StatusReturned Status = "returned"
	StatusOverdue  Status = "overdue"
)

// Open reports whether the entry still consumes a copy (borrowed or overdue).
func (s Status) Open() bool { return s == StatusBorrowed || s == StatusOverdue }

func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusBorrowed, StatusReturned, StatusOverdue:
		return true
	}
	return false
}

// Transaction is one row of the transactions table, resolved with the joined
// book and user columns. The numeric ID stays internal; the ULID is the
// external handle.
type Transaction struct {
	ID           int64
	ULID         string
	BookID       int64
	UserID       int64
	BorrowDate   time.Time
	DueDate      time.Time
	ReturnDate   sql.NullTime
	Status       Status
	RenewalCount int
	FineAmount   int64

	Book BookSummary
	User UserSummary
}

type BookSummary struct {
	BookID   int64
	Title    string
	Author   string
	Category string
}

type UserSummary struct {
	UserID   int64
	Name     string
	Email    string
	UserType string
}

const day = 24 * time.Hour

// FineFor computes the fine for a return at the given instant. The fine depends
// only on dueDate vs returnedAt, never on the status column: a sweep that has
// already flipped the entry to overdue must not change the amount. Elapsed time
// past due is rounded up to whole days.
func FineFor(dueDate, returnedAt time.Time, ratePerDay int64) int64 {
	late := returnedAt.Sub(dueDate)
	if late <= 0 {
		return 0
	}
	days := int64((late + day - 1) / day)
	return days * ratePerDay
}

// OverdueDays reports how many whole days past due an open entry is, rounded up.
func OverdueDays(dueDate, now time.Time) int {
	late := now.Sub(dueDate)
	if late <= 0 {
		return 0
	}
	return int((late + day - 1) / day)
}
