package lending

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// fakeBook and fakeUser mirror the rows the SQL store would join against.
type fakeBook struct {
	title     string
	author    string
	category  string
	total     int64
	available int64
}

type fakeUser struct {
	name     string
	email    string
	userType string
	active   bool
}

// fakeStore implements Store in memory with the same conditional-update
// semantics the SQL store gets from the database, so service tests exercise
// the full workflow including races.
type fakeStore struct {
	mu     sync.Mutex
	books  map[int64]*fakeBook
	users  map[int64]*fakeUser
	txs    map[string]*Transaction
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		books: map[int64]*fakeBook{},
		users: map[int64]*fakeUser{},
		txs:   map[string]*Transaction{},
	}
}

func (f *fakeStore) addBook(id int64, copies int64) {
	f.books[id] = &fakeBook{
		title:     fmt.Sprintf("Book %d", id),
		author:    "Author",
		category:  "Fiction",
		total:     copies,
		available: copies,
	}
}

func (f *fakeStore) addUser(id int64, active bool) {
	f.users[id] = &fakeUser{
		name:     fmt.Sprintf("User %d", id),
		email:    fmt.Sprintf("user%d@example.com", id),
		userType: "student",
		active:   active,
	}
}

func (f *fakeStore) resolve(t *Transaction) {
	if b, ok := f.books[t.BookID]; ok {
		t.Book = BookSummary{BookID: t.BookID, Title: b.title, Author: b.author, Category: b.category}
	}
	if u, ok := f.users[t.UserID]; ok {
		t.User = UserSummary{UserID: t.UserID, Name: u.name, Email: u.email, UserType: u.userType}
	}
}

func (f *fakeStore) ExecBorrow(_ context.Context, t *Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[t.UserID]
	if !ok {
		return ErrNotFound("user not found")
	}
	if !u.active {
		return ErrInactiveUser("user account is inactive")
	}
	b, ok := f.books[t.BookID]
	if !ok {
		return ErrNotFound("book not found")
	}
	for _, existing := range f.txs {
		if existing.UserID == t.UserID && existing.BookID == t.BookID && existing.Status.Open() {
			return ErrDuplicateBorrow("user already has this book on loan")
		}
	}
	if b.available < 1 {
		return ErrUnavailable("no copies available")
	}
	b.available--

	f.nextID++
	t.ID = f.nextID
	cp := *t
	f.txs[t.ULID] = &cp
	f.resolve(t)
	return nil
}

func (f *fakeStore) ExecReturn(_ context.Context, ulid string, now time.Time, fineRatePerDay int64) (*Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.txs[ulid]
	if !ok {
		return nil, ErrNotFound("transaction not found")
	}
	if t.Status == StatusReturned {
		return nil, ErrAlreadyReturned("transaction already returned")
	}

	t.FineAmount = FineFor(t.DueDate, now, fineRatePerDay)
	t.Status = StatusReturned
	t.ReturnDate.Time, t.ReturnDate.Valid = now, true

	if b, ok := f.books[t.BookID]; ok && b.available < b.total {
		b.available++
	}

	cp := *t
	f.resolve(&cp)
	return &cp, nil
}

func (f *fakeStore) ExecRenew(_ context.Context, ulid string, additionalDays, maxRenewals int) (*Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.txs[ulid]
	if !ok {
		return nil, ErrNotFound("transaction not found")
	}
	if t.Status != StatusBorrowed {
		return nil, ErrInvalidState(fmt.Sprintf("cannot renew a transaction in status %q", t.Status))
	}
	if t.RenewalCount >= maxRenewals {
		return nil, ErrRenewalLimit("renewal limit reached")
	}

	t.DueDate = t.DueDate.AddDate(0, 0, additionalDays)
	t.RenewalCount++

	cp := *t
	f.resolve(&cp)
	return &cp, nil
}

func (f *fakeStore) SweepOverdue(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, t := range f.txs {
		if t.Status == StatusBorrowed && t.DueDate.Before(now) {
			t.Status = StatusOverdue
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) GetByULID(_ context.Context, ulid string) (*Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.txs[ulid]
	if !ok {
		return nil, ErrNotFound("transaction not found")
	}
	cp := *t
	f.resolve(&cp)
	return &cp, nil
}

func (f *fakeStore) List(_ context.Context, filter TransactionFilter, p Page) ([]Transaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Transaction
	for _, t := range f.txs {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.BookID != nil && t.BookID != *filter.BookID {
			continue
		}
		if filter.UserID != nil && t.UserID != *filter.UserID {
			continue
		}
		cp := *t
		f.resolve(&cp)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	total := int64(len(out))
	if p.Offset > 0 {
		if p.Offset >= len(out) {
			out = nil
		} else {
			out = out[p.Offset:]
		}
	}
	if p.Limit > 0 && p.Limit < len(out) {
		out = out[:p.Limit]
	}
	return out, total, nil
}

func (f *fakeStore) ListOverdue(_ context.Context, now time.Time) ([]Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Transaction
	for _, t := range f.txs {
		if t.Status == StatusOverdue || (t.Status == StatusBorrowed && t.DueDate.Before(now)) {
			cp := *t
			f.resolve(&cp)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== test doubles for the service collaborators =====

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) New() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("01TESTULID%016d", g.n), nil
}
