package lending

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	platformdb "github.com/Shabex007/epcet-smartlibrary/internal/platform/db"
)

// Store is the data-access surface the workflow engine runs on. Each Exec*
// method is one atomic unit: every read and write inside it observes a
// consistent snapshot and commits or rolls back as a whole.
type Store interface {
	ExecBorrow(ctx context.Context, t *Transaction) error
	ExecReturn(ctx context.Context, ulid string, now time.Time, fineRatePerDay int64) (*Transaction, error)
	ExecRenew(ctx context.Context, ulid string, additionalDays, maxRenewals int) (*Transaction, error)
	SweepOverdue(ctx context.Context, now time.Time) (int64, error)
	GetByULID(ctx context.Context, ulid string) (*Transaction, error)
	List(ctx context.Context, f TransactionFilter, p Page) ([]Transaction, int64, error)
	ListOverdue(ctx context.Context, now time.Time) ([]Transaction, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const resolvedColumns = `
	t.transaction_id, t.transaction_ulid, t.book_id, t.user_id,
	t.borrow_date, t.due_date, t.return_date, t.status, t.renewal_count, t.fine_amount,
	b.title, b.author, b.category,
	u.name, u.email, u.user_type`

const resolvedFrom = `
	FROM transactions t
	JOIN books b ON b.book_id = t.book_id
	JOIN users u ON u.user_id = t.user_id`

func scanResolved(row *sql.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID, &t.ULID, &t.BookID, &t.UserID,
		&t.BorrowDate, &t.DueDate, &t.ReturnDate, &t.Status, &t.RenewalCount, &t.FineAmount,
		&t.Book.Title, &t.Book.Author, &t.Book.Category,
		&t.User.Name, &t.User.Email, &t.User.UserType,
	)
	if err != nil {
		return nil, err
	}
	t.Book.BookID = t.BookID
	t.User.UserID = t.UserID
	return &t, nil
}

func getResolved(ctx context.Context, q platformdb.DBTX, ulid string) (*Transaction, error) {
	query := `SELECT` + resolvedColumns + resolvedFrom + ` WHERE t.transaction_ulid = ?`
	t, err := scanResolved(q.QueryRowContext(ctx, query, ulid))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound("transaction not found")
	}
	return t, err
}

// ===== Transactional methods =====

// ExecBorrow runs the full borrow flow in one transaction: the book row is
// locked so the availability check and the decrement are indivisible with
// respect to concurrent borrows and returns of the same book.
func (s *SQLStore) ExecBorrow(ctx context.Context, t *Transaction) (err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// 1. Patron must exist and be active.
	const userQ = `SELECT user_id, name, email, user_type, is_active FROM users WHERE user_id = ?`
	var active bool
	if err = tx.QueryRowContext(ctx, userQ, t.UserID).Scan(
		&t.User.UserID, &t.User.Name, &t.User.Email, &t.User.UserType, &active,
	); err != nil {
		if err == sql.ErrNoRows {
			err = ErrNotFound("user not found")
		}
		return err
	}
	if !active {
		err = ErrInactiveUser("user account is deactivated")
		return err
	}

	// 2. Lock the inventory row.
	const bookQ = `
		SELECT book_id, title, author, category, available_copies
		FROM books WHERE book_id = ? FOR UPDATE`
	var available int
	if err = tx.QueryRowContext(ctx, bookQ, t.BookID).Scan(
		&t.Book.BookID, &t.Book.Title, &t.Book.Author, &t.Book.Category, &available,
	); err != nil {
		if err == sql.ErrNoRows {
			err = ErrNotFound("book not found")
		}
		return err
	}

	// 3. No second open loan for the same (user, book) pair.
	const dupQ = `
		SELECT COUNT(*) FROM transactions
		WHERE user_id = ? AND book_id = ? AND status IN ('borrowed', 'overdue')`
	var open int
	if err = tx.QueryRowContext(ctx, dupQ, t.UserID, t.BookID).Scan(&open); err != nil {
		return err
	}
	if open > 0 {
		err = ErrDuplicateBorrow("user already has an open loan for this book")
		return err
	}

	// 4. Conditional decrement. The loser of a race on the last copy sees
	// zero rows affected here rather than driving availability negative.
	const decQ = `
		UPDATE books SET available_copies = available_copies - 1
		WHERE book_id = ? AND available_copies >= 1`
	res, err := tx.ExecContext(ctx, decQ, t.BookID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		err = ErrUnavailable("no copies available")
		return err
	}

	// 5. Insert the ledger entry.
	const insQ = `
		INSERT INTO transactions
		(transaction_ulid, book_id, user_id, borrow_date, due_date, status, renewal_count, fine_amount)
		VALUES (?, ?, ?, ?, ?, 'borrowed', 0, 0)`
	res, err = tx.ExecContext(ctx, insQ, t.ULID, t.BookID, t.UserID, t.BorrowDate, t.DueDate)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	t.ID = id
	t.Status = StatusBorrowed

	return tx.Commit()
}

// ExecReturn closes a ledger entry: the transaction row is locked, the fine is
// computed from due_date vs now, and availability is restored with a clamp so
// a shrunk total_copies is never exceeded. Returning twice fails without a
// second increment.
func (s *SQLStore) ExecReturn(ctx context.Context, ulid string, now time.Time, fineRatePerDay int64) (t *Transaction, err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const lockQ = `
		SELECT transaction_id, book_id, due_date, status
		FROM transactions WHERE transaction_ulid = ? FOR UPDATE`
	var (
		id      int64
		bookID  int64
		dueDate time.Time
		status  Status
	)
	if err = tx.QueryRowContext(ctx, lockQ, ulid).Scan(&id, &bookID, &dueDate, &status); err != nil {
		if err == sql.ErrNoRows {
			err = ErrNotFound("transaction not found")
		}
		return nil, err
	}
	if status == StatusReturned {
		err = ErrAlreadyReturned("transaction already returned")
		return nil, err
	}

	fine := FineFor(dueDate, now, fineRatePerDay)

	// Conditional on the prior status so a concurrent return cannot slip
	// through between the lock and the write.
	const updQ = `
		UPDATE transactions
		SET status = 'returned', return_date = ?, fine_amount = ?
		WHERE transaction_id = ? AND status <> 'returned'`
	res, err := tx.ExecContext(ctx, updQ, now, fine, id)
	if err != nil {
		return nil, err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		err = ErrAlreadyReturned("transaction already returned")
		return nil, err
	}

	// Restore the copy, clamped to total_copies in case the catalog shrank
	// the inventory while the loan was open.
	const incQ = `
		UPDATE books
		SET available_copies = LEAST(available_copies + 1, total_copies)
		WHERE book_id = ?`
	if _, err = tx.ExecContext(ctx, incQ, bookID); err != nil {
		return nil, err
	}

	if t, err = getResolved(ctx, tx, ulid); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return t, nil
}

// ExecRenew extends the due date of a still-borrowed entry. The update is a
// compare-and-swap on (status, renewal_count); a lost race surfaces as a
// retryable conflict.
func (s *SQLStore) ExecRenew(ctx context.Context, ulid string, additionalDays, maxRenewals int) (t *Transaction, err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const lockQ = `
		SELECT transaction_id, status, renewal_count
		FROM transactions WHERE transaction_ulid = ? FOR UPDATE`
	var (
		id      int64
		status  Status
		renewed int
	)
	if err = tx.QueryRowContext(ctx, lockQ, ulid).Scan(&id, &status, &renewed); err != nil {
		if err == sql.ErrNoRows {
			err = ErrNotFound("transaction not found")
		}
		return nil, err
	}
	if status != StatusBorrowed {
		err = ErrInvalidState(fmt.Sprintf("cannot renew a %s transaction", status))
		return nil, err
	}
	if renewed >= maxRenewals {
		err = ErrRenewalLimit(fmt.Sprintf("renewal limit of %d reached", maxRenewals))
		return nil, err
	}

	const updQ = `
		UPDATE transactions
		SET due_date = DATE_ADD(due_date, INTERVAL ? DAY), renewal_count = renewal_count + 1
		WHERE transaction_id = ? AND status = 'borrowed' AND renewal_count = ?`
	res, err := tx.ExecContext(ctx, updQ, additionalDays, id, renewed)
	if err != nil {
		return nil, err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		err = ErrConflict("transaction changed concurrently, retry")
		return nil, err
	}

	if t, err = getResolved(ctx, tx, ulid); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return t, nil
}

// SweepOverdue flips every stale borrowed entry in one conditional update.
// Keying on status = 'borrowed' means a return or renew committed mid-sweep is
// never clobbered: MySQL applies the condition per row at write time.
func (s *SQLStore) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE transactions SET status = 'overdue'
		WHERE status = 'borrowed' AND due_date < ?`
	res, err := s.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}

// ===== Queries =====

func (s *SQLStore) GetByULID(ctx context.Context, ulid string) (*Transaction, error) {
	return getResolved(ctx, s.db, ulid)
}

func (s *SQLStore) List(ctx context.Context, f TransactionFilter, p Page) ([]Transaction, int64, error) {
	where := strings.Builder{}
	where.WriteString(` WHERE 1=1`)
	args := []any{}
	if f.Status != nil {
		where.WriteString(` AND t.status = ?`)
		args = append(args, *f.Status)
	}
	if f.BookID != nil {
		where.WriteString(` AND t.book_id = ?`)
		args = append(args, *f.BookID)
	}
	if f.UserID != nil {
		where.WriteString(` AND t.user_id = ?`)
		args = append(args, *f.UserID)
	}

	order := "DESC"
	if strings.ToLower(p.Order) == "asc" {
		order = "ASC"
	}
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	query := `SELECT` + resolvedColumns + resolvedFrom + where.String() +
		fmt.Sprintf(` ORDER BY t.borrow_date %s, t.transaction_id %s LIMIT ? OFFSET ?`, order, order)
	rows, err := s.db.QueryContext(ctx, query, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID, &t.ULID, &t.BookID, &t.UserID,
			&t.BorrowDate, &t.DueDate, &t.ReturnDate, &t.Status, &t.RenewalCount, &t.FineAmount,
			&t.Book.Title, &t.Book.Author, &t.Book.Category,
			&t.User.Name, &t.User.Email, &t.User.UserType,
		); err != nil {
			return nil, 0, err
		}
		t.Book.BookID = t.BookID
		t.User.UserID = t.UserID
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	countQ := `SELECT COUNT(*)` + resolvedFrom + where.String()
	if err := s.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListOverdue returns every open entry past due, whether or not the sweeper has
// flipped it yet.
func (s *SQLStore) ListOverdue(ctx context.Context, now time.Time) ([]Transaction, error) {
	query := `SELECT` + resolvedColumns + resolvedFrom +
		` WHERE t.status = 'overdue' OR (t.status = 'borrowed' AND t.due_date < ?)
		ORDER BY t.due_date ASC`
	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID, &t.ULID, &t.BookID, &t.UserID,
			&t.BorrowDate, &t.DueDate, &t.ReturnDate, &t.Status, &t.RenewalCount, &t.FineAmount,
			&t.Book.Title, &t.Book.Author, &t.Book.Category,
			&t.User.Name, &t.User.Email, &t.User.UserType,
		); err != nil {
			return nil, err
		}
		t.Book.BookID = t.BookID
		t.User.UserID = t.UserID
		out = append(out, t)
	}
	return out, rows.Err()
}
