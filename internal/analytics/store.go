package analytics

import (
	"context"
	"database/sql"
	"time"

	platformdb "github.com/Shabex007/epcet-smartlibrary/internal/platform/db"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Dashboard reads all the widgets inside one read-only transaction so the
// counters describe a single point in time.
func (s *Store) Dashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	var d Dashboard
	err := platformdb.ReadOnly(ctx, s.db, func(ctx context.Context, tx platformdb.DBTX) error {
		const overviewQ = `
		SELECT
			(SELECT COUNT(*) FROM books),
			(SELECT COALESCE(SUM(available_copies), 0) FROM books),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM transactions WHERE status IN ('borrowed', 'overdue')),
			(SELECT COUNT(*) FROM transactions),
			(SELECT COUNT(*) FROM transactions
				WHERE status = 'overdue' OR (status = 'borrowed' AND due_date < ?))`
		if err := tx.QueryRowContext(ctx, overviewQ, now).Scan(
			&d.Overview.TotalBooks,
			&d.Overview.AvailableBooks,
			&d.Overview.TotalUsers,
			&d.Overview.ActiveBorrows,
			&d.Overview.TotalTransactions,
			&d.Overview.OverdueBooks,
		); err != nil {
			return err
		}

		const categoriesQ = `
		SELECT b.category, COUNT(*) AS cnt
		FROM transactions t
		JOIN books b ON b.book_id = t.book_id
		GROUP BY b.category
		ORDER BY cnt DESC, b.category ASC
		LIMIT 5`
		rows, err := tx.QueryContext(ctx, categoriesQ)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var c CategoryCount
			if err := rows.Scan(&c.Category, &c.Count); err != nil {
				return err
			}
			d.PopularCategories = append(d.PopularCategories, c)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		const typesQ = `
		SELECT user_type, COUNT(*) FROM users GROUP BY user_type ORDER BY user_type`
		typeRows, err := tx.QueryContext(ctx, typesQ)
		if err != nil {
			return err
		}
		defer typeRows.Close()
		for typeRows.Next() {
			var t UserTypeCount
			if err := typeRows.Scan(&t.UserType, &t.Count); err != nil {
				return err
			}
			d.UserTypeStats = append(d.UserTypeStats, t)
		}
		return typeRows.Err()
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// MostBorrowed returns the top titles by loan count. A zero `since` means
// all time, otherwise only loans started at or after it count.
func (s *Store) MostBorrowed(ctx context.Context, since time.Time, limit int) ([]MostBorrowedEntry, error) {
	q := `
	SELECT b.book_id, b.title, b.author, b.category, COUNT(*) AS cnt
	FROM transactions t
	JOIN books b ON b.book_id = t.book_id`
	args := []any{}
	if !since.IsZero() {
		q += ` WHERE t.borrow_date >= ?`
		args = append(args, since)
	}
	q += `
	GROUP BY b.book_id, b.title, b.author, b.category
	ORDER BY cnt DESC, b.book_id ASC
	LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MostBorrowedEntry{}
	for rows.Next() {
		var e MostBorrowedEntry
		if err := rows.Scan(&e.BookID, &e.Title, &e.Author, &e.Category, &e.BorrowCount); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UserCategories cross-tabulates loans by patron type and book category.
func (s *Store) UserCategories(ctx context.Context) ([]UserCategoryStat, error) {
	const q = `
	SELECT u.user_type, b.category, COUNT(*) AS cnt
	FROM transactions t
	JOIN users u ON u.user_id = t.user_id
	JOIN books b ON b.book_id = t.book_id
	GROUP BY u.user_type, b.category
	ORDER BY u.user_type ASC, cnt DESC, b.category ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []UserCategoryStat{}
	idx := map[string]int{}
	for rows.Next() {
		var userType string
		var c CategoryCount
		if err := rows.Scan(&userType, &c.Category, &c.Count); err != nil {
			return nil, err
		}
		i, ok := idx[userType]
		if !ok {
			out = append(out, UserCategoryStat{UserType: userType})
			i = len(out) - 1
			idx[userType] = i
		}
		out[i].Categories = append(out[i].Categories, c)
		out[i].Total += c.Count
	}
	return out, rows.Err()
}

// ReadingPatterns groups loan starts by calendar month across all years and
// averages how long completed loans ran.
func (s *Store) ReadingPatterns(ctx context.Context) ([]MonthPattern, error) {
	const q = `
	SELECT MONTH(borrow_date) AS m,
	       COUNT(*),
	       AVG(CASE WHEN return_date IS NOT NULL THEN DATEDIFF(return_date, borrow_date) END)
	FROM transactions
	GROUP BY m
	ORDER BY m ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MonthPattern{}
	for rows.Next() {
		var p MonthPattern
		var avg sql.NullFloat64
		if err := rows.Scan(&p.Month, &p.Borrows, &avg); err != nil {
			return nil, err
		}
		if avg.Valid {
			v := avg.Float64
			p.AvgLoanDuration = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MonthlyReport counts borrows, returns, and overdue markings per month of
// the given year. Every month appears even when it saw no activity.
func (s *Store) MonthlyReport(ctx context.Context, year int) (*MonthlyReport, error) {
	report := &MonthlyReport{Year: year, Months: make([]MonthlyReportRow, 12)}
	for i := range report.Months {
		report.Months[i].Month = i + 1
	}

	const q = `
	SELECT MONTH(borrow_date),
	       COUNT(*),
	       SUM(CASE WHEN return_date IS NOT NULL AND YEAR(return_date) = ? THEN 1 ELSE 0 END),
	       SUM(CASE WHEN status = 'overdue' THEN 1 ELSE 0 END)
	FROM transactions
	WHERE YEAR(borrow_date) = ?
	GROUP BY MONTH(borrow_date)`

	rows, err := s.db.QueryContext(ctx, q, year, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var month int
		var borrows, returns, overdue int64
		if err := rows.Scan(&month, &borrows, &returns, &overdue); err != nil {
			return nil, err
		}
		if month < 1 || month > 12 {
			continue
		}
		report.Months[month-1].Borrows = borrows
		report.Months[month-1].Returns = returns
		report.Months[month-1].Overdue = overdue
	}
	return report, rows.Err()
}
