package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	platformdb "github.com/Shabex007/epcet-smartlibrary/internal/platform/db"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const bookColumns = `book_id, title, author, category, isbn, published_year, description, total_copies, available_copies, created_at`

func scanBook(row *sql.Row) (*Book, error) {
	var b Book
	err := row.Scan(
		&b.BookID, &b.Title, &b.Author, &b.Category, &b.ISBN, &b.PublishedYear,
		&b.Description, &b.TotalCopies, &b.AvailableCopies, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) Insert(ctx context.Context, b *Book) error {
	const q = `
	INSERT INTO books
	(title, author, category, isbn, published_year, description, total_copies, available_copies, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`
	res, err := s.db.ExecContext(ctx, q,
		b.Title, b.Author, b.Category, nullStrOrNil(b.ISBN), nullIntOrNil(b.PublishedYear),
		nullStrOrNil(b.Description), b.TotalCopies, b.AvailableCopies,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	b.BookID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, bookID int64) (*Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books WHERE book_id = ?`
	b, err := scanBook(s.db.QueryRowContext(ctx, q, bookID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound("book not found")
	}
	return b, err
}

// Update applies the edit inside a transaction so the availableCopies clamp
// sees a locked row, not a stale read.
func (s *Store) Update(ctx context.Context, bookID int64, in UpdateBookRequest) (*Book, error) {
	var out *Book
	err := platformdb.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx platformdb.DBTX) error {
		const lockQ = `SELECT ` + bookColumns + ` FROM books WHERE book_id = ? FOR UPDATE`
		b, err := scanBook(tx.QueryRowContext(ctx, lockQ, bookID))
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound("book not found")
			}
			return err
		}

		if in.Title != nil {
			b.Title = *in.Title
		}
		if in.Author != nil {
			b.Author = *in.Author
		}
		if in.Category != nil {
			b.Category = *in.Category
		}
		if in.ISBN != nil {
			b.ISBN = sql.NullString{String: *in.ISBN, Valid: *in.ISBN != ""}
		}
		if in.PublishedYear != nil {
			b.PublishedYear = sql.NullInt64{Int64: int64(*in.PublishedYear), Valid: true}
		}
		if in.Description != nil {
			b.Description = sql.NullString{String: *in.Description, Valid: *in.Description != ""}
		}
		if in.TotalCopies != nil {
			b.TotalCopies = *in.TotalCopies
		}
		if in.AvailableCopies != nil {
			b.AvailableCopies = *in.AvailableCopies
		}

		// Invariant repair: shrinking the inventory re-clamps availability.
		if b.AvailableCopies > b.TotalCopies {
			b.AvailableCopies = b.TotalCopies
		}

		const updQ = `
		UPDATE books
		SET title = ?, author = ?, category = ?, isbn = ?, published_year = ?, description = ?,
		    total_copies = ?, available_copies = ?
		WHERE book_id = ?`
		if _, err := tx.ExecContext(ctx, updQ,
			b.Title, b.Author, b.Category, nullStrOrNil(b.ISBN), nullIntOrNil(b.PublishedYear),
			nullStrOrNil(b.Description), b.TotalCopies, b.AvailableCopies, b.BookID,
		); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a book unless it still has open loans.
func (s *Store) Delete(ctx context.Context, bookID int64) error {
	return platformdb.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx platformdb.DBTX) error {
		const openQ = `
		SELECT COUNT(*) FROM transactions
		WHERE book_id = ? AND status IN ('borrowed', 'overdue')`
		var open int
		if err := tx.QueryRowContext(ctx, openQ, bookID).Scan(&open); err != nil {
			return err
		}
		if open > 0 {
			return ErrConflict("book has open loans")
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE book_id = ?`, bookID)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff == 0 {
			return ErrNotFound("book not found")
		}
		return nil
	})
}

func (s *Store) List(ctx context.Context, q SearchQuery, p Page) ([]Book, int64, error) {
	where := strings.Builder{}
	where.WriteString(` WHERE 1=1`)
	args := []any{}
	if q.Search != "" {
		where.WriteString(` AND (title LIKE ? OR author LIKE ? OR category LIKE ?)`)
		like := "%" + q.Search + "%"
		args = append(args, like, like, like)
	}
	if q.Category != "" {
		where.WriteString(` AND category = ?`)
		args = append(args, q.Category)
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

	query := `SELECT ` + bookColumns + ` FROM books` + where.String() +
		fmt.Sprintf(` ORDER BY created_at %s, book_id %s LIMIT ? OFFSET ?`, order, order)
	rows, err := s.db.QueryContext(ctx, query, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(
			&b.BookID, &b.Title, &b.Author, &b.Category, &b.ISBN, &b.PublishedYear,
			&b.Description, &b.TotalCopies, &b.AvailableCopies, &b.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	countQ := `SELECT COUNT(*) FROM books` + where.String()
	if err := s.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM books ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullStrOrNil(ns sql.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return nil
}

func nullIntOrNil(ni sql.NullInt64) any {
	if ni.Valid {
		return ni.Int64
	}
	return nil
}
