package patron

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const userColumns = `user_id, name, email, user_type, department, is_active, created_at`

// MySQL duplicate-key error number.
const erDupEntry = 1062

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.UserID, &u.Name, &u.Email, &u.UserType, &u.Department, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) Insert(ctx context.Context, u *User) error {
	const q = `
	INSERT INTO users (name, email, user_type, department, is_active, created_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`
	res, err := s.db.ExecContext(ctx, q, u.Name, u.Email, u.UserType, nullStrOrNil(u.Department), u.IsActive)
	if err != nil {
		if me, ok := err.(*mysql.MySQLError); ok && me.Number == erDupEntry {
			return ErrConflict("email already registered")
		}
		return err
	}
	id, _ := res.LastInsertId()
	u.UserID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, userID int64) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE user_id = ?`
	u, err := scanUser(s.db.QueryRowContext(ctx, q, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound("user not found")
	}
	return u, err
}

func (s *Store) Update(ctx context.Context, userID int64, in UpdateUserRequest) (*User, error) {
	sets := []string{}
	args := []any{}
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *in.Name)
	}
	if in.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *in.Email)
	}
	if in.UserType != nil {
		sets = append(sets, "user_type = ?")
		args = append(args, *in.UserType)
	}
	if in.Department != nil {
		sets = append(sets, "department = ?")
		args = append(args, *in.Department)
	}
	if in.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *in.IsActive)
	}
	if len(sets) == 0 {
		return s.GetByID(ctx, userID)
	}
	args = append(args, userID)

	q := fmt.Sprintf(`UPDATE users SET %s WHERE user_id = ?`, strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		if me, ok := err.(*mysql.MySQLError); ok && me.Number == erDupEntry {
			return nil, ErrConflict("email already registered")
		}
		return nil, err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		// Either missing or unchanged; distinguish with a read.
		return s.GetByID(ctx, userID)
	}
	return s.GetByID(ctx, userID)
}

func (s *Store) List(ctx context.Context, f Filter, p Page) ([]User, int64, error) {
	where := strings.Builder{}
	where.WriteString(` WHERE 1=1`)
	args := []any{}
	if f.UserType != "" {
		where.WriteString(` AND user_type = ?`)
		args = append(args, f.UserType)
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

	query := `SELECT ` + userColumns + ` FROM users` + where.String() +
		fmt.Sprintf(` ORDER BY created_at %s, user_id %s LIMIT ? OFFSET ?`, order, order)
	rows, err := s.db.QueryContext(ctx, query, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.UserID, &u.Name, &u.Email, &u.UserType, &u.Department, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	countQ := `SELECT COUNT(*) FROM users` + where.String()
	if err := s.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func nullStrOrNil(ns sql.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return nil
}
