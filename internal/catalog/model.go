package catalog

import (
	"database/sql"
	"time"
)

// Book is one row of the books table. available_copies is owned here but
// mutated by the lending workflow; catalog edits re-clamp it to total_copies.
type Book struct {
	BookID          int64
	Title           string
	Author          string
	Category        string
	ISBN            sql.NullString
	PublishedYear   sql.NullInt64
	Description     sql.NullString
	TotalCopies     int
	AvailableCopies int
	CreatedAt       time.Time
}
