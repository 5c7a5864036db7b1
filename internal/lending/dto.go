package lending

import "time"

type BorrowRequest struct {
	BookID int64 `json:"bookId"`
	UserID int64 `json:"userId"`
	// Loan duration in days. Defaults to the configured policy (14).
	Days *int `json:"days,omitempty"`
}

type ReturnRequest struct {
	TransactionID string `json:"transactionId"`
}

type RenewRequest struct {
	TransactionID string `json:"transactionId"`
	// Extension in days. Defaults to the configured policy (7).
	AdditionalDays *int `json:"additionalDays,omitempty"`
}

type BookInfo struct {
	BookID   int64  `json:"bookId"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category"`
}

type UserInfo struct {
	UserID   int64  `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
}

type TransactionResponse struct {
	TransactionID string     `json:"transactionId"`
	Book          BookInfo   `json:"book"`
	User          UserInfo   `json:"user"`
	BorrowDate    time.Time  `json:"borrowDate"`
	DueDate       time.Time  `json:"dueDate"`
	ReturnDate    *time.Time `json:"returnDate,omitempty"`
	Status        Status     `json:"status"`
	RenewalCount  int        `json:"renewalCount"`
	FineAmount    int64      `json:"fineAmount"`
	OverdueDays   int        `json:"overdueDays,omitempty"`
}

type SweepResponse struct {
	Updated int64 `json:"updated"`
}

// Transaction list filter.
type TransactionFilter struct {
	Status *Status
	BookID *int64
	UserID *int64
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}

func buildTransactionResponse(t *Transaction, now time.Time) TransactionResponse {
	resp := TransactionResponse{
		TransactionID: t.ULID,
		Book: BookInfo{
			BookID:   t.BookID,
			Title:    t.Book.Title,
			Author:   t.Book.Author,
			Category: t.Book.Category,
		},
		User: UserInfo{
			UserID:   t.UserID,
			Name:     t.User.Name,
			Email:    t.User.Email,
			UserType: t.User.UserType,
		},
		BorrowDate:   t.BorrowDate,
		DueDate:      t.DueDate,
		Status:       t.Status,
		RenewalCount: t.RenewalCount,
		FineAmount:   t.FineAmount,
	}
	if t.ReturnDate.Valid {
		val := t.ReturnDate.Time
		resp.ReturnDate = &val
	}
	if t.Status.Open() {
		resp.OverdueDays = OverdueDays(t.DueDate, now)
	}
	return resp
}
