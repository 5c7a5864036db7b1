package analytics

// Overview is the headline counter block on the dashboard.
type Overview struct {
	TotalBooks        int64 `json:"totalBooks"`
	AvailableBooks    int64 `json:"availableBooks"`
	TotalUsers        int64 `json:"totalUsers"`
	ActiveBorrows     int64 `json:"activeBorrows"`
	TotalTransactions int64 `json:"totalTransactions"`
	OverdueBooks      int64 `json:"overdueBooks"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type UserTypeCount struct {
	UserType string `json:"userType"`
	Count    int64  `json:"count"`
}

type Dashboard struct {
	Overview          Overview        `json:"overview"`
	PopularCategories []CategoryCount `json:"popularCategories"`
	UserTypeStats     []UserTypeCount `json:"userTypeStats"`
}

// MostBorrowedEntry ranks a single title by completed and open loans combined.
type MostBorrowedEntry struct {
	BookID      int64  `json:"bookId"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	BorrowCount int64  `json:"borrowCount"`
}

// UserCategoryStat breaks borrowing down by patron type and book category.
type UserCategoryStat struct {
	UserType   string          `json:"userType"`
	Total      int64           `json:"total"`
	Categories []CategoryCount `json:"categories"`
}

// MonthPattern aggregates one calendar month across all years.
type MonthPattern struct {
	Month           int      `json:"month"`
	Borrows         int64    `json:"borrows"`
	AvgLoanDuration *float64 `json:"avgLoanDuration,omitempty"`
}

// MonthlyReportRow is one month of a single year's lending report.
type MonthlyReportRow struct {
	Month   int   `json:"month"`
	Borrows int64 `json:"borrows"`
	Returns int64 `json:"returns"`
	Overdue int64 `json:"overdue"`
}

type MonthlyReport struct {
	Year   int                `json:"year"`
	Months []MonthlyReportRow `json:"months"`
}
