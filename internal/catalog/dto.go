package catalog

import "time"

type CreateBookRequest struct {
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Category      string  `json:"category"`
	ISBN          *string `json:"isbn,omitempty"`
	PublishedYear *int    `json:"publishedYear,omitempty"`
	Description   *string `json:"description,omitempty"`
	TotalCopies   int     `json:"totalCopies"`
	// Defaults to totalCopies when omitted.
	AvailableCopies *int `json:"availableCopies,omitempty"`
}

type UpdateBookRequest struct {
	Title           *string `json:"title,omitempty"`
	Author          *string `json:"author,omitempty"`
	Category        *string `json:"category,omitempty"`
	ISBN            *string `json:"isbn,omitempty"`
	PublishedYear   *int    `json:"publishedYear,omitempty"`
	Description     *string `json:"description,omitempty"`
	TotalCopies     *int    `json:"totalCopies,omitempty"`
	AvailableCopies *int    `json:"availableCopies,omitempty"`
}

type BookResponse struct {
	BookID          int64     `json:"bookId"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Category        string    `json:"category"`
	ISBN            *string   `json:"isbn,omitempty"`
	PublishedYear   *int      `json:"publishedYear,omitempty"`
	Description     *string   `json:"description,omitempty"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	CreatedAt       time.Time `json:"createdAt"`
}

type SearchQuery struct {
	Search   string
	Category string
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}

func buildBookResponse(b *Book) BookResponse {
	resp := BookResponse{
		BookID:          b.BookID,
		Title:           b.Title,
		Author:          b.Author,
		Category:        b.Category,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		CreatedAt:       b.CreatedAt,
	}
	if b.ISBN.Valid {
		val := b.ISBN.String
		resp.ISBN = &val
	}
	if b.PublishedYear.Valid {
		val := int(b.PublishedYear.Int64)
		resp.PublishedYear = &val
	}
	if b.Description.Valid {
		val := b.Description.String
		resp.Description = &val
	}
	return resp
}
