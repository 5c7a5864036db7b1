package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ===== Error model (same shape as patron/lending) =====

type Code string

const (
	CodeValidation Code = "VALIDATION_ERROR"
	CodeNotFound   Code = "NOT_FOUND"
	CodeConflict   Code = "CONFLICT"
	CodeInternal   Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func ErrValidation(violations []string) *APIError {
	return &APIError{Code: CodeValidation, Message: strings.Join(violations, "; ")}
}

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeValidation:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}

// ===== Service =====

type BookStore interface {
	Insert(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, bookID int64) (*Book, error)
	Update(ctx context.Context, bookID int64, in UpdateBookRequest) (*Book, error)
	Delete(ctx context.Context, bookID int64) error
	List(ctx context.Context, q SearchQuery, p Page) ([]Book, int64, error)
	Categories(ctx context.Context) ([]string, error)
}

type Service struct {
	store BookStore
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db)}
}

func (s *Service) Create(ctx context.Context, req CreateBookRequest) (*BookResponse, error) {
	var violations []string
	if strings.TrimSpace(req.Title) == "" {
		violations = append(violations, "title is required")
	}
	if strings.TrimSpace(req.Author) == "" {
		violations = append(violations, "author is required")
	}
	if strings.TrimSpace(req.Category) == "" {
		violations = append(violations, "category is required")
	}
	if req.TotalCopies < 1 {
		violations = append(violations, "totalCopies must be at least 1")
	}
	if req.PublishedYear != nil && (*req.PublishedYear < 1000 || *req.PublishedYear > time.Now().Year()) {
		violations = append(violations, fmt.Sprintf("publishedYear must be between 1000 and %d", time.Now().Year()))
	}
	available := req.TotalCopies
	if req.AvailableCopies != nil {
		available = *req.AvailableCopies
		if available < 0 || available > req.TotalCopies {
			violations = append(violations, "availableCopies must be between 0 and totalCopies")
		}
	}
	if len(violations) > 0 {
		return nil, ErrValidation(violations)
	}

	b := &Book{
		Title:           strings.TrimSpace(req.Title),
		Author:          strings.TrimSpace(req.Author),
		Category:        normalizeCategory(req.Category),
		TotalCopies:     req.TotalCopies,
		AvailableCopies: available,
		CreatedAt:       time.Now().UTC(),
	}
	if req.ISBN != nil && *req.ISBN != "" {
		b.ISBN = sql.NullString{String: *req.ISBN, Valid: true}
	}
	if req.PublishedYear != nil {
		b.PublishedYear = sql.NullInt64{Int64: int64(*req.PublishedYear), Valid: true}
	}
	if req.Description != nil && *req.Description != "" {
		b.Description = sql.NullString{String: *req.Description, Valid: true}
	}

	if err := s.store.Insert(ctx, b); err != nil {
		return nil, err
	}
	resp := buildBookResponse(b)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, bookID int64) (*BookResponse, error) {
	b, err := s.store.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	resp := buildBookResponse(b)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, bookID int64, req UpdateBookRequest) (*BookResponse, error) {
	var violations []string
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		violations = append(violations, "title must not be empty")
	}
	if req.Author != nil && strings.TrimSpace(*req.Author) == "" {
		violations = append(violations, "author must not be empty")
	}
	if req.Category != nil && strings.TrimSpace(*req.Category) == "" {
		violations = append(violations, "category must not be empty")
	}
	if req.TotalCopies != nil && *req.TotalCopies < 0 {
		violations = append(violations, "totalCopies must be non-negative")
	}
	if req.AvailableCopies != nil && *req.AvailableCopies < 0 {
		violations = append(violations, "availableCopies must be non-negative")
	}
	if len(violations) > 0 {
		return nil, ErrValidation(violations)
	}

	if req.Category != nil {
		norm := normalizeCategory(*req.Category)
		req.Category = &norm
	}

	b, err := s.store.Update(ctx, bookID, req)
	if err != nil {
		return nil, err
	}
	resp := buildBookResponse(b)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, bookID int64) error {
	return s.store.Delete(ctx, bookID)
}

func (s *Service) List(ctx context.Context, q SearchQuery, p Page) ([]BookResponse, int64, error) {
	books, total, err := s.store.List(ctx, q, p)
	if err != nil {
		return nil, 0, err
	}
	out := make([]BookResponse, 0, len(books))
	for i := range books {
		out = append(out, buildBookResponse(&books[i]))
	}
	return out, total, nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.store.Categories(ctx)
}

// normalizeCategory keeps the category list tidy: "science fiction" and
// "SCIENCE FICTION" land in the same bucket.
func normalizeCategory(c string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(c)))
}
