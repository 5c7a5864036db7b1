package patron

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ===== Error model (same shape as catalog/lending) =====

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

type UserStore interface {
	Insert(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID int64) (*User, error)
	Update(ctx context.Context, userID int64, in UpdateUserRequest) (*User, error)
	List(ctx context.Context, f Filter, p Page) ([]User, int64, error)
}

type Service struct {
	store UserStore
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db)}
}

func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	var violations []string
	if strings.TrimSpace(req.Name) == "" {
		violations = append(violations, "name is required")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		violations = append(violations, "a valid email is required")
	}
	if !ValidUserType(req.UserType) {
		violations = append(violations, fmt.Sprintf("userType must be one of %s", strings.Join(UserTypes, ", ")))
	}
	if len(violations) > 0 {
		return nil, ErrValidation(violations)
	}

	u := &User{
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		UserType:  req.UserType,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if req.Department != nil && *req.Department != "" {
		u.Department = sql.NullString{String: *req.Department, Valid: true}
	}

	if err := s.store.Insert(ctx, u); err != nil {
		return nil, err
	}
	resp := buildUserResponse(u)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, userID int64) (*UserResponse, error) {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := buildUserResponse(u)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, userID int64, req UpdateUserRequest) (*UserResponse, error) {
	var violations []string
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		violations = append(violations, "name must not be empty")
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" || !strings.Contains(email, "@") {
			violations = append(violations, "email must be valid")
		} else {
			req.Email = &email
		}
	}
	if req.UserType != nil && !ValidUserType(*req.UserType) {
		violations = append(violations, fmt.Sprintf("userType must be one of %s", strings.Join(UserTypes, ", ")))
	}
	if len(violations) > 0 {
		return nil, ErrValidation(violations)
	}

	u, err := s.store.Update(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	resp := buildUserResponse(u)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, f Filter, p Page) ([]UserResponse, int64, error) {
	if f.UserType != "" && !ValidUserType(f.UserType) {
		return nil, 0, ErrValidation([]string{fmt.Sprintf("userType must be one of %s", strings.Join(UserTypes, ", "))})
	}
	users, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, buildUserResponse(&users[i]))
	}
	return out, total, nil
}

func (s *Service) Types(_ context.Context) []string {
	return UserTypes
}
