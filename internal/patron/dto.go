package patron

import "time"

type CreateUserRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	UserType   string  `json:"userType"`
	Department *string `json:"department,omitempty"`
}

type UpdateUserRequest struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	UserType   *string `json:"userType,omitempty"`
	Department *string `json:"department,omitempty"`
	IsActive   *bool   `json:"isActive,omitempty"`
}

type UserResponse struct {
	UserID     int64     `json:"userId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	UserType   string    `json:"userType"`
	Department *string   `json:"department,omitempty"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Filter struct {
	UserType string
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}

func buildUserResponse(u *User) UserResponse {
	resp := UserResponse{
		UserID:    u.UserID,
		Name:      u.Name,
		Email:     u.Email,
		UserType:  u.UserType,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
	if u.Department.Valid {
		val := u.Department.String
		resp.Department = &val
	}
	return resp
}
