package patron

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[int64]*User
	byMail map[string]int64
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]*User{}, byMail: map[string]int64{}}
}

func (f *fakeUserStore) Insert(_ context.Context, u *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.byMail[u.Email]; taken {
		return ErrConflict("email already registered")
	}
	f.nextID++
	u.UserID = f.nextID
	cp := *u
	f.users[u.UserID] = &cp
	f.byMail[u.Email] = u.UserID
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, userID int64) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, ErrNotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) Update(_ context.Context, userID int64, in UpdateUserRequest) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, ErrNotFound("user not found")
	}
	if in.Email != nil && *in.Email != u.Email {
		if _, taken := f.byMail[*in.Email]; taken {
			return nil, ErrConflict("email already registered")
		}
		delete(f.byMail, u.Email)
		u.Email = *in.Email
		f.byMail[u.Email] = userID
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.UserType != nil {
		u.UserType = *in.UserType
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) List(_ context.Context, filter Filter, _ Page) ([]User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []User
	for _, u := range f.users {
		if filter.UserType != "" && u.UserType != filter.UserType {
			continue
		}
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func newTestService(store UserStore) *Service {
	return &Service{store: store}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newFakeUserStore())

	_, err := svc.Create(context.Background(), CreateUserRequest{UserType: "alien"})
	require.Error(t, err)
	api := err.(*APIError)
	assert.Equal(t, CodeValidation, api.Code)
	assert.Contains(t, api.Message, "name")
	assert.Contains(t, api.Message, "email")
	assert.Contains(t, api.Message, "userType")
}

func TestCreateDefaultsActiveAndLowercasesEmail(t *testing.T) {
	svc := newTestService(newFakeUserStore())

	res, err := svc.Create(context.Background(), CreateUserRequest{
		Name:     "Ada Lovelace",
		Email:    "Ada@Example.COM",
		UserType: "faculty",
	})
	require.NoError(t, err)
	assert.True(t, res.IsActive)
	assert.Equal(t, "ada@example.com", res.Email)
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc := newTestService(newFakeUserStore())

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Name: "Ada", Email: "ada@example.com", UserType: "student",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateUserRequest{
		Name: "Another Ada", Email: "ADA@example.com", UserType: "staff",
	})
	require.Error(t, err)
	assert.Equal(t, CodeConflict, err.(*APIError).Code)
}

func TestUpdateDeactivatesInsteadOfDeleting(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), CreateUserRequest{
		Name: "Ada", Email: "ada@example.com", UserType: "student",
	})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(context.Background(), created.UserID, UpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	// The record still exists; only the flag changed.
	got, err := svc.Get(context.Background(), created.UserID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
}

func TestUpdateValidation(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), CreateUserRequest{
		Name: "Ada", Email: "ada@example.com", UserType: "student",
	})
	require.NoError(t, err)

	empty := ""
	badType := "robot"
	_, err = svc.Update(context.Background(), created.UserID, UpdateUserRequest{Name: &empty, UserType: &badType})
	require.Error(t, err)
	api := err.(*APIError)
	assert.Equal(t, CodeValidation, api.Code)
	assert.Contains(t, api.Message, "name")
	assert.Contains(t, api.Message, "userType")
}

func TestListFiltersByUserType(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	for _, req := range []CreateUserRequest{
		{Name: "Ada", Email: "ada@example.com", UserType: "faculty"},
		{Name: "Bob", Email: "bob@example.com", UserType: "student"},
		{Name: "Cas", Email: "cas@example.com", UserType: "student"},
	} {
		_, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
	}

	students, total, err := svc.List(context.Background(), Filter{UserType: "student"}, Page{Limit: 50})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, students, 2)

	_, _, err = svc.List(context.Background(), Filter{UserType: "alien"}, Page{Limit: 50})
	require.Error(t, err)
	assert.Equal(t, CodeValidation, err.(*APIError).Code)
}

func TestTypes(t *testing.T) {
	svc := newTestService(newFakeUserStore())
	assert.Equal(t, []string{"student", "faculty", "staff", "public"}, svc.Types(context.Background()))
}
