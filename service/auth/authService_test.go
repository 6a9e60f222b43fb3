// service/auth/auth_service_test.go
package authsvc_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hotrolaptrinh/QLThuVien/model"
	userrepo "github.com/hotrolaptrinh/QLThuVien/repository/user"
	authsvc "github.com/hotrolaptrinh/QLThuVien/service/auth"
	"github.com/hotrolaptrinh/QLThuVien/util/hash"
)

type mockRepo struct {
	byEmailFn func(ctx context.Context, email string) (*model.User, error)
	createFn  func(ctx context.Context, u *model.User) error
}

var _ userrepo.Repo = (*mockRepo)(nil)

func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.byEmailFn == nil {
		return nil, sql.ErrNoRows
	}
	return m.byEmailFn(ctx, email)
}

func (m *mockRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, u)
}

func (m *mockRepo) ByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return nil, sql.ErrNoRows
}
func (m *mockRepo) List(ctx context.Context) ([]model.User, error) { return nil, nil }
func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

const secret = "test_secret"

func TestRegister_Success(t *testing.T) {
	ctx := context.Background()
	var stored *model.User
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			stored = u
			return nil
		},
	}
	s := authsvc.New(m, secret)

	u, token, err := s.Register(ctx, model.RegisterReq{
		Name:     "Alice",
		Email:    "Alice@Example.COM",
		Password: "hunter22",
	}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, "alice@example.com", u.Email)
	require.Equal(t, model.RoleUser, u.Role)
	require.NotEqual(t, uuid.Nil, u.ID)
	require.NotNil(t, stored)
	require.True(t, hash.Check(stored.PasswordHash, "hunter22"))
}

func TestRegister_AdminRequiresAdminRequester(t *testing.T) {
	ctx := context.Background()
	s := authsvc.New(&mockRepo{}, secret)

	req := model.RegisterReq{Name: "Eve", Email: "eve@example.com", Password: "secret1", Role: "admin"}

	_, _, err := s.Register(ctx, req, nil)
	require.ErrorIs(t, err, authsvc.ErrNeedAdmin)

	_, _, err = s.Register(ctx, req, &model.User{Role: model.RoleUser})
	require.ErrorIs(t, err, authsvc.ErrNeedAdmin)

	u, _, err := s.Register(ctx, req, &model.User{Role: model.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, u.Role)
}

func TestRegister_BlankName(t *testing.T) {
	ctx := context.Background()
	s := authsvc.New(&mockRepo{}, secret)

	_, _, err := s.Register(ctx, model.RegisterReq{
		Name:     "   ",
		Email:    "x@example.com",
		Password: "secret1",
	}, nil)
	require.ErrorIs(t, err, authsvc.ErrBadInput)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hashed, err := hash.HashPassword("correct-horse")
	require.NoError(t, err)

	existing := &model.User{
		ID:           uuid.New(),
		Email:        "bob@example.com",
		Role:         model.RoleUser,
		PasswordHash: hashed,
	}
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email == existing.Email {
				return existing, nil
			}
			return nil, sql.ErrNoRows
		},
	}
	s := authsvc.New(m, secret)

	u, token, err := s.Login(ctx, model.LoginReq{Email: "bob@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, existing.ID, u.ID)

	_, _, err = s.Login(ctx, model.LoginReq{Email: "bob@example.com", Password: "wrong"})
	require.ErrorIs(t, err, authsvc.ErrInvalidCreds)

	_, _, err = s.Login(ctx, model.LoginReq{Email: "nobody@example.com", Password: "whatever"})
	require.ErrorIs(t, err, authsvc.ErrInvalidCreds)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()

	// absent: gets created with the admin role
	var created *model.User
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			created = u
			return nil
		},
	}
	s := authsvc.New(m, secret)
	require.NoError(t, s.EnsureAdmin(ctx, "admin@library.local", "Admin123!"))
	require.NotNil(t, created)
	require.Equal(t, model.RoleAdmin, created.Role)

	// present: nothing is created
	created = nil
	m2 := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{Role: model.RoleAdmin}, nil
		},
		createFn: func(ctx context.Context, u *model.User) error {
			created = u
			return nil
		},
	}
	s2 := authsvc.New(m2, secret)
	require.NoError(t, s2.EnsureAdmin(ctx, "admin@library.local", "Admin123!"))
	require.Nil(t, created)
}
