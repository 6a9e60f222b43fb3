package authsvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hotrolaptrinh/QLThuVien/model"
	userrepo "github.com/hotrolaptrinh/QLThuVien/repository/user"
	"github.com/hotrolaptrinh/QLThuVien/util/hash"
	jwtutil "github.com/hotrolaptrinh/QLThuVien/util/jwt"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrBadInput     = errors.New("bad input")
	ErrInvalidCreds = errors.New("invalid credentials")
	ErrNeedAdmin    = errors.New("admin role required")
)

const tokenTTLHours = 8

type Service interface {
	Register(ctx context.Context, req model.RegisterReq, requester *model.User) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)

	// EnsureAdmin creates the default admin account if it does not exist.
	EnsureAdmin(ctx context.Context, email, password string) error
}

type service struct {
	ur     userrepo.Repo
	secret string
}

func New(ur userrepo.Repo, secret string) Service { return &service{ur: ur, secret: secret} }

func (s *service) Register(ctx context.Context, req model.RegisterReq, requester *model.User) (*model.User, string, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, "", ErrBadInput
	}

	// Only an admin may create another admin account.
	role := model.RoleUser
	if strings.EqualFold(req.Role, string(model.RoleAdmin)) {
		if requester == nil || requester.Role != model.RoleAdmin {
			return nil, "", ErrNeedAdmin
		}
		role = model.RoleAdmin
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Role:         role,
		PasswordHash: hashed,
	}
	if err := s.ur.Create(ctx, u); err != nil {
		if derr := mapDuplicateErr(err); derr != nil {
			return nil, "", derr
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.ID.String(), string(u.Role), tokenTTLHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func mapDuplicateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		cn := strings.ToLower(pgErr.ConstraintName)
		msg := strings.ToLower(pgErr.Message)

		if strings.Contains(cn, "users_email") || strings.Contains(msg, "email") {
			return ErrEmailTaken
		}
		return ErrBadInput
	}
	return nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	u, err := s.ur.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", ErrInvalidCreds
	}
	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", ErrInvalidCreds
	}
	token, err := jwtutil.Issue(s.secret, u.ID.String(), string(u.Role), tokenTTLHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) EnsureAdmin(ctx context.Context, email, password string) error {
	if _, err := s.ur.ByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	u := &model.User{
		ID:           uuid.New(),
		Name:         "Library Admin",
		Email:        strings.ToLower(email),
		Role:         model.RoleAdmin,
		PasswordHash: hashed,
	}
	if err := s.ur.Create(ctx, u); err != nil {
		// Lost a race against another instance seeding the same account.
		if derr := mapDuplicateErr(err); derr != nil {
			return nil
		}
		return err
	}
	return nil
}
