package categorysvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/hotrolaptrinh/QLThuVien/model"
	categoryrepo "github.com/hotrolaptrinh/QLThuVien/repository/category"
)

var (
	ErrBadInput = errors.New("invalid payload")
	ErrNotFound = errors.New("category not found")
)

type Service interface {
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, search string, page, pageSize int) ([]model.Category, int64, error)
}

type service struct{ r categoryrepo.Repo }

func New(r categoryrepo.Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, c *model.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrBadInput
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return s.r.Create(ctx, c)
}

func (s *service) Update(ctx context.Context, c *model.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrBadInput
	}
	if err := s.r.Update(ctx, c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.r.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *service) List(ctx context.Context, search string, page, pageSize int) ([]model.Category, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	return s.r.List(ctx, strings.ToLower(strings.TrimSpace(search)), pageSize, (page-1)*pageSize)
}
