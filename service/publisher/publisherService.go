package publishersvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/hotrolaptrinh/QLThuVien/model"
	publisherrepo "github.com/hotrolaptrinh/QLThuVien/repository/publisher"
)

var (
	ErrBadInput = errors.New("invalid payload")
	ErrNotFound = errors.New("publisher not found")
)

type Service interface {
	Create(ctx context.Context, p *model.Publisher) error
	Update(ctx context.Context, p *model.Publisher) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, search string, page, pageSize int) ([]model.Publisher, int64, error)
}

type service struct{ r publisherrepo.Repo }

func New(r publisherrepo.Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, p *model.Publisher) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrBadInput
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return s.r.Create(ctx, p)
}

func (s *service) Update(ctx context.Context, p *model.Publisher) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrBadInput
	}
	if err := s.r.Update(ctx, p); err != nil {
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

func (s *service) List(ctx context.Context, search string, page, pageSize int) ([]model.Publisher, int64, error) {
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
