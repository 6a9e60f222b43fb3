package booksvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/hotrolaptrinh/QLThuVien/model"
)

var (
	ErrBadInput = errors.New("invalid payload")
	ErrNotFound = errors.New("book not found")
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	Detail(ctx context.Context, id uuid.UUID) (*model.Book, error)
	List(ctx context.Context, search string, limit, offset int) ([]model.Book, int64, error)
}

type Service interface {
	Create(ctx context.Context, b *model.Book) error
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	Detail(ctx context.Context, id uuid.UUID) (*model.Book, error)
	List(ctx context.Context, search string, page, pageSize int) ([]model.Book, int64, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, b *model.Book) error {
	if strings.TrimSpace(b.Title) == "" || b.Quantity < 0 {
		return ErrBadInput
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return s.r.Create(ctx, b)
}

func (s *service) Update(ctx context.Context, b *model.Book) error {
	if strings.TrimSpace(b.Title) == "" || b.Quantity < 0 {
		return ErrBadInput
	}
	if err := s.r.Update(ctx, b); err != nil {
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

func (s *service) Detail(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	b, err := s.r.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context, search string, page, pageSize int) ([]model.Book, int64, error) {
	limit, offset := clampPage(page, pageSize)
	return s.r.List(ctx, strings.ToLower(strings.TrimSpace(search)), limit, offset)
}

func clampPage(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	return pageSize, (page - 1) * pageSize
}
