// service/book/book_service_test.go
package booksvc_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"github.com/hotrolaptrinh/QLThuVien/model"
	booksvc "github.com/hotrolaptrinh/QLThuVien/service/book"
)

type repoMock struct {
	createFn func(ctx context.Context, b *model.Book) error
	updateFn func(ctx context.Context, b *model.Book) error
	deleteFn func(ctx context.Context, id uuid.UUID) error
	detailFn func(ctx context.Context, id uuid.UUID) (*model.Book, error)
	listFn   func(ctx context.Context, search string, limit, offset int) ([]model.Book, int64, error)
}

func (m *repoMock) Create(ctx context.Context, b *model.Book) error { return m.createFn(ctx, b) }
func (m *repoMock) Update(ctx context.Context, b *model.Book) error { return m.updateFn(ctx, b) }
func (m *repoMock) Delete(ctx context.Context, id uuid.UUID) error  { return m.deleteFn(ctx, id) }
func (m *repoMock) Detail(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	return m.detailFn(ctx, id)
}
func (m *repoMock) List(ctx context.Context, search string, limit, offset int) ([]model.Book, int64, error) {
	return m.listFn(ctx, search, limit, offset)
}

func TestCreate_Validation(t *testing.T) {
	s := booksvc.New(&repoMock{})
	if err := s.Create(context.Background(), &model.Book{Title: "", Quantity: 1}); err == nil {
		t.Fatal("expected error for empty title")
	}
	if err := s.Create(context.Background(), &model.Book{Title: "Dune", Quantity: -1}); err == nil {
		t.Fatal("expected error for negative quantity")
	}
}

func TestCreate_AssignsID(t *testing.T) {
	m := &repoMock{
		createFn: func(ctx context.Context, b *model.Book) error { return nil },
	}
	s := booksvc.New(m)
	b := &model.Book{Title: "Dune", Author: "Frank Herbert", Quantity: 4}
	if err := s.Create(context.Background(), b); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if b.ID == uuid.Nil {
		t.Fatal("expected an id to be assigned")
	}
}

func TestDetail_NotFound(t *testing.T) {
	m := &repoMock{
		detailFn: func(ctx context.Context, id uuid.UUID) (*model.Book, error) {
			return nil, sql.ErrNoRows
		},
	}
	s := booksvc.New(m)
	if _, err := s.Detail(context.Background(), uuid.New()); err != booksvc.ErrNotFound {
		t.Fatalf("got %v; want ErrNotFound", err)
	}
}

func TestList_ClampsPaging(t *testing.T) {
	var gotLimit, gotOffset int
	var gotSearch string
	m := &repoMock{
		listFn: func(ctx context.Context, search string, limit, offset int) ([]model.Book, int64, error) {
			gotSearch, gotLimit, gotOffset = search, limit, offset
			return nil, 0, nil
		},
	}
	s := booksvc.New(m)

	if _, _, err := s.List(context.Background(), "  DUNE ", 0, 0); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if gotSearch != "dune" || gotLimit != 20 || gotOffset != 0 {
		t.Fatalf("got search=%q limit=%d offset=%d; want dune 20 0", gotSearch, gotLimit, gotOffset)
	}

	if _, _, err := s.List(context.Background(), "", 3, 500); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if gotLimit != 50 || gotOffset != 100 {
		t.Fatalf("got limit=%d offset=%d; want 50 100", gotLimit, gotOffset)
	}
}
