package borrowsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hotrolaptrinh/QLThuVien/model"
	borrowrepo "github.com/hotrolaptrinh/QLThuVien/repository/borrow"
)

// errors used by controllers

type ErrCode string

const (
	ErrNoItems       ErrCode = "NO_ITEMS"
	ErrBadQuantity   ErrCode = "BAD_QUANTITY"
	ErrBookNotFound  ErrCode = "BOOK_NOT_FOUND"
	ErrNoStock       ErrCode = "NO_STOCK"
	ErrNotFound      ErrCode = "NOT_FOUND"
	ErrBadTransition ErrCode = "BAD_TRANSITION"
	ErrForbidden     ErrCode = "FORBIDDEN"
	ErrNoCaller      ErrCode = "NO_CALLER"
)

type codedError struct {
	code   ErrCode
	bookID uuid.UUID
}

func (e codedError) Error() string {
	if e.bookID != uuid.Nil {
		return fmt.Sprintf("%s: book %s", e.code, e.bookID)
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }

func makeErr(c ErrCode) error { return codedError{code: c} }
func bookErr(c ErrCode, id uuid.UUID) error {
	return codedError{code: c, bookID: id}
}

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// OffendingBook reports which book a BOOK_NOT_FOUND or NO_STOCK error names.
func OffendingBook(err error) uuid.UUID {
	var ce codedError
	if errors.As(err, &ce) {
		return ce.bookID
	}
	return uuid.Nil
}

// dto

// Caller is the resolved identity of the requester.
type Caller struct {
	ID   uuid.UUID
	Role model.Role
}

func (c Caller) anonymous() bool { return c.ID == uuid.Nil }

// Item is one requested book line.
type Item struct {
	BookID   uuid.UUID
	Quantity int64
}

type Service interface {
	// Create reserves stock for every item and records a pending borrowing.
	// Either every line lands and every book is decremented, or nothing does.
	Create(ctx context.Context, caller Caller, items []Item, notes string, expectedReturnDate *time.Time) (*model.BorrowingWithItems, error)

	// Transition moves a borrowing through its lifecycle. Rejecting a pending
	// borrowing or returning an approved one restocks every reserved line.
	Transition(ctx context.Context, caller Caller, id uuid.UUID, status model.BorrowStatus, notes *string) (*model.BorrowingWithItems, error)

	// List returns borrowings newest first; admins see all, users their own.
	List(ctx context.Context, caller Caller) ([]model.BorrowingWithItems, error)
}

// ----- Service implementation -----

type service struct {
	store borrowrepo.Store
}

func New(store borrowrepo.Store) Service { return &service{store: store} }

func (s *service) Create(ctx context.Context, caller Caller, items []Item, notes string, expectedReturnDate *time.Time) (_ *model.BorrowingWithItems, err error) {
	if caller.anonymous() {
		return nil, makeErr(ErrNoCaller)
	}
	if len(items) == 0 {
		return nil, makeErr(ErrNoItems)
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, bookErr(ErrBadQuantity, it.BookID)
		}
	}

	// Requested totals per book. Duplicate lines for the same book must be
	// checked against stock as a sum, not one by one.
	totals := make(map[uuid.UUID]int64, len(items))
	var bookIDs []uuid.UUID
	for _, it := range items {
		if _, seen := totals[it.BookID]; !seen {
			bookIDs = append(bookIDs, it.BookID)
		}
		totals[it.BookID] += it.Quantity
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	available, err := tx.LockBookQuantities(ctx, bookIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range bookIDs {
		have, ok := available[id]
		if !ok {
			return nil, bookErr(ErrBookNotFound, id)
		}
		if totals[id] > have {
			return nil, bookErr(ErrNoStock, id)
		}
	}

	now := time.Now().UTC()
	b := &model.Borrowing{
		ID:                 uuid.New(),
		UserID:             caller.ID,
		BorrowDate:         now,
		ExpectedReturnDate: expectedReturnDate,
		Status:             model.BorrowPending,
		Notes:              notes,
	}
	lines := make([]model.BorrowingLine, len(items))
	for i, it := range items {
		lines[i] = model.BorrowingLine{
			ID:          uuid.New(),
			BorrowingID: b.ID,
			BookID:      it.BookID,
			Quantity:    it.Quantity,
		}
	}

	if err = tx.InsertBorrowing(ctx, b, lines); err != nil {
		return nil, err
	}
	for _, id := range bookIDs {
		if err = tx.AdjustBookQuantity(ctx, id, -totals[id]); err != nil {
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &model.BorrowingWithItems{Borrowing: *b, Items: lines}, nil
}

func (s *service) Transition(ctx context.Context, caller Caller, id uuid.UUID, status model.BorrowStatus, notes *string) (_ *model.BorrowingWithItems, err error) {
	if caller.anonymous() {
		return nil, makeErr(ErrNoCaller)
	}
	if caller.Role != model.RoleAdmin {
		return nil, makeErr(ErrForbidden)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := tx.BorrowingForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}

	now := time.Now().UTC()
	upd := borrowrepo.StatusUpdate{Status: status, Notes: notes}
	restock := false
	switch {
	case b.Status == model.BorrowPending && status == model.BorrowApproved:
		upd.ProcessedAt = &now
	case b.Status == model.BorrowPending && status == model.BorrowRejected:
		upd.ProcessedAt = &now
		restock = true
	case b.Status == model.BorrowApproved && status == model.BorrowReturned:
		upd.ReturnedAt = &now
		restock = true
	default:
		return nil, makeErr(ErrBadTransition)
	}

	lines, err := tx.Lines(ctx, id)
	if err != nil {
		return nil, err
	}

	if restock {
		totals := make(map[uuid.UUID]int64, len(lines))
		var bookIDs []uuid.UUID
		for _, l := range lines {
			if _, seen := totals[l.BookID]; !seen {
				bookIDs = append(bookIDs, l.BookID)
			}
			totals[l.BookID] += l.Quantity
		}
		if _, err = tx.LockBookQuantities(ctx, bookIDs); err != nil {
			return nil, err
		}
		for _, bid := range bookIDs {
			if err = tx.AdjustBookQuantity(ctx, bid, totals[bid]); err != nil {
				return nil, err
			}
		}
	}

	updated, err := tx.UpdateBorrowing(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &model.BorrowingWithItems{Borrowing: *updated, Items: lines}, nil
}

func (s *service) List(ctx context.Context, caller Caller) ([]model.BorrowingWithItems, error) {
	if caller.anonymous() {
		return nil, makeErr(ErrNoCaller)
	}
	if caller.Role == model.RoleAdmin {
		return s.store.List(ctx, nil)
	}
	uid := caller.ID
	return s.store.List(ctx, &uid)
}
