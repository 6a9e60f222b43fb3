// repository/borrow/borrowRepository.go
package borrowrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hotrolaptrinh/QLThuVien/model"
)

// ErrStockConflict is returned when a guarded quantity update would drive
// a book's stock negative.
var ErrStockConflict = errors.New("quantity update rejected")

// StatusUpdate carries the mutable borrowing fields for one transition.
// Nil pointers leave the stored value untouched.
type StatusUpdate struct {
	Status      model.BorrowStatus
	ProcessedAt *time.Time
	ReturnedAt  *time.Time
	Notes       *string
}

// Tx is one atomic unit over the catalog and borrowing tables. Every method
// runs inside the same transaction; locks taken by LockBookQuantities and
// BorrowingForUpdate are held until Commit or Rollback.
type Tx interface {
	LockBookQuantities(ctx context.Context, bookIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	AdjustBookQuantity(ctx context.Context, bookID uuid.UUID, delta int64) error

	InsertBorrowing(ctx context.Context, b *model.Borrowing, lines []model.BorrowingLine) error
	BorrowingForUpdate(ctx context.Context, id uuid.UUID) (*model.Borrowing, error)
	Lines(ctx context.Context, borrowingID uuid.UUID) ([]model.BorrowingLine, error)
	UpdateBorrowing(ctx context.Context, id uuid.UUID, upd StatusUpdate) (*model.Borrowing, error)

	Commit() error
	Rollback() error
}

type Store interface {
	Begin(ctx context.Context) (Tx, error)

	// List returns borrowings with their lines, newest borrow date first.
	// A nil userID returns every borrowing.
	List(ctx context.Context, userID *uuid.UUID) ([]model.BorrowingWithItems, error)
}

type store struct{ db *sql.DB }

func New(db *sql.DB) Store { return &store{db: db} }

func (s *store) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func (s *store) List(ctx context.Context, userID *uuid.UUID) ([]model.BorrowingWithItems, error) {
	q := `
		SELECT id, user_id, borrow_date, expected_return_date, status, notes,
			processed_at, returned_at, created_at, updated_at
		FROM borrowings`
	args := []any{}
	if userID != nil {
		q += ` WHERE user_id = $1`
		args = append(args, *userID)
	}
	q += ` ORDER BY borrow_date DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BorrowingWithItems
	var ids []string
	for rows.Next() {
		var b model.Borrowing
		if err := scanBorrowing(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, model.BorrowingWithItems{Borrowing: b, Items: []model.BorrowingLine{}})
		ids = append(ids, b.ID.String())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	lineRows, err := s.db.QueryContext(ctx, `
		SELECT id, borrowing_id, book_id, quantity, created_at
		FROM borrowing_details
		WHERE borrowing_id = ANY($1::uuid[])
		ORDER BY created_at ASC, id ASC`, ids)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	byBorrowing := make(map[uuid.UUID]int, len(out))
	for i := range out {
		byBorrowing[out[i].ID] = i
	}
	for lineRows.Next() {
		var l model.BorrowingLine
		if err := lineRows.Scan(&l.ID, &l.BorrowingID, &l.BookID, &l.Quantity, &l.CreatedAt); err != nil {
			return nil, err
		}
		if i, ok := byBorrowing[l.BorrowingID]; ok {
			out[i].Items = append(out[i].Items, l)
		}
	}
	return out, lineRows.Err()
}

// ----- transaction -----

type pgTx struct{ tx *sql.Tx }

func (t *pgTx) Commit() error   { return t.tx.Commit() }
func (t *pgTx) Rollback() error { return t.tx.Rollback() }

func (t *pgTx) LockBookQuantities(ctx context.Context, bookIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	// ORDER BY gives a deterministic lock order so two requests touching the
	// same books serialize instead of deadlocking.
	const q = `
		SELECT id, quantity
		FROM books
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE`
	ids := make([]string, len(bookIDs))
	for i, id := range bookIDs {
		ids[i] = id.String()
	}
	rows, err := t.tx.QueryContext(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	got := make(map[uuid.UUID]int64, len(bookIDs))
	for rows.Next() {
		var id uuid.UUID
		var qty int64
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		got[id] = qty
	}
	return got, rows.Err()
}

func (t *pgTx) AdjustBookQuantity(ctx context.Context, bookID uuid.UUID, delta int64) error {
	// Guard: never let quantity go below zero even if a caller skipped the check.
	const q = `
		UPDATE books
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1
		AND quantity + $2 >= 0`
	res, err := t.tx.ExecContext(ctx, q, bookID, delta)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return ErrStockConflict
	}
	return nil
}

func (t *pgTx) InsertBorrowing(ctx context.Context, b *model.Borrowing, lines []model.BorrowingLine) error {
	const q = `
		INSERT INTO borrowings (id, user_id, borrow_date, expected_return_date, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`
	err := t.tx.QueryRowContext(ctx, q,
		b.ID, b.UserID, b.BorrowDate, b.ExpectedReturnDate, b.Status, b.Notes,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return err
	}

	const ins = `
		INSERT INTO borrowing_details (id, borrowing_id, book_id, quantity)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`
	for i := range lines {
		l := &lines[i]
		if err := t.tx.QueryRowContext(ctx, ins, l.ID, l.BorrowingID, l.BookID, l.Quantity).
			Scan(&l.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) BorrowingForUpdate(ctx context.Context, id uuid.UUID) (*model.Borrowing, error) {
	const q = `
		SELECT id, user_id, borrow_date, expected_return_date, status, notes,
			processed_at, returned_at, created_at, updated_at
		FROM borrowings
		WHERE id = $1
		FOR UPDATE`
	b := &model.Borrowing{}
	if err := scanBorrowing(t.tx.QueryRowContext(ctx, q, id), b); err != nil {
		return nil, err
	}
	return b, nil
}

func (t *pgTx) Lines(ctx context.Context, borrowingID uuid.UUID) ([]model.BorrowingLine, error) {
	const q = `
		SELECT id, borrowing_id, book_id, quantity, created_at
		FROM borrowing_details
		WHERE borrowing_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := t.tx.QueryContext(ctx, q, borrowingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BorrowingLine
	for rows.Next() {
		var l model.BorrowingLine
		if err := rows.Scan(&l.ID, &l.BorrowingID, &l.BookID, &l.Quantity, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (t *pgTx) UpdateBorrowing(ctx context.Context, id uuid.UUID, upd StatusUpdate) (*model.Borrowing, error) {
	const q = `
		UPDATE borrowings
		SET status = $2,
			processed_at = COALESCE($3, processed_at),
			returned_at = COALESCE($4, returned_at),
			notes = COALESCE($5, notes),
			updated_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, borrow_date, expected_return_date, status, notes,
			processed_at, returned_at, created_at, updated_at`
	b := &model.Borrowing{}
	if err := scanBorrowing(
		t.tx.QueryRowContext(ctx, q, id, upd.Status, upd.ProcessedAt, upd.ReturnedAt, upd.Notes), b,
	); err != nil {
		return nil, err
	}
	return b, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanBorrowing(row rowScanner, b *model.Borrowing) error {
	return row.Scan(
		&b.ID, &b.UserID, &b.BorrowDate, &b.ExpectedReturnDate, &b.Status,
		&b.Notes, &b.ProcessedAt, &b.ReturnedAt, &b.CreatedAt, &b.UpdatedAt,
	)
}
