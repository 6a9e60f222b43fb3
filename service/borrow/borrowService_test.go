package borrowsvc_test

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hotrolaptrinh/QLThuVien/model"
	borrowrepo "github.com/hotrolaptrinh/QLThuVien/repository/borrow"
	borrowsvc "github.com/hotrolaptrinh/QLThuVien/service/borrow"
)

// memStore is an in-memory Store whose transactions hold the store lock from
// Begin to Commit/Rollback, so concurrent units serialize just like row locks
// do in Postgres. Writes are staged and only become visible on Commit.
type memStore struct {
	mu         sync.Mutex
	books      map[uuid.UUID]int64
	borrowings map[uuid.UUID]model.Borrowing
	lines      map[uuid.UUID][]model.BorrowingLine

	failAdjust bool
}

func newMemStore() *memStore {
	return &memStore{
		books:      make(map[uuid.UUID]int64),
		borrowings: make(map[uuid.UUID]model.Borrowing),
		lines:      make(map[uuid.UUID][]model.BorrowingLine),
	}
}

func (s *memStore) Begin(ctx context.Context) (borrowrepo.Tx, error) {
	s.mu.Lock()
	return &memTx{
		s:          s,
		bookDeltas: make(map[uuid.UUID]int64),
	}, nil
}

func (s *memStore) List(ctx context.Context, userID *uuid.UUID) ([]model.BorrowingWithItems, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.BorrowingWithItems
	for id, b := range s.borrowings {
		if userID != nil && b.UserID != *userID {
			continue
		}
		items := append([]model.BorrowingLine(nil), s.lines[id]...)
		out = append(out, model.BorrowingWithItems{Borrowing: b, Items: items})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BorrowDate.After(out[j].BorrowDate)
	})
	return out, nil
}

type memTx struct {
	s    *memStore
	done bool

	bookDeltas map[uuid.UUID]int64
	newBorrow  *model.Borrowing
	newLines   []model.BorrowingLine
	updated    *model.Borrowing
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("tx already finished")
	}
	t.done = true
	for id, d := range t.bookDeltas {
		t.s.books[id] += d
	}
	if t.newBorrow != nil {
		t.s.borrowings[t.newBorrow.ID] = *t.newBorrow
		t.s.lines[t.newBorrow.ID] = append([]model.BorrowingLine(nil), t.newLines...)
	}
	if t.updated != nil {
		t.s.borrowings[t.updated.ID] = *t.updated
	}
	t.s.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.s.mu.Unlock()
	return nil
}

func (t *memTx) LockBookQuantities(ctx context.Context, bookIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(bookIDs))
	for _, id := range bookIDs {
		if q, ok := t.s.books[id]; ok {
			out[id] = q + t.bookDeltas[id]
		}
	}
	return out, nil
}

func (t *memTx) AdjustBookQuantity(ctx context.Context, bookID uuid.UUID, delta int64) error {
	if t.s.failAdjust {
		return errors.New("disk on fire")
	}
	q, ok := t.s.books[bookID]
	if !ok {
		return borrowrepo.ErrStockConflict
	}
	if q+t.bookDeltas[bookID]+delta < 0 {
		return borrowrepo.ErrStockConflict
	}
	t.bookDeltas[bookID] += delta
	return nil
}

func (t *memTx) InsertBorrowing(ctx context.Context, b *model.Borrowing, lines []model.BorrowingLine) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	copied := *b
	t.newBorrow = &copied
	for i := range lines {
		lines[i].CreatedAt = now
	}
	t.newLines = append([]model.BorrowingLine(nil), lines...)
	return nil
}

func (t *memTx) BorrowingForUpdate(ctx context.Context, id uuid.UUID) (*model.Borrowing, error) {
	b, ok := t.s.borrowings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := b
	return &copied, nil
}

func (t *memTx) Lines(ctx context.Context, borrowingID uuid.UUID) ([]model.BorrowingLine, error) {
	return append([]model.BorrowingLine(nil), t.s.lines[borrowingID]...), nil
}

func (t *memTx) UpdateBorrowing(ctx context.Context, id uuid.UUID, upd borrowrepo.StatusUpdate) (*model.Borrowing, error) {
	b, ok := t.s.borrowings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	b.Status = upd.Status
	if upd.ProcessedAt != nil {
		b.ProcessedAt = upd.ProcessedAt
	}
	if upd.ReturnedAt != nil {
		b.ReturnedAt = upd.ReturnedAt
	}
	if upd.Notes != nil {
		b.Notes = *upd.Notes
	}
	b.UpdatedAt = time.Now().UTC()
	t.updated = &b
	copied := b
	return &copied, nil
}

// ----- helpers -----

var (
	userCaller  = borrowsvc.Caller{ID: uuid.New(), Role: model.RoleUser}
	adminCaller = borrowsvc.Caller{ID: uuid.New(), Role: model.RoleAdmin}
)

func addBook(s *memStore, qty int64) uuid.UUID {
	id := uuid.New()
	s.books[id] = qty
	return id
}

func stock(s *memStore, id uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books[id]
}

// ----- tests -----

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	svc := borrowsvc.New(s)
	bookID := addBook(s, 5)

	_, err := svc.Create(ctx, borrowsvc.Caller{}, []borrowsvc.Item{{BookID: bookID, Quantity: 1}}, "", nil)
	require.Equal(t, borrowsvc.ErrNoCaller, borrowsvc.Code(err))

	_, err = svc.Create(ctx, userCaller, nil, "", nil)
	require.Equal(t, borrowsvc.ErrNoItems, borrowsvc.Code(err))

	_, err = svc.Create(ctx, userCaller, []borrowsvc.Item{{BookID: bookID, Quantity: 0}}, "", nil)
	require.Equal(t, borrowsvc.ErrBadQuantity, borrowsvc.Code(err))

	_, err = svc.Create(ctx, userCaller, []borrowsvc.Item{{BookID: bookID, Quantity: -3}}, "", nil)
	require.Equal(t, borrowsvc.ErrBadQuantity, borrowsvc.Code(err))

	require.EqualValues(t, 5, stock(s, bookID))
}

func TestBorrowLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	svc := borrowsvc.New(s)
	bookID := addBook(s, 3)

	// create reserves stock immediately
	out, err := svc.Create(ctx, userCaller, []borrowsvc.Item{{BookID: bookID, Quantity: 2}}, "weekend reading", nil)
	require.NoError(t, err)
	require.Equal(t, model.BorrowPending, out.Status)
	require.Len(t, out.Items, 1)
	require.EqualValues(t, 2, out.Items[0].Quantity)
	require.EqualValues(t, 1, stock(s, bookID))

	// approve: no stock movement
	approved, err := svc.Transition(ctx, adminCaller, out.ID, model.BorrowApproved, nil)
	require.NoError(t, err)
	require.Equal(t, model.BorrowApproved, approved.Status)
	require.NotNil(t, approved.ProcessedAt)
	require.Nil(t, approved.ReturnedAt)
	require.EqualValues(t, 1, stock(s, bookID))

	// return: restocks exactly the reserved amount
	returned, err := svc.Transition(ctx, adminCaller, out.ID, model.BorrowReturned, nil)
	require.NoError(t, err)
	require.Equal(t, model.BorrowReturned, returned.Status)
	require.NotNil(t, returned.ReturnedAt)
	require.EqualValues(t, 3, stock(s, bookID))
}

func TestCreate_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	svc := borrowsvc.New(s)
	bookID := addBook(s, 1)

	_, err := svc.Create(ctx, userCaller, []borrowsvc.Item{{BookID: bookID, Quantity: 2}}, "", nil)
	require.Equal(t, borrowsvc.ErrNoStock, borrowsvc.Code(err))
	require.Equal(t, bookID, borrowsvc.OffendingBook(err))
	require.EqualValues(t, 1, stock(s, bookID))
}

func TestCreate_UnknownBookAborts(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	svc := borrowsvc.New(s)
	known := addBook(s, 5)
	unknown := uuid.New()

	_, err := svc.Create(ctx, userCaller, []borrowsvc.Item{
		{BookID: known, Quantity: 1},
		{BookID: unknown, Quantity: 1},
	}, "", nil)
	require.Equal(t, borrowsvc.ErrBookNotFound, borrowsvc.Code(err))
	require.Equal(t, unknown, borrowsvc.OffendingBook(err))

	// the valid line must not have been applied
	require.EqualValues(t, 5, stock(s, known))
	items, listErr := svc.List(ctx, adminCaller)
	require.NoError(t, listErr)
	require.Empty(t, items)
}

func TestCreate_MixedLinesAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	svc := borrowsvc.New(s)
	plenty := addBook(s, 10)
	scarce := addBook(s, 1)

	_, err := svc.Create(ctx, userCaller, []borrowsvc.Item{
		{BookID: plenty, Quantity: 3},
		{BookID: scarce, Quantity: 2},
	}, "", nil)
	require.Equal(t, borrowsvc.ErrNoStock, borrowsvc.Code(err))
	require.Equal(t, scarce, borrowsvc.OffendingBook(err))
	require.EqualValues(t, 10, stock(s, plenty))
	require.EqualValues(t, 1, stock(s, scarce))
}

func TestCreate_DuplicateLinesAreSummed(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	svc := borrowsvc.New(s)
	bookID := addBook(s, 3)

	// 2 + 2 exceeds stock 3 even though each line alone would fit
	_, err := svc.Create(ctx, userCaller, []borrowsvc.Item{
		{BookID: bookID, Quantity: 2},
		{BookID: bookID, Quantity: 2},
	}, "", nil)
	require.Equal(t, borrowsvc.ErrNoStock, borrowsvc.Code(err))
	require.EqualValues(t, 3, stock(s, bookID))

	// 1 + 2 fits and both lines are recorded verbatim
	out, err := svc.Create(ctx, userCaller, []borrowsvc.Item{
		{BookID: bookID, Quantity: 1},
		{BookID: bookID, Quantity: 2},
	}, "", nil)
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	require.EqualValues(t, 0, stock(s, bookID))
}

func TestCreate_StorageFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	svc := borrowsvc.New(s)
	bookID := addBook(s, 5)

	s.failAdjust = true
	_, err := svc.Create(ctx, userCaller, []borrowsvc.Item{{BookID: bookID, Quantity: 2}}, "", nil)
	require.Error(t, err)
	require.Empty(t, borrowsvc.Code(err)) // storage error, not a client error
	s.failAdjust = false

	require.EqualValues(t, 5, stock(s, bookID))
	items, listErr := svc.List(ctx, adminCaller)
	require.NoError(t, listErr)
	require.Empty(t, items)
}

func TestTransition_RejectRestocks(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	svc := borrowsvc.New(s)
	a := addBook(s, 4)
	b := addBook(s, 7)

	out, err := svc.Create(ctx, userCaller, []borrowsvc.Item{
		{BookID: a, Quantity: 4},
		{BookID: b, Quantity: 2},
	}, "", nil)
	require.NoError(t, err)
	require.EqualValues(t, 0, stock(s, a))
	require.EqualValues(t, 5, stock(s, b))

	rejected, err := svc.Transition(ctx, adminCaller, out.ID, model.BorrowRejected, nil)
	require.NoError(t, err)
	require.Equal(t, model.BorrowRejected, rejected.Status)
	require.NotNil(t, rejected.ProcessedAt)
	require.EqualValues(t, 4, stock(s, a))
	require.EqualValues(t, 7, stock(s, b))
}

func TestTransition_StateMachine(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, target model.BorrowStatus) (*memStore, borrowsvc.Service, uuid.UUID, uuid.UUID) {
		t.Helper()
		s := newMemStore()
		svc := borrowsvc.New(s)
		bookID := addBook(s, 10)
		out, err := svc.Create(ctx, userCaller, []borrowsvc.Item{{BookID: bookID, Quantity: 1}}, "", nil)
		require.NoError(t, err)
		switch target {
		case model.BorrowApproved:
			_, err = svc.Transition(ctx, adminCaller, out.ID, model.BorrowApproved, nil)
			require.NoError(t, err)
		case model.BorrowRejected:
			_, err = svc.Transition(ctx, adminCaller, out.ID, model.BorrowRejected, nil)
			require.NoError(t, err)
		case model.BorrowReturned:
			_, err = svc.Transition(ctx, adminCaller, out.ID, model.BorrowApproved, nil)
			require.NoError(t, err)
			_, err = svc.Transition(ctx, adminCaller, out.ID, model.BorrowReturned, nil)
			require.NoError(t, err)
		}
		return s, svc, out.ID, bookID
	}

	invalid := []struct {
		name string
		from model.BorrowStatus
		to   model.BorrowStatus
	}{
		{"pending to returned", model.BorrowPending, model.BorrowReturned},
		{"approved to approved", model.BorrowApproved, model.BorrowApproved},
		{"approved to rejected", model.BorrowApproved, model.BorrowRejected},
		{"rejected to approved", model.BorrowRejected, model.BorrowApproved},
		{"rejected to returned", model.BorrowRejected, model.BorrowReturned},
		{"returned to approved", model.BorrowReturned, model.BorrowApproved},
		{"returned to rejected", model.BorrowReturned, model.BorrowRejected},
		{"returned to returned", model.BorrowReturned, model.BorrowReturned},
	}

	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			s, svc, id, bookID := setup(t, tc.from)
			before := s.borrowings[id]
			stockBefore := stock(s, bookID)

			_, err := svc.Transition(ctx, adminCaller, id, tc.to, nil)
			require.Equal(t, borrowsvc.ErrBadTransition, borrowsvc.Code(err))

			// record and stock untouched
			require.Equal(t, before, s.borrowings[id])
			require.Equal(t, stockBefore, stock(s, bookID))
		})
	}
}

func TestTransition_AuthzAndNotFound(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	svc := borrowsvc.New(s)
	bookID := addBook(s, 5)

	out, err := svc.Create(ctx, userCaller, []borrowsvc.Item{{BookID: bookID, Quantity: 1}}, "", nil)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, borrowsvc.Caller{}, out.ID, model.BorrowApproved, nil)
	require.Equal(t, borrowsvc.ErrNoCaller, borrowsvc.Code(err))

	_, err = svc.Transition(ctx, userCaller, out.ID, model.BorrowApproved, nil)
	require.Equal(t, borrowsvc.ErrForbidden, borrowsvc.Code(err))

	_, err = svc.Transition(ctx, adminCaller, uuid.New(), model.BorrowApproved, nil)
	require.Equal(t, borrowsvc.ErrNotFound, borrowsvc.Code(err))
}

func TestTransition_UpdatesNotes(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	svc := borrowsvc.New(s)
	bookID := addBook(s, 5)

	out, err := svc.Create(ctx, userCaller, []borrowsvc.Item{{BookID: bookID, Quantity: 1}}, "original", nil)
	require.NoError(t, err)

	notes := "approved at the front desk"
	approved, err := svc.Transition(ctx, adminCaller, out.ID, model.BorrowApproved, &notes)
	require.NoError(t, err)
	require.Equal(t, notes, approved.Notes)

	// nil notes leaves the stored value alone
	returned, err := svc.Transition(ctx, adminCaller, out.ID, model.BorrowReturned, nil)
	require.NoError(t, err)
	require.Equal(t, notes, returned.Notes)
}

func TestConcurrentCreate_ExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	svc := borrowsvc.New(s)
	bookID := addBook(s, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, userCaller, []borrowsvc.Item{{BookID: bookID, Quantity: 5}}, "", nil)
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case borrowsvc.Code(err) == borrowsvc.ErrNoStock:
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok, "exactly one request must win")
	require.Equal(t, 1, conflict, "the other must get a stock conflict")
	require.EqualValues(t, 0, stock(s, bookID))
}

func TestConcurrentCreate_NeverNegative(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	svc := borrowsvc.New(s)
	bookID := addBook(s, 10)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Create(ctx, userCaller, []borrowsvc.Item{{BookID: bookID, Quantity: 3}}, "", nil)
		}()
	}
	wg.Wait()

	final := stock(s, bookID)
	require.GreaterOrEqual(t, final, int64(0))

	// conservation: initial stock minus everything reserved by the winners
	all, err := svc.List(ctx, adminCaller)
	require.NoError(t, err)
	var reserved int64
	for _, b := range all {
		require.Equal(t, model.BorrowPending, b.Status)
		for _, l := range b.Items {
			reserved += l.Quantity
		}
	}
	require.EqualValues(t, 10-reserved, final)
}

func TestList_Scoping(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	svc := borrowsvc.New(s)
	bookID := addBook(s, 100)

	other := borrowsvc.Caller{ID: uuid.New(), Role: model.RoleUser}
	_, err := svc.Create(ctx, userCaller, []borrowsvc.Item{{BookID: bookID, Quantity: 1}}, "", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, []borrowsvc.Item{{BookID: bookID, Quantity: 1}}, "", nil)
	require.NoError(t, err)

	_, err = svc.List(ctx, borrowsvc.Caller{})
	require.Equal(t, borrowsvc.ErrNoCaller, borrowsvc.Code(err))

	mine, err := svc.List(ctx, userCaller)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, userCaller.ID, mine[0].UserID)

	all, err := svc.List(ctx, adminCaller)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
