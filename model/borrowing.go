// model/borrowing.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type BorrowStatus string

const (
	BorrowPending  BorrowStatus = "pending"
	BorrowApproved BorrowStatus = "approved"
	BorrowRejected BorrowStatus = "rejected"
	BorrowReturned BorrowStatus = "returned"
)

type Borrowing struct {
	ID                 uuid.UUID    `json:"id"`
	UserID             uuid.UUID    `json:"user_id"`
	BorrowDate         time.Time    `json:"borrow_date"`
	ExpectedReturnDate *time.Time   `json:"expected_return_date,omitempty"`
	Status             BorrowStatus `json:"status"`
	Notes              string       `json:"notes"`
	ProcessedAt        *time.Time   `json:"processed_at,omitempty"`
	ReturnedAt         *time.Time   `json:"returned_at,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

type BorrowingLine struct {
	ID          uuid.UUID `json:"id"`
	BorrowingID uuid.UUID `json:"borrowing_id"`
	BookID      uuid.UUID `json:"book_id"`
	Quantity    int64     `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

type BorrowingWithItems struct {
	Borrowing
	Items []BorrowingLine `json:"items"`
}
