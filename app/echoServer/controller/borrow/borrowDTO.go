package borrow

import "time"

type BorrowItemReq struct {
	BookID   string `json:"book_id" validate:"required,uuid"`
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
}

type CreateBorrowReq struct {
	Items              []BorrowItemReq `json:"items" validate:"required,min=1,dive"`
	Notes              string          `json:"notes"`
	ExpectedReturnDate *time.Time      `json:"expected_return_date"`
}

type TransitionReq struct {
	Status string  `json:"status" validate:"required,oneof=approved rejected returned"`
	Notes  *string `json:"notes"`
}
