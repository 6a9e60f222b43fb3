// model/book.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	PublisherID *uuid.UUID `json:"publisher_id,omitempty"`
	Quantity    int64      `json:"quantity"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
