package book

type BookReq struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author"`
	CategoryID  string `json:"category_id" validate:"omitempty,uuid"`
	PublisherID string `json:"publisher_id" validate:"omitempty,uuid"`
	Quantity    int64  `json:"quantity" validate:"gte=0"`
}

type ListQuery struct {
	Search   string `query:"search"`
	Page     int    `query:"page"`
	PageSize int    `query:"pageSize"`
}
