package api

import (
	"github.com/eventatlas/eventatlas/search"
)

type Pagination[T any] struct {
	Total int64 `json:"total"`
	Data  []T   `json:"data"`
}

func NewPagination[T any](total int64, data []T) *Pagination[T] {
	if data == nil {
		data = []T{}
	}
	return &Pagination[T]{
		Total: total,
		Data:  data,
	}
}

type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type SearchResponse struct {
	Events     []*search.Document `json:"events"`
	Pagination PageInfo           `json:"pagination"`
}

type IngestResponse struct {
	Tasks []string `json:"tasks"`
}
