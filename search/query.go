package search

import (
	"strconv"
	"strings"
)

const (
	DefaultQuery   = "*"
	DefaultQueryBy = "name"
	DefaultSortBy  = "startsAt:asc"
)

// Query is a validated search request
type Query struct {
	Q       string
	Country string
	Types   []string
	Page    int
	Limit   int
}

// FilterBy builds the filter expression, empty when no filter applies
func (q *Query) FilterBy() string {
	filters := make([]string, 0, 2)
	if q.Country != "" {
		filters = append(filters, "country:="+q.Country)
	}
	if len(q.Types) > 0 {
		filters = append(filters, "type:=["+strings.Join(q.Types, ",")+"]")
	}
	return strings.Join(filters, " && ")
}

func (q *Query) Params() map[string]string {
	params := map[string]string{
		"q":        DefaultQuery,
		"query_by": DefaultQueryBy,
		"sort_by":  DefaultSortBy,
		"page":     strconv.Itoa(q.Page),
		"per_page": strconv.Itoa(q.Limit),
	}
	if s := strings.TrimSpace(q.Q); s != "" {
		params["q"] = s
	}
	if filter := q.FilterBy(); filter != "" {
		params["filter_by"] = filter
	}
	return params
}

type Result struct {
	Documents []*Document
	Found     int64
}

// TotalPages returns ceil(total / limit)
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
