package query

import (
	"fmt"
	"strings"
)

type Sort string

const (
	ASC  Sort = "ASC"
	DESC Sort = "DESC"
)

type Order struct {
	Column string
	Sort   Sort
}

func (o Order) String() string {
	return o.Column + " " + string(o.Sort)
}

// ParseOrder reads "column" as ascending and "-column" as descending.
// The column must be one of allowed.
func ParseOrder(s string, allowed ...string) (*Order, error) {
	order := &Order{Column: s, Sort: ASC}
	if column, ok := strings.CutPrefix(s, "-"); ok {
		order.Column, order.Sort = column, DESC
	}
	for _, column := range allowed {
		if column == order.Column {
			return order, nil
		}
	}
	return nil, fmt.Errorf("invalid sort column: %s", order.Column)
}
