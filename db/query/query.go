package query

// Queryer is the filtering, ordering and pagination a DAO list call applies
type Queryer interface {
	WhereMap() map[string]interface{}
	Orders() []*Order
	Offset() int64
	Limit() int64
}

// Query filters on column equality. The zero value selects every row unordered.
type Query struct {
	where  map[string]interface{}
	orders []*Order
	offset int64
	limit  int64
}

func New() *Query {
	return &Query{}
}

// Where adds an equality condition, a repeated column replaces the previous value
func (q *Query) Where(column string, value interface{}) *Query {
	if q.where == nil {
		q.where = make(map[string]interface{})
	}
	q.where[column] = value
	return q
}

func (q *Query) WhereMap() map[string]interface{} {
	return q.where
}

func (q *Query) OrderBy(orders ...*Order) *Query {
	q.orders = append(q.orders, orders...)
	return q
}

func (q *Query) Order(column string, sort Sort) *Query {
	return q.OrderBy(&Order{Column: column, Sort: sort})
}

func (q *Query) Orders() []*Order {
	return q.orders
}

// Page selects the 1-based pageNo of pageSize rows
func (q *Query) Page(pageNo, pageSize uint64) *Query {
	pageNo = max(pageNo, 1)
	q.offset = int64((pageNo - 1) * pageSize)
	q.limit = int64(pageSize)
	return q
}

func (q *Query) Offset() int64 {
	return q.offset
}

// Limit is 0 when the query is unbounded
func (q *Query) Limit() int64 {
	return q.limit
}
