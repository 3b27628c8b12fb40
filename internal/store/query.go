package store

// Operator is a comparison operator for filters.
type Operator string

const (
	Equal          Operator = "=="
	NotEqual       Operator = "!="
	Less           Operator = "<"
	LessOrEqual    Operator = "<="
	Greater        Operator = ">"
	GreaterOrEqual Operator = ">="
)

// Valid reports if the operator is known.
func (o Operator) Valid() bool {
	switch o {
	case Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual:
		return true
	}

	return false
}

// Filter restricts a query to documents where Field Op Value holds.
//
// Field is the document field name, e.g. "userId".
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Order sorts the result of a query by a field.
type Order struct {
	Field      string
	Descending bool
}

// Query is a list of filters that all need to match and a list of
// orderings that are applied in order.
type Query struct {
	Filters []Filter
	OrderBy []Order
}

// Where returns a copy of the query with an additional filter.
func (q Query) Where(field string, op Operator, value any) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)

	q.Filters = append(filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// Asc returns a copy of the query additionally sorted ascending by the field.
func (q Query) Asc(field string) Query {
	return q.order(field, false)
}

// Desc returns a copy of the query additionally sorted descending by the field.
func (q Query) Desc(field string) Query {
	return q.order(field, true)
}

func (q Query) order(field string, descending bool) Query {
	order := make([]Order, len(q.OrderBy), len(q.OrderBy)+1)
	copy(order, q.OrderBy)

	q.OrderBy = append(order, Order{Field: field, Descending: descending})
	return q
}

// Where starts a new query with a single filter.
func Where(field string, op Operator, value any) Query {
	return Query{}.Where(field, op, value)
}
