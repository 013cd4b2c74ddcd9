package backend

// Filter is an equality filter on a column.
type Filter struct {
	Column string
	Value  string
}

// Order sorts by a column.
type Order struct {
	Column    string
	Ascending bool
}

// Query selects rows from a table.
type Query struct {
	Table   string
	Columns string
	Filters []Filter
	Orders  []Order
	Single  bool
}

// From starts a query on table selecting all columns.
func From(table string) Query {
	return Query{Table: table, Columns: "*"}
}

func (q Query) Eq(column, value string) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Column: column, Value: value})
	return q
}

func (q Query) OrderBy(column string, ascending bool) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Column: column, Ascending: ascending})
	return q
}

func (q Query) One() Query {
	q.Single = true
	return q
}
