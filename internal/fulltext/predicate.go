package fulltext

// Filterer is the consuming query layer's raw-filter hook.
type Filterer interface {
	WhereRaw(sql string, params ...any)
}

// Predicate is a match condition ready to attach to a query.
//
// It is applied later, at a point the consuming query layer chooses. Its
// SQL uses positional "?" placeholders and Params holds their values in
// order. A Predicate holds no reference to the Builder that made it.
type Predicate struct {
	SQL    string
	Params []any
}

// Apply attaches the predicate to f as a raw filter.
func (p Predicate) Apply(f Filterer) {
	params := make([]any, len(p.Params))
	copy(params, p.Params)
	f.WhereRaw(p.SQL, params...)
}

// IsZero reports whether p is the zero Predicate.
func (p Predicate) IsZero() bool {
	return p.SQL == "" && len(p.Params) == 0
}
