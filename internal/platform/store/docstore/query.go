package docstore

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	perr "unievents/internal/platform/errors"
)

// PrefixSentinel closes a prefix range: [p, p+PrefixSentinel) holds every string starting with p
// whose following rune sorts below U+F8FF.
const PrefixSentinel = "\uf8ff"

// Op is a comparison operator
type Op string

const (
	Eq  Op = "=="
	Lt  Op = "<"
	Lte Op = "<="
	Gt  Op = ">"
	Gte Op = ">="
)

// Filter compares one field to a value; filters in a query are ANDed
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Order is one sort key; ties always fall back to ascending id
type Order struct {
	Field string
	Desc  bool
}

// Query selects documents from one collection
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    []Order
	Limit      int
}

// From starts a query on collection
func From(collection string) Query { return Query{Collection: collection} }

// Where returns q with an extra filter
func (q Query) Where(field string, op Op, v any) Query {
	q.Filters = append(slices.Clip(q.Filters), Filter{Field: field, Op: op, Value: v})
	return q
}

// Prefix restricts field to strings starting with p; an empty p adds nothing
func (q Query) Prefix(field, p string) Query {
	if p == "" {
		return q
	}
	return q.Where(field, Gte, p).Where(field, Lt, p+PrefixSentinel)
}

// Asc returns q with an ascending sort key
func (q Query) Asc(field string) Query {
	q.OrderBy = append(slices.Clip(q.OrderBy), Order{Field: field})
	return q
}

// Desc returns q with a descending sort key
func (q Query) Desc(field string) Query {
	q.OrderBy = append(slices.Clip(q.OrderBy), Order{Field: field, Desc: true})
	return q
}

// Take caps the number of results
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// Validate checks operators and values before a backend sees them
func (q Query) Validate() error {
	if q.Collection == "" {
		return perr.InvalidArgf("query without collection")
	}
	for _, f := range q.Filters {
		switch f.Op {
		case Eq, Lt, Lte, Gt, Gte:
		default:
			return perr.InvalidArgf("unsupported operator %q on %s", f.Op, f.Field)
		}
		if f.Field == "" {
			return perr.InvalidArgf("filter without field")
		}
		if _, err := Value(f.Value); err != nil {
			return perr.WithField(err, f.Field)
		}
	}
	if q.Limit < 0 {
		return perr.InvalidArgf("negative limit")
	}
	return nil
}

// Value coerces v to a storable scalar; times become milliseconds
func Value(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, int64, float64, bool:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float32:
		return float64(x), nil
	case time.Time:
		return Millis(x), nil
	default:
		return nil, perr.InvalidArgf("unsupported field type %T", v)
	}
}

// Normalize coerces every field of f, returning a fresh map
func Normalize(f Fields) (Fields, error) {
	out := make(Fields, len(f))
	for k, v := range f {
		nv, err := Value(v)
		if err != nil {
			return nil, perr.WithField(err, k)
		}
		out[k] = nv
	}
	return out, nil
}

// rank orders types the way the store does: null, bool, number, string
func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64, float64:
		return 2
	case string:
		return 3
	}
	return 4
}

// Compare orders two stored values; strings compare bytewise
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
		return cmp.Compare(float64(x), b.(float64))
	case float64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, float64(y))
		}
		return cmp.Compare(x, b.(float64))
	case string:
		return strings.Compare(x, b.(string))
	case nil:
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// Matches reports whether f satisfies every filter. Missing fields never match,
// and range filters only match values of the same type.
func Matches(f Fields, filters []Filter) bool {
	for _, flt := range filters {
		v, ok := f[flt.Field]
		if !ok {
			return false
		}
		want, _ := Value(flt.Value)
		if rank(v) != rank(want) {
			return false
		}
		c := Compare(v, want)
		var pass bool
		switch flt.Op {
		case Eq:
			pass = c == 0
		case Lt:
			pass = c < 0
		case Lte:
			pass = c <= 0
		case Gt:
			pass = c > 0
		case Gte:
			pass = c >= 0
		}
		if !pass {
			return false
		}
	}
	return true
}

// SortDocs orders docs by orders then id
func SortDocs(docs []Document, orders []Order) {
	slices.SortStableFunc(docs, func(a, b Document) int {
		for _, o := range orders {
			c := Compare(a.Fields[o.Field], b.Fields[o.Field])
			if o.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Apply runs q over an unordered set of documents: filter, sort, limit
func Apply(docs []Document, q Query) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if Matches(d.Fields, q.Filters) {
			out = append(out, d)
		}
	}
	SortDocs(out, q.OrderBy)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// SameDocs reports whether two results hold the same documents in the same order
func SameDocs(a, b []Document) bool {
	return slices.EqualFunc(a, b, func(x, y Document) bool { return SameDoc(&x, &y) })
}

// SameDoc compares two optional documents field by field
func SameDoc(a, b *Document) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.ID != b.ID || len(a.Fields) != len(b.Fields) {
		return false
	}
	for k, v := range a.Fields {
		w, ok := b.Fields[k]
		if !ok || rank(v) != rank(w) || Compare(v, w) != 0 {
			return false
		}
	}
	return true
}
