package pgdoc

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"

	"unievents/internal/platform/store/docstore"
)

const (
	table         = "docstore_documents"
	notifyChannel = "docstore_changes"

	colCollection = "collection"
	colID         = "id"
	colData       = "data"
	colUpdatedAt  = "updated_at"

	lockSQL = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
)

var dialect = goqu.Dialect("postgres")

// Field accessors. jsonb_typeof guards every cast so a value of another type simply does not match.
const (
	litType   = `jsonb_typeof(data->?::text)`
	litString = `(CASE WHEN jsonb_typeof(data->?::text) = 'string' THEN data->>?::text END) COLLATE "C"`
	litNumber = `(CASE WHEN jsonb_typeof(data->?::text) = 'number' THEN (data->>?::text)::numeric END)`
	litBool   = `(CASE WHEN jsonb_typeof(data->?::text) = 'boolean' THEN (data->>?::text)::boolean END)`
	litRank   = `(CASE jsonb_typeof(data->?::text) WHEN 'boolean' THEN 1 WHEN 'number' THEN 2 WHEN 'string' THEN 3 ELSE 0 END)`
	litText   = `(data->>?::text) COLLATE "C"`
	litJSONB  = `?::jsonb`
)

func compare(l exp.LiteralExpression, op docstore.Op, v any) exp.Expression {
	switch op {
	case docstore.Lt:
		return l.Lt(v)
	case docstore.Lte:
		return l.Lte(v)
	case docstore.Gt:
		return l.Gt(v)
	case docstore.Gte:
		return l.Gte(v)
	default:
		return l.Eq(v)
	}
}

// filterExpr translates one filter; values are already coerced by docstore.Value
func filterExpr(f docstore.Filter) exp.Expression {
	v, _ := docstore.Value(f.Value)
	switch x := v.(type) {
	case nil:
		if f.Op == docstore.Eq || f.Op == docstore.Lte || f.Op == docstore.Gte {
			return goqu.L(litType, f.Field).Eq("null")
		}
		return goqu.L("FALSE")
	case string:
		return compare(goqu.L(litString, f.Field, f.Field), f.Op, x)
	case bool:
		return compare(goqu.L(litBool, f.Field, f.Field), f.Op, x)
	default:
		return compare(goqu.L(litNumber, f.Field, f.Field), f.Op, x)
	}
}

// orderExprs sorts by type rank, then numeric value, then bytewise text, which matches docstore.Compare
// for every single-typed field
func orderExprs(orders []docstore.Order) []exp.OrderedExpression {
	out := make([]exp.OrderedExpression, 0, len(orders)*3+1)
	for _, o := range orders {
		keys := []exp.LiteralExpression{
			goqu.L(litRank, o.Field),
			goqu.L(litNumber, o.Field, o.Field),
			goqu.L(litText, o.Field),
		}
		for _, k := range keys {
			if o.Desc {
				out = append(out, k.Desc().NullsLast())
			} else {
				out = append(out, k.Asc().NullsFirst())
			}
		}
	}
	return append(out, goqu.L(`id COLLATE "C"`).Asc())
}

func selectSQL(q docstore.Query) (string, []any, error) {
	where := make([]exp.Expression, 0, len(q.Filters)+1)
	where = append(where, goqu.C(colCollection).Eq(q.Collection))
	for _, f := range q.Filters {
		where = append(where, filterExpr(f))
	}
	ds := dialect.From(table).
		Select(colID, colData).
		Where(goqu.And(where...)).
		Order(orderExprs(q.OrderBy)...).
		Prepared(true)
	if q.Limit > 0 {
		ds = ds.Limit(uint(q.Limit))
	}
	return ds.ToSQL()
}

func getSQL(collection, id string) (string, []any, error) {
	return dialect.From(table).
		Select(colData).
		Where(goqu.C(colCollection).Eq(collection), goqu.C(colID).Eq(id)).
		Prepared(true).
		ToSQL()
}

func insertRecord(collection, id, body string) goqu.Record {
	return goqu.Record{colCollection: collection, colID: id, colData: goqu.L(litJSONB, body)}
}

// createSQL inserts unless the id is taken; zero rows affected means it was
func createSQL(collection, id, body string) (string, []any, error) {
	return dialect.Insert(table).
		Rows(insertRecord(collection, id, body)).
		OnConflict(goqu.DoNothing()).
		Prepared(true).
		ToSQL()
}

func setSQL(collection, id, body string) (string, []any, error) {
	return dialect.Insert(table).
		Rows(insertRecord(collection, id, body)).
		OnConflict(goqu.DoUpdate(colCollection+", "+colID, goqu.Record{
			colData:      goqu.L("EXCLUDED." + colData),
			colUpdatedAt: goqu.L("now()"),
		})).
		Prepared(true).
		ToSQL()
}

func deleteSQL(collection string, ids ...string) (string, []any, error) {
	return dialect.Delete(table).
		Where(goqu.C(colCollection).Eq(collection), goqu.C(colID).In(ids)).
		Prepared(true).
		ToSQL()
}
