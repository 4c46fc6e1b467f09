package mongodb

import (
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/davicafu/backoffice/internal/resource/domain"
)

func field(path []string) string {
	if domain.IsID(path) {
		return "_id"
	}
	return "data." + strings.Join(path, ".")
}

func regex(pattern string, insensitive bool) bson.M {
	m := bson.M{"$regex": pattern}
	if insensitive {
		m["$options"] = "i"
	}
	return m
}

// scalar devuelve el número si v lo es, si no el texto.
func scalar(v string) any {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}

// condition traduce un criterio a un elemento de filtro de Mongo.
func condition(c domain.Criterion) (bson.E, error) {
	f := field(c.Path)
	q := regexp.QuoteMeta(c.Value)
	switch c.Lookup {
	case domain.LookupExact:
		if f == "_id" {
			n, err := strconv.ParseInt(c.Value, 10, 64)
			if err != nil {
				// ningún documento tiene ese id
				return bson.E{Key: f, Value: int64(-1)}, nil
			}
			return bson.E{Key: f, Value: n}, nil
		}
		values := bson.A{c.Value}
		if n, ok := scalar(c.Value).(float64); ok {
			values = append(values, n)
		}
		if c.Value == "true" || c.Value == "false" {
			values = append(values, c.Value == "true")
		}
		return bson.E{Key: f, Value: bson.M{"$in": values}}, nil
	case domain.LookupIExact:
		return bson.E{Key: f, Value: regex("^"+q+"$", true)}, nil
	case domain.LookupIContains:
		return bson.E{Key: f, Value: regex(q, true)}, nil
	case domain.LookupContains:
		return bson.E{Key: f, Value: regex(q, false)}, nil
	case domain.LookupStartsWith:
		return bson.E{Key: f, Value: regex("^"+q, false)}, nil
	case domain.LookupEndsWith:
		return bson.E{Key: f, Value: regex(q+"$", false)}, nil
	case domain.LookupIsNull:
		if c.IsNull() {
			return bson.E{Key: f, Value: nil}, nil
		}
		return bson.E{Key: f, Value: bson.M{"$ne": nil}}, nil
	case domain.LookupGt:
		return bson.E{Key: f, Value: bson.M{"$gt": scalar(c.Value)}}, nil
	case domain.LookupGte:
		return bson.E{Key: f, Value: bson.M{"$gte": scalar(c.Value)}}, nil
	case domain.LookupLt:
		return bson.E{Key: f, Value: bson.M{"$lt": scalar(c.Value)}}, nil
	case domain.LookupLte:
		return bson.E{Key: f, Value: bson.M{"$lte": scalar(c.Value)}}, nil
	default:
		return bson.E{}, domain.ErrInvalidLookup
	}
}

// ToFilter arma el filtro del listado. Los criterios van en un $and para
// admitir varios sobre el mismo campo.
func ToFilter(q domain.ListQuery) (bson.D, error) {
	and := bson.A{bson.D{{Key: "resource", Value: q.Resource}}}
	for _, c := range q.Criteria {
		e, err := condition(c)
		if err != nil {
			return nil, err
		}
		and = append(and, bson.D{e})
	}
	if q.Search != "" && len(q.SearchFields) > 0 {
		or := bson.A{}
		for _, f := range q.SearchFields {
			or = append(or, bson.D{{Key: field(f), Value: regex(regexp.QuoteMeta(q.Search), true)}})
		}
		and = append(and, bson.D{{Key: "$or", Value: or}})
	}
	return bson.D{{Key: "$and", Value: and}}, nil
}

// ToSort ordena por los campos pedidos y desempata por _id descendente.
func ToSort(q domain.ListQuery) bson.D {
	sort := bson.D{}
	hasID := false
	for _, o := range q.Ordering {
		dir := 1
		if o.Desc {
			dir = -1
		}
		f := field(o.Path)
		hasID = hasID || f == "_id"
		sort = append(sort, bson.E{Key: f, Value: dir})
	}
	if !hasID {
		sort = append(sort, bson.E{Key: "_id", Value: -1})
	}
	return sort
}
