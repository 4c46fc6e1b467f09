package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/davicafu/backoffice/internal/resource/domain"
	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
)

// DocumentRepoMongoDB guarda los registros en la colección documents con un
// _id numérico secuencial, igual que las implementaciones SQL.
type DocumentRepoMongoDB struct {
	client     *mongo.Client
	docs       *mongo.Collection
	counters   *mongo.Collection
	outboxColl *mongo.Collection
}

var _ domain.DocumentRepository = (*DocumentRepoMongoDB)(nil)

func NewDocumentRepoMongoDB(ctx context.Context, client *mongo.Client, dbName string) (*DocumentRepoMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}
	db := client.Database(dbName)
	return &DocumentRepoMongoDB{
		client:     client,
		docs:       db.Collection("documents"),
		counters:   db.Collection("counters"),
		outboxColl: db.Collection("outbox"),
	}, nil
}

// --- Structs de BSON para el mapeo ---

type mongoDocument struct {
	ID        int64     `bson:"_id"`
	Resource  string    `bson:"resource"`
	Data      bson.Raw  `bson:"data"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type mongoOutboxEvent struct {
	ID            string              `bson:"_id"`
	AggregateType string              `bson:"aggregateType"`
	AggregateID   string              `bson:"aggregateId"`
	EventType     string              `bson:"eventType"`
	Payload       sharedDomain.Record `bson:"payload"`
	CreatedAt     time.Time           `bson:"createdAt"`
	Processed     bool                `bson:"processed"`
}

// EnsureIndexes crea el índice por recurso.
func (r *DocumentRepoMongoDB) EnsureIndexes(ctx context.Context) error {
	_, err := r.docs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "resource", Value: 1}, {Key: "_id", Value: -1}},
	})
	return err
}

// --- Lectura ---

func (r *DocumentRepoMongoDB) List(ctx context.Context, q domain.ListQuery) ([]domain.Record, int, error) {
	filter, err := ToFilter(q)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.docs.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Record{}, 0, nil
	}

	opts := options.Find().
		SetSort(ToSort(q)).
		SetSkip(int64(q.Page.Offset())).
		SetLimit(int64(q.Page.Size))
	cursor, err := r.docs.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	out := make([]domain.Record, 0, q.Page.Size)
	for cursor.Next(ctx) {
		var md mongoDocument
		if err := cursor.Decode(&md); err != nil {
			return nil, 0, err
		}
		rec, err := fromMongoDocument(&md)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, int(total), cursor.Err()
}

func (r *DocumentRepoMongoDB) Get(ctx context.Context, resource, id string) (domain.Record, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var md mongoDocument
	err = r.docs.FindOne(ctx, bson.M{"_id": n, "resource": resource}).Decode(&md)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return fromMongoDocument(&md)
}

// --- CRUD Transaccional ---

func (r *DocumentRepoMongoDB) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "documents"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	return counter.Seq, err
}

func (r *DocumentRepoMongoDB) Create(ctx context.Context, resource string, data domain.Record, evt sharedDomain.OutboxEvent) (domain.Record, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	out, err := session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		id, err := r.nextID(sessCtx)
		if err != nil {
			return nil, err
		}
		body := data.Clone()
		delete(body, "id")
		now := time.Now().UTC()
		if _, err := r.docs.InsertOne(sessCtx, bson.M{
			"_id": id, "resource": resource, "data": body, "createdAt": now, "updatedAt": now,
		}); err != nil {
			return nil, err
		}

		rec := data.Clone()
		rec["id"] = id
		evt.AggregateID = strconv.FormatInt(id, 10)
		evt.Payload = rec
		if _, err := r.outboxColl.InsertOne(sessCtx, toMongoOutboxEvent(evt)); err != nil {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(domain.Record), nil
}

func (r *DocumentRepoMongoDB) Update(ctx context.Context, resource, id string, patch domain.Record, evt sharedDomain.OutboxEvent) (domain.Record, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	session, err := r.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range patch {
		if k != "id" {
			set["data."+k] = v
		}
	}

	out, err := session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		var md mongoDocument
		err := r.docs.FindOneAndUpdate(sessCtx,
			bson.M{"_id": n, "resource": resource},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&md)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		if err != nil {
			return nil, err
		}
		rec, err := fromMongoDocument(&md)
		if err != nil {
			return nil, err
		}

		evt.AggregateID = id
		evt.Payload = rec
		if _, err := r.outboxColl.InsertOne(sessCtx, toMongoOutboxEvent(evt)); err != nil {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(domain.Record), nil
}

func (r *DocumentRepoMongoDB) Delete(ctx context.Context, resource, id string, evt sharedDomain.OutboxEvent) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		res, err := r.docs.DeleteOne(sessCtx, bson.M{"_id": n, "resource": resource})
		if err != nil {
			return nil, err
		}
		if res.DeletedCount == 0 {
			return nil, domain.ErrRecordNotFound
		}

		evt.AggregateID = id
		evt.Payload = nil
		if _, err := r.outboxColl.InsertOne(sessCtx, toMongoOutboxEvent(evt)); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// --- Helpers de Mapeo y Conversión ---

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n < 1 {
		return 0, domain.ErrRecordNotFound
	}
	return n, nil
}

// rawToRecord pasa por Extended JSON relajado: los documentos vienen de
// JSON, así que el resultado es JSON plano.
func rawToRecord(raw bson.Raw) (domain.Record, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	b, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, err
	}
	var rec domain.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func fromMongoDocument(md *mongoDocument) (domain.Record, error) {
	rec, err := rawToRecord(md.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid document %d: %w", md.ID, err)
	}
	if rec == nil {
		rec = domain.Record{}
	}
	rec["id"] = md.ID
	return rec, nil
}

func toMongoOutboxEvent(evt sharedDomain.OutboxEvent) *mongoOutboxEvent {
	return &mongoOutboxEvent{
		ID: evt.ID.String(), AggregateType: evt.AggregateType, AggregateID: evt.AggregateID,
		EventType: evt.EventType, Payload: evt.Payload, CreatedAt: evt.CreatedAt, Processed: false,
	}
}
