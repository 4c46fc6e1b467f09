package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
)

// OutboxRepoMongoDB implementa la interfaz sharedDomain.OutboxRepository.
type OutboxRepoMongoDB struct {
	outboxColl *mongo.Collection
}

func NewOutboxRepoMongoDB(client *mongo.Client, dbName string) *OutboxRepoMongoDB {
	return &OutboxRepoMongoDB{outboxColl: client.Database(dbName).Collection("outbox")}
}

// storedOutboxEvent es la forma de lectura: el payload queda crudo hasta convertirlo.
type storedOutboxEvent struct {
	ID            string        `bson:"_id"`
	AggregateType string        `bson:"aggregateType"`
	AggregateID   string        `bson:"aggregateId"`
	EventType     string        `bson:"eventType"`
	Payload       bson.RawValue `bson:"payload"`
	CreatedAt     time.Time     `bson:"createdAt"`
	Processed     bool          `bson:"processed"`
}

// FetchPendingOutbox obtiene los eventos no procesados de la colección outbox.
func (r *OutboxRepoMongoDB) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit))

	cursor, err := r.outboxColl.Find(ctx, bson.M{"processed": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []sharedDomain.OutboxEvent
	for cursor.Next(ctx) {
		var so storedOutboxEvent
		if err := cursor.Decode(&so); err != nil {
			return nil, err
		}
		evt, err := fromStoredOutboxEvent(&so)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, cursor.Err()
}

// MarkOutboxProcessed marca un evento como procesado.
func (r *OutboxRepoMongoDB) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.outboxColl.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": bson.M{"processed": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

func fromStoredOutboxEvent(so *storedOutboxEvent) (sharedDomain.OutboxEvent, error) {
	id, err := uuid.Parse(so.ID)
	if err != nil {
		return sharedDomain.OutboxEvent{}, fmt.Errorf("invalid UUID in outbox row: %w", err)
	}
	var payload sharedDomain.Record
	if so.Payload.Type == bsontype.EmbeddedDocument {
		payload, err = rawToRecord(so.Payload.Document())
		if err != nil {
			return sharedDomain.OutboxEvent{}, fmt.Errorf("invalid payload in outbox row %s: %w", so.ID, err)
		}
	}
	return sharedDomain.OutboxEvent{
		ID:            id,
		AggregateType: so.AggregateType,
		AggregateID:   so.AggregateID,
		EventType:     so.EventType,
		Payload:       payload,
		CreatedAt:     so.CreatedAt,
		Processed:     so.Processed,
	}, nil
}

// Verificación en tiempo de compilación.
var _ sharedDomain.OutboxRepository = (*OutboxRepoMongoDB)(nil)
