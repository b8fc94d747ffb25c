package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fleettrack/internal/core/model"
)

type EventRepository interface {
	Insert(event *model.Event) error
	FindLatestByDevice(accountID, deviceID string) (*model.Event, error)
	FindByDevice(accountID, deviceID string, limit int64) ([]*model.Event, error)
}

type MongoEventRepository struct {
	collection *mongo.Collection
}

func NewMongoEventRepository(db *mongo.Database) *MongoEventRepository {
	return &MongoEventRepository{
		collection: db.Collection("events"),
	}
}

// EnsureIndexes creates the natural-key unique index. Called once at
// startup; insertion of a duplicate (account, device, fixTime, statusCode)
// fails at the collection level.
func (r *MongoEventRepository) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "accountid", Value: 1},
			{Key: "deviceid", Value: 1},
			{Key: "fixtime", Value: 1},
			{Key: "statuscode", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoEventRepository) Insert(event *model.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, event)
	return err
}

func (r *MongoEventRepository) FindLatestByDevice(accountID, deviceID string) (*model.Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.FindOne().SetSort(bson.M{"fixtime": -1})
	var event model.Event
	err := r.collection.FindOne(ctx, bson.M{"accountid": accountID, "deviceid": deviceID}, opts).Decode(&event)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &event, err
}

func (r *MongoEventRepository) FindByDevice(accountID, deviceID string, limit int64) ([]*model.Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"fixtime": -1})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, bson.M{"accountid": accountID, "deviceid": deviceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*model.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
