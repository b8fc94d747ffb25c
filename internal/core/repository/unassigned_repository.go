package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fleettrack/internal/core/model"
)

// UnassignedRepository records identities that reported in but matched no
// registered device, so operators can provision them later.
type UnassignedRepository interface {
	Record(protocol, uniqueID, ipAddress string) error
	FindAll() ([]*model.UnassignedDevice, error)
}

type MongoUnassignedRepository struct {
	collection *mongo.Collection
}

func NewMongoUnassignedRepository(db *mongo.Database) *MongoUnassignedRepository {
	return &MongoUnassignedRepository{
		collection: db.Collection("unassigned_devices"),
	}
}

// Record upserts by (protocol, uniqueId) so a chatty unknown device takes
// one row, not thousands.
func (r *MongoUnassignedRepository) Record(protocol, uniqueID, ipAddress string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"protocol": protocol, "uniqueid": uniqueID}
	update := bson.M{"$set": bson.M{
		"protocol":  protocol,
		"uniqueid":  uniqueID,
		"ipaddress": ipAddress,
		"seenat":    time.Now().UTC(),
	}}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *MongoUnassignedRepository) FindAll() ([]*model.UnassignedDevice, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.UnassignedDevice
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
