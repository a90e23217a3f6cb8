package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const orderNumberCounter = "orderNumber"

type counterDoc struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// NextOrderNumber atomically reserves the next sequential order number.
// Counting existing orders would hand out duplicates under concurrent
// creation; the dedicated counter document cannot.
func NextOrderNumber(ctx context.Context, db *mongo.Database) (string, error) {
	var counter counterDoc
	err := db.Collection("counters").FindOneAndUpdate(
		ctx,
		bson.M{"_id": orderNumberCounter},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return "", err
	}
	return FormatOrderNumber(counter.Seq), nil
}

// FormatOrderNumber renders a sequence value as a human-readable order number.
func FormatOrderNumber(seq int64) string {
	return fmt.Sprintf("VPH%06d", seq)
}
