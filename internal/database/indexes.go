package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	_, err := db.Collection("users").Indexes().CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}

	licenseIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "licenseNumber", Value: 1}},
		Options: options.Index().
			SetName("licenseNumber_unique").
			SetUnique(true),
	}

	_, err = db.Collection("pharmacistProfiles").Indexes().CreateOne(ctx, licenseIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: licenseNumber index error:", err)
		return err
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	// Backstop for the sequential counter: duplicate numbers must fail loudly.
	orderNumberIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "orderNumber", Value: 1}},
		Options: options.Index().
			SetName("orderNumber_unique").
			SetUnique(true),
	}

	log.Println("EnsureOrderIndexes: creating orderNumber_unique index")
	if _, err := indexes.CreateOne(ctx, orderNumberIndex); err != nil {
		log.Println("EnsureOrderIndexes: orderNumber index error:", err)
		return err
	}

	customerIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "customer", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("customer_createdAt_index"),
	}
	if _, err := indexes.CreateOne(ctx, customerIndex); err != nil {
		log.Println("EnsureOrderIndexes: customer index error:", err)
		return err
	}
	return nil
}

func EnsurePrescriptionIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	statusIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("status_createdAt_index"),
	}

	log.Println("EnsurePrescriptionIndexes: creating status_createdAt_index")
	_, err := db.Collection("prescriptions").Indexes().CreateOne(ctx, statusIndex)
	if err != nil {
		log.Println("EnsurePrescriptionIndexes: status index error:", err)
		return err
	}
	return nil
}

func EnsureMessageIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recipientIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "recipient", Value: 1}, {Key: "isRead", Value: 1}},
		Options: options.Index().SetName("recipient_isRead_index"),
	}

	_, err := db.Collection("messages").Indexes().CreateOne(ctx, recipientIndex)
	if err != nil {
		log.Println("EnsureMessageIndexes: recipient index error:", err)
		return err
	}
	return nil
}

func EnsureAuditLogIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("auditLogs").Indexes()

	userIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("user_createdAt_index"),
	}
	if _, err := indexes.CreateOne(ctx, userIndex); err != nil {
		log.Println("EnsureAuditLogIndexes: user index error:", err)
		return err
	}

	actionIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "action", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("action_createdAt_index"),
	}
	if _, err := indexes.CreateOne(ctx, actionIndex); err != nil {
		log.Println("EnsureAuditLogIndexes: action index error:", err)
		return err
	}
	return nil
}
