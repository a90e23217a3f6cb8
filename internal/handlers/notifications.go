package handlers

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// sendMessage appends an in-app notification for the recipient. Failures are
// logged and swallowed: a missed notification must never fail the operation
// that triggered it.
func sendMessage(db *mongo.Database, sender, recipient primitive.ObjectID, orderID *primitive.ObjectID, subject, body, messageType string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := models.Message{
		SenderID:    sender,
		RecipientID: recipient,
		OrderID:     orderID,
		Subject:     subject,
		Body:        body,
		MessageType: messageType,
		CreatedAt:   time.Now(),
	}

	if _, err := db.Collection("messages").InsertOne(ctx, msg); err != nil {
		log.Println("[MESSAGE] [ERROR] failed to store notification:", err)
	}
}
