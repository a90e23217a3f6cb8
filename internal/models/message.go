package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MessagePriceConfirmation    = "PRICE_CONFIRMATION"
	MessageOrderUpdate          = "ORDER_UPDATE"
	MessagePrescriptionFeedback = "PRESCRIPTION_FEEDBACK"
	MessageGeneral              = "GENERAL"
)

// Message is an in-app notification record; the messages collection is the
// delivery channel.
type Message struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SenderID    primitive.ObjectID  `bson:"sender" json:"sender"`
	RecipientID primitive.ObjectID  `bson:"recipient" json:"recipient"`
	OrderID     *primitive.ObjectID `bson:"order,omitempty" json:"order,omitempty"`
	Subject     string              `bson:"subject,omitempty" json:"subject,omitempty"`
	Body        string              `bson:"message" json:"message"`
	MessageType string              `bson:"messageType" json:"messageType"`
	IsRead      bool                `bson:"isRead" json:"isRead"`
	ReadAt      *time.Time          `bson:"readAt,omitempty" json:"readAt,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}
