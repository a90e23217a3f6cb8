package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

func GetMyMessages(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/messages"
		defer handlePanic(c, route)

		recipient, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		page, limit, skip, err := paginationFromQuery(c, 20)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := bson.M{"recipient": recipient}
		if c.Query("unread") == "true" {
			filter["isRead"] = false
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("messages").Find(ctx, filter, options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(skip).
			SetLimit(limit))
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		messages := make([]models.Message, 0)
		if err := cursor.All(ctx, &messages); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		total, err := db.Collection("messages").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondPaginated(c, "Messages retrieved successfully", messages, page, limit, total)
	}
}

// MarkMessageRead is idempotent; re-reading an already read message keeps the
// original readAt timestamp.
func MarkMessageRead(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/messages/:id/read"
		defer handlePanic(c, route)

		recipient, ok := actorID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		messageID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid message id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var msg models.Message
		err = db.Collection("messages").FindOne(ctx,
			bson.M{"_id": messageID, "recipient": recipient}).Decode(&msg)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "message not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if !msg.IsRead {
			now := time.Now()
			_, err = db.Collection("messages").UpdateOne(ctx,
				bson.M{"_id": messageID, "isRead": false},
				bson.M{"$set": bson.M{"isRead": true, "readAt": now}})
			if err != nil {
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			msg.IsRead = true
			msg.ReadAt = &now
		}

		respondSuccess(c, http.StatusOK, "Message marked as read", msg)
	}
}
