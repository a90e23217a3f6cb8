package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// writeAuditLog records an audit trail entry. Best-effort: errors are logged,
// never surfaced to the caller.
func writeAuditLog(db *mongo.Database, c *gin.Context, actor primitive.ObjectID, action, targetModel string, targetID primitive.ObjectID, details bson.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry := models.AuditLog{
		UserID:      actor,
		Action:      action,
		TargetModel: targetModel,
		Details:     details,
		CreatedAt:   time.Now(),
	}
	if !targetID.IsZero() {
		entry.TargetID = &targetID
	}
	if c != nil {
		entry.IPAddress = c.ClientIP()
		entry.UserAgent = c.Request.UserAgent()
	}

	if _, err := db.Collection("auditLogs").InsertOne(ctx, entry); err != nil {
		log.Println("[AUDIT] [ERROR] failed to store audit log:", err)
	}
}
