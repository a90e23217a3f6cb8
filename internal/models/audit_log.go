package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AuditUserLogin           = "USER_LOGIN"
	AuditUserRegister        = "USER_REGISTER"
	AuditPharmacistApproved  = "PHARMACIST_APPROVED"
	AuditPharmacistRejected  = "PHARMACIST_REJECTED"
	AuditProductCreated      = "PRODUCT_CREATED"
	AuditProductUpdated      = "PRODUCT_UPDATED"
	AuditProductDeleted      = "PRODUCT_DELETED"
	AuditOrderCreated        = "ORDER_CREATED"
	AuditOrderStatusUpdated  = "ORDER_STATUS_UPDATED"
	AuditPrescriptionReview  = "PRESCRIPTION_REVIEWED"
	AuditUserBlocked         = "USER_BLOCKED"
	AuditUserActivated       = "USER_ACTIVATED"
	AuditCategoryCreated     = "CATEGORY_CREATED"
	AuditCategoryUpdated     = "CATEGORY_UPDATED"
	AuditCategoryDeleted     = "CATEGORY_DELETED"
)

// AuditLog is a best-effort trail entry; writing one must never abort the
// operation that triggered it.
type AuditLog struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID  `bson:"user" json:"user"`
	Action      string              `bson:"action" json:"action"`
	TargetModel string              `bson:"targetModel,omitempty" json:"targetModel,omitempty"`
	TargetID    *primitive.ObjectID `bson:"targetId,omitempty" json:"targetId,omitempty"`
	Details     bson.M              `bson:"details,omitempty" json:"details,omitempty"`
	IPAddress   string              `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent   string              `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}
