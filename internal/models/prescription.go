package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PrescriptionStatusPending          = "PENDING"
	PrescriptionStatusApproved         = "APPROVED"
	PrescriptionStatusRejected         = "REJECTED"
	PrescriptionStatusReuploadRequired = "REUPLOAD_REQUIRED"
)

// ValidReviewDecision reports whether s is an allowed review outcome.
func ValidReviewDecision(s string) bool {
	switch s {
	case PrescriptionStatusApproved, PrescriptionStatusRejected, PrescriptionStatusReuploadRequired:
		return true
	}
	return false
}

// PrescriptionFile describes one persisted upload.
type PrescriptionFile struct {
	Filename     string    `bson:"filename" json:"filename"`
	OriginalName string    `bson:"originalName" json:"originalName"`
	Path         string    `bson:"path" json:"path"`
	MimeType     string    `bson:"mimetype" json:"mimetype"`
	Size         int64     `bson:"size" json:"size"`
	UploadedAt   time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

// RequestedMedicine is a free-text entry from the customer; it is not
// validated against the catalog.
type RequestedMedicine struct {
	ProductName string `bson:"productName" json:"productName"`
	Quantity    int    `bson:"quantity" json:"quantity"`
	Notes       string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Prescription is reviewed exactly once: status leaves PENDING at most one
// time and the record is immutable afterwards. A fresh submission creates a
// new prescription/order pair.
type Prescription struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CustomerID         primitive.ObjectID  `bson:"customer" json:"customer"`
	OrderID            *primitive.ObjectID `bson:"order,omitempty" json:"order,omitempty"`
	Files              []PrescriptionFile  `bson:"files" json:"files"`
	RequestedMedicines []RequestedMedicine `bson:"requestedMedicines" json:"requestedMedicines"`
	Status             string              `bson:"status" json:"status"`
	ReviewedBy         *primitive.ObjectID `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt         *time.Time          `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	ReviewNotes        string              `bson:"reviewNotes,omitempty" json:"reviewNotes,omitempty"`
	RejectionReason    string              `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	CustomerNotes      string              `bson:"customerNotes,omitempty" json:"customerNotes,omitempty"`
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updatedAt" json:"updatedAt"`
}
