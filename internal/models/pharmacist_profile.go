package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// PharmacistProfile carries the licensing details a pharmacist submits at
// registration. The account stays in PENDING status until an admin reviews it.
type PharmacistProfile struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID  `bson:"user" json:"user"`
	LicenseNumber     string              `bson:"licenseNumber" json:"licenseNumber"`
	NIC               string              `bson:"nic" json:"nic"`
	Qualifications    string              `bson:"qualifications,omitempty" json:"qualifications,omitempty"`
	PharmacyBranch    string              `bson:"pharmacyBranch,omitempty" json:"pharmacyBranch,omitempty"`
	YearsOfExperience int                 `bson:"yearsOfExperience,omitempty" json:"yearsOfExperience,omitempty"`
	Specialization    string              `bson:"specialization,omitempty" json:"specialization,omitempty"`
	ApprovalStatus    string              `bson:"approvalStatus" json:"approvalStatus"`
	ApprovedBy        *primitive.ObjectID `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt        *time.Time          `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	RejectionReason   string              `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}
