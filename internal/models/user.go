package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleCustomer   = "CUSTOMER"
	RolePharmacist = "PHARMACIST"
	RoleAdmin      = "ADMIN"
)

const (
	UserStatusActive  = "ACTIVE"
	UserStatusPending = "PENDING"
	UserStatusBlocked = "BLOCKED"
)

// Address holds a delivery address. Every field is required when the address
// is attached to an order or prescription submission.
type Address struct {
	Street       string `bson:"street" json:"street"`
	City         string `bson:"city" json:"city"`
	Province     string `bson:"province" json:"province"`
	PostalCode   string `bson:"postalCode" json:"postalCode"`
	ContactPhone string `bson:"contactPhone" json:"contactPhone"`
}

// User is the shared account document for customers, pharmacists and admins.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName    string             `bson:"firstName" json:"firstName"`
	LastName     string             `bson:"lastName" json:"lastName"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         string             `bson:"role" json:"role"`
	Status       string             `bson:"status" json:"status"`
	Address      *Address           `bson:"address,omitempty" json:"address,omitempty"`
	LastLogin    *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
