package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusPendingReview    = "PENDING_REVIEW"
	OrderStatusApproved         = "APPROVED"
	OrderStatusAwaitingPayment  = "AWAITING_PAYMENT"
	OrderStatusPaid             = "PAID"
	OrderStatusPreparing        = "PREPARING"
	OrderStatusReadyForDelivery = "READY_FOR_DELIVERY"
	OrderStatusOutForDelivery   = "OUT_FOR_DELIVERY"
	OrderStatusDelivered        = "DELIVERED"
	OrderStatusCancelled        = "CANCELLED"
	OrderStatusRejected         = "REJECTED"
)

const (
	PaymentMethodCOD          = "COD"
	PaymentMethodOnline       = "ONLINE"
	PaymentMethodBankTransfer = "BANK_TRANSFER"
)

const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)

// orderTransitions is the allowed-from map for the generic status update.
// CANCELLED is deliberately absent from every target list: cancellation goes
// through the dedicated cancel operation so stock restore cannot be skipped.
var orderTransitions = map[string][]string{
	OrderStatusPendingReview:    {OrderStatusApproved, OrderStatusRejected},
	OrderStatusApproved:         {OrderStatusAwaitingPayment, OrderStatusPaid},
	OrderStatusAwaitingPayment:  {OrderStatusPaid},
	OrderStatusPaid:             {OrderStatusPreparing},
	OrderStatusPreparing:        {OrderStatusReadyForDelivery},
	OrderStatusReadyForDelivery: {OrderStatusOutForDelivery},
	OrderStatusOutForDelivery:   {OrderStatusDelivered},
	OrderStatusDelivered:        {},
	OrderStatusCancelled:        {},
	OrderStatusRejected:         {},
}

// ValidOrderStatus reports whether s is one of the known order states.
func ValidOrderStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionOrder reports whether an order may move from one status to
// another via the generic status-update operation.
func CanTransitionOrder(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderCancellable reports whether a customer may still cancel the order.
// Fulfillment has started once the order reaches PREPARING.
func OrderCancellable(status string) bool {
	switch status {
	case OrderStatusPreparing, OrderStatusReadyForDelivery, OrderStatusOutForDelivery,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRejected:
		return false
	}
	return true
}

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodOnline, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// OrderItem is a priced line item. Price is snapshotted from the catalog when
// the item is created and never re-resolved.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	Subtotal  float64            `bson:"subtotal" json:"subtotal"`
}

// StatusHistoryEntry is one append-only record of an order status change.
type StatusHistoryEntry struct {
	Status    string              `bson:"status" json:"status"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
	UpdatedBy *primitive.ObjectID `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	Note      string              `bson:"note,omitempty" json:"note,omitempty"`
}

// PaymentProof is an uploaded bank-transfer receipt reference.
type PaymentProof struct {
	URL        string    `bson:"url" json:"url"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

// Order is the persisted order document. Total always equals
// Subtotal + DeliveryFee; the prescription link is set once at creation.
type Order struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	OrderNumber     string               `bson:"orderNumber" json:"orderNumber"`
	CustomerID      primitive.ObjectID   `bson:"customer" json:"customer"`
	Items           []OrderItem          `bson:"items" json:"items"`
	PrescriptionID  *primitive.ObjectID  `bson:"prescription,omitempty" json:"prescription,omitempty"`
	Status          string               `bson:"status" json:"status"`
	Subtotal        float64              `bson:"subtotal" json:"subtotal"`
	DeliveryFee     float64              `bson:"deliveryFee" json:"deliveryFee"`
	Total           float64              `bson:"total" json:"total"`
	PaymentMethod   string               `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus   string               `bson:"paymentStatus" json:"paymentStatus"`
	PaymentProof    *PaymentProof        `bson:"paymentProof,omitempty" json:"paymentProof,omitempty"`
	DeliveryAddress Address              `bson:"deliveryAddress" json:"deliveryAddress"`
	PharmacistID    *primitive.ObjectID  `bson:"pharmacist,omitempty" json:"pharmacist,omitempty"`
	CustomerNotes   string               `bson:"customerNotes,omitempty" json:"customerNotes,omitempty"`
	StatusHistory   []StatusHistoryEntry `bson:"statusHistory" json:"statusHistory"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}
