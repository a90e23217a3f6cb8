package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StockStatusOut = "OUT_OF_STOCK"
	StockStatusLow = "LOW_STOCK"
	StockStatusIn  = "IN_STOCK"
)

// ProductImage is a catalog image reference.
type ProductImage struct {
	URL string `bson:"url" json:"url"`
	Alt string `bson:"alt,omitempty" json:"alt,omitempty"`
}

// Product is a catalog entry. Stock is mutated only by order confirmation,
// prescription approval and cancellation, always through guarded $inc updates.
type Product struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                 string             `bson:"name" json:"name"`
	GenericName          string             `bson:"genericName,omitempty" json:"genericName,omitempty"`
	Brand                string             `bson:"brand,omitempty" json:"brand,omitempty"`
	CategoryID           primitive.ObjectID `bson:"category" json:"category"`
	Description          string             `bson:"description" json:"description"`
	DosageForm           string             `bson:"dosageForm,omitempty" json:"dosageForm,omitempty"`
	Strength             string             `bson:"strength,omitempty" json:"strength,omitempty"`
	Price                float64            `bson:"price" json:"price"`
	Stock                int                `bson:"stock" json:"stock"`
	LowStockThreshold    int                `bson:"lowStockThreshold" json:"lowStockThreshold"`
	PrescriptionRequired bool               `bson:"prescriptionRequired" json:"prescriptionRequired"`
	Images               []ProductImage     `bson:"images,omitempty" json:"images,omitempty"`
	Manufacturer         string             `bson:"manufacturer,omitempty" json:"manufacturer,omitempty"`
	StockStatus          string             `bson:"-" json:"stockStatus"`
	IsActive             bool               `bson:"isActive" json:"isActive"`
	CreatedAt            time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ResolveStockStatus fills the derived StockStatus field before serialization.
func (p *Product) ResolveStockStatus() {
	switch {
	case p.Stock == 0:
		p.StockStatus = StockStatusOut
	case p.Stock <= p.LowStockThreshold:
		p.StockStatus = StockStatusLow
	default:
		p.StockStatus = StockStatusIn
	}
}
