package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func TestParseOrderItems(t *testing.T) {
	validID := primitive.NewObjectID().Hex()

	t.Run("empty list rejected", func(t *testing.T) {
		if _, err := parseOrderItems(nil); err == nil {
			t.Fatal("expected error for empty item list")
		}
	})

	t.Run("invalid product id rejected", func(t *testing.T) {
		_, err := parseOrderItems([]createOrderItemRequest{
			{Product: "not-a-hex-id", Quantity: 1},
		})
		if err == nil {
			t.Fatal("expected error for malformed product id")
		}
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		_, err := parseOrderItems([]createOrderItemRequest{
			{Product: validID, Quantity: 0},
		})
		if err == nil {
			t.Fatal("expected error for zero quantity")
		}
	})

	t.Run("negative quantity rejected", func(t *testing.T) {
		_, err := parseOrderItems([]createOrderItemRequest{
			{Product: validID, Quantity: -3},
		})
		if err == nil {
			t.Fatal("expected error for negative quantity")
		}
	})

	t.Run("valid items parsed", func(t *testing.T) {
		otherID := primitive.NewObjectID().Hex()
		parsed, err := parseOrderItems([]createOrderItemRequest{
			{Product: validID, Quantity: 2},
			{Product: "  " + otherID + "  ", Quantity: 1},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(parsed) != 2 {
			t.Fatalf("expected 2 parsed items, got %d", len(parsed))
		}
		if parsed[0].ProductID.Hex() != validID || parsed[0].Quantity != 2 {
			t.Errorf("first item parsed wrong: %+v", parsed[0])
		}
		if parsed[1].ProductID.Hex() != otherID {
			t.Errorf("whitespace around product id should be trimmed")
		}
	})
}

func TestValidateDeliveryAddress(t *testing.T) {
	complete := models.Address{
		Street:       "12 Temple Road",
		City:         "Colombo",
		Province:     "Western",
		PostalCode:   "00300",
		ContactPhone: "0771234567",
	}
	if err := validateDeliveryAddress(complete); err != nil {
		t.Fatalf("complete address should pass: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(a *models.Address)
	}{
		{"missing street", func(a *models.Address) { a.Street = "" }},
		{"missing city", func(a *models.Address) { a.City = "" }},
		{"missing province", func(a *models.Address) { a.Province = "" }},
		{"missing postal code", func(a *models.Address) { a.PostalCode = "" }},
		{"missing contact phone", func(a *models.Address) { a.ContactPhone = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			addr := complete
			tc.mutate(&addr)
			if err := validateDeliveryAddress(addr); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestOrderErrorMessages(t *testing.T) {
	stockErr := outOfStockError{ProductName: "Paracetamol 500mg", Available: 2, Requested: 5}
	if stockErr.Error() == "" {
		t.Error("out of stock error should carry a message")
	}

	rxErr := prescriptionRequiredError{ProductName: "Amoxicillin 250mg"}
	if rxErr.Error() == "" {
		t.Error("prescription required error should carry a message")
	}

	nfErr := productNotFoundError{ProductID: primitive.NewObjectID()}
	if nfErr.Error() == "" {
		t.Error("not found error should carry a message")
	}
}
