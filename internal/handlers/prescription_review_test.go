package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func TestValidateReviewInput(t *testing.T) {
	cases := []struct {
		name            string
		status          string
		rejectionReason string
		reviewNotes     string
		itemCount       int
		wantErr         bool
	}{
		{"approve with items", models.PrescriptionStatusApproved, "", "", 2, false},
		{"approve without items", models.PrescriptionStatusApproved, "", "", 0, true},
		{"reject with reason", models.PrescriptionStatusRejected, "illegible scan", "", 0, false},
		{"reject without reason", models.PrescriptionStatusRejected, "", "", 0, true},
		{"reject with blank reason", models.PrescriptionStatusRejected, "   ", "", 0, true},
		{"reupload with notes", models.PrescriptionStatusReuploadRequired, "", "photo is blurry", 0, false},
		{"reupload without notes", models.PrescriptionStatusReuploadRequired, "", "", 0, true},
		{"pending is not a decision", models.PrescriptionStatusPending, "", "", 0, true},
		{"unknown status", "DISPENSED", "", "", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateReviewInput(tc.status, tc.rejectionReason, tc.reviewNotes, tc.itemCount)
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseReviewItems(t *testing.T) {
	validID := primitive.NewObjectID().Hex()

	t.Run("valid items", func(t *testing.T) {
		parsed, err := parseReviewItems([]reviewItemRequest{
			{Product: validID, Quantity: 3},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(parsed) != 1 || parsed[0].Quantity != 3 {
			t.Errorf("parsed items wrong: %+v", parsed)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		if _, err := parseReviewItems([]reviewItemRequest{{Product: "xyz", Quantity: 1}}); err == nil {
			t.Error("expected error for invalid product id")
		}
	})

	t.Run("zero quantity", func(t *testing.T) {
		if _, err := parseReviewItems([]reviewItemRequest{{Product: validID, Quantity: 0}}); err == nil {
			t.Error("expected error for zero quantity")
		}
	})
}

func TestParseRequestedMedicines(t *testing.T) {
	t.Run("empty value allowed", func(t *testing.T) {
		medicines, err := parseRequestedMedicines("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(medicines) != 0 {
			t.Errorf("expected empty list, got %+v", medicines)
		}
	})

	t.Run("valid payload", func(t *testing.T) {
		raw := `[{"productName":"Panadol","quantity":2,"notes":"after meals"}]`
		medicines, err := parseRequestedMedicines(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(medicines) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(medicines))
		}
		if medicines[0].ProductName != "Panadol" || medicines[0].Quantity != 2 {
			t.Errorf("entry decoded wrong: %+v", medicines[0])
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		if _, err := parseRequestedMedicines("{not json"); err == nil {
			t.Error("expected error for malformed JSON")
		}
	})
}

func TestParseDeliveryAddressForm(t *testing.T) {
	t.Run("missing value", func(t *testing.T) {
		if _, err := parseDeliveryAddressForm(""); err == nil {
			t.Error("expected error for empty address")
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		if _, err := parseDeliveryAddressForm("not json"); err == nil {
			t.Error("expected error for malformed address")
		}
	})

	t.Run("incomplete address", func(t *testing.T) {
		raw := `{"street":"12 Temple Road","city":"Colombo"}`
		if _, err := parseDeliveryAddressForm(raw); err == nil {
			t.Error("expected error for incomplete address")
		}
	})

	t.Run("complete address", func(t *testing.T) {
		raw := `{"street":"12 Temple Road","city":"Colombo","province":"Western","postalCode":"00300","contactPhone":"0771234567"}`
		addr, err := parseDeliveryAddressForm(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if addr.City != "Colombo" || addr.PostalCode != "00300" {
			t.Errorf("address decoded wrong: %+v", addr)
		}
	})
}
