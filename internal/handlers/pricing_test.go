package handlers

import (
	"testing"

	"backend/internal/models"
)

const (
	testFreeThreshold = 5000
	testFlatFee       = 300
)

func TestComputeOrderTotalsIdentity(t *testing.T) {
	items := []models.OrderItem{
		{Quantity: 2, Price: 100},
		{Quantity: 1, Price: 450.5},
		{Quantity: 3, Price: 12.25},
	}
	subtotal, fee, total := computeOrderTotals(items, nil, testFreeThreshold, testFlatFee)
	if want := 2*100 + 450.5 + 3*12.25; subtotal != want {
		t.Fatalf("subtotal = %v, want %v", subtotal, want)
	}
	if total != subtotal+fee {
		t.Fatalf("total %v != subtotal %v + deliveryFee %v", total, subtotal, fee)
	}
}

func TestResolveDeliveryFeeThreshold(t *testing.T) {
	if fee := resolveDeliveryFee(200, nil, testFreeThreshold, testFlatFee); fee != 300 {
		t.Fatalf("expected flat fee 300 below threshold, got %v", fee)
	}
	// exactly at the threshold is not free
	if fee := resolveDeliveryFee(5000, nil, testFreeThreshold, testFlatFee); fee != 300 {
		t.Fatalf("expected flat fee 300 at threshold, got %v", fee)
	}
	if fee := resolveDeliveryFee(5000.01, nil, testFreeThreshold, testFlatFee); fee != 0 {
		t.Fatalf("expected free delivery above threshold, got %v", fee)
	}
}

func TestResolveDeliveryFeeOverride(t *testing.T) {
	override := 150.0
	if fee := resolveDeliveryFee(200, &override, testFreeThreshold, testFlatFee); fee != 150 {
		t.Fatalf("expected override fee 150, got %v", fee)
	}
	zero := 0.0
	if fee := resolveDeliveryFee(200, &zero, testFreeThreshold, testFlatFee); fee != 0 {
		t.Fatalf("expected zero override to apply, got %v", fee)
	}
	negative := -5.0
	if fee := resolveDeliveryFee(200, &negative, testFreeThreshold, testFlatFee); fee != 300 {
		t.Fatalf("expected negative override to fall back to flat fee, got %v", fee)
	}
}

// Pharmacist approves [{qty=2, price=100}] with default delivery fee:
// subtotal 200, fee 300, total 500.
func TestApprovalPricingExample(t *testing.T) {
	items := []models.OrderItem{{Quantity: 2, Price: 100}}
	subtotal, fee, total := computeOrderTotals(items, nil, testFreeThreshold, testFlatFee)
	if subtotal != 200 || fee != 300 || total != 500 {
		t.Fatalf("got subtotal=%v fee=%v total=%v, want 200/300/500", subtotal, fee, total)
	}
}

// Customer orders 3 units at price 50: subtotal 150, fee 300, total 450.
func TestCheckoutPricingExample(t *testing.T) {
	items := []models.OrderItem{{Quantity: 3, Price: 50}}
	subtotal, fee, total := computeOrderTotals(items, nil, testFreeThreshold, testFlatFee)
	if subtotal != 150 || fee != 300 || total != 450 {
		t.Fatalf("got subtotal=%v fee=%v total=%v, want 150/300/450", subtotal, fee, total)
	}
}

// The same pricing function serves OTC checkout and prescription approval;
// identical line items must always price identically.
func TestPricingConsistentAcrossOrigins(t *testing.T) {
	items := []models.OrderItem{
		{Quantity: 4, Price: 1200},
		{Quantity: 1, Price: 350},
	}
	otcSub, otcFee, otcTotal := computeOrderTotals(items, nil, testFreeThreshold, testFlatFee)
	rxSub, rxFee, rxTotal := computeOrderTotals(items, nil, testFreeThreshold, testFlatFee)
	if otcSub != rxSub || otcFee != rxFee || otcTotal != rxTotal {
		t.Fatalf("pricing diverged: otc=%v/%v/%v rx=%v/%v/%v", otcSub, otcFee, otcTotal, rxSub, rxFee, rxTotal)
	}
	if otcFee != 0 {
		t.Fatalf("expected free delivery for subtotal %v, got fee %v", otcSub, otcFee)
	}
}
